// Package convert translates between mapped Go values and CQL driver
// values.
//
// A Converter writes entities into column values for INSERT and UPDATE
// statements, reads scanned rows back into structs, converts query
// parameters to the type of the column they are compared with and resolves
// primary key values from ids.
//
// Custom conversions registered with AddWriter and AddReader take
// precedence over the built-in rules:
//
//	conversions := convert.NewConversions()
//	convert.AddWriter(conversions, func(c Color) (any, error) { return c.Name(), nil })
//	convert.AddReader(conversions, func(v any) (Color, error) { return ParseColor(v.(string)) })
//
//	converter := convert.NewConverter(mappingContext, convert.WithConversions(conversions))
package convert
