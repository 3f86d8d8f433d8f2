// Package repository provides generic CRUD repositories over a
// CassandraTemplate.
//
//	people, err := repository.New[Person, string](template)
//	if err != nil {
//	    return err
//	}
//
//	walter, err := people.Save(ctx, &Person{ID: "1", Name: "Walter"})
//	found, err := people.FindByID(ctx, "1")
//
// Entities are passed by pointer so that versions assigned by optimistic
// locking are visible to the caller.
package repository
