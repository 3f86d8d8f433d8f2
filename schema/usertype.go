package schema

import (
	"strings"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// FieldSpec is one field of a user-defined type.
type FieldSpec struct {
	Name types.Identifier
	Type mapping.DataType
}

// CreateUserTypeSpec renders CREATE TYPE.
type CreateUserTypeSpec struct {
	keyspace    types.Identifier
	name        types.Identifier
	ifNotExists bool
	fields      []FieldSpec
}

// CreateUserType starts a CREATE TYPE.
func CreateUserType(name string) *CreateUserTypeSpec {
	return CreateUserTypeFor(types.ParseIdentifier(name))
}

// CreateUserTypeFor starts a CREATE TYPE for an identifier.
func CreateUserTypeFor(name types.Identifier) *CreateUserTypeSpec {
	return &CreateUserTypeSpec{name: name}
}

// InKeyspace qualifies the type with a keyspace.
func (s *CreateUserTypeSpec) InKeyspace(keyspace string) *CreateUserTypeSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

// IfNotExists adds IF NOT EXISTS.
func (s *CreateUserTypeSpec) IfNotExists() *CreateUserTypeSpec {
	s.ifNotExists = true
	return s
}

// Field adds a field.
func (s *CreateUserTypeSpec) Field(name string, dt mapping.DataType) *CreateUserTypeSpec {
	s.fields = append(s.fields, FieldSpec{Name: types.ParseIdentifier(name), Type: dt})
	return s
}

// Name returns the type name.
func (s *CreateUserTypeSpec) Name() types.Identifier { return s.name }

// Fields returns the fields in declaration order.
func (s *CreateUserTypeSpec) Fields() []FieldSpec {
	return append([]FieldSpec(nil), s.fields...)
}

// Validate checks that the type has at least one field.
func (s *CreateUserTypeSpec) Validate() error {
	if len(s.fields) == 0 {
		return types.InvalidArgumentf("user type %s has no fields", s.name.CQL())
	}

	return nil
}

// CQL renders the statement.
func (s *CreateUserTypeSpec) CQL() string {
	fields := make([]string, len(s.fields))
	for i, f := range s.fields {
		fields[i] = f.Name.CQL() + " " + f.Type.String()
	}

	return "CREATE TYPE " + ifNotExists(s.ifNotExists) + qualified(s.keyspace, s.name) +
		" (" + strings.Join(fields, ", ") + ");"
}

// Statements implements Spec.
func (s *CreateUserTypeSpec) Statements() []string { return []string{s.CQL()} }

// AlterUserTypeSpec renders ALTER TYPE.
type AlterUserTypeSpec struct {
	keyspace types.Identifier
	name     types.Identifier
	adds     []FieldSpec
	alters   []FieldSpec
	renames  [][2]types.Identifier
}

// AlterUserType starts an ALTER TYPE.
func AlterUserType(name string) *AlterUserTypeSpec {
	return AlterUserTypeFor(types.ParseIdentifier(name))
}

// AlterUserTypeFor starts an ALTER TYPE for an identifier.
func AlterUserTypeFor(name types.Identifier) *AlterUserTypeSpec {
	return &AlterUserTypeSpec{name: name}
}

// InKeyspace qualifies the type with a keyspace.
func (s *AlterUserTypeSpec) InKeyspace(keyspace string) *AlterUserTypeSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

func (s *AlterUserTypeSpec) inKeyspace(keyspace types.Identifier) *AlterUserTypeSpec {
	s.keyspace = keyspace
	return s
}

// Add adds a field.
func (s *AlterUserTypeSpec) Add(name string, dt mapping.DataType) *AlterUserTypeSpec {
	s.adds = append(s.adds, FieldSpec{Name: types.ParseIdentifier(name), Type: dt})
	return s
}

// Alter changes the type of a field.
func (s *AlterUserTypeSpec) Alter(name string, dt mapping.DataType) *AlterUserTypeSpec {
	s.alters = append(s.alters, FieldSpec{Name: types.ParseIdentifier(name), Type: dt})
	return s
}

// Rename renames a field.
func (s *AlterUserTypeSpec) Rename(from, to string) *AlterUserTypeSpec {
	s.renames = append(s.renames, [2]types.Identifier{types.ParseIdentifier(from), types.ParseIdentifier(to)})
	return s
}

// Statements implements Spec.
func (s *AlterUserTypeSpec) Statements() []string {
	prefix := "ALTER TYPE " + qualified(s.keyspace, s.name) + " "

	var out []string
	for _, f := range s.adds {
		out = append(out, prefix+"ADD "+f.Name.CQL()+" "+f.Type.String()+";")
	}
	for _, f := range s.alters {
		out = append(out, prefix+"ALTER "+f.Name.CQL()+" TYPE "+f.Type.String()+";")
	}
	if len(s.renames) > 0 {
		parts := make([]string, len(s.renames))
		for i, r := range s.renames {
			parts[i] = r[0].CQL() + " TO " + r[1].CQL()
		}
		out = append(out, prefix+"RENAME "+strings.Join(parts, " AND ")+";")
	}

	return out
}

// DropUserTypeSpec renders DROP TYPE.
type DropUserTypeSpec struct {
	keyspace types.Identifier
	name     types.Identifier
	ifExists bool
}

// DropUserType starts a DROP TYPE.
func DropUserType(name string) *DropUserTypeSpec {
	return DropUserTypeFor(types.ParseIdentifier(name))
}

// DropUserTypeFor starts a DROP TYPE for an identifier.
func DropUserTypeFor(name types.Identifier) *DropUserTypeSpec {
	return &DropUserTypeSpec{name: name}
}

// InKeyspace qualifies the type with a keyspace.
func (s *DropUserTypeSpec) InKeyspace(keyspace string) *DropUserTypeSpec {
	s.keyspace = types.ParseIdentifier(keyspace)
	return s
}

// IfExists adds IF EXISTS.
func (s *DropUserTypeSpec) IfExists() *DropUserTypeSpec {
	s.ifExists = true
	return s
}

// CQL renders the statement.
func (s *DropUserTypeSpec) CQL() string {
	return "DROP TYPE " + ifExists(s.ifExists) + qualified(s.keyspace, s.name) + ";"
}

// Statements implements Spec.
func (s *DropUserTypeSpec) Statements() []string { return []string{s.CQL()} }
