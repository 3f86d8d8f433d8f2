package schema

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/mapping"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

type geo struct {
	Lat float64
	Lng float64
}

type address struct {
	Street string
	Zip    int32
	Geo    geo
}

type person struct {
	ID       uuid.UUID `cql:"id,id"`
	Name     string    `cql:"name,index"`
	Nick     string    `cql:"nick,index=person_nick"`
	Home     address
	Previous []address
}

type sensorReading struct {
	Region string    `cql:"region,partition"`
	Sensor string    `cql:"sensor,partition"`
	At     time.Time `cql:"at,clustering,order=desc"`
	Seq    int32     `cql:"seq,clustering"`
	Value  float64   `cql:"value"`
	Unit   string    `cql:"unit,static"`
}

func (sensorReading) TableName() string { return "readings" }

type fakeExecutor struct {
	executed []string
	rows     map[string][]map[string]any
	failOn   string
}

func (f *fakeExecutor) Execute(_ context.Context, cql string, _ ...any) error {
	if f.failOn != "" && strings.Contains(cql, f.failOn) {
		return errors.New("boom")
	}
	f.executed = append(f.executed, cql)

	return nil
}

func (f *fakeExecutor) QueryForMaps(_ context.Context, cql string, _ ...any) ([]map[string]any, error) {
	for prefix, rows := range f.rows {
		if strings.Contains(cql, prefix) {
			return rows, nil
		}
	}

	return nil, nil
}

func TestKeyspaceCQL(t *testing.T) {
	assert.Equal(t,
		"CREATE KEYSPACE IF NOT EXISTS shop WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 3} AND durable_writes = true;",
		CreateKeyspace("shop").IfNotExists().WithSimpleReplication(3).WithDurableWrites(true).CQL())

	assert.Equal(t,
		"CREATE KEYSPACE shop WITH replication = {'class': 'NetworkTopologyStrategy', 'dc1': 3, 'dc2': 1};",
		CreateKeyspace("shop").WithNetworkReplication(map[string]int{"dc2": 1, "dc1": 3}).CQL())

	assert.Equal(t,
		"ALTER KEYSPACE shop WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 2} AND durable_writes = false;",
		AlterKeyspace("shop").WithSimpleReplication(2).WithDurableWrites(false).CQL())
	assert.Empty(t, AlterKeyspace("shop").Statements())

	assert.Equal(t, "DROP KEYSPACE IF EXISTS shop;", DropKeyspace("shop").IfExists().CQL())
	assert.Equal(t, `DROP KEYSPACE "Shop";`, DropKeyspace(`"Shop"`).CQL())
}

func TestCreateTableCQL(t *testing.T) {
	spec := CreateTable("readings").
		InKeyspace("iot").
		IfNotExists().
		PartitionKeyColumn("region", mapping.Text).
		PartitionKeyColumn("sensor", mapping.Text).
		ClusteredKeyColumn("at", mapping.Timestamp, mapping.Descending).
		Column("value", mapping.Double).
		StaticColumn("unit", mapping.Text).
		With(OptionComment, "sensor data").
		With(OptionDefaultTTL, 3600).
		With(OptionCompaction, map[string]any{"class": "TimeWindowCompactionStrategy"})

	require.NoError(t, spec.Validate())
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS iot.readings (region text, sensor text, at timestamp, value double, unit text STATIC, "+
			"PRIMARY KEY ((region, sensor), at)) WITH CLUSTERING ORDER BY (at DESC) AND "+
			"comment = 'sensor data' AND compaction = {'class': 'TimeWindowCompactionStrategy'} AND default_time_to_live = 3600;",
		spec.CQL())

	simple := CreateTable("person").PartitionKeyColumn("id", mapping.UUID).Column("name", mapping.Text)
	assert.Equal(t, "CREATE TABLE person (id uuid, name text, PRIMARY KEY (id));", simple.CQL())

	escaped := CreateTable("t").PartitionKeyColumn("id", mapping.Int).With(OptionComment, "it's")
	assert.Equal(t, "CREATE TABLE t (id int, PRIMARY KEY (id)) WITH comment = 'it''s';", escaped.CQL())
}

func TestCreateTableValidate(t *testing.T) {
	require.ErrorIs(t, CreateTable("t").Column("a", mapping.Int).Validate(), types.ErrInvalidArgument)
	require.ErrorIs(t, CreateTable("t").PartitionKeyColumn("a", mapping.Int).Column("A", mapping.Int).Validate(),
		types.ErrInvalidArgument)
}

func TestAlterTableStatements(t *testing.T) {
	stmts := AlterTable("person").InKeyspace("ks").
		Add("age", mapping.Int).
		Add("tags", mapping.SetOf(mapping.Text)).
		Drop("legacy").
		Alter("score", mapping.BigInt).
		Rename("id", "person_id").
		With(OptionGCGraceSeconds, 600).
		Statements()

	assert.Equal(t, []string{
		"ALTER TABLE ks.person ADD (age int, tags set<text>);",
		"ALTER TABLE ks.person DROP legacy;",
		"ALTER TABLE ks.person ALTER score TYPE bigint;",
		"ALTER TABLE ks.person RENAME id TO person_id;",
		"ALTER TABLE ks.person WITH gc_grace_seconds = 600;",
	}, stmts)

	assert.Equal(t, []string{"ALTER TABLE person ADD age int;", "ALTER TABLE person DROP (a, b);"},
		AlterTable("person").Add("age", mapping.Int).Drop("a").Drop("b").Statements())
}

func TestDropAndTruncateCQL(t *testing.T) {
	assert.Equal(t, "DROP TABLE IF EXISTS ks.person;", DropTable("person").InKeyspace("ks").IfExists().CQL())
	assert.Equal(t, "TRUNCATE person;", Truncate("person").CQL())
	assert.Equal(t, `TRUNCATE ks."Person";`, Truncate(`"Person"`).InKeyspace("ks").CQL())
}

func TestIndexCQL(t *testing.T) {
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS person_name_idx ON ks.person (name);",
		CreateIndex("person_name_idx", "person", "name").InKeyspace("ks").IfNotExists().CQL())
	assert.Equal(t, "CREATE INDEX ON person (KEYS(attrs));",
		CreateIndex("", "person", "attrs").Target(IndexKeys).CQL())
	assert.Equal(t, "CREATE INDEX ON person (ENTRIES(attrs));",
		CreateIndex("", "person", "attrs").Target(IndexEntries).CQL())
	assert.Equal(t, "CREATE INDEX ON person (FULL(tags));",
		CreateIndex("", "person", "tags").Target(IndexFull).CQL())
	assert.Equal(t,
		"CREATE CUSTOM INDEX name_sai ON person (name) USING 'StorageAttachedIndex' WITH OPTIONS = {'case_sensitive': 'false'};",
		CreateIndex("name_sai", "person", "name").Using("StorageAttachedIndex").WithOption("case_sensitive", "false").CQL())
	assert.Equal(t, "DROP INDEX IF EXISTS ks.person_name_idx;", DropIndex("person_name_idx").InKeyspace("ks").IfExists().CQL())
}

func TestUserTypeCQL(t *testing.T) {
	spec := CreateUserType("address").IfNotExists().Field("street", mapping.Text).Field("zip", mapping.Int)
	require.NoError(t, spec.Validate())
	assert.Equal(t, "CREATE TYPE IF NOT EXISTS address (street text, zip int);", spec.CQL())
	require.ErrorIs(t, CreateUserType("empty").Validate(), types.ErrInvalidArgument)

	assert.Equal(t, []string{
		"ALTER TYPE ks.address ADD city text;",
		"ALTER TYPE ks.address ALTER zip TYPE bigint;",
		"ALTER TYPE ks.address RENAME street TO line1 AND city TO town;",
	}, AlterUserType("address").InKeyspace("ks").
		Add("city", mapping.Text).
		Alter("zip", mapping.BigInt).
		Rename("street", "line1").
		Rename("city", "town").
		Statements())

	assert.Equal(t, "DROP TYPE IF EXISTS address;", DropUserType("address").IfExists().CQL())
}

func TestSpecsFromEntities(t *testing.T) {
	mc := mapping.NewContext()
	people, err := mc.EntityFor(person{})
	require.NoError(t, err)
	readings, err := mc.EntityFor(sensorReading{})
	require.NoError(t, err)

	spec, err := CreateTableSpecification(people, false)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE person (id uuid, name text, nick text, home address, previous list<frozen<address>>, PRIMARY KEY (id));",
		spec.CQL())

	spec, err = CreateTableSpecification(readings, false)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE readings (region text, sensor text, at timestamp, seq int, value double, unit text STATIC, "+
			"PRIMARY KEY ((region, sensor), at, seq)) WITH CLUSTERING ORDER BY (at DESC, seq ASC);",
		spec.CQL())

	spec, err = CreateTableSpecification(people, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(spec.CQL(), "CREATE TABLE IF NOT EXISTS person ("))

	addr, err := mc.EntityFor(address{})
	require.NoError(t, err)
	udt, err := CreateUserTypeSpecification(addr, false)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TYPE address (street text, zip int, geo frozen<geo>);", udt.CQL())
	udt, err = CreateUserTypeSpecification(addr, true)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TYPE IF NOT EXISTS address (street text, zip int, geo frozen<geo>);", udt.CQL())

	_, err = CreateTableSpecification(addr, false)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = CreateUserTypeSpecification(people, false)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	indexes := CreateIndexSpecifications(people, false)
	require.Len(t, indexes, 2)
	assert.Equal(t, "CREATE INDEX person_name_idx ON person (name);", indexes[0].CQL())
	assert.Equal(t, "CREATE INDEX person_nick ON person (nick);", indexes[1].CQL())

	indexes = CreateIndexSpecifications(people, true)
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS person_name_idx ON person (name);", indexes[0].CQL())
}

func TestParseAction(t *testing.T) {
	tests := map[string]Action{
		"":                     ActionNone,
		"none":                 ActionNone,
		"CREATE":               ActionCreate,
		"create-if-not-exists": ActionCreateIfNotExists,
		"recreate":             ActionRecreate,
		"Recreate_Drop_Unused": ActionRecreateDropUnused,
	}
	for input, expected := range tests {
		got, err := ParseAction(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}

	_, err := ParseAction("upsert")
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	var a Action
	require.NoError(t, a.UnmarshalText([]byte("recreate")))
	assert.Equal(t, ActionRecreate, a)
	text, err := ActionCreateIfNotExists.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "create_if_not_exists", string(text))
}

func TestCreatorCreatesInDependencyOrder(t *testing.T) {
	mc := mapping.NewContext()
	require.NoError(t, mc.Register(person{}))

	exec := &fakeExecutor{}
	require.NoError(t, NewCreator(exec).Create(context.Background(), mc, true))

	require.Len(t, exec.executed, 5)
	assert.Equal(t, "CREATE TYPE IF NOT EXISTS geo (lat double, lng double);", exec.executed[0])
	assert.True(t, strings.HasPrefix(exec.executed[1], "CREATE TYPE IF NOT EXISTS address "))
	assert.True(t, strings.HasPrefix(exec.executed[2], "CREATE TABLE IF NOT EXISTS person "))
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS person_name_idx ON person (name);", exec.executed[3])
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS person_nick ON person (nick);", exec.executed[4])
}

func TestCreatorStopsOnError(t *testing.T) {
	mc := mapping.NewContext()
	require.NoError(t, mc.Register(person{}))

	exec := &fakeExecutor{failOn: "CREATE TABLE"}
	err := NewCreator(exec).Create(context.Background(), mc, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_table")
	assert.Len(t, exec.executed, 2)
}

func liveRows() map[string][]map[string]any {
	return map[string][]map[string]any{
		"system_schema.tables": {
			{"table_name": "person"},
			{"table_name": "legacy"},
		},
		"system_schema.columns": {
			{"table_name": "person", "column_name": "id", "kind": "partition_key", "position": 0, "type": "uuid"},
			{"table_name": "person", "column_name": "name", "kind": "regular", "position": -1, "type": "int"},
			{"table_name": "person", "column_name": "home", "kind": "regular", "position": -1, "type": "address"},
			{"table_name": "legacy", "column_name": "k", "kind": "partition_key", "position": 0, "type": "text"},
		},
		"system_schema.types": {
			{"type_name": "geo", "field_names": []string{"lat", "lng"}, "field_types": []string{"double", "double"}},
			{"type_name": "address", "field_names": []string{"street", "geo"}, "field_types": []string{"text", "frozen<geo>"}},
		},
	}
}

func TestLoadLiveSchema(t *testing.T) {
	exec := &fakeExecutor{rows: liveRows()}
	live, err := LoadLiveSchema(context.Background(), exec, "ks")
	require.NoError(t, err)

	assert.Equal(t, []string{"legacy", "person"}, live.TableNames())
	table, ok := live.Table("person")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, table.PartitionKey)
	assert.Empty(t, table.Clustering)
	assert.Equal(t, "int", table.Columns["name"].Type)
	assert.Equal(t, []string{"address", "geo"}, live.UserTypeNames())
	assert.Equal(t, []string{"geo"}, live.UserTypeDependencies("address"))
}

func TestValidateReportsDifferences(t *testing.T) {
	mc := mapping.NewContext()
	require.NoError(t, mc.Register(person{}, sensorReading{}))

	exec := &fakeExecutor{rows: liveRows()}
	diff, err := Validate(context.Background(), exec, mc, "ks")
	require.NoError(t, err)

	require.False(t, diff.IsEmpty())
	require.ErrorIs(t, diff.Err(), ErrSchemaMismatch)
	assert.False(t, diff.Repairable())

	assert.Empty(t, diff.MissingUserTypes)
	require.Len(t, diff.MissingFields, 1)
	assert.Equal(t, "zip", diff.MissingFields[0].Column.Canonical())

	require.Len(t, diff.MissingTables, 1)
	assert.Equal(t, "readings", diff.MissingTables[0].Name().Canonical())

	missing := make([]string, 0, len(diff.MissingColumns))
	for _, c := range diff.MissingColumns {
		missing = append(missing, c.Column.Canonical())
	}
	assert.Equal(t, []string{"nick", "previous"}, missing)

	require.Len(t, diff.TypeMismatches, 1)
	assert.Equal(t, "name", diff.TypeMismatches[0].Column.Canonical())
	assert.Equal(t, "int", diff.TypeMismatches[0].Actual)
	assert.Empty(t, diff.KeyMismatches)

	stmts := diff.RepairStatements()
	require.Len(t, stmts, 3)
	assert.Equal(t, "ALTER TYPE ks.address ADD zip int;", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE ks.readings "))
	assert.Equal(t, "ALTER TABLE ks.person ADD (nick text, previous list<frozen<address>>);", stmts[2])
	assert.Contains(t, diff.String(), "column person.name is int, mapped as text")
}

func TestValidateMatchingSchema(t *testing.T) {
	mc := mapping.NewContext()
	require.NoError(t, mc.Register(sensorReading{}))

	exec := &fakeExecutor{rows: map[string][]map[string]any{
		"system_schema.tables": {{"table_name": "readings"}},
		"system_schema.columns": {
			{"table_name": "readings", "column_name": "region", "kind": "partition_key", "position": 0, "type": "text"},
			{"table_name": "readings", "column_name": "sensor", "kind": "partition_key", "position": 1, "type": "text"},
			{"table_name": "readings", "column_name": "at", "kind": "clustering", "position": 0, "type": "timestamp", "clustering_order": "desc"},
			{"table_name": "readings", "column_name": "seq", "kind": "clustering", "position": 1, "type": "int", "clustering_order": "asc"},
			{"table_name": "readings", "column_name": "value", "kind": "regular", "position": -1, "type": "double"},
			{"table_name": "readings", "column_name": "unit", "kind": "static", "position": -1, "type": "text"},
		},
	}}

	diff, err := Validate(context.Background(), exec, mc, "iot")
	require.NoError(t, err)
	assert.True(t, diff.IsEmpty(), diff.String())
	assert.NoError(t, diff.Err())
}

func TestValidateKeyMismatch(t *testing.T) {
	mc := mapping.NewContext()
	require.NoError(t, mc.Register(sensorReading{}))

	exec := &fakeExecutor{rows: map[string][]map[string]any{
		"system_schema.tables": {{"table_name": "readings"}},
		"system_schema.columns": {
			{"table_name": "readings", "column_name": "region", "kind": "partition_key", "position": 0, "type": "text"},
			{"table_name": "readings", "column_name": "sensor", "kind": "clustering", "position": 0, "type": "text"},
			{"table_name": "readings", "column_name": "at", "kind": "clustering", "position": 1, "type": "timestamp"},
			{"table_name": "readings", "column_name": "seq", "kind": "clustering", "position": 2, "type": "int"},
		},
	}}

	diff, err := Validate(context.Background(), exec, mc, "iot")
	require.NoError(t, err)
	require.Len(t, diff.KeyMismatches, 2)
	assert.Contains(t, diff.KeyMismatches[0], "partition key is (region), mapped as (region, sensor)")
}

func TestApplyRecreateDropUnused(t *testing.T) {
	mc := mapping.NewContext()
	require.NoError(t, mc.Register(person{}))

	exec := &fakeExecutor{rows: liveRows()}
	require.NoError(t, Apply(context.Background(), exec, mc, "ks", ActionRecreateDropUnused))

	require.GreaterOrEqual(t, len(exec.executed), 4)
	assert.Equal(t, []string{
		"DROP TABLE IF EXISTS ks.legacy;",
		"DROP TABLE IF EXISTS ks.person;",
		"DROP TYPE IF EXISTS ks.address;",
		"DROP TYPE IF EXISTS ks.geo;",
	}, exec.executed[:4])
	assert.True(t, strings.HasPrefix(exec.executed[4], "CREATE TYPE geo "))
}

func TestApplyRecreateKeepsUnmappedTables(t *testing.T) {
	mc := mapping.NewContext()
	require.NoError(t, mc.Register(person{}))

	exec := &fakeExecutor{rows: liveRows()}
	require.NoError(t, Apply(context.Background(), exec, mc, "ks", ActionRecreate))
	assert.NotContains(t, exec.executed, "DROP TABLE IF EXISTS ks.legacy;")
	assert.Contains(t, exec.executed, "DROP TABLE IF EXISTS ks.person;")

	exec = &fakeExecutor{}
	require.NoError(t, Apply(context.Background(), exec, mc, "ks", ActionNone))
	assert.Empty(t, exec.executed)
}
