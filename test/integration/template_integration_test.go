package integration_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cassandra "github.com/spring-projects/spring-data-cassandra-sub011"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

type customer struct {
	ID    string `cql:"id,id"`
	Name  string
	Email string `cql:"email,index"`
	Tags  []string
	Home  postalAddress
}

type postalAddress struct {
	Street string
	City   string
}

func (customer) TableName() string { return "it_customer" }

func (postalAddress) UserTypeName() string { return "it_address" }

type wallet struct {
	ID      string `cql:"id,id"`
	Balance int64
	Version int64 `cql:",version"`
}

func (wallet) TableName() string { return "it_wallet" }

type reading struct {
	Sensor string `cql:"sensor,partition"`
	Seq    int32  `cql:"seq,clustering"`
	Value  float64
}

func (reading) TableName() string { return "it_reading" }

func TestCassandraTemplateCRUD(t *testing.T) {
	admin := newAdmin(t, nil, customer{})
	ctx := t.Context()

	c := &customer{
		ID:    "c1",
		Name:  "Skyler",
		Email: "skyler@example.com",
		Tags:  []string{"gold"},
		Home:  postalAddress{Street: "308 Negra Arroyo Lane", City: "Albuquerque"},
	}
	_, err := admin.Insert(ctx, c, query.InsertOptions{})
	require.NoError(t, err)

	var loaded customer
	require.NoError(t, admin.SelectOneByID(ctx, "c1", &loaded))
	assert.Equal(t, *c, loaded)

	byEmail, err := cassandra.SelectAs[customer](ctx, admin.CassandraTemplate,
		query.NewQuery(query.Where("Email").Is("skyler@example.com")))
	require.NoError(t, err)
	require.Len(t, byEmail, 1)

	c.Name = "Skyler White"
	_, err = admin.Update(ctx, c, query.UpdateOptions{})
	require.NoError(t, err)

	_, err = admin.UpdateQuery(ctx,
		query.NewQuery(query.Where("ID").Is("c1")),
		query.UpdateOf("Tags", []string{"gold", "vip"}),
		customer{}, query.UpdateOptions{})
	require.NoError(t, err)

	require.NoError(t, admin.SelectOneByID(ctx, "c1", &loaded))
	assert.Equal(t, "Skyler White", loaded.Name)
	assert.Equal(t, []string{"gold", "vip"}, loaded.Tags)

	n, err := admin.Count(ctx, query.EmptyQuery(), customer{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = admin.Delete(ctx, c, query.DeleteOptions{})
	require.NoError(t, err)

	ok, err := admin.ExistsByID(ctx, "c1", customer{})
	require.NoError(t, err)
	assert.False(t, ok)

	err = admin.SelectOneByID(ctx, "c1", &loaded)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestCassandraTemplateOptimisticLocking(t *testing.T) {
	admin := newAdmin(t, nil, wallet{})
	ctx := t.Context()

	w := &wallet{ID: "w1", Balance: 100}
	_, err := admin.Insert(ctx, w, query.InsertOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Version)

	stale := *w

	w.Balance = 50
	_, err = admin.Update(ctx, w, query.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), w.Version)

	stale.Balance = 0
	_, err = admin.Update(ctx, &stale, query.UpdateOptions{})
	require.ErrorIs(t, err, types.ErrOptimisticLocking)

	_, err = admin.Insert(ctx, &wallet{ID: "w1"}, query.InsertOptions{})
	require.ErrorIs(t, err, types.ErrOptimisticLocking)
}

func TestCassandraTemplatePaging(t *testing.T) {
	admin := newAdmin(t, nil, reading{})
	ctx := t.Context()

	readings := make([]*reading, 25)
	for i := range readings {
		readings[i] = &reading{Sensor: "s1", Seq: int32(i), Value: float64(i) / 2}
	}
	require.NoError(t, admin.InsertAll(ctx, readings, query.InsertOptions{}))

	q := query.NewQuery(query.Where("Sensor").Is("s1"))
	page := query.FirstPage(10)
	var seen, pages int
	for {
		slice, err := cassandra.SliceAs[reading](ctx, admin.CassandraTemplate, q, page)
		require.NoError(t, err)
		seen += slice.NumberOfElements()
		pages++
		if !slice.HasNext {
			break
		}
		page, err = slice.NextPageable()
		require.NoError(t, err)
	}
	assert.Equal(t, 25, seen)
	assert.GreaterOrEqual(t, pages, 3)

	var streamed int
	for r, err := range cassandra.StreamAs[reading](ctx, admin.CassandraTemplate, q) {
		require.NoError(t, err)
		assert.Equal(t, "s1", r.Sensor)
		streamed++
	}
	assert.Equal(t, 25, streamed)
}

func TestCassandraTemplateBatch(t *testing.T) {
	admin := newAdmin(t, nil, reading{}, wallet{})
	ctx := t.Context()

	batch := admin.Batch(types.LoggedBatch)
	for i := range 5 {
		batch.Insert(query.InsertOptions{}, &reading{Sensor: "b", Seq: int32(i)})
	}
	batch.Delete(query.DeleteOptions{}, &reading{Sensor: "b", Seq: 0})
	_, err := batch.Execute(ctx)
	require.NoError(t, err)

	n, err := admin.Count(ctx, query.NewQuery(query.Where("Sensor").Is("b")), reading{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	w := &wallet{ID: "bw"}
	conditional := admin.Batch(types.LoggedBatch)
	conditional.Insert(query.InsertOptions{}, w)
	res, err := conditional.Execute(ctx)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, int64(1), w.Version)
}

func TestCqlTemplateOperations(t *testing.T) {
	cluster := getCluster(t)
	ctx := t.Context()

	template, err := cassandra.NewCqlTemplate(cassandra.NewSessionFactory(cluster.CQLSession()))
	require.NoError(t, err)

	table := fmt.Sprintf("%s.it_kv", cluster.Keyspace)
	require.NoError(t, template.Execute(ctx, "CREATE TABLE IF NOT EXISTS "+table+" (k text PRIMARY KEY, v int)"))
	t.Cleanup(func() { _ = template.Execute(t.Context(), "DROP TABLE IF EXISTS "+table) })

	for i := range 3 {
		require.NoError(t, template.Execute(ctx, "INSERT INTO "+table+" (k, v) VALUES (?, ?)", fmt.Sprint(i), i))
	}

	rows, err := template.QueryForMaps(ctx, "SELECT k, v FROM "+table)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	v, err := cassandra.QueryForObject(ctx, template, cassandra.SingleColumn[int](), "SELECT v FROM "+table+" WHERE k = ?", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = template.QueryForMap(ctx, "SELECT v FROM "+table+" WHERE k = ?", "missing")
	require.ErrorIs(t, err, types.ErrNotFound)

	err = template.Execute(ctx, "SELEKT nonsense")
	require.ErrorIs(t, err, types.ErrQuerySyntax)

	future := template.Async().QueryForMaps(ctx, "SELECT k FROM "+table)
	asyncRows, err := future.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, asyncRows, 3)
}
