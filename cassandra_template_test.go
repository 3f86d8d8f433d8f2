package cassandra

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/event"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/test/testutil"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

type person struct {
	ID   string `cql:"id,id"`
	Name string
	Age  int32
}

type ledger struct {
	ID      string `cql:"id,id"`
	Balance int64
	Version int64 `cql:",version"`
}

type audited struct {
	ID   string `cql:"id,id"`
	Name string

	converted bool
	loaded    bool
	saved     map[string]any
}

func (a *audited) BeforeConvert(_ context.Context, _ string) error {
	if a.Name == "" {
		return errors.New("name required")
	}
	a.converted = true

	return nil
}

func (a *audited) BeforeSave(_ context.Context, _ string, columns map[string]any) error {
	a.saved = columns
	return nil
}

func (a *audited) AfterLoad(_ context.Context, _ string) error {
	a.loaded = true
	return nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *eventRecorder) listener(_ context.Context, e event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)

	return nil
}

func (r *eventRecorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]event.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}

	return out
}

func newTestTemplate(t *testing.T, opts ...Option) (*CassandraTemplate, *testutil.MockSession) {
	t.Helper()

	session := testutil.NewMockSession()
	template, err := NewCassandraTemplate(NewSessionFactory(session), opts...)
	require.NoError(t, err)

	return template, session
}

func TestNewCassandraTemplateFromNil(t *testing.T) {
	_, err := NewCassandraTemplateFrom(nil)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestCassandraTemplateSelect(t *testing.T) {
	metrics := testutil.NewTestMetricsCollector()
	template, session := newTestTemplate(t, WithMetrics(metrics))
	session.On("FROM person").Rows(
		map[string]any{"id": "1", "name": "Walter", "age": int32(50)},
		map[string]any{"id": "2", "name": "Skyler", "age": int32(40)},
	)

	var people []person
	err := template.Select(context.Background(), query.NewQuery(query.Where("Name").Is("Walter")).WithAllowFiltering(), &people)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, person{ID: "1", Name: "Walter", Age: 50}, people[0])

	last := session.LastExecuted()
	assert.Equal(t, "SELECT * FROM person WHERE name = ? ALLOW FILTERING", last.Statement)
	assert.Equal(t, []any{"Walter"}, last.Values)
	assert.Equal(t, 1, metrics.GetMappedEntities())

	var pointers []*person
	require.NoError(t, template.Select(context.Background(), query.EmptyQuery(), &pointers))
	require.Len(t, pointers, 2)
	assert.Equal(t, "Skyler", pointers[1].Name)
}

func TestCassandraTemplateSelectInvalidDestination(t *testing.T) {
	template, _ := newTestTemplate(t)

	var people []person
	err := template.Select(context.Background(), query.EmptyQuery(), people)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	var p person
	err = template.SelectOne(context.Background(), query.EmptyQuery(), p)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestCassandraTemplateSelectAs(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("FROM person").Rows(map[string]any{"id": "1", "name": "Walter"})

	people, err := SelectAs[person](context.Background(), template, query.EmptyQuery())
	require.NoError(t, err)
	assert.Equal(t, []person{{ID: "1", Name: "Walter"}}, people)

	one, err := SelectOneAs[person](context.Background(), template, query.EmptyQuery())
	require.NoError(t, err)
	assert.Equal(t, "Walter", one.Name)
}

func TestCassandraTemplateSelectOneByID(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("FROM person WHERE id = ?").Rows(map[string]any{"id": "1", "name": "Walter"}).Once()

	var p person
	require.NoError(t, template.SelectOneByID(context.Background(), "1", &p))
	assert.Equal(t, "Walter", p.Name)
	assert.Equal(t, "SELECT * FROM person WHERE id = ?", session.LastExecuted().Statement)
	assert.Equal(t, []any{"1"}, session.LastExecuted().Values)

	err := template.SelectOneByID(context.Background(), "2", &p)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestCassandraTemplateCountAndExists(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("COUNT(1)").Rows(map[string]any{"count": int64(7)})
	session.On("SELECT id FROM person WHERE id = ?").Rows(map[string]any{"id": "1"}).Once()

	n, err := template.Count(context.Background(), query.EmptyQuery(), person{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "SELECT COUNT(1) FROM person", session.LastExecuted().Statement)

	ok, err := template.ExistsByID(context.Background(), "1", person{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = template.ExistsByID(context.Background(), "1", person{})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = template.Exists(context.Background(), query.NewQuery(query.Where("ID").Is("1")), person{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCassandraTemplateSlice(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("FROM person").Rows(
		map[string]any{"id": "1", "name": "Walter"},
		map[string]any{"id": "2", "name": "Skyler"},
	).PageState([]byte("next")).Once()
	session.On("FROM person").Rows(map[string]any{"id": "3", "name": "Jesse"}).Once()

	ctx := context.Background()
	first, err := SliceAs[person](ctx, template, query.EmptyQuery(), query.FirstPage(2))
	require.NoError(t, err)
	assert.Equal(t, 2, first.NumberOfElements())
	assert.True(t, first.HasNext)
	assert.Equal(t, 2, session.LastExecuted().PageSize)

	next, err := first.NextPageable()
	require.NoError(t, err)
	assert.Equal(t, 1, next.PageNumber())

	second, err := template.Slice(ctx, query.EmptyQuery(), next, person{})
	require.NoError(t, err)
	require.Len(t, second.Content, 1)
	assert.Equal(t, "Jesse", second.Content[0].(*person).Name)
	assert.False(t, second.HasNext)
	assert.Equal(t, []byte("next"), session.LastExecuted().PageState)

	_, err = second.NextPageable()
	require.ErrorIs(t, err, types.ErrNoPagingState)
}

func TestCassandraTemplateStream(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("FROM person").Rows(
		map[string]any{"id": "1", "name": "Walter"},
		map[string]any{"id": "2", "name": "Skyler"},
		map[string]any{"id": "3", "name": "Jesse"},
	)

	var names []string
	for p, err := range StreamAs[*person](context.Background(), template, query.EmptyQuery()) {
		require.NoError(t, err)
		names = append(names, p.Name)
		if len(names) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"Walter", "Skyler"}, names)

	count := 0
	for v, err := range template.Stream(context.Background(), query.EmptyQuery(), person{}) {
		require.NoError(t, err)
		assert.IsType(t, &person{}, v)
		count++
	}
	assert.Equal(t, 3, count)
}

func TestCassandraTemplateStreamError(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("FROM person").Err(errors.New("unavailable"))

	var errs []error
	for _, err := range StreamAs[person](context.Background(), template, query.EmptyQuery()) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], types.ErrUncategorized)
}

func TestCassandraTemplateInsert(t *testing.T) {
	template, session := newTestTemplate(t)

	res, err := template.Insert(context.Background(), person{ID: "1", Name: "Walter", Age: 50}, query.InsertOptions{})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	last := session.LastExecuted()
	assert.Equal(t, "INSERT INTO person (id, name, age) VALUES (?, ?, ?)", last.Statement)
	assert.Equal(t, []any{"1", "Walter", int32(50)}, last.Values)
}

func TestCassandraTemplateInsertIfNotExists(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("IF NOT EXISTS").NotApplied(map[string]any{"id": "1", "name": "Jesse"})

	res, err := template.Insert(context.Background(), person{ID: "1", Name: "Walter"}, query.InsertOptions{IfNotExists: true})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "Jesse", res.Existing["name"])
}

func TestCassandraTemplateVersionedInsert(t *testing.T) {
	template, session := newTestTemplate(t)

	l := &ledger{ID: "acc", Balance: 10}
	_, err := template.Insert(context.Background(), l, query.InsertOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.Version)
	assert.Equal(t, "INSERT INTO ledger (id, balance, version) VALUES (?, ?, ?) IF NOT EXISTS", session.LastExecuted().Statement)

	_, err = template.Insert(context.Background(), ledger{ID: "acc"}, query.InsertOptions{})
	require.ErrorIs(t, err, types.ErrInvalidArgument, "versioned entities need a pointer")
}

func TestCassandraTemplateVersionedUpdate(t *testing.T) {
	template, session := newTestTemplate(t)

	l := &ledger{ID: "acc", Balance: 20, Version: 3}
	_, err := template.Update(context.Background(), l, query.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), l.Version)

	last := session.LastExecuted()
	assert.Equal(t, "UPDATE ledger SET balance = ?, version = ? WHERE id = ? IF version = ?", last.Statement)
	assert.Equal(t, []any{int64(20), int64(4), "acc", int64(3)}, last.Values)
}

func TestCassandraTemplateOptimisticLocking(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("IF version").NotApplied(map[string]any{"version": int64(5)})

	l := &ledger{ID: "acc", Balance: 20, Version: 3}
	_, err := template.Update(context.Background(), l, query.UpdateOptions{})
	require.ErrorIs(t, err, types.ErrOptimisticLocking)
	assert.Contains(t, err.Error(), "version 3 is stale")
	assert.Equal(t, int64(3), l.Version, "version is kept on a stale write")

	_, err = template.Delete(context.Background(), l, query.DeleteOptions{})
	require.ErrorIs(t, err, types.ErrOptimisticLocking)
	assert.Contains(t, err.Error(), "version 3 is stale")
}

func TestCassandraTemplateDelete(t *testing.T) {
	template, session := newTestTemplate(t)
	ctx := context.Background()

	_, err := template.Delete(ctx, person{ID: "1"}, query.DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM person WHERE id = ?", session.LastExecuted().Statement)

	require.NoError(t, template.DeleteByID(ctx, "2", person{}))
	assert.Equal(t, []any{"2"}, session.LastExecuted().Values)

	_, err = template.DeleteQuery(ctx, query.NewQuery(query.Where("ID").Is("3")), person{}, query.DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM person WHERE id = ?", session.LastExecuted().Statement)

	require.NoError(t, template.Truncate(ctx, person{}))
	assert.Equal(t, "TRUNCATE person", session.LastExecuted().Statement)
}

func TestCassandraTemplateUpdateQuery(t *testing.T) {
	template, session := newTestTemplate(t)

	_, err := template.UpdateQuery(context.Background(),
		query.NewQuery(query.Where("ID").Is("1")),
		query.UpdateOf("Name", "Heisenberg"),
		person{}, query.UpdateOptions{})
	require.NoError(t, err)

	last := session.LastExecuted()
	assert.Equal(t, "UPDATE person SET name = ? WHERE id = ?", last.Statement)
	assert.Equal(t, []any{"Heisenberg", "1"}, last.Values)
}

func TestCassandraTemplateInsertAll(t *testing.T) {
	template, session := newTestTemplate(t, WithWriteConcurrency(2))

	ledgers := []ledger{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	require.NoError(t, template.InsertAll(context.Background(), ledgers, query.InsertOptions{}))

	for _, l := range ledgers {
		assert.Equal(t, int64(1), l.Version)
	}

	ids := make([]string, 0, 3)
	for _, s := range session.Executed() {
		ids = append(ids, s.Values[0].(string))
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	err := template.InsertAll(context.Background(), ledger{ID: "x"}, query.InsertOptions{})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestCassandraTemplateDeleteAllStopsOnError(t *testing.T) {
	template, session := newTestTemplate(t)
	session.On("DELETE").Err(errors.New("boom"))

	err := template.DeleteAll(context.Background(), []*person{{ID: "1"}, {ID: "2"}}, query.DeleteOptions{})
	require.Error(t, err)
}

func TestCassandraTemplateRejectsUserTypes(t *testing.T) {
	type address struct {
		Street string
	}
	type customer struct {
		ID   string  `cql:"id,id"`
		Home address `cql:",frozen"`
	}

	template, _ := newTestTemplate(t)
	_, err := template.Insert(context.Background(), customer{ID: "1"}, query.InsertOptions{})
	require.NoError(t, err)

	_, err = template.Insert(context.Background(), address{Street: "Negra Arroyo"}, query.InsertOptions{})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestCassandraTemplateLifecycleEvents(t *testing.T) {
	recorder := &eventRecorder{}
	multicaster := event.NewMulticaster()
	multicaster.Subscribe(recorder.listener)

	metrics := testutil.NewTestMetricsCollector()
	template, session := newTestTemplate(t, WithEventPublisher(multicaster), WithMetrics(metrics))
	ctx := context.Background()

	_, err := template.Insert(ctx, person{ID: "1", Name: "Walter"}, query.InsertOptions{})
	require.NoError(t, err)
	assert.Equal(t, []event.Type{event.BeforeConvert, event.BeforeSave, event.AfterSave}, recorder.types())
	assert.Equal(t, "Walter", recorder.events[1].Columns["name"])
	assert.Equal(t, "person", recorder.events[2].Table)
	assert.Equal(t, int64(1), metrics.GetEventsPublished("after_save"))

	recorder.events = nil
	session.On("FROM person").Rows(map[string]any{"id": "1", "name": "Walter"})
	_, err = SelectAs[person](ctx, template, query.EmptyQuery())
	require.NoError(t, err)
	assert.Equal(t, []event.Type{event.AfterLoad, event.AfterConvert}, recorder.types())

	recorder.events = nil
	require.NoError(t, template.DeleteByID(ctx, "1", person{}))
	assert.Equal(t, []event.Type{event.BeforeDelete, event.AfterDelete}, recorder.types())
	assert.Equal(t, "1", recorder.events[0].Entity)
}

func TestCassandraTemplateLifecycleEventsDisabled(t *testing.T) {
	recorder := &eventRecorder{}
	multicaster := event.NewMulticaster()
	multicaster.Subscribe(recorder.listener)

	template, _ := newTestTemplate(t, WithEventPublisher(multicaster), WithEntityLifecycleEvents(false))

	a := &audited{ID: "1"}
	_, err := template.Insert(context.Background(), a, query.InsertOptions{})
	require.NoError(t, err, "callbacks are skipped")
	assert.Empty(t, recorder.types())
}

func TestCassandraTemplatePublishFailureDoesNotFail(t *testing.T) {
	metrics := testutil.NewTestMetricsCollector()
	failing := event.PublisherFunc(func(context.Context, event.Event) error {
		return errors.New("broker down")
	})
	template, _ := newTestTemplate(t, WithEventPublisher(failing), WithMetrics(metrics))

	_, err := template.Insert(context.Background(), person{ID: "1"}, query.InsertOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.GetEventPublishErrors("before_convert"))
}

func TestCassandraTemplateEntityCallbacks(t *testing.T) {
	template, session := newTestTemplate(t)
	ctx := context.Background()

	a := &audited{ID: "1", Name: "Walter"}
	_, err := template.Insert(ctx, a, query.InsertOptions{})
	require.NoError(t, err)
	assert.True(t, a.converted)
	assert.Equal(t, map[string]any{"id": "1", "name": "Walter"}, a.saved)

	session.Reset()
	_, err = template.Insert(ctx, &audited{ID: "2"}, query.InsertOptions{})
	require.EqualError(t, err, "name required")
	assert.Empty(t, session.Executed(), "a failing callback aborts the write")

	session.On("FROM audited").Rows(map[string]any{"id": "1", "name": "Walter"})
	loaded, err := SelectOneAs[audited](ctx, template, query.EmptyQuery())
	require.NoError(t, err)
	assert.True(t, loaded.loaded)
}
