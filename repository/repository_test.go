package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cassandra "github.com/spring-projects/spring-data-cassandra-sub011"
	"github.com/spring-projects/spring-data-cassandra-sub011/query"
	"github.com/spring-projects/spring-data-cassandra-sub011/test/testutil"
	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

type book struct {
	ISBN  string `cql:"isbn,id"`
	Title string
}

type account struct {
	ID      string `cql:"id,id"`
	Balance int64
	Version int64 `cql:",version"`
}

type ticket struct {
	ID    uuid.UUID `cql:"id,id"`
	Title string
}

type event struct {
	Stream string `cql:"stream,partition"`
	Seq    int64  `cql:"seq,clustering"`
	Body   string
}

type address struct {
	City string
}

func (address) UserTypeName() string { return "address" }

func newRepository[T any, ID any](t *testing.T) (*SimpleRepository[T, ID], *testutil.MockSession) {
	t.Helper()

	session := testutil.NewMockSession()
	template, err := cassandra.NewCassandraTemplate(cassandra.NewSessionFactory(session))
	require.NoError(t, err)

	repo, err := New[T, ID](template)
	require.NoError(t, err)

	return repo, session
}

func TestNew(t *testing.T) {
	_, err := New[book, string](nil)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	session := testutil.NewMockSession()
	template, err := cassandra.NewCassandraTemplate(cassandra.NewSessionFactory(session))
	require.NoError(t, err)

	_, err = New[address, string](template)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	repo, err := New[book, string](template)
	require.NoError(t, err)
	assert.Equal(t, "book", repo.Entity().TableName().Canonical())
}

func TestSaveUnversionedUpserts(t *testing.T) {
	repo, session := newRepository[book, string](t)

	b, err := repo.Save(context.Background(), &book{ISBN: "978", Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, "INSERT INTO book (isbn, title) VALUES (?, ?)", session.LastExecuted().Statement)

	_, err = repo.Save(context.Background(), nil)
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSaveVersioned(t *testing.T) {
	repo, session := newRepository[account, string](t)
	ctx := context.Background()

	a := &account{ID: "acc", Balance: 10}
	_, err := repo.Save(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Version)
	assert.Contains(t, session.LastExecuted().Statement, "IF NOT EXISTS")

	a.Balance = 20
	_, err = repo.Save(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Version)
	assert.Equal(t, "UPDATE account SET balance = ?, version = ? WHERE id = ? IF version = ?", session.LastExecuted().Statement)

	session.On("IF version").NotApplied(nil)
	_, err = repo.Save(ctx, a)
	require.ErrorIs(t, err, types.ErrOptimisticLocking)
}

func TestSaveAll(t *testing.T) {
	repo, session := newRepository[account, string](t)

	accounts := []*account{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	saved, err := repo.SaveAll(context.Background(), accounts)
	require.NoError(t, err)
	assert.Len(t, saved, 3)
	assert.Len(t, session.Executed(), 3)
	for _, a := range accounts {
		assert.Equal(t, int64(1), a.Version)
	}
}

func TestFindByID(t *testing.T) {
	repo, session := newRepository[book, string](t)
	session.On("WHERE isbn = ?").Rows(map[string]any{"isbn": "978", "title": "Dune"}).Once()

	b, err := repo.FindByID(context.Background(), "978")
	require.NoError(t, err)
	assert.Equal(t, &book{ISBN: "978", Title: "Dune"}, b)

	_, err = repo.FindByID(context.Background(), "979")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestFindAllByIDSingleKey(t *testing.T) {
	repo, session := newRepository[book, string](t)
	session.On("isbn IN").Rows(
		map[string]any{"isbn": "1", "title": "A"},
		map[string]any{"isbn": "2", "title": "B"},
	)

	books, err := repo.FindAllByID(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	assert.Len(t, books, 2)
	assert.Equal(t, "SELECT * FROM book WHERE isbn IN (?, ?)", session.LastExecuted().Statement)

	books, err = repo.FindAllByID(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestFindAllByIDSingleUUID(t *testing.T) {
	repo, session := newRepository[ticket, uuid.UUID](t)
	id := uuid.MustParse("3d5a7c1e-9b2f-4e8a-a6d4-1c0f5e7b9a21")
	session.On("id IN").Rows(map[string]any{"id": id, "title": "A"})

	tickets, err := repo.FindAllByID(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, id, tickets[0].ID)

	last := session.LastExecuted()
	assert.Equal(t, "SELECT * FROM ticket WHERE id IN (?)", last.Statement)
	assert.Equal(t, []any{[16]byte(id)}, last.Values)
}

func TestFindAllByIDCompositeKey(t *testing.T) {
	repo, session := newRepository[event, query.MapID](t)
	session.On("SELECT").Rows(map[string]any{"stream": "s", "seq": int64(1), "body": "x"}).Once()

	events, err := repo.FindAllByID(context.Background(), []query.MapID{
		{"stream": "s", "seq": int64(1)},
		{"stream": "s", "seq": int64(2)},
	})
	require.NoError(t, err)
	require.Len(t, events, 1, "missing rows are skipped")
	assert.Equal(t, "x", events[0].Body)
	assert.Len(t, session.Executed(), 2)
}

func TestFindAllFindByAndCount(t *testing.T) {
	repo, session := newRepository[book, string](t)
	ctx := context.Background()
	session.On("COUNT(1)").Rows(map[string]any{"count": int64(2)})
	session.On("SELECT *").Rows(
		map[string]any{"isbn": "1", "title": "A"},
		map[string]any{"isbn": "2", "title": "B"},
	)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := repo.FindBy(ctx, query.NewQuery(query.Where("Title").Is("A")).WithAllowFiltering())
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "SELECT * FROM book WHERE title = ? ALLOW FILTERING", session.LastExecuted().Statement)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestFindSlice(t *testing.T) {
	repo, session := newRepository[book, string](t)
	session.On("SELECT").Rows(map[string]any{"isbn": "1", "title": "A"}).PageState([]byte{1})

	slice, err := repo.FindSlice(context.Background(), query.FirstPage(1))
	require.NoError(t, err)
	assert.Equal(t, 1, slice.NumberOfElements())
	assert.True(t, slice.HasNext)
}

func TestDeletes(t *testing.T) {
	repo, session := newRepository[book, string](t)
	ctx := context.Background()

	require.NoError(t, repo.DeleteByID(ctx, "1"))
	assert.Equal(t, "DELETE FROM book WHERE isbn = ?", session.LastExecuted().Statement)

	require.NoError(t, repo.Delete(ctx, &book{ISBN: "2"}))
	assert.Equal(t, []any{"2"}, session.LastExecuted().Values)
	require.ErrorIs(t, repo.Delete(ctx, nil), types.ErrInvalidArgument)

	session.Reset()
	require.NoError(t, repo.DeleteAllByID(ctx, []string{"3", "4"}))
	require.NoError(t, repo.DeleteAllOf(ctx, []*book{{ISBN: "5"}}))
	assert.Len(t, session.Executed(), 3)

	require.NoError(t, repo.DeleteAll(ctx))
	assert.Equal(t, "TRUNCATE book", session.LastExecuted().Statement)

	ok, err := repo.ExistsByID(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}
