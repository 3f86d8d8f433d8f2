package vm

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	var buf bytes.Buffer
	c.WritePrometheus(&buf)

	return buf.String()
}

func TestCollectorStatements(t *testing.T) {
	c := New(WithPrefix("test"), WithMetricsSet(metrics.NewSet()))

	c.IncStatementTotal(types.StatementSelect)
	c.IncStatementTotal(types.StatementSelect)
	c.ObserveStatementDuration(types.StatementSelect, 0.01)
	c.AddRowsRead(types.StatementSelect, 5)
	c.AddRowsRead(types.StatementSelect, 0)
	c.IncWriteNotApplied(types.StatementUpdate)
	c.IncStatementError(types.StatementInsert, types.KindWriteTimeout)
	c.IncStatementTotal(types.StatementKind("custom"))

	out := scrape(t, c)
	assert.Contains(t, out, `test_statements_total{kind="select"} 2`)
	assert.Contains(t, out, `test_statement_duration_seconds_count{kind="select"} 1`)
	assert.Contains(t, out, `test_rows_read_total{kind="select"} 5`)
	assert.Contains(t, out, `test_write_not_applied_total{kind="update"} 1`)
	assert.Contains(t, out, `test_statement_errors_total{kind="insert",error="write_timeout"} 1`)
	assert.Contains(t, out, `test_statements_total{kind="other"} 1`)
}

func TestCollectorEventsAndSchema(t *testing.T) {
	c := New(WithMetricsSet(metrics.NewSet()))

	c.IncEventPublished("after_save")
	c.IncEventPublishError("after_save")
	c.IncSchemaStatement("create_table")
	c.SetMappedEntities(3)

	out := scrape(t, c)
	assert.Contains(t, out, `cassandra_events_published_total{type="after_save"} 1`)
	assert.Contains(t, out, `cassandra_event_publish_errors_total{type="after_save"} 1`)
	assert.Contains(t, out, `cassandra_schema_statements_total{action="create_table"} 1`)
	assert.Contains(t, out, `cassandra_mapped_entities 3`)
}

func TestCollectorHandler(t *testing.T) {
	c := New(WithPrefix("handler"), WithMetricsSet(metrics.NewSet()))
	c.IncStatementTotal(types.StatementBatch)

	rec := httptest.NewRecorder()
	c.Handler(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `handler_statements_total{kind="batch"} 1`)
	assert.NotNil(t, c.Set())
}

func TestErrorKindLabel(t *testing.T) {
	assert.Equal(t, "overloaded", ErrorKindLabel(types.KindOverloaded))
	assert.Equal(t, "uncategorized", ErrorKindLabel(types.ErrorKind(99)))
}
