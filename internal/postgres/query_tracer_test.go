package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youngchun/callforward/internal/logger"
)

type ctxKey struct{}

var errRecorded = errors.New("recorded")

// recordingQuerier captures the context and SQL reaching the driver layer
type recordingQuerier struct {
	ctx   context.Context
	query string
	args  []interface{}
}

func (q *recordingQuerier) DriverName() string { return "postgres" }

func (q *recordingQuerier) Rebind(query string) string { return sqlx.Rebind(sqlx.DOLLAR, query) }

func (q *recordingQuerier) BindNamed(query string, arg interface{}) (string, []interface{}, error) {
	return sqlx.BindNamed(sqlx.DOLLAR, query, arg)
}

func (q *recordingQuerier) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	q.ctx, q.query, q.args = ctx, query, args
	return nil, errRecorded
}

func (q *recordingQuerier) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return nil
}

func (q *recordingQuerier) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errRecorded
}

func (q *recordingQuerier) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (q *recordingQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errRecorded
}

func (q *recordingQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errRecorded
}

func (q *recordingQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errRecorded
}

func (q *recordingQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return nil, errRecorded
}

func TestTracedQuerier_NamedQueryContextKeepsContext(t *testing.T) {
	base := &recordingQuerier{}
	tq := NewTracedQuerier(base, logger.NewNopLogger(), "tx_1")

	ctx := context.WithValue(context.Background(), ctxKey{}, "req_1")
	_, err := tq.NamedQueryContext(ctx, "SELECT * FROM subscriptions WHERE id = :id", map[string]interface{}{"id": "sub_1"})
	require.ErrorIs(t, err, errRecorded)

	require.NotNil(t, base.ctx)
	assert.Equal(t, "req_1", base.ctx.Value(ctxKey{}))
	assert.Equal(t, "SELECT * FROM subscriptions WHERE id = $1", base.query)
	assert.Equal(t, []interface{}{"sub_1"}, base.args)
}
