package postgres

import (
	"context"

	"github.com/youngchun/callforward/internal/domain/callevent"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
)

type callEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewCallEventRepository(db *postgres.DB, logger *logger.Logger) callevent.Repository {
	return &callEventRepository{db: db, logger: logger}
}

func (r *callEventRepository) Record(ctx context.Context, event *callevent.CallEvent) (bool, error) {
	query := `
		INSERT INTO call_events (id, call_sid, user_id, from_number, to_number, created_at)
		VALUES (:id, :call_sid, :user_id, :from_number, :to_number, :created_at)
		ON CONFLICT (call_sid) DO NOTHING
	`

	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return false, wrapWriteErr(err, "record call event", map[string]any{"call_sid": event.CallSid})
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, wrapWriteErr(err, "record call event", map[string]any{"call_sid": event.CallSid})
	}
	return n > 0, nil
}

func (r *callEventRepository) GetByCallSid(ctx context.Context, callSid string) (*callevent.CallEvent, error) {
	query := `SELECT * FROM call_events WHERE call_sid = $1`

	var event callevent.CallEvent
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &event, query, callSid); err != nil {
		return nil, wrapQueryErr(err, "call event", map[string]any{"call_sid": callSid})
	}
	return &event, nil
}
