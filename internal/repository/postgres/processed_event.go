package postgres

import (
	"context"

	"github.com/youngchun/callforward/internal/domain/processedevent"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
	"github.com/youngchun/callforward/internal/types"
)

type processedEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewProcessedEventRepository(db *postgres.DB, logger *logger.Logger) processedevent.Repository {
	return &processedEventRepository{db: db, logger: logger}
}

func (r *processedEventRepository) Exists(ctx context.Context, source types.EventSource, eventID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_events WHERE source = $1 AND event_id = $2)`

	var exists bool
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &exists, query, source, eventID); err != nil {
		return false, wrapQueryErr(err, "processed event", map[string]any{
			"source":   source,
			"event_id": eventID,
		})
	}
	return exists, nil
}

func (r *processedEventRepository) Record(ctx context.Context, event *processedevent.ProcessedEvent) (bool, error) {
	query := `
		INSERT INTO processed_events (source, event_id, event_type, created_at)
		VALUES (:source, :event_id, :event_type, :created_at)
		ON CONFLICT (source, event_id) DO NOTHING
	`

	details := map[string]any{
		"source":   event.Source,
		"event_id": event.EventID,
	}

	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return false, wrapWriteErr(err, "record processed event", details)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, wrapWriteErr(err, "record processed event", details)
	}
	return n > 0, nil
}
