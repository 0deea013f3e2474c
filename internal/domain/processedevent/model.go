package processedevent

import (
	"context"
	"time"

	"github.com/youngchun/callforward/internal/types"
)

// ProcessedEvent marks an external event or an internal side effect as done.
// The table is append-only and unique on (source, event_id).
type ProcessedEvent struct {
	Source    types.EventSource `db:"source" json:"source"`
	EventID   string            `db:"event_id" json:"event_id"`
	EventType string            `db:"event_type" json:"event_type"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

type Repository interface {
	Exists(ctx context.Context, source types.EventSource, eventID string) (bool, error)

	// Record stores the event and reports false when it was already present
	Record(ctx context.Context, event *ProcessedEvent) (bool, error)
}
