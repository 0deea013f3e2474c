package pushsubscription

import (
	"context"
	"time"
)

// Subscription is a browser web-push endpoint with its encryption keys
type Subscription struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	UserAgent *string   `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	// Create stores the subscription and reports false when the endpoint is already registered
	Create(ctx context.Context, sub *Subscription) (bool, error)
	ListByUserID(ctx context.Context, userID string) ([]*Subscription, error)
	// Latest returns the most recently registered subscription of any user
	Latest(ctx context.Context) (*Subscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}
