package binding

import (
	"context"
	"time"
)

type Repository interface {
	// LockUser takes the per-user lock for the rest of the enclosing transaction
	LockUser(ctx context.Context, userID string) error

	Create(ctx context.Context, b *Binding) error
	Get(ctx context.Context, id string) (*Binding, error)

	// GetActiveByUserID returns the most recently updated unreleased binding of the user
	GetActiveByUserID(ctx context.Context, userID string) (*Binding, error)

	// GetActiveByPhoneNumber returns the unreleased binding that owns the number
	GetActiveByPhoneNumber(ctx context.Context, phoneNumber string) (*Binding, error)

	// ExtendExpiry moves expire_at forward to expireAt. It never shortens a binding
	// and reports whether a row was changed.
	ExtendExpiry(ctx context.Context, id string, expireAt time.Time) (bool, error)

	// ListExpired returns unreleased bindings whose expiry is before now
	ListExpired(ctx context.Context, now time.Time) ([]*Binding, error)

	// MarkReleased flags the binding as released at releasedAt
	MarkReleased(ctx context.Context, id string, releasedAt time.Time) error
}
