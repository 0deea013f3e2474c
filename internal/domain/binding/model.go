package binding

import (
	"time"

	"github.com/youngchun/callforward/internal/types"
)

// Binding associates a user with a provisioned phone number for a validity window.
// At most one unreleased binding exists per user.
type Binding struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`

	// PhoneNumber is the provisioned number in E.164 form
	PhoneNumber string `db:"twilio_number" json:"twilio_number"`

	// ResourceID is the provider handle used to release the number
	ResourceID string `db:"twilio_sid" json:"twilio_sid"`

	StartAt    time.Time  `db:"start_at" json:"start_at"`
	ExpireAt   time.Time  `db:"expire_at" json:"expire_at"`
	IsReleased bool       `db:"is_released" json:"is_released"`
	ReleasedAt *time.Time `db:"released_at" json:"released_at,omitempty"`

	types.BaseModel
}

// IsExpired reports whether an unreleased binding is past its expiry at now
func (b *Binding) IsExpired(now time.Time) bool {
	return !b.IsReleased && b.ExpireAt.Before(now)
}
