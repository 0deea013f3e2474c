package leave

import (
	"context"
	"time"

	"github.com/youngchun/callforward/internal/types"
)

// Link is a one-time tokenized URL sent to a caller to leave a message
type Link struct {
	Token      string                `db:"token" json:"token"`
	CallSid    *string               `db:"call_sid" json:"call_sid,omitempty"`
	FromNumber string                `db:"from_number" json:"from_number"`
	ToNumber   string                `db:"to_number" json:"to_number"`
	CreatedAt  time.Time             `db:"created_at" json:"created_at"`
	ExpiresAt  time.Time             `db:"expires_at" json:"expires_at"`
	UsedAt     *time.Time            `db:"used_at" json:"used_at,omitempty"`
	Status     types.LeaveLinkStatus `db:"status" json:"status"`
}

// Check reports whether the link can still be used at now and why not otherwise
func (l *Link) Check(now time.Time) (bool, types.LeaveLinkInvalidReason) {
	if l == nil {
		return false, types.LeaveLinkReasonNotFound
	}
	if l.ExpiresAt.Before(now) {
		return false, types.LeaveLinkReasonExpired
	}
	if l.UsedAt != nil || l.Status == types.LeaveLinkStatusUsed {
		return false, types.LeaveLinkReasonUsed
	}
	return true, ""
}

// Message is what a caller left through a link
type Message struct {
	ID        string    `db:"id" json:"id"`
	Token     string    `db:"token" json:"token"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	CreateLink(ctx context.Context, link *Link) error
	GetLink(ctx context.Context, token string) (*Link, error)
	// GetLinkByCallSid returns the newest link issued for the call
	GetLinkByCallSid(ctx context.Context, callSid string) (*Link, error)
	// MarkUsed flags an unused link as used. It fails with a not found error when
	// the link does not exist or was already used.
	MarkUsed(ctx context.Context, token string, usedAt time.Time) error
	CreateMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
}
