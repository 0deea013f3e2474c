package usersettings

import (
	"context"
	"time"
)

// DefaultMessageType is used when a user saves travel settings without choosing one
const DefaultMessageType = "reminder"

// TravelSettings is the trip window a user forwards calls for and how callers are told
type TravelSettings struct {
	UserID      string    `db:"user_id" json:"user_id"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	Notify      bool      `db:"notify" json:"notify"`
	MessageType string    `db:"message_type" json:"message_type"`
	Contact     *string   `db:"contact" json:"contact,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Covers reports whether day falls inside the trip, both ends included
func (t *TravelSettings) Covers(day time.Time) bool {
	d := day.UTC().Truncate(24 * time.Hour)
	return !d.Before(t.StartDate) && !d.After(t.EndDate)
}

// PrepareStatus records that a user finished the pre-departure checklist
type PrepareStatus struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	CustomerID       *string   `db:"customer_id" json:"customer_id,omitempty"`
	PrepareCompleted bool      `db:"prepare_completed" json:"prepare_completed"`
	CompletedAt      time.Time `db:"completed_at" json:"completed_at"`
}

type Repository interface {
	// UpsertTravelSettings replaces the settings of the user, keeping the original created_at
	UpsertTravelSettings(ctx context.Context, settings *TravelSettings) error
	GetTravelSettings(ctx context.Context, userID string) (*TravelSettings, error)

	CreatePrepareStatus(ctx context.Context, status *PrepareStatus) error
	// GetLatestPrepareStatus returns the newest completion recorded for the user
	GetLatestPrepareStatus(ctx context.Context, userID string) (*PrepareStatus, error)
}
