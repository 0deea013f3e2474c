package dto

import (
	"time"

	"github.com/youngchun/callforward/internal/domain/usersettings"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/validator"
)

// DateLayout is the calendar date format of travel settings
const DateLayout = "2006-01-02"

// SaveTravelSettingsRequest replaces the trip window of a user. UserID comes from the path.
type SaveTravelSettingsRequest struct {
	UserID      string `json:"-" validate:"required,max=255"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Notify      *bool  `json:"notify,omitempty"`
	MessageType string `json:"message_type,omitempty" validate:"omitempty,max=50"`
	Contact     string `json:"contact,omitempty" validate:"omitempty,max=255"`
}

func (r *SaveTravelSettingsRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	start, end, err := r.Dates()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return ierr.NewError("end date before start date").
			WithHint("End date must not be before start date").
			WithReportableDetails(map[string]any{"start_date": r.StartDate, "end_date": r.EndDate}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Dates parses the trip window as UTC midnights
func (r *SaveTravelSettingsRequest) Dates() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, ierr.WithError(err).
			WithHint("Invalid start date").
			Mark(ierr.ErrValidation)
	}
	end, err := time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, ierr.WithError(err).
			WithHint("Invalid end date").
			Mark(ierr.ErrValidation)
	}
	return start, end, nil
}

// TravelSettingsResponse reports Active while today falls inside the trip
type TravelSettingsResponse struct {
	UserID      string    `json:"user_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Notify      bool      `json:"notify"`
	MessageType string    `json:"message_type"`
	Contact     *string   `json:"contact,omitempty"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewTravelSettingsResponse(s *usersettings.TravelSettings, now time.Time) *TravelSettingsResponse {
	return &TravelSettingsResponse{
		UserID:      s.UserID,
		StartDate:   s.StartDate.Format(DateLayout),
		EndDate:     s.EndDate.Format(DateLayout),
		Notify:      s.Notify,
		MessageType: s.MessageType,
		Contact:     s.Contact,
		Active:      s.Covers(now),
		UpdatedAt:   s.UpdatedAt,
	}
}

// CompletePrepareRequest marks the checklist done. UserID comes from the path.
type CompletePrepareRequest struct {
	UserID     string `json:"-" validate:"required,max=255"`
	CustomerID string `json:"customer_id,omitempty" validate:"omitempty,max=255"`
}

func (r *CompletePrepareRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PrepareStatusResponse struct {
	UserID      string     `json:"user_id"`
	Completed   bool       `json:"completed"`
	CustomerID  *string    `json:"customer_id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
