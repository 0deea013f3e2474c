package dto

import (
	"time"
)

// AssignResult describes what one assignment did for a user
type AssignResult struct {
	UserID      string    `json:"user_id"`
	Reused      bool      `json:"reused"`
	Purchased   bool      `json:"purchased"`
	Extended    bool      `json:"extended"`
	PhoneNumber string    `json:"twilio_number"`
	ResourceID  string    `json:"twilio_sid"`
	ExpireAt    time.Time `json:"expire_at"`
}

// AssignFailure is one user the batch assignment could not serve
type AssignFailure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// AssignAllResponse summarizes a batch assignment over every entitled subscription
type AssignAllResponse struct {
	Processed int             `json:"processed"`
	Purchased int             `json:"purchased"`
	Reused    int             `json:"reused"`
	Failed    int             `json:"failed"`
	Failures  []AssignFailure `json:"failures,omitempty"`
}

// SweepRowStatus is the outcome of one expired binding in a sweep
type SweepRowStatus string

const (
	SweepRowReleased       SweepRowStatus = "released"
	SweepRowFailedProvider SweepRowStatus = "failed_provider"
	SweepRowFailedLedger   SweepRowStatus = "failed_ledger"
	SweepRowSkipped        SweepRowStatus = "skipped"
)

// SweepRowResult is the operator view of one swept binding
type SweepRowResult struct {
	BindingID   string         `json:"id"`
	UserID      string         `json:"user_id"`
	PhoneNumber string         `json:"twilio_number"`
	ResourceID  string         `json:"twilio_sid"`
	Status      SweepRowStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
}

// MaxSweepResults caps the row results returned by a sweep
const MaxSweepResults = 20

// SweepResponse summarizes one expiry sweep
type SweepResponse struct {
	Checked        int              `json:"checked"`
	Released       int              `json:"released"`
	Failed         int              `json:"failed"`
	FailedProvider int              `json:"failed_provider"`
	FailedLedger   int              `json:"failed_ledger"`
	Skipped        int              `json:"skipped"`
	Results        []SweepRowResult `json:"results"`
}

// AddResult appends r while the operator cap allows it
func (r *SweepResponse) AddResult(row SweepRowResult) {
	if len(r.Results) < MaxSweepResults {
		r.Results = append(r.Results, row)
	}
}
