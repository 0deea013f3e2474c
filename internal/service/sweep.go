package service

import (
	"context"
	"time"

	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/binding"
	"github.com/youngchun/callforward/internal/domain/processedevent"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/types"
)

// SweepService releases number bindings whose subscription period has ended
type SweepService interface {
	// Sweep releases every unreleased binding that expired before now.
	// A binding is marked released even when the provider release fails.
	Sweep(ctx context.Context) (*dto.SweepResponse, error)
}

type sweepService struct {
	ServiceParams
}

func NewSweepService(params ServiceParams) SweepService {
	return &sweepService{
		ServiceParams: params,
	}
}

func (s *sweepService) Sweep(ctx context.Context) (*dto.SweepResponse, error) {
	now := s.now()

	expired, err := s.BindingRepo.ListExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	resp := &dto.SweepResponse{
		Checked: len(expired),
		Results: make([]dto.SweepRowResult, 0, min(len(expired), dto.MaxSweepResults)),
	}

	for _, row := range expired {
		result := s.sweepRow(ctx, row, now)

		switch result.Status {
		case dto.SweepRowReleased:
			resp.Released++
		case dto.SweepRowFailedProvider:
			// the ledger flag was still set
			resp.Released++
			resp.Failed++
			resp.FailedProvider++
		case dto.SweepRowFailedLedger:
			resp.Failed++
			resp.FailedLedger++
		case dto.SweepRowSkipped:
			resp.Skipped++
		}
		resp.AddResult(result)
	}

	s.Logger.Infow("swept expired number bindings",
		"checked", resp.Checked,
		"released", resp.Released,
		"failed", resp.Failed,
		"failed_provider", resp.FailedProvider,
		"failed_ledger", resp.FailedLedger,
		"skipped", resp.Skipped,
	)
	return resp, nil
}

// sweepRow releases one binding in its own transaction. The ledger update runs in
// a savepoint so the release marker commits even when the update fails.
func (s *sweepService) sweepRow(ctx context.Context, row *binding.Binding, now time.Time) dto.SweepRowResult {
	result := dto.SweepRowResult{
		BindingID:   row.ID,
		UserID:      row.UserID,
		PhoneNumber: row.PhoneNumber,
		ResourceID:  row.ResourceID,
	}

	var providerErr, ledgerErr error
	skipped := false

	txErr := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			return s.BindingRepo.LockUser(ctx, row.UserID)
		}); err != nil {
			s.Logger.Warnw("sweeping without advisory lock",
				"error", err,
				"binding_id", row.ID,
				"user_id", row.UserID,
			)
		}

		current, err := s.BindingRepo.Get(ctx, row.ID)
		if err != nil {
			return err
		}
		if !current.IsExpired(now) {
			skipped = true
			return nil
		}

		providerErr = s.releaseAtProvider(ctx, current)

		ledgerErr = s.DB.WithTx(ctx, func(ctx context.Context) error {
			return s.BindingRepo.MarkReleased(ctx, current.ID, now)
		})
		return nil
	})
	if txErr != nil {
		ledgerErr = txErr
	}

	switch {
	case skipped && ledgerErr == nil:
		result.Status = dto.SweepRowSkipped
		s.Metrics.RecordSweepRow(metrics.OutcomeSkipped)
		s.Logger.Infow("skipped binding that is no longer expired",
			"binding_id", row.ID,
			"user_id", row.UserID,
		)
	case ledgerErr != nil:
		err := ierr.WithError(ledgerErr).
			WithHint("Failed to mark the number binding released").
			WithReportableDetails(map[string]any{
				"binding_id": row.ID,
				"user_id":    row.UserID,
			}).
			Mark(ierr.ErrLedgerUpdateFailed)
		result.Status = dto.SweepRowFailedLedger
		result.Error = err.Error()
		s.Metrics.RecordSweepRow(metrics.OutcomeLedgerFailed)
		s.Logger.Errorw("failed to mark binding released, will retry on next sweep",
			"error", err,
			"provider_error", providerErr,
			"binding_id", row.ID,
			"user_id", row.UserID,
			"twilio_sid", row.ResourceID,
		)
	case providerErr != nil:
		result.Status = dto.SweepRowFailedProvider
		result.Error = providerErr.Error()
		s.Metrics.RecordSweepRow(metrics.OutcomeProviderFailed)
		s.Logger.Errorw("provider release failed, binding marked released anyway",
			"error", providerErr,
			"binding_id", row.ID,
			"user_id", row.UserID,
			"twilio_sid", row.ResourceID,
			"twilio_number", row.PhoneNumber,
		)
	default:
		result.Status = dto.SweepRowReleased
		s.Metrics.RecordSweepRow(metrics.OutcomeReleased)
		s.Logger.Infow("released expired number",
			"binding_id", row.ID,
			"user_id", row.UserID,
			"twilio_sid", row.ResourceID,
		)
	}
	return result
}

// releaseAtProvider releases the number once per binding. A binding_release
// marker left by an earlier sweep means the provider side is already done.
func (s *sweepService) releaseAtProvider(ctx context.Context, b *binding.Binding) error {
	// marker statements run in savepoints, a failed one must not abort the row
	// transaction before the binding is marked released
	var done bool
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		done, err = s.ProcessedEventRepo.Exists(ctx, types.EventSourceBindingRelease, b.ID)
		return err
	})
	if err != nil {
		s.Logger.Warnw("could not check release marker, releasing at provider",
			"error", err,
			"binding_id", b.ID,
		)
	}
	if done {
		s.Logger.Infow("number already released at provider",
			"binding_id", b.ID,
			"twilio_sid", b.ResourceID,
		)
		return nil
	}

	if err := s.Telephony.Release(ctx, b.ResourceID); err != nil {
		if !ierr.Is(err, ierr.ErrProviderReleaseFailed) {
			err = ierr.WithError(err).
				WithHint("Failed to release phone number").
				Mark(ierr.ErrProviderReleaseFailed)
		}
		return err
	}

	if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		_, err := s.ProcessedEventRepo.Record(ctx, &processedevent.ProcessedEvent{
			Source:    types.EventSourceBindingRelease,
			EventID:   b.ID,
			EventType: "number.released",
			CreatedAt: s.now(),
		})
		return err
	}); err != nil {
		s.Logger.Warnw("failed to record release marker",
			"error", err,
			"binding_id", b.ID,
		)
	}
	return nil
}
