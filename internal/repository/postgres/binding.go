package postgres

import (
	"context"
	"time"

	"github.com/youngchun/callforward/internal/domain/binding"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
)

type bindingRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBindingRepository(db *postgres.DB, logger *logger.Logger) binding.Repository {
	return &bindingRepository{db: db, logger: logger}
}

func (r *bindingRepository) LockUser(ctx context.Context, userID string) error {
	if err := r.db.AdvisoryXactLock(ctx, userID); err != nil {
		return ierr.WithError(err).
			WithHint("Could not lock the user's number binding").
			WithReportableDetails(map[string]any{"user_id": userID}).
			Mark(ierr.ErrLockAcquisitionFailed)
	}
	return nil
}

func (r *bindingRepository) Create(ctx context.Context, b *binding.Binding) error {
	query := `
		INSERT INTO call_forward_numbers (
			id,
			user_id,
			twilio_number,
			twilio_sid,
			start_at,
			expire_at,
			is_released,
			released_at,
			created_at,
			updated_at
		) VALUES (
			:id,
			:user_id,
			:twilio_number,
			:twilio_sid,
			:start_at,
			:expire_at,
			:is_released,
			:released_at,
			:created_at,
			:updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return wrapWriteErr(err, "create number binding", map[string]any{
			"user_id":    b.UserID,
			"twilio_sid": b.ResourceID,
		})
	}
	return nil
}

func (r *bindingRepository) Get(ctx context.Context, id string) (*binding.Binding, error) {
	query := `SELECT * FROM call_forward_numbers WHERE id = $1`

	var b binding.Binding
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &b, query, id); err != nil {
		return nil, wrapQueryErr(err, "number binding", map[string]any{"binding_id": id})
	}
	return &b, nil
}

func (r *bindingRepository) GetActiveByUserID(ctx context.Context, userID string) (*binding.Binding, error) {
	query := `
		SELECT * FROM call_forward_numbers
		WHERE user_id = $1 AND is_released = FALSE
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var b binding.Binding
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &b, query, userID); err != nil {
		return nil, wrapQueryErr(err, "number binding", map[string]any{"user_id": userID})
	}
	return &b, nil
}

func (r *bindingRepository) GetActiveByPhoneNumber(ctx context.Context, phoneNumber string) (*binding.Binding, error) {
	query := `
		SELECT * FROM call_forward_numbers
		WHERE twilio_number = $1 AND is_released = FALSE
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var b binding.Binding
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &b, query, phoneNumber); err != nil {
		return nil, wrapQueryErr(err, "number binding", map[string]any{"twilio_number": phoneNumber})
	}
	return &b, nil
}

func (r *bindingRepository) ExtendExpiry(ctx context.Context, id string, expireAt time.Time) (bool, error) {
	query := `
		UPDATE call_forward_numbers
		SET expire_at = $2, updated_at = NOW()
		WHERE id = $1 AND is_released = FALSE AND expire_at < $2
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, expireAt)
	if err != nil {
		return false, wrapWriteErr(err, "extend number binding", map[string]any{"binding_id": id})
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, wrapWriteErr(err, "extend number binding", map[string]any{"binding_id": id})
	}
	return n > 0, nil
}

func (r *bindingRepository) ListExpired(ctx context.Context, now time.Time) ([]*binding.Binding, error) {
	query := `
		SELECT * FROM call_forward_numbers
		WHERE is_released = FALSE AND expire_at < $1
		ORDER BY expire_at ASC
	`

	var bindings []*binding.Binding
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &bindings, query, now); err != nil {
		return nil, wrapQueryErr(err, "number bindings", nil)
	}
	return bindings, nil
}

func (r *bindingRepository) MarkReleased(ctx context.Context, id string, releasedAt time.Time) error {
	query := `
		UPDATE call_forward_numbers
		SET is_released = TRUE, released_at = $2, updated_at = $2
		WHERE id = $1 AND is_released = FALSE
	`

	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, releasedAt); err != nil {
		return wrapWriteErr(err, "release number binding", map[string]any{"binding_id": id})
	}
	return nil
}
