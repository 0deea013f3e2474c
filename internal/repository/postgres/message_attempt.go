package postgres

import (
	"context"
	"database/sql"

	"github.com/youngchun/callforward/internal/domain/messageattempt"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
	"github.com/youngchun/callforward/internal/types"
)

type messageAttemptRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewMessageAttemptRepository(db *postgres.DB, logger *logger.Logger) messageattempt.Repository {
	return &messageAttemptRepository{db: db, logger: logger}
}

func (r *messageAttemptRepository) Create(ctx context.Context, attempt *messageattempt.Attempt) error {
	query := `
		INSERT INTO message_attempts (
			id,
			call_sid,
			kind,
			to_number,
			request_stage,
			twilio_message_sid,
			twilio_status,
			twilio_error_code,
			error_message,
			created_at,
			updated_at
		) VALUES (
			:id,
			:call_sid,
			:kind,
			:to_number,
			:request_stage,
			:twilio_message_sid,
			:twilio_status,
			:twilio_error_code,
			:error_message,
			:created_at,
			:updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return wrapWriteErr(err, "create message attempt", map[string]any{"call_sid": attempt.CallSid})
	}
	return nil
}

func (r *messageAttemptRepository) Get(ctx context.Context, id string) (*messageattempt.Attempt, error) {
	query := `SELECT * FROM message_attempts WHERE id = $1`

	var attempt messageattempt.Attempt
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &attempt, query, id); err != nil {
		return nil, wrapQueryErr(err, "message attempt", map[string]any{"attempt_id": id})
	}
	return &attempt, nil
}

func (r *messageAttemptRepository) MarkSent(ctx context.Context, id, messageSid string) error {
	query := `
		UPDATE message_attempts
		SET request_stage = $2, twilio_message_sid = $3, updated_at = NOW()
		WHERE id = $1
	`

	return r.update(ctx, id, query, id, types.MessageAttemptStageSent, messageSid)
}

func (r *messageAttemptRepository) MarkFailed(ctx context.Context, id, reason string) error {
	query := `
		UPDATE message_attempts
		SET request_stage = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1
	`

	return r.update(ctx, id, query, id, types.MessageAttemptStageFailed, reason)
}

func (r *messageAttemptRepository) RecordCallback(ctx context.Context, status messageattempt.DeliveryStatus) error {
	query := `
		UPDATE message_attempts
		SET
			request_stage = $2,
			twilio_message_sid = COALESCE(twilio_message_sid, NULLIF($3, '')),
			twilio_status = COALESCE(NULLIF($4, ''), twilio_status),
			twilio_error_code = COALESCE(NULLIF($5, ''), twilio_error_code),
			updated_at = NOW()
		WHERE id = $1
	`

	return r.update(ctx, status.AttemptID, query,
		status.AttemptID,
		types.MessageAttemptStageCallbackReceived,
		status.MessageSid,
		status.Status,
		status.ErrorCode,
	)
}

func (r *messageAttemptRepository) update(ctx context.Context, id, query string, args ...interface{}) error {
	details := map[string]any{"attempt_id": id}

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return wrapWriteErr(err, "update message attempt", details)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return wrapWriteErr(err, "update message attempt", details)
	}
	if n == 0 {
		return wrapQueryErr(sql.ErrNoRows, "message attempt", details)
	}
	return nil
}
