package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/youngchun/callforward/internal/domain/leave"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
	"github.com/youngchun/callforward/internal/types"
)

type leaveRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewLeaveRepository(db *postgres.DB, logger *logger.Logger) leave.Repository {
	return &leaveRepository{db: db, logger: logger}
}

func (r *leaveRepository) CreateLink(ctx context.Context, link *leave.Link) error {
	query := `
		INSERT INTO leave_links (token, call_sid, from_number, to_number, created_at, expires_at, used_at, status)
		VALUES (:token, :call_sid, :from_number, :to_number, :created_at, :expires_at, :used_at, :status)
	`

	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return wrapWriteErr(err, "create leave link", map[string]any{"call_sid": link.CallSid})
	}
	return nil
}

func (r *leaveRepository) GetLink(ctx context.Context, token string) (*leave.Link, error) {
	query := `SELECT * FROM leave_links WHERE token = $1`

	var link leave.Link
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &link, query, token); err != nil {
		return nil, wrapQueryErr(err, "leave link", nil)
	}
	return &link, nil
}

func (r *leaveRepository) GetLinkByCallSid(ctx context.Context, callSid string) (*leave.Link, error) {
	query := `
		SELECT * FROM leave_links
		WHERE call_sid = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var link leave.Link
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &link, query, callSid); err != nil {
		return nil, wrapQueryErr(err, "leave link", map[string]any{"call_sid": callSid})
	}
	return &link, nil
}

func (r *leaveRepository) MarkUsed(ctx context.Context, token string, usedAt time.Time) error {
	query := `
		UPDATE leave_links
		SET used_at = $2, status = $3
		WHERE token = $1 AND used_at IS NULL
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, token, usedAt, types.LeaveLinkStatusUsed)
	if err != nil {
		return wrapWriteErr(err, "mark leave link used", nil)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return wrapWriteErr(err, "mark leave link used", nil)
	}
	if n == 0 {
		return wrapQueryErr(sql.ErrNoRows, "unused leave link", nil)
	}
	return nil
}

func (r *leaveRepository) CreateMessage(ctx context.Context, msg *leave.Message) error {
	query := `
		INSERT INTO leave_messages (id, token, message, created_at)
		VALUES (:id, :token, :message, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return wrapWriteErr(err, "save leave message", map[string]any{"message_id": msg.ID})
	}
	return nil
}

func (r *leaveRepository) GetMessage(ctx context.Context, id string) (*leave.Message, error) {
	query := `SELECT * FROM leave_messages WHERE id = $1`

	var msg leave.Message
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &msg, query, id); err != nil {
		return nil, wrapQueryErr(err, "leave message", map[string]any{"message_id": id})
	}
	return &msg, nil
}
