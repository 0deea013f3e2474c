package postgres

import (
	"context"

	"github.com/youngchun/callforward/internal/domain/usersettings"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
)

type userSettingsRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUserSettingsRepository(db *postgres.DB, logger *logger.Logger) usersettings.Repository {
	return &userSettingsRepository{db: db, logger: logger}
}

func (r *userSettingsRepository) UpsertTravelSettings(ctx context.Context, settings *usersettings.TravelSettings) error {
	query := `
		INSERT INTO travel_settings (user_id, start_date, end_date, notify, message_type, contact, created_at, updated_at)
		VALUES (:user_id, :start_date, :end_date, :notify, :message_type, :contact, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			notify = EXCLUDED.notify,
			message_type = EXCLUDED.message_type,
			contact = EXCLUDED.contact,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, settings)
	if err != nil {
		return wrapWriteErr(err, "save travel settings", map[string]any{"user_id": settings.UserID})
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return wrapWriteErr(err, "save travel settings", map[string]any{"user_id": settings.UserID})
		}
		return wrapWriteErr(errNoRowReturned, "save travel settings", map[string]any{"user_id": settings.UserID})
	}
	if err := rows.Scan(&settings.CreatedAt); err != nil {
		return wrapWriteErr(err, "save travel settings", map[string]any{"user_id": settings.UserID})
	}
	return nil
}

func (r *userSettingsRepository) GetTravelSettings(ctx context.Context, userID string) (*usersettings.TravelSettings, error) {
	query := `SELECT * FROM travel_settings WHERE user_id = $1`

	var settings usersettings.TravelSettings
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &settings, query, userID); err != nil {
		return nil, wrapQueryErr(err, "travel settings", map[string]any{"user_id": userID})
	}
	return &settings, nil
}

func (r *userSettingsRepository) CreatePrepareStatus(ctx context.Context, status *usersettings.PrepareStatus) error {
	query := `
		INSERT INTO prepare_status (id, user_id, customer_id, prepare_completed, completed_at)
		VALUES (:id, :user_id, :customer_id, :prepare_completed, :completed_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return wrapWriteErr(err, "record prepare status", map[string]any{"user_id": status.UserID})
	}
	return nil
}

func (r *userSettingsRepository) GetLatestPrepareStatus(ctx context.Context, userID string) (*usersettings.PrepareStatus, error) {
	query := `
		SELECT * FROM prepare_status
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT 1
	`

	var status usersettings.PrepareStatus
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &status, query, userID); err != nil {
		return nil, wrapQueryErr(err, "prepare status", map[string]any{"user_id": userID})
	}
	return &status, nil
}
