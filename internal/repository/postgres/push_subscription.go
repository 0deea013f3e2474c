package postgres

import (
	"context"

	"github.com/youngchun/callforward/internal/domain/pushsubscription"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
)

type pushSubscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPushSubscriptionRepository(db *postgres.DB, logger *logger.Logger) pushsubscription.Repository {
	return &pushSubscriptionRepository{db: db, logger: logger}
}

func (r *pushSubscriptionRepository) Create(ctx context.Context, sub *pushsubscription.Subscription) (bool, error) {
	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, user_agent, created_at)
		VALUES (:id, :user_id, :endpoint, :p256dh, :auth, :user_agent, :created_at)
		ON CONFLICT (endpoint) DO NOTHING
	`

	res, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return false, wrapWriteErr(err, "save push subscription", nil)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, wrapWriteErr(err, "save push subscription", nil)
	}
	return n > 0, nil
}

func (r *pushSubscriptionRepository) ListByUserID(ctx context.Context, userID string) ([]*pushsubscription.Subscription, error) {
	query := `SELECT * FROM push_subscriptions WHERE user_id = $1 ORDER BY created_at DESC`

	var subs []*pushsubscription.Subscription
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, wrapQueryErr(err, "push subscriptions", map[string]any{"user_id": userID})
	}
	return subs, nil
}

func (r *pushSubscriptionRepository) Latest(ctx context.Context) (*pushsubscription.Subscription, error) {
	query := `SELECT * FROM push_subscriptions ORDER BY created_at DESC LIMIT 1`

	var sub pushsubscription.Subscription
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query); err != nil {
		return nil, wrapQueryErr(err, "push subscription", nil)
	}
	return &sub, nil
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE endpoint = $1`

	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, endpoint); err != nil {
		return wrapWriteErr(err, "delete push subscription", nil)
	}
	return nil
}
