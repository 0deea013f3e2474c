package postgres

import (
	"context"
	"time"

	"github.com/youngchun/callforward/internal/domain/subscription"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
	"github.com/youngchun/callforward/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

// Upsert applies the ledger merge rules: status is last-write-wins, period bounds
// only move forward (GREATEST skips NULLs) and the first non-null user id sticks.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	query := `
		INSERT INTO subscriptions (
			stripe_subscription_id,
			stripe_customer_id,
			status,
			current_period_start,
			current_period_end,
			user_id,
			created_at,
			updated_at
		) VALUES (
			:stripe_subscription_id,
			:stripe_customer_id,
			:status,
			:current_period_start,
			:current_period_end,
			:user_id,
			:created_at,
			:updated_at
		)
		ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			stripe_customer_id = COALESCE(NULLIF(EXCLUDED.stripe_customer_id, ''), subscriptions.stripe_customer_id),
			status = EXCLUDED.status,
			current_period_start = GREATEST(subscriptions.current_period_start, EXCLUDED.current_period_start),
			current_period_end = GREATEST(subscriptions.current_period_end, EXCLUDED.current_period_end),
			user_id = COALESCE(NULLIF(subscriptions.user_id, ''), EXCLUDED.user_id),
			updated_at = EXCLUDED.updated_at
		RETURNING *
	`

	details := map[string]any{"subscription_id": sub.ID}

	rows, err := r.db.NamedQueryContext(ctx, query, sub)
	if err != nil {
		return nil, wrapWriteErr(err, "upsert subscription", details)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, wrapWriteErr(err, "upsert subscription", details)
		}
		return nil, wrapWriteErr(errNoRowReturned, "upsert subscription", details)
	}

	var stored subscription.Subscription
	if err := rows.StructScan(&stored); err != nil {
		return nil, wrapWriteErr(err, "scan subscription", details)
	}

	r.logger.Debugw("upserted subscription",
		"subscription_id", stored.ID,
		"status", stored.Status,
		"user_id", stored.GetUserID(),
	)
	return &stored, nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT * FROM subscriptions WHERE stripe_subscription_id = $1`

	var sub subscription.Subscription
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, id); err != nil {
		return nil, wrapQueryErr(err, "subscription", map[string]any{"subscription_id": id})
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListEntitled(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	query := `
		SELECT * FROM subscriptions
		WHERE
			status = $1 AND
			user_id IS NOT NULL AND
			user_id <> '' AND
			current_period_end > $2
		ORDER BY current_period_end ASC
	`

	var subs []*subscription.Subscription
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &subs, query, types.SubscriptionStatusActive, now); err != nil {
		return nil, wrapQueryErr(err, "subscriptions", nil)
	}
	return subs, nil
}
