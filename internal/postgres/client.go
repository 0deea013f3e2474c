package postgres

import (
	"context"

	"go.uber.org/fx"
)

// IClient defines the transaction surface used by services. Repositories pick
// the active transaction up from the context through DB.GetQuerier.
type IClient interface {
	// WithTx wraps the given function in a transaction. Nested calls run
	// inside a savepoint of the outer transaction.
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

// Module provides an fx.Option to integrate the database with the application
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			NewClient,
		),
	)
}

// NewClient exposes the DB as an IClient
func NewClient(db *DB) IClient {
	return db
}
