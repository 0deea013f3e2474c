package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
)

func TestMockPostgresClient_FailedStatementAbortsTransaction(t *testing.T) {
	db := NewMockPostgresClient(logger.NewNopLogger())
	store := NewInMemoryStore[string]()

	var afterFailure error
	err := db.WithTx(context.Background(), func(ctx context.Context) error {
		_ = AbortTx(ctx, errors.New("duplicate key"))
		afterFailure = store.Create(ctx, "a", "a")
		return nil
	})

	require.Error(t, afterFailure)
	assert.True(t, ierr.IsDatabase(afterFailure))
	require.Error(t, err, "commit of an aborted transaction must fail")
	assert.Empty(t, mustList(t, store))
}

func TestMockPostgresClient_SavepointRecoversFromFailedStatement(t *testing.T) {
	db := NewMockPostgresClient(logger.NewNopLogger())
	store := NewInMemoryStore[string]()

	err := db.WithTx(context.Background(), func(ctx context.Context) error {
		spErr := db.WithTx(ctx, func(ctx context.Context) error {
			return AbortTx(ctx, errors.New("lock timeout"))
		})
		require.Error(t, spErr)

		return store.Create(ctx, "a", "a")
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, mustList(t, store))
}

func TestMockPostgresClient_SwallowedFailureInSavepointStillAborts(t *testing.T) {
	db := NewMockPostgresClient(logger.NewNopLogger())

	err := db.WithTx(context.Background(), func(ctx context.Context) error {
		spErr := db.WithTx(ctx, func(ctx context.Context) error {
			_ = AbortTx(ctx, errors.New("insert failed"))
			return nil
		})
		assert.Error(t, spErr, "release of a savepoint in an aborted transaction must fail")

		return db.WithTx(ctx, func(ctx context.Context) error { return nil })
	})

	require.Error(t, err)
}

func mustList(t *testing.T, store *InMemoryStore[string]) []string {
	t.Helper()
	items, err := store.List(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	return items
}
