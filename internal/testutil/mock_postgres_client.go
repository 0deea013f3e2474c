package testutil

import (
	"context"
	"sync"

	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type mockTxKey struct{}

// mockTx collects the release funcs of locks taken inside a transaction and
// tracks whether a failed statement aborted it
type mockTx struct {
	mu       sync.Mutex
	releases []func()
	aborted  error
}

// MockPostgresClient is a mock implementation of postgres client for testing.
// It has no rollback of data, but it follows postgres transaction states:
//   - locks registered through RegisterTxRelease are held until the outermost
//     WithTx returns, like transaction-scoped advisory locks;
//   - a statement failed through AbortTx aborts the transaction, every later
//     statement fails until a nested WithTx (a savepoint) that saw the failure
//     returns its error and rolls back to the savepoint.
type MockPostgresClient struct {
	logger *logger.Logger

	mu       sync.Mutex
	txCount  int
	failNext error
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// FailNextTx makes the next outermost WithTx return err without running fn
func (c *MockPostgresClient) FailNextTx(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = err
}

// TxCount returns how many outermost transactions were started
func (c *MockPostgresClient) TxCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txCount
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, run fn in a savepoint
	if tx, ok := ctx.Value(mockTxKey{}).(*mockTx); ok {
		if err := tx.abortedErr(); err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			tx.rollbackToSavepoint()
			return err
		}
		// RELEASE SAVEPOINT fails on an aborted transaction
		return tx.abortedErr()
	}

	c.mu.Lock()
	c.txCount++
	failNext := c.failNext
	c.failNext = nil
	c.mu.Unlock()

	if failNext != nil {
		return failNext
	}

	tx := &mockTx{}
	defer tx.release()

	if err := fn(context.WithValue(ctx, mockTxKey{}, tx)); err != nil {
		return err
	}
	// COMMIT of an aborted transaction rolls back and reports the failure
	return tx.abortedErr()
}

func (tx *mockTx) abortedErr() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.aborted == nil {
		return nil
	}
	return ierr.WithError(tx.aborted).
		WithHint("current transaction is aborted, commands ignored until end of transaction block").
		Mark(ierr.ErrDatabase)
}

func (tx *mockTx) rollbackToSavepoint() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.aborted = nil
}

func (tx *mockTx) release() {
	tx.mu.Lock()
	releases := tx.releases
	tx.releases = nil
	tx.mu.Unlock()

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}

// InTx reports whether ctx carries a mock transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(mockTxKey{}).(*mockTx)
	return ok
}

// RegisterTxRelease schedules release to run when the transaction in ctx ends.
// It returns false when ctx carries no transaction.
func RegisterTxRelease(ctx context.Context, release func()) bool {
	tx, ok := ctx.Value(mockTxKey{}).(*mockTx)
	if !ok {
		return false
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.releases = append(tx.releases, release)
	return true
}

// AbortTx marks the transaction in ctx aborted by a failed statement and returns
// err. Outside a transaction it only returns err.
func AbortTx(ctx context.Context, err error) error {
	tx, ok := ctx.Value(mockTxKey{}).(*mockTx)
	if !ok || err == nil {
		return err
	}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.aborted == nil {
		tx.aborted = err
	}
	return err
}

// TxAborted returns the error every statement gets while the transaction in ctx is aborted
func TxAborted(ctx context.Context) error {
	tx, ok := ctx.Value(mockTxKey{}).(*mockTx)
	if !ok {
		return nil
	}
	return tx.abortedErr()
}
