package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/storefront/internal/model"
)

func fastRepo() *PostgresRepository {
	return &PostgresRepository{retryDelays: []time.Duration{time.Millisecond, time.Millisecond}}
}

func TestWithRetry_RetriesSerializationFailure(t *testing.T) {
	r := fastRepo()
	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("update session: %w", &pgconn.PgError{Code: pgerrcode.SerializationFailure})
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUpAfterDelays(t *testing.T) {
	r := fastRepo()
	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		return errors.New("dial tcp: connection refused")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	r := fastRepo()
	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_StopsOnCancelledContext(t *testing.T) {
	r := &PostgresRepository{retryDelays: []time.Duration{time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.withRetry(ctx, func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNewConfirmation(t *testing.T) {
	a := &model.CompletedOrder{OrderID: 1}
	b := &model.CompletedOrder{OrderID: 2}

	assert.Nil(t, newConfirmation(a, nil))
	assert.Nil(t, newConfirmation(a, &model.CompletedOrder{OrderID: 1}))
	assert.Equal(t, b, newConfirmation(a, b))
	assert.Equal(t, a, newConfirmation(nil, a))
}

type recordingExec struct {
	sql  []string
	args [][]any
	err  error
}

func (e *recordingExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = append(e.sql, sql)
	e.args = append(e.args, args)
	return pgconn.NewCommandTag("INSERT 0 0"), e.err
}

func TestInsertConfirmedOrder_DuplicateKeepsTransaction(t *testing.T) {
	tx := &recordingExec{}
	o := model.CompletedOrder{OrderID: 1001, ServiceType: "PICKUP", RevenueCenterID: 7}

	err := insertConfirmedOrder(context.Background(), tx, "session-1", o)
	assert.NoError(t, err)

	// Повтор заказа гасится самой вставкой, а не ошибкой 23505, которая прервала бы транзакцию.
	if assert.Len(t, tx.sql, 1) {
		assert.Contains(t, tx.sql[0], "ON CONFLICT (order_id) DO NOTHING")
		assert.Equal(t, int64(1001), tx.args[0][0])
	}
}

func TestInsertConfirmedOrder_SkipsOrderWithoutID(t *testing.T) {
	tx := &recordingExec{}

	err := insertConfirmedOrder(context.Background(), tx, "session-1", model.CompletedOrder{})
	assert.NoError(t, err)
	assert.Empty(t, tx.sql)
}

func TestInsertConfirmedOrder_Error(t *testing.T) {
	tx := &recordingExec{err: &pgconn.PgError{Code: pgerrcode.InFailedSQLTransaction}}

	err := insertConfirmedOrder(context.Background(), tx, "session-1", model.CompletedOrder{OrderID: 5})
	assert.Error(t, err)
	assert.ErrorContains(t, err, "insert confirmed order")
}
