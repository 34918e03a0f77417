// Package repository содержит реализацию хранилищ сессий витрины в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/storefront/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrSessionNotFound возвращается, если состояние сессии ещё не сохранялось.
var ErrSessionNotFound = errors.New("session not found")

// SessionState - всё, что хранится о сессии покупателя.
type SessionState struct {
	Snapshot model.Snapshot `json:"snapshot"`
	// CustomerToken - токен покупателя в API заказов. В срез состояния не попадает.
	CustomerToken string `json:"customer_token,omitempty"`
}

var defaultRetryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository хранит состояние сессий в PostgreSQL. Каждая сессия - одна строка,
// изменения сериализуются блокировкой строки.
type PostgresRepository struct {
	pool        *pgxpool.Pool
	retryDelays []time.Duration
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool, retryDelays: defaultRetryDelays}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет fn при конфликтах сериализации, взаимоблокировках и обрывах соединения.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := r.retryDelays

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(delays) {
			break
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetSession возвращает сохранённое состояние сессии.
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*SessionState, error) {
	var raw []byte
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx, `SELECT state FROM sessions WHERE id = $1`, id).Scan(&raw)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var st SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	return &st, nil
}

// UpdateSession применяет fn к состоянию сессии в одной транзакции. Если fn вернула
// ошибку, ни одно изменение не сохраняется. Новый заказ в слоте подтверждения
// записывается в журнал подтверждённых заказов в той же транзакции.
func (r *PostgresRepository) UpdateSession(ctx context.Context, id string, fn func(st *SessionState) error) error {
	return r.withRetry(ctx, func() error {
		return r.updateSession(ctx, id, fn)
	})
}

func (r *PostgresRepository) updateSession(ctx context.Context, id string, fn func(st *SessionState) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO sessions (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	// Блокируем строку сессии: пачки намерений одной сессии применяются по очереди.
	var raw []byte
	if err := tx.QueryRow(ctx, `SELECT state FROM sessions WHERE id = $1 FOR UPDATE`, id).Scan(&raw); err != nil {
		return fmt.Errorf("lock session: %w", err)
	}

	var st SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("decode session state: %w", err)
	}
	prev := st.Snapshot.Confirmation

	if err := fn(&st); err != nil {
		return err
	}

	if o := newConfirmation(prev, st.Snapshot.Confirmation); o != nil {
		if err := insertConfirmedOrder(ctx, tx, id, *o); err != nil {
			return err
		}
	}

	next, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE sessions SET state = $2, updated_at = now() WHERE id = $1`, id, next)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// newConfirmation возвращает заказ, впервые попавший в слот подтверждения.
func newConfirmation(prev, next *model.CompletedOrder) *model.CompletedOrder {
	if next == nil {
		return nil
	}
	if prev != nil && prev.OrderID == next.OrderID {
		return nil
	}
	return next
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// insertConfirmedOrder заносит заказ в журнал. Повтор заказа (другая сессия или
// повторная пачка) не считается ошибкой и не прерывает транзакцию.
func insertConfirmedOrder(ctx context.Context, tx execer, sessionID string, o model.CompletedOrder) error {
	if o.OrderID == 0 {
		return nil
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO confirmed_orders (order_id, session_id, total, service_type, revenue_center_id)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (order_id) DO NOTHING`,
		o.OrderID, sessionID, o.Total, o.ServiceType, o.RevenueCenterID,
	)
	if err != nil {
		return fmt.Errorf("insert confirmed order: %w", err)
	}
	return nil
}

// GetConfirmedOrders возвращает заказы, подтверждённые в сессии, новые первыми.
func (r *PostgresRepository) GetConfirmedOrders(ctx context.Context, sessionID string) ([]model.CompletedOrder, error) {
	var res []model.CompletedOrder
	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT order_id, total, service_type, revenue_center_id, confirmed_at
			 FROM confirmed_orders
			 WHERE session_id = $1
			 ORDER BY confirmed_at DESC`,
			sessionID,
		)
		if err != nil {
			return fmt.Errorf("select confirmed orders: %w", err)
		}
		defer rows.Close()

		res = res[:0]
		for rows.Next() {
			var o model.CompletedOrder
			if err := rows.Scan(&o.OrderID, &o.Total, &o.ServiceType, &o.RevenueCenterID, &o.CreatedAt); err != nil {
				return fmt.Errorf("scan confirmed order: %w", err)
			}
			res = append(res, o)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PurgeSessions удаляет сессии, не обновлявшиеся с момента before.
func (r *PostgresRepository) PurgeSessions(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	err := r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE updated_at < $1`, before)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return removed, nil
}
