// Package repository содержит реализацию доступа к данным в PostgreSQL.
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

	"github.com/mmeshcher/launchpad/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже существующим логином.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
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

	r := &PostgresRepository{pool: pool}

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

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func withRetry(ctx context.Context, delays []time.Duration, fn func() error) error {
	var err error
	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil || !isRetryable(err) || i == len(delays) {
			return err
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

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

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (login, password_hash) VALUES ($1, $2) RETURNING id`,
		login, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, login)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByLogin возвращает пользователя по логину.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, password_hash, created_at FROM users WHERE login = $1`,
		login,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// AppendOperation записывает операцию и порождённые ею события в одной транзакции
// и возвращает порядковый номер операции в журнале.
func (r *PostgresRepository) AppendOperation(ctx context.Context, op model.Operation, events []model.Event) (int64, error) {
	var seq int64
	err := withRetry(ctx, retryDelays, func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx,
			`INSERT INTO operations (kind, actor, executed_at, payload) VALUES ($1, $2, $3, $4) RETURNING seq`,
			string(op.Kind), op.Actor, op.ExecutedAt, []byte(op.Payload),
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("insert operation: %w", err)
		}

		batch := &pgx.Batch{}
		for i, ev := range events {
			payload, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("marshal event: %w", err)
			}
			batch.Queue(
				`INSERT INTO events (id, operation_seq, ordinal, funding_id, type, payload, occurred_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				ev.ID, seq, i, int64(ev.FundingID), string(ev.Type), payload, ev.OccurredAt,
			)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert events: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// LoadOperations возвращает весь журнал операций в порядке применения.
func (r *PostgresRepository) LoadOperations(ctx context.Context) ([]model.Operation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq, kind, actor, executed_at, payload
		 FROM operations
		 ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("select operations: %w", err)
	}
	defer rows.Close()

	var res []model.Operation
	for rows.Next() {
		var (
			op      model.Operation
			kind    string
			payload []byte
		)
		if err := rows.Scan(&op.Seq, &kind, &op.Actor, &op.ExecutedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Kind = model.OperationKind(kind)
		op.Payload = payload
		res = append(res, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetEventsByFunding возвращает последние limit событий кампании в хронологическом порядке.
func (r *PostgresRepository) GetEventsByFunding(ctx context.Context, fundingID uint64, limit int) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT payload FROM (
		     SELECT payload, operation_seq, ordinal
		     FROM events
		     WHERE funding_id = $1
		     ORDER BY operation_seq DESC, ordinal DESC
		     LIMIT $2
		 ) recent
		 ORDER BY operation_seq, ordinal`,
		int64(fundingID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var res []model.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev model.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		res = append(res, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
