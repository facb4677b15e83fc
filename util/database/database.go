package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories
// run the same SQL inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Options struct {
	MaxConns    int32
	LockTimeout time.Duration
	// ConnectAttempts covers containers that are still starting up.
	ConnectAttempts int
}

type DB struct {
	Pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func New(ctx context.Context, dsn string, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	cfg.ConnConfig.ConnectTimeout = 5 * time.Second

	attempts := opts.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var p *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		p, err = pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = p.Ping(ctx); err == nil {
				break
			}
			p.Close()
		}
		if attempt < attempts {
			slog.Warn("db connect failed, retrying", "attempt", attempt, "of", attempts, "err", err)
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &DB{Pool: p, lockTimeout: opts.LockTimeout}, nil
}

// FromPool wraps an existing pool.
func FromPool(p *pgxpool.Pool, lockTimeout time.Duration) *DB {
	return &DB{Pool: p, lockTimeout: lockTimeout}
}

func (d *DB) Close() { d.Pool.Close() }

func (d *DB) Ping(ctx context.Context) error { return d.Pool.Ping(ctx) }

// Q returns the pool as a Querier for reads outside a transaction.
func (d *DB) Q() Querier { return d.Pool }

// ErrCommitUnknown marks a failed COMMIT. The server may have applied the
// transaction, so callers must not run it again.
var ErrCommitUnknown = errors.New("commit outcome unknown")

// commitTimeout bounds COMMIT independently of the caller's deadline.
const commitTimeout = 5 * time.Second

// WithTx runs fn in one READ COMMITTED transaction and commits when fn returns nil.
// Any error, panic, or context cancellation rolls back every write fn made.
// Row locks taken inside fn wait at most the configured lock timeout.
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) (err error) {
	tx, err := d.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if d.lockTimeout > 0 {
		ms := strconv.FormatInt(d.lockTimeout.Milliseconds(), 10) + "ms"
		if _, err = tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, ms); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err = fn(ctx, tx); err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err = tx.Commit(cctx); err != nil {
		return fmt.Errorf("commit transaction: %w", errors.Join(ErrCommitUnknown, err))
	}
	return nil
}

// IsTransient reports contention and timeout failures that are safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.LockNotAvailable,
			pgerrcode.SerializationFailure,
			pgerrcode.DeadlockDetected,
			pgerrcode.QueryCanceled,
			pgerrcode.TooManyConnections:
			return true
		}
		return false
	}
	return pgconn.Timeout(err)
}

// IsUniqueViolation reports a unique constraint failure and the constraint name.
func IsUniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation
}

func IsNumericOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange
}
