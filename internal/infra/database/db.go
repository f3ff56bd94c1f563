package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// RetryPolicy is a bounded retry with a fixed delay between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the dashboard's original connection helper: five tries, two seconds apart.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, Delay: 2 * time.Second}

// Do runs fn until it succeeds, the attempts are used up, or ctx is done.
// The last error is returned wrapped with the attempt count.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up after %d attempt(s): %w", i, ctx.Err())
		case <-time.After(p.Delay):
		}
	}
	return fmt.Errorf("gave up after %d attempt(s): %w", attempts, err)
}

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// The first ping is retried according to policy.
func NewPostgresConnection(ctx context.Context, dataSourceName string, policy RetryPolicy) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = policy.Do(ctx, db.PingContext); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
