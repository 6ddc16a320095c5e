package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// Page bounds shared by every backend.
const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// clampPage keeps store calls inside the page bounds even if a caller skipped
// validation.
func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return skip, limit
}

// clock hands out creation timestamps that never go backwards, truncated to
// the millisecond precision both backends can round-trip.
type clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newClock() *clock {
	return &clock{now: time.Now}
}

func (c *clock) Now() time.Time {
	t := c.now().UTC().Truncate(time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
