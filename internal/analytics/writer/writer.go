// Package writer streams analytics rows into BigQuery.
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/catering-backend/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/catering-backend/pkg/bigquery"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 250 * time.Millisecond
	defaultMaxBackoff  = 2 * time.Second
)

type Config struct {
	EventsTable string
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

type inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Writer inserts rows synchronously. The worker acks a message only after
// Insert returns, so rows are never held in memory across deliveries.
type Writer struct {
	client      inserter
	table       string
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
}

func New(client *pkgbigquery.Client, cfg Config) (*Writer, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	return newWriter(client, cfg)
}

func newWriter(client inserter, cfg Config) (*Writer, error) {
	table := strings.TrimSpace(cfg.EventsTable)
	if table == "" {
		return nil, errors.New("events table is required")
	}
	w := &Writer{
		client:      client,
		table:       table,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		maxBackoff:  cfg.MaxBackoff,
	}
	if w.maxAttempts <= 0 {
		w.maxAttempts = defaultMaxAttempts
	}
	if w.backoff <= 0 {
		w.backoff = defaultBackoff
	}
	if w.maxBackoff <= 0 {
		w.maxBackoff = defaultMaxBackoff
	}
	w.maxBackoff = max(w.maxBackoff, w.backoff)
	return w, nil
}

// Insert writes rows to the events table. Each row's event id is its insert
// id, so BigQuery's streaming dedupe absorbs a redelivered message.
func (w *Writer) Insert(ctx context.Context, rows ...types.CateringEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	pending := make([]any, len(rows))
	for i := range rows {
		pending[i] = &cbigquery.StructSaver{Struct: &rows[i], InsertID: rows[i].EventID}
	}

	wait := w.backoff
	for attempt := 1; ; attempt++ {
		err := w.client.InsertRows(ctx, w.table, pending)
		if err == nil {
			return nil
		}
		if attempt >= w.maxAttempts || !pkgbigquery.IsRetryable(err) {
			return fmt.Errorf("insert %d rows into %s (attempt %d): %w", len(pending), w.table, attempt, err)
		}
		// a partial failure names the rejected rows; only those go again
		if failed, ok := pkgbigquery.FailedRows(err); ok {
			pending = subset(pending, failed)
		}
		if err := pause(ctx, wait); err != nil {
			return err
		}
		wait = min(wait*2, w.maxBackoff)
	}
}

func subset(rows []any, indexes []int) []any {
	out := make([]any, 0, len(indexes))
	for _, i := range indexes {
		if i >= 0 && i < len(rows) {
			out = append(out, rows[i])
		}
	}
	if len(out) == 0 {
		return rows
	}
	return out
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
