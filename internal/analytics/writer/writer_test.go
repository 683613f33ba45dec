package writer

import (
	"context"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/catering-backend/internal/analytics/types"
)

// replayInserter answers each InsertRows call with the next queued error and
// remembers the insert ids it was sent.
type replayInserter struct {
	errs   []error
	tables []string
	sent   [][]string
}

func (r *replayInserter) InsertRows(_ context.Context, table string, rows []any) error {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.(*cbigquery.StructSaver).InsertID)
	}
	r.tables = append(r.tables, table)
	r.sent = append(r.sent, ids)
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

func fastWriter(t *testing.T, errs ...error) (*Writer, *replayInserter) {
	t.Helper()
	ins := &replayInserter{errs: errs}
	w, err := newWriter(ins, Config{EventsTable: "catering_events", Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond})
	require.NoError(t, err)
	return w, ins
}

func rows(ids ...string) []types.CateringEventRow {
	out := make([]types.CateringEventRow, len(ids))
	for i, id := range ids {
		out[i] = types.CateringEventRow{EventID: id, EventType: "invoice_paid"}
	}
	return out
}

func TestNewWriterDefaults(t *testing.T) {
	_, err := New(nil, Config{EventsTable: "catering_events"})
	assert.Error(t, err)
	_, err = newWriter(&replayInserter{}, Config{EventsTable: "  "})
	assert.Error(t, err)

	w, err := newWriter(&replayInserter{}, Config{EventsTable: " catering_events "})
	require.NoError(t, err)
	assert.Equal(t, "catering_events", w.table)
	assert.Equal(t, defaultMaxAttempts, w.maxAttempts)
	assert.Equal(t, defaultBackoff, w.backoff)
	assert.Equal(t, defaultMaxBackoff, w.maxBackoff)

	w, err = newWriter(&replayInserter{}, Config{EventsTable: "t", Backoff: time.Second, MaxBackoff: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, time.Second, w.maxBackoff, "ceiling never below the first wait")
}

func TestInsertUsesEventIDAsInsertID(t *testing.T) {
	w, ins := fastWriter(t)

	require.NoError(t, w.Insert(context.Background(), rows("evt-1", "evt-2")...))
	assert.Equal(t, [][]string{{"evt-1", "evt-2"}}, ins.sent)
	assert.Equal(t, []string{"catering_events"}, ins.tables)

	require.NoError(t, w.Insert(context.Background()))
	assert.Len(t, ins.sent, 1, "no rows, no call")
}

func TestInsertRetriesTransientErrors(t *testing.T) {
	w, ins := fastWriter(t, &googleapi.Error{Code: http.StatusServiceUnavailable})

	require.NoError(t, w.Insert(context.Background(), rows("evt-1")...))
	assert.Len(t, ins.sent, 2)
}

func TestInsertStopsOnPermanentError(t *testing.T) {
	w, ins := fastWriter(t, &googleapi.Error{Code: http.StatusBadRequest})

	err := w.Insert(context.Background(), rows("evt-1")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catering_events")
	assert.Len(t, ins.sent, 1)
}

func TestInsertGivesUpAfterMaxAttempts(t *testing.T) {
	unavailable := status.Error(codes.Unavailable, "try later")
	w, ins := fastWriter(t, unavailable, unavailable, unavailable, nil)

	err := w.Insert(context.Background(), rows("evt-1")...)
	require.Error(t, err)
	assert.Len(t, ins.sent, defaultMaxAttempts)
}

func TestInsertResendsOnlyRejectedRows(t *testing.T) {
	partial := cbigquery.PutMultiError{{
		RowIndex: 1,
		Errors:   cbigquery.MultiError{&googleapi.Error{Code: http.StatusServiceUnavailable}},
	}}
	w, ins := fastWriter(t, partial)

	require.NoError(t, w.Insert(context.Background(), rows("evt-1", "evt-2", "evt-3")...))
	assert.Equal(t, [][]string{{"evt-1", "evt-2", "evt-3"}, {"evt-2"}}, ins.sent)
}

func TestInsertHonoursCancellationBetweenAttempts(t *testing.T) {
	ins := &replayInserter{errs: []error{status.Error(codes.Unavailable, "busy")}}
	w, err := newWriter(ins, Config{EventsTable: "catering_events", Backoff: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = w.Insert(ctx, rows("evt-1")...)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, ins.sent, 1)
}
