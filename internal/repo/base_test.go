package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catering-backend/pkg/db/dbtest"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
)

type ctxKey struct{}

func TestBaseBindsContext(t *testing.T) {
	conn := dbtest.Open(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), ctxKey{}, "reports")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	require.Equal(t, ctx, bound.Statement.Context)

	require.Same(t, conn, base.DB(nil))
}

func TestWithinIsHalfOpenAndSkipsNulls(t *testing.T) {
	conn := dbtest.Open(t)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	inside := from.Add(36 * time.Hour)

	rows := []models.Invoice{
		{QuoteRequestID: uuid.New(), Number: "INV-2026-00000001", SentAt: &from},
		{QuoteRequestID: uuid.New(), Number: "INV-2026-00000002", SentAt: &inside},
		{QuoteRequestID: uuid.New(), Number: "INV-2026-00000003", SentAt: &to},
		{QuoteRequestID: uuid.New(), Number: "INV-2026-00000004"},
	}
	for i := range rows {
		require.NoError(t, conn.Create(&rows[i]).Error)
	}

	var found []models.Invoice
	err := NewBase(conn).DB(context.Background()).
		Scopes(Within("sent_at", from, to)).
		Order("number ASC").
		Find(&found).Error
	require.NoError(t, err)

	require.Len(t, found, 2)
	require.Equal(t, "INV-2026-00000001", found[0].Number)
	require.Equal(t, "INV-2026-00000002", found[1].Number)
}
