package invoices

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catering-backend/pkg/db/dbtest"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
)

func TestCreateAllowsOneLiveDocumentPerQuote(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	quoteID := uuid.New()

	newDoc := func() *models.Invoice {
		id := uuid.New()
		return &models.Invoice{
			ID:             id,
			QuoteRequestID: quoteID,
			Number:         documentNumber(enums.DocumentTypeEstimate, id, fixedNow),
			DocumentType:   enums.DocumentTypeEstimate,
			Status:         enums.InvoiceStatusDraft,
			TaxRate:        decimal.Zero,
		}
	}

	first := newDoc()
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, newDoc())
	require.Error(t, err)
	assert.True(t, IsLiveDocumentConflict(err), err)

	first.Status = enums.InvoiceStatusCancelled
	require.NoError(t, repo.SaveHeader(ctx, first))
	require.NoError(t, repo.Create(ctx, newDoc()))

	// a different quote is unaffected
	other := newDoc()
	other.QuoteRequestID = uuid.New()
	require.NoError(t, repo.Create(ctx, other))
}
