package invoices

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catering-backend/api/middleware"
	"github.com/angelmondragon/catering-backend/internal/estimates"
	internalinvoices "github.com/angelmondragon/catering-backend/internal/invoices"
	"github.com/angelmondragon/catering-backend/internal/lineitems"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/outbox"
)

type stubInvoiceService struct {
	internalinvoices.Service

	invoice    *models.Invoice
	preview    []lineitems.LineItem
	flat       *internalinvoices.FlatRateResult
	err        error
	created    internalinvoices.CreateParams
	listParams internalinvoices.ListParams
	replaced   []internalinvoices.LineItemInput
	flatInput  internalinvoices.FlatRateInput
	convert    internalinvoices.ConvertInput
	actor      *outbox.ActorRef
	paidCalls  int
}

func (s *stubInvoiceService) PreviewLineItems(context.Context, uuid.UUID) ([]lineitems.LineItem, error) {
	return s.preview, s.err
}

func (s *stubInvoiceService) CreateFromQuote(_ context.Context, _ uuid.UUID, params internalinvoices.CreateParams, actor *outbox.ActorRef) (*models.Invoice, error) {
	s.created = params
	s.actor = actor
	return s.invoice, s.err
}

func (s *stubInvoiceService) List(_ context.Context, params internalinvoices.ListParams) (*internalinvoices.ListResult, error) {
	s.listParams = params
	return &internalinvoices.ListResult{}, s.err
}

func (s *stubInvoiceService) ReplaceLineItems(_ context.Context, _ uuid.UUID, items []internalinvoices.LineItemInput) (*models.Invoice, error) {
	s.replaced = items
	return s.invoice, s.err
}

func (s *stubInvoiceService) ApplyFlatRate(_ context.Context, _ uuid.UUID, input internalinvoices.FlatRateInput) (*internalinvoices.FlatRateResult, error) {
	s.flatInput = input
	return s.flat, s.err
}

func (s *stubInvoiceService) ConvertToInvoice(_ context.Context, _ uuid.UUID, input internalinvoices.ConvertInput, actor *outbox.ActorRef) (*models.Invoice, error) {
	s.convert = input
	s.actor = actor
	return s.invoice, s.err
}

func (s *stubInvoiceService) MarkPaid(_ context.Context, _ uuid.UUID, actor *outbox.ActorRef) (*models.Invoice, error) {
	s.paidCalls++
	s.actor = actor
	return s.invoice, s.err
}

type stubEstimateService struct {
	invoice    *models.Invoice
	deliveries []estimates.Delivery
	err        error
	sendInput  estimates.SendInput
	documents  int
}

func (s *stubEstimateService) Send(_ context.Context, _ uuid.UUID, input estimates.SendInput, _ *outbox.ActorRef) (*models.Invoice, error) {
	s.sendInput = input
	return s.invoice, s.err
}

func (s *stubEstimateService) RequestDocument(context.Context, uuid.UUID, *outbox.ActorRef) error {
	s.documents++
	return s.err
}

func (s *stubEstimateService) Deliveries(context.Context, uuid.UUID) ([]estimates.Delivery, error) {
	return s.deliveries, s.err
}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithAdmin(ctx, middleware.Admin{ID: uuid.NewString(), Email: "owner@example.com", Role: "admin"})
	return req.WithContext(ctx)
}

func TestPreviewLineItemsReturnsGeneratorOutput(t *testing.T) {
	svc := &stubInvoiceService{preview: []lineitems.LineItem{{Key: "protein-brisket", Title: "Brisket", Quantity: 80}}}
	req := newRequest(http.MethodGet, "/api/admin/v1/quotes/x/line-items/preview", "", map[string]string{"quoteId": uuid.NewString()})
	rec := httptest.NewRecorder()

	PreviewLineItems(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Items []lineitems.LineItem `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, "Brisket", envelope.Data.Items[0].Title)
}

func TestCreateFromQuoteAllowsEmptyBody(t *testing.T) {
	svc := &stubInvoiceService{invoice: &models.Invoice{ID: uuid.New(), DocumentType: enums.DocumentTypeEstimate}}
	req := newRequest(http.MethodPost, "/api/admin/v1/quotes/x/invoices", "", map[string]string{"quoteId": uuid.NewString()})
	rec := httptest.NewRecorder()

	CreateFromQuote(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, svc.created.TaxRate)
	require.NotNil(t, svc.actor)
	assert.Equal(t, "owner@example.com", svc.actor.Email)
}

func TestCreateFromQuotePassesOverrides(t *testing.T) {
	svc := &stubInvoiceService{invoice: &models.Invoice{ID: uuid.New()}}
	req := newRequest(http.MethodPost, "/api/admin/v1/quotes/x/invoices", `{"tax_rate":"0","is_government":true}`, map[string]string{"quoteId": uuid.NewString()})
	rec := httptest.NewRecorder()

	CreateFromQuote(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created.TaxRate)
	assert.Equal(t, "0", *svc.created.TaxRate)
	require.NotNil(t, svc.created.IsGovernment)
	assert.True(t, *svc.created.IsGovernment)
}

func TestCreateFromQuoteConflict(t *testing.T) {
	svc := &stubInvoiceService{err: pkgerrors.New(pkgerrors.CodeConflict, "quote already has an estimate")}
	req := newRequest(http.MethodPost, "/api/admin/v1/quotes/x/invoices", "", map[string]string{"quoteId": uuid.NewString()})
	rec := httptest.NewRecorder()

	CreateFromQuote(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListParsesQuoteFilter(t *testing.T) {
	quoteID := uuid.New()
	svc := &stubInvoiceService{}
	req := newRequest(http.MethodGet, "/api/admin/v1/invoices?document_type=invoice&status=sent&quote_id="+quoteID.String(), "", nil)
	rec := httptest.NewRecorder()

	List(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, quoteID, svc.listParams.QuoteID)
	assert.Equal(t, "invoice", svc.listParams.DocumentType)
	assert.Equal(t, "sent", svc.listParams.Status)
}

func TestListRejectsBadQuoteFilter(t *testing.T) {
	req := newRequest(http.MethodGet, "/api/admin/v1/invoices?quote_id=abc", "", nil)
	rec := httptest.NewRecorder()

	List(&stubInvoiceService{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaceLineItemsValidatesRows(t *testing.T) {
	svc := &stubInvoiceService{invoice: &models.Invoice{}}
	params := map[string]string{"invoiceId": uuid.NewString()}

	rec := httptest.NewRecorder()
	ReplaceLineItems(svc, nil).ServeHTTP(rec, newRequest(http.MethodPut, "/x", `{"items":[{"title":"","category":"protein"}]}`, params))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body := `{"items":[{"title":"Brisket","quantity":50,"unit_price_cents":1500,"category":"protein"}]}`
	ReplaceLineItems(svc, nil).ServeHTTP(rec, newRequest(http.MethodPut, "/x", body, params))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.replaced, 1)
	assert.Equal(t, int64(1500), svc.replaced[0].UnitPriceCents)
}

func TestApplyFlatRateReturnsDistribution(t *testing.T) {
	svc := &stubInvoiceService{flat: &internalinvoices.FlatRateResult{TargetCents: 7500, BaseCents: 1875, GuestCount: 3}}
	req := newRequest(http.MethodPost, "/x", `{"per_guest_rate_cents":2500,"guest_count":3}`, map[string]string{"invoiceId": uuid.NewString()})
	rec := httptest.NewRecorder()

	ApplyFlatRate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2500), svc.flatInput.PerGuestRateCents)
	require.NotNil(t, svc.flatInput.GuestCount)
	assert.Equal(t, 3, *svc.flatInput.GuestCount)
}

func TestConvertStateConflict(t *testing.T) {
	svc := &stubInvoiceService{err: pkgerrors.Transition("invoice", "paid", "invoice")}
	req := newRequest(http.MethodPost, "/x", `{"due_date":"2026-12-01"}`, map[string]string{"invoiceId": uuid.NewString()})
	rec := httptest.NewRecorder()

	Convert(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "2026-12-01", svc.convert.DueDate)
}

func TestMarkPaidPassesActor(t *testing.T) {
	paidAt := time.Now()
	svc := &stubInvoiceService{invoice: &models.Invoice{ID: uuid.New(), Status: enums.InvoiceStatusPaid, PaidAt: &paidAt}}
	req := newRequest(http.MethodPost, "/x", "", map[string]string{"invoiceId": uuid.NewString()})
	rec := httptest.NewRecorder()

	MarkPaid(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.paidCalls)
	require.NotNil(t, svc.actor)
	assert.NotNil(t, svc.actor.AdminID)
}

func TestSendAcceptsCustomRecipient(t *testing.T) {
	svc := &stubEstimateService{invoice: &models.Invoice{ID: uuid.New(), Status: enums.InvoiceStatusSent}}
	req := newRequest(http.MethodPost, "/x", `{"recipient":"planner@example.com","message":"See attached"}`, map[string]string{"invoiceId": uuid.NewString()})
	rec := httptest.NewRecorder()

	Send(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "planner@example.com", svc.sendInput.Recipient)
}

func TestRequestDocumentNotFound(t *testing.T) {
	svc := &stubEstimateService{err: pkgerrors.NotFound("invoice")}
	req := newRequest(http.MethodPost, "/x", "", map[string]string{"invoiceId": uuid.NewString()})
	rec := httptest.NewRecorder()

	RequestDocument(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, svc.documents)
}

func TestDeliveriesListsQueuedRequests(t *testing.T) {
	svc := &stubEstimateService{deliveries: []estimates.Delivery{{EventID: uuid.New(), Kind: enums.EventEstimateSendRequested, Recipient: "client@example.com"}}}
	req := newRequest(http.MethodGet, "/x", "", map[string]string{"invoiceId": uuid.NewString()})
	rec := httptest.NewRecorder()

	Deliveries(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "client@example.com")
}
