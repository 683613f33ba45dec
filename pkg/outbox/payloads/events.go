package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/catering-backend/pkg/enums"
)

// QuoteSubmittedEvent is raised when the public form stores a new request.
type QuoteSubmittedEvent struct {
	QuoteID     uuid.UUID `json:"quoteId"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	EventType   string    `json:"eventType,omitempty"`
	EventDate   string    `json:"eventDate"`
	GuestCount  int       `json:"guestCount"`
	ServiceType string    `json:"serviceType,omitempty"`
}

// QuoteStatusChangedEvent records a pipeline move made by an admin.
type QuoteStatusChangedEvent struct {
	QuoteID uuid.UUID         `json:"quoteId"`
	From    enums.QuoteStatus `json:"from"`
	To      enums.QuoteStatus `json:"to"`
}

// EstimateCreatedEvent is raised when line items are generated for a quote.
type EstimateCreatedEvent struct {
	InvoiceID     uuid.UUID `json:"invoiceId"`
	QuoteID       uuid.UUID `json:"quoteId"`
	Number        string    `json:"number"`
	LineItemCount int       `json:"lineItemCount"`
	GuestCount    int       `json:"guestCount"`
}

// EstimateSendRequestedEvent asks the email function to deliver a document.
type EstimateSendRequestedEvent struct {
	InvoiceID    uuid.UUID          `json:"invoiceId"`
	QuoteID      uuid.UUID          `json:"quoteId"`
	Number       string             `json:"number"`
	DocumentType enums.DocumentType `json:"documentType"`
	Recipient    string             `json:"recipient"`
	ContactName  string             `json:"contactName"`
	Message      string             `json:"message,omitempty"`
	TotalCents   int64              `json:"totalCents"`
}

// PDFDocumentRequestedEvent mirrors the generate-pdf-document function input.
type PDFDocumentRequestedEvent struct {
	Type       string     `json:"type"`
	QuoteID    uuid.UUID  `json:"quoteId"`
	InvoiceID  *uuid.UUID `json:"invoiceId,omitempty"`
	ContractID *uuid.UUID `json:"contractId,omitempty"`
}

// InvoiceIssuedEvent is raised when an estimate is converted to an invoice.
type InvoiceIssuedEvent struct {
	InvoiceID  uuid.UUID  `json:"invoiceId"`
	QuoteID    uuid.UUID  `json:"quoteId"`
	Number     string     `json:"number"`
	TotalCents int64      `json:"totalCents"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}

// InvoicePaidEvent is raised when payment is recorded manually.
type InvoicePaidEvent struct {
	InvoiceID     uuid.UUID `json:"invoiceId"`
	QuoteID       uuid.UUID `json:"quoteId"`
	Number        string    `json:"number"`
	SubtotalCents int64     `json:"subtotalCents"`
	TaxCents      int64     `json:"taxCents"`
	TotalCents    int64     `json:"totalCents"`
	IsGovernment  bool      `json:"isGovernment"`
	PaidAt        time.Time `json:"paidAt"`
}

// InvoiceOverdueEvent is raised by the cron worker once per invoice.
type InvoiceOverdueEvent struct {
	InvoiceID  uuid.UUID `json:"invoiceId"`
	QuoteID    uuid.UUID `json:"quoteId"`
	Number     string    `json:"number"`
	TotalCents int64     `json:"totalCents"`
	DueDate    time.Time `json:"dueDate"`
}

// InvoiceCancelledEvent is raised when an admin voids a document.
type InvoiceCancelledEvent struct {
	InvoiceID uuid.UUID `json:"invoiceId"`
	QuoteID   uuid.UUID `json:"quoteId"`
	Number    string    `json:"number"`
}

// ContractEvent covers sent, signed and reminder notifications.
type ContractEvent struct {
	ContractID  uuid.UUID            `json:"contractId"`
	InvoiceID   uuid.UUID            `json:"invoiceId"`
	QuoteID     uuid.UUID            `json:"quoteId"`
	Status      enums.ContractStatus `json:"status"`
	SignerName  string               `json:"signerName"`
	SignerEmail string               `json:"signerEmail"`
	SignedAt    *time.Time           `json:"signedAt,omitempty"`
}
