package contracts

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/catering-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

// CreateInput starts a contract for an invoice. Signer fields default to the
// quote contact.
type CreateInput struct {
	InvoiceID   uuid.UUID `json:"invoice_id" validate:"required"`
	SignerName  string    `json:"signer_name" validate:"omitempty,max=200"`
	SignerEmail string    `json:"signer_email" validate:"omitempty,email"`
	DocumentURL string    `json:"document_url" validate:"omitempty,url"`
}

// SignInput records a signature collected outside the system.
type SignInput struct {
	SignerName  string     `json:"signer_name" validate:"omitempty,max=200"`
	SignatureIP string     `json:"signature_ip" validate:"omitempty,ip"`
	SignedAt    *time.Time `json:"signed_at"`
}

type VoidInput struct {
	Reason string `json:"reason" validate:"max=2000"`
}

type ListParams struct {
	Status    string
	InvoiceID uuid.UUID
	pagination.Params
}

type ListResult struct {
	Items  []models.Contract `json:"items"`
	Cursor string            `json:"cursor"`
}

func (in CreateInput) validate() error {
	if in.InvoiceID == uuid.Nil {
		return pkgerrors.Field("invoice_id", "is required")
	}
	email := strings.TrimSpace(in.SignerEmail)
	if email != "" && !strings.Contains(email, "@") {
		return pkgerrors.Field("signer_email", "must be a valid email address")
	}
	return nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cursorOf(c models.Contract) pagination.Cursor {
	return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
}
