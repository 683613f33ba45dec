package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/pkg/enums"
)

// Contract tracks the signing state of the agreement attached to an invoice.
// The document itself is rendered and hosted by the external PDF function.
type Contract struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvoiceID      uuid.UUID            `gorm:"column:invoice_id;type:uuid;not null" json:"invoice_id"`
	QuoteRequestID uuid.UUID            `gorm:"column:quote_request_id;type:uuid;not null" json:"quote_request_id"`
	Status         enums.ContractStatus `gorm:"column:status;type:text;not null;default:'draft'" json:"status"`
	SignerName     string               `gorm:"column:signer_name;not null" json:"signer_name"`
	SignerEmail    string               `gorm:"column:signer_email;not null" json:"signer_email"`
	DocumentURL    *string              `gorm:"column:document_url" json:"document_url,omitempty"`
	SentAt         *time.Time           `gorm:"column:sent_at" json:"sent_at,omitempty"`
	SignedAt       *time.Time           `gorm:"column:signed_at" json:"signed_at,omitempty"`
	SignatureIP    *string              `gorm:"column:signature_ip" json:"signature_ip,omitempty"`
	RemindedAt     *time.Time           `gorm:"column:reminded_at" json:"reminded_at,omitempty"`
	VoidReason     *string              `gorm:"column:void_reason" json:"void_reason,omitempty"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *Contract) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
