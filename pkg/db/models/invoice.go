package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/pkg/enums"
)

// Invoice is either a priced estimate or a final invoice for a quote. Money
// is held in integer cents; TaxRate is a percentage (8.25 means 8.25%).
// SentAt tracks the current document; EstimateSentAt survives conversion so
// reports still count the estimate that went out. At most one non-cancelled
// document exists per quote.
type Invoice struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	QuoteRequestID       uuid.UUID           `gorm:"column:quote_request_id;type:uuid;not null;uniqueIndex:invoices_live_quote_key,where:status <> 'cancelled'" json:"quote_request_id"`
	Number               string              `gorm:"column:number;not null;uniqueIndex" json:"number"`
	DocumentType         enums.DocumentType  `gorm:"column:document_type;type:text;not null;default:'estimate'" json:"document_type"`
	Status               enums.InvoiceStatus `gorm:"column:status;type:text;not null;default:'draft'" json:"status"`
	SubtotalCents        int64               `gorm:"column:subtotal_cents;not null;default:0" json:"subtotal_cents"`
	TaxRate              decimal.Decimal     `gorm:"column:tax_rate;type:numeric(6,3);not null;default:0" json:"tax_rate"`
	TaxAmountCents       int64               `gorm:"column:tax_amount_cents;not null;default:0" json:"tax_amount_cents"`
	TotalAmountCents     int64               `gorm:"column:total_amount_cents;not null;default:0" json:"total_amount_cents"`
	IsGovernmentContract bool                `gorm:"column:is_government_contract;not null;default:false" json:"is_government_contract"`
	DueDate              *time.Time          `gorm:"column:due_date;type:date" json:"due_date,omitempty"`
	Notes                *string             `gorm:"column:notes" json:"notes,omitempty"`
	SentAt               *time.Time          `gorm:"column:sent_at" json:"sent_at,omitempty"`
	EstimateSentAt       *time.Time          `gorm:"column:estimate_sent_at" json:"estimate_sent_at,omitempty"`
	PaidAt               *time.Time          `gorm:"column:paid_at" json:"paid_at,omitempty"`
	LineItems            []InvoiceLineItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"line_items,omitempty"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
