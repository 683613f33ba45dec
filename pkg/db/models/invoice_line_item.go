package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catering-backend/pkg/enums"
)

// InvoiceLineItem is one priced row on an estimate or invoice.
type InvoiceLineItem struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvoiceID       uuid.UUID              `gorm:"column:invoice_id;type:uuid;not null" json:"invoice_id"`
	Position        int                    `gorm:"column:position;not null" json:"position"`
	Title           string                 `gorm:"column:title;not null" json:"title"`
	Description     string                 `gorm:"column:description;not null;default:''" json:"description"`
	Quantity        int                    `gorm:"column:quantity;not null" json:"quantity"`
	UnitPriceCents  int64                  `gorm:"column:unit_price_cents;not null;default:0" json:"unit_price_cents"`
	TotalPriceCents int64                  `gorm:"column:total_price_cents;not null;default:0" json:"total_price_cents"`
	Category        enums.LineItemCategory `gorm:"column:category;type:text;not null" json:"category"`
	Metadata        map[string]string      `gorm:"column:metadata;type:jsonb;serializer:json" json:"metadata"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (l *InvoiceLineItem) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
