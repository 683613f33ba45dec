package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/catering-backend/pkg/db/types"
	"github.com/angelmondragon/catering-backend/pkg/enums"
)

// QuoteRequest is a prospective client's catering inquiry as submitted by the
// public form. Menu selections are ordered lists of menu-item identifiers.
type QuoteRequest struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Status      enums.QuoteStatus `gorm:"column:status;type:text;not null;default:'new'" json:"status"`
	ContactName string            `gorm:"column:contact_name;not null" json:"contact_name"`
	Email       string            `gorm:"column:email;not null" json:"email"`
	Phone       string            `gorm:"column:phone;not null;default:''" json:"phone"`
	CompanyName string            `gorm:"column:company_name;not null;default:''" json:"company_name"`

	EventName  string    `gorm:"column:event_name;not null;default:''" json:"event_name"`
	EventType  string    `gorm:"column:event_type;not null;default:''" json:"event_type"`
	EventDate  time.Time `gorm:"column:event_date;type:date;not null" json:"event_date"`
	StartTime  string    `gorm:"column:start_time;not null;default:''" json:"start_time"`
	EndTime    string    `gorm:"column:end_time;not null;default:''" json:"end_time"`
	Location   string    `gorm:"column:location;not null;default:''" json:"location"`
	GuestCount int       `gorm:"column:guest_count;not null" json:"guest_count"`

	// ServiceType is stored as submitted; unknown values are tolerated.
	ServiceType string `gorm:"column:service_type;not null;default:''" json:"service_type"`

	Proteins          dbtypes.StringList `gorm:"column:proteins;not null" json:"proteins"`
	Sides             dbtypes.StringList `gorm:"column:sides;not null" json:"sides"`
	Appetizers        dbtypes.StringList `gorm:"column:appetizers;not null" json:"appetizers"`
	Desserts          dbtypes.StringList `gorm:"column:desserts;not null" json:"desserts"`
	Drinks            dbtypes.StringList `gorm:"column:drinks;not null" json:"drinks"`
	VegetarianEntrees dbtypes.StringList `gorm:"column:vegetarian_entrees;not null" json:"vegetarian_entrees"`

	ChafersRequested    bool `gorm:"column:chafers_requested;not null;default:false" json:"chafers_requested"`
	LinensRequested     bool `gorm:"column:linens_requested;not null;default:false" json:"linens_requested"`
	WaitStaffRequested  bool `gorm:"column:wait_staff_requested;not null;default:false" json:"wait_staff_requested"`
	BussingTablesNeeded bool `gorm:"column:bussing_tables_needed;not null;default:false" json:"bussing_tables_needed"`
	UtensilsRequested   bool `gorm:"column:utensils_requested;not null;default:false" json:"utensils_requested"`
	PlatesRequested     bool `gorm:"column:plates_requested;not null;default:false" json:"plates_requested"`
	CupsRequested       bool `gorm:"column:cups_requested;not null;default:false" json:"cups_requested"`
	NapkinsRequested    bool `gorm:"column:napkins_requested;not null;default:false" json:"napkins_requested"`
	IceRequested        bool `gorm:"column:ice_requested;not null;default:false" json:"ice_requested"`

	DietaryRestrictions        dbtypes.StringList `gorm:"column:dietary_restrictions;not null" json:"dietary_restrictions"`
	GuestCountWithRestrictions string             `gorm:"column:guest_count_with_restrictions;not null;default:''" json:"guest_count_with_restrictions"`

	CeremonyIncluded          bool   `gorm:"column:ceremony_included;not null;default:false" json:"ceremony_included"`
	CocktailHour              bool   `gorm:"column:cocktail_hour;not null;default:false" json:"cocktail_hour"`
	GovernmentComplianceLevel string `gorm:"column:government_compliance_level;not null;default:''" json:"government_compliance_level"`
	PONumber                  string `gorm:"column:po_number;not null;default:''" json:"po_number"`

	SpecialRequests string `gorm:"column:special_requests;not null;default:''" json:"special_requests"`
	ReferralSource  string `gorm:"column:referral_source;not null;default:''" json:"referral_source"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (q *QuoteRequest) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// IsGovernment reports whether the request came in under a government
// compliance program.
func (q QuoteRequest) IsGovernment() bool {
	return q.GovernmentComplianceLevel != ""
}
