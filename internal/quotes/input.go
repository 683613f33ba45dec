package quotes

import (
	"strings"
	"time"

	"github.com/angelmondragon/catering-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/catering-backend/pkg/db/types"
	"github.com/angelmondragon/catering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/catering-backend/pkg/errors"
	"github.com/angelmondragon/catering-backend/pkg/pagination"
)

const (
	// MaxGuestCount bounds intake; larger events are handled by phone.
	MaxGuestCount   = 5000
	eventDateLayout = "2006-01-02"
)

// SubmitInput is the public quote form.
type SubmitInput struct {
	ContactName string `json:"contact_name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"max=40"`
	CompanyName string `json:"company_name" validate:"max=160"`

	EventName  string `json:"event_name" validate:"max=160"`
	EventType  string `json:"event_type" validate:"max=60"`
	EventDate  string `json:"event_date" validate:"required,isodate"`
	StartTime  string `json:"start_time" validate:"max=20"`
	EndTime    string `json:"end_time" validate:"max=20"`
	Location   string `json:"location" validate:"max=300"`
	GuestCount int    `json:"guest_count" validate:"required,min=1,max=5000"`

	ServiceType string `json:"service_type" validate:"omitempty,oneof=full-service delivery-setup delivery-only drop-off"`

	Proteins          []string `json:"proteins" validate:"max=20,dive,max=80"`
	Sides             []string `json:"sides" validate:"max=20,dive,max=80"`
	Appetizers        []string `json:"appetizers" validate:"max=20,dive,max=80"`
	Desserts          []string `json:"desserts" validate:"max=20,dive,max=80"`
	Drinks            []string `json:"drinks" validate:"max=20,dive,max=80"`
	VegetarianEntrees []string `json:"vegetarian_entrees" validate:"max=20,dive,max=80"`

	ChafersRequested    bool `json:"chafers_requested"`
	LinensRequested     bool `json:"linens_requested"`
	WaitStaffRequested  bool `json:"wait_staff_requested"`
	BussingTablesNeeded bool `json:"bussing_tables_needed"`
	UtensilsRequested   bool `json:"utensils_requested"`
	PlatesRequested     bool `json:"plates_requested"`
	CupsRequested       bool `json:"cups_requested"`
	NapkinsRequested    bool `json:"napkins_requested"`
	IceRequested        bool `json:"ice_requested"`

	DietaryRestrictions        []string `json:"dietary_restrictions" validate:"max=20,dive,max=80"`
	GuestCountWithRestrictions string   `json:"guest_count_with_restrictions" validate:"max=200"`

	CeremonyIncluded          bool   `json:"ceremony_included"`
	CocktailHour              bool   `json:"cocktail_hour"`
	GovernmentComplianceLevel string `json:"government_compliance_level" validate:"max=60"`
	PONumber                  string `json:"po_number" validate:"max=60"`

	SpecialRequests string `json:"special_requests" validate:"max=4000"`
	ReferralSource  string `json:"referral_source" validate:"max=120"`
}

// ListParams filters the admin quote list.
type ListParams struct {
	Status    string
	EventFrom string
	EventTo   string
	Search    string
	pagination.Params
}

// ListResult wraps a page of quotes and the cursor for the next page.
type ListResult struct {
	Items  []models.QuoteRequest `json:"items"`
	Cursor string                `json:"cursor"`
}

func (in SubmitInput) validate() error {
	if strings.TrimSpace(in.ContactName) == "" {
		return pkgerrors.Field("contact_name", "is required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return pkgerrors.Field("email", "must be a valid email")
	}
	if in.GuestCount < 1 || in.GuestCount > MaxGuestCount {
		return pkgerrors.Field("guest_count", "must be between 1 and 5000")
	}
	if _, err := parseEventDate(in.EventDate); err != nil {
		return pkgerrors.Field("event_date", "must be a YYYY-MM-DD date")
	}
	if st := strings.TrimSpace(in.ServiceType); st != "" {
		if _, err := enums.ParseServiceType(st); err != nil {
			return pkgerrors.Field("service_type", "is not a known service type")
		}
	}
	return nil
}

func (in SubmitInput) toModel() models.QuoteRequest {
	eventDate, _ := parseEventDate(in.EventDate)
	return models.QuoteRequest{
		Status:      enums.QuoteStatusNew,
		ContactName: strings.TrimSpace(in.ContactName),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:       strings.TrimSpace(in.Phone),
		CompanyName: strings.TrimSpace(in.CompanyName),

		EventName:  strings.TrimSpace(in.EventName),
		EventType:  normalizeID(in.EventType),
		EventDate:  eventDate,
		StartTime:  strings.TrimSpace(in.StartTime),
		EndTime:    strings.TrimSpace(in.EndTime),
		Location:   strings.TrimSpace(in.Location),
		GuestCount: in.GuestCount,

		ServiceType: strings.TrimSpace(in.ServiceType),

		Proteins:          normalizeIDs(in.Proteins),
		Sides:             normalizeIDs(in.Sides),
		Appetizers:        normalizeIDs(in.Appetizers),
		Desserts:          normalizeIDs(in.Desserts),
		Drinks:            normalizeIDs(in.Drinks),
		VegetarianEntrees: normalizeIDs(in.VegetarianEntrees),

		ChafersRequested:    in.ChafersRequested,
		LinensRequested:     in.LinensRequested,
		WaitStaffRequested:  in.WaitStaffRequested,
		BussingTablesNeeded: in.BussingTablesNeeded,
		UtensilsRequested:   in.UtensilsRequested,
		PlatesRequested:     in.PlatesRequested,
		CupsRequested:       in.CupsRequested,
		NapkinsRequested:    in.NapkinsRequested,
		IceRequested:        in.IceRequested,

		DietaryRestrictions:        normalizeIDs(in.DietaryRestrictions),
		GuestCountWithRestrictions: strings.TrimSpace(in.GuestCountWithRestrictions),

		CeremonyIncluded:          in.CeremonyIncluded,
		CocktailHour:              in.CocktailHour,
		GovernmentComplianceLevel: strings.TrimSpace(in.GovernmentComplianceLevel),
		PONumber:                  strings.TrimSpace(in.PONumber),

		SpecialRequests: strings.TrimSpace(in.SpecialRequests),
		ReferralSource:  strings.TrimSpace(in.ReferralSource),
	}
}

func parseEventDate(raw string) (time.Time, error) {
	return time.Parse(eventDateLayout, strings.TrimSpace(raw))
}

func normalizeID(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeIDs(ids []string) dbtypes.StringList {
	out := dbtypes.StringList{}
	for _, id := range ids {
		if clean := normalizeID(id); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func cursorOf(q models.QuoteRequest) pagination.Cursor {
	return pagination.Cursor{CreatedAt: q.CreatedAt, ID: q.ID}
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := parseEventDate(raw)
	if err != nil {
		return nil, pkgerrors.Field(field, "must be a YYYY-MM-DD date")
	}
	return &parsed, nil
}
