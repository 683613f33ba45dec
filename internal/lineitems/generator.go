// Package lineitems decomposes a quote request into the ordered, unpriced
// line items of a draft estimate.
package lineitems

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catering-backend/internal/menu"
	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
)

// DietaryGuestShare estimates how many guests need the dietary appetizer when
// the quote carries no explicit count. Placeholder until intake collects one.
var DietaryGuestShare = decimal.RequireFromString("0.1")

const (
	packageSideLimit         = 2
	vegetarianEntreeFallback = "Chef's choice vegetarian entrée"
	dinnerRollsSuffix        = "dinner rolls"
	metadataSource           = "customer_request"
)

// Stable keys identify each tier so repeated generation yields equal output.
const (
	KeyCateringPackage   = "catering-package"
	KeyAppetizers        = "appetizers"
	KeyDietaryAppetizers = "appetizers-dietary"
	KeyAdditionalSides   = "additional-sides"
	KeyDesserts          = "desserts"
	KeyVegetarianEntree  = "vegetarian-entree"
	KeyServicePackage    = "service-package"
	KeySupplies          = "supplies"
)

// LineItem is a billing row before it is persisted. Prices are integer cents.
type LineItem struct {
	Key             string                 `json:"key"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Quantity        int                    `json:"quantity"`
	UnitPriceCents  int64                  `json:"unit_price_cents"`
	TotalPriceCents int64                  `json:"total_price_cents"`
	Category        enums.LineItemCategory `json:"category"`
	Metadata        map[string]string      `json:"metadata,omitempty"`
}

type addon struct {
	key         string
	field       string
	title       string
	description string
	enabled     func(q models.QuoteRequest) bool
}

var serviceAddons = []addon{
	{
		key:         "addon-wait-staff",
		field:       "wait_staff_requested",
		title:       "Wait Staff Service",
		description: "Professional wait staff for the duration of the event",
		enabled:     func(q models.QuoteRequest) bool { return q.WaitStaffRequested },
	},
	{
		key:         "addon-bussing",
		field:       "bussing_tables_needed",
		title:       "Table Bussing Service",
		description: "Staff to clear and reset tables throughout the event",
		enabled:     func(q models.QuoteRequest) bool { return q.BussingTablesNeeded },
	},
	{
		key:         "addon-ceremony",
		field:       "ceremony_included",
		title:       "Ceremony Service",
		description: "Service coverage for the ceremony portion of the event",
		enabled:     func(q models.QuoteRequest) bool { return q.CeremonyIncluded },
	},
	{
		key:         "addon-cocktail-hour",
		field:       "cocktail_hour",
		title:       "Cocktail Hour Service",
		description: "Passed and stationed service during the cocktail hour",
		enabled:     func(q models.QuoteRequest) bool { return q.CocktailHour },
	},
}

var (
	dietaryMarkers = []string{"vegan", "vegetarian", "veggie"}
	firstInteger   = regexp.MustCompile(`\d+`)
)

// Generate returns the line items for q in display order. It never fails:
// missing selections suppress their tier. Every item is unpriced.
func Generate(q models.QuoteRequest) []LineItem {
	guests := q.GuestCount
	if guests < 0 {
		guests = 0
	}

	proteins := cleanIDs(q.Proteins)
	sides := cleanIDs(q.Sides)
	drinks := cleanIDs(q.Drinks)
	desserts := cleanIDs(q.Desserts)
	vegetarian := cleanIDs(q.VegetarianEntrees)
	regularApps, dietaryApps := splitAppetizers(cleanIDs(q.Appetizers))
	serviceType, knownService := parseServiceType(q.ServiceType)

	items := make([]LineItem, 0, 8)

	if len(proteins) > 0 {
		items = append(items, LineItem{
			Key:         KeyCateringPackage,
			Title:       packageTitle(q.EventType),
			Description: packageDescription(proteins, sides, drinks),
			Quantity:    guests,
			Category:    enums.LineItemCategoryPackage,
		})
	}

	if len(regularApps) > 0 {
		items = append(items, LineItem{
			Key:         KeyAppetizers,
			Title:       "Appetizer Selection",
			Description: joinNatural(menu.FormatAll(regularApps)),
			Quantity:    guests,
			Category:    enums.LineItemCategoryAppetizers,
		})
	}

	if len(dietaryApps) > 0 {
		items = append(items, LineItem{
			Key:         KeyDietaryAppetizers,
			Title:       "Dietary Appetizer Selection",
			Description: joinNatural(menu.FormatAll(dietaryApps)),
			Quantity:    dietaryGuestCount(guests),
			Category:    enums.LineItemCategoryDietary,
		})
	}

	if len(sides) > packageSideLimit {
		items = append(items, LineItem{
			Key:         KeyAdditionalSides,
			Title:       "Additional Side Selection",
			Description: joinNatural(menu.FormatAll(sides[packageSideLimit:])),
			Quantity:    guests,
			Category:    enums.LineItemCategorySides,
		})
	}

	if len(desserts) > 0 {
		items = append(items, LineItem{
			Key:         KeyDesserts,
			Title:       "Dessert Selection",
			Description: joinNatural(menu.FormatAll(desserts)),
			Quantity:    guests,
			Category:    enums.LineItemCategoryDesserts,
		})
	}

	descriptor := strings.TrimSpace(q.GuestCountWithRestrictions)
	if descriptor != "" || len(vegetarian) > 0 {
		description := vegetarianEntreeFallback
		if len(vegetarian) > 0 {
			description = joinNatural(menu.FormatAll(vegetarian))
		}
		items = append(items, LineItem{
			Key:         KeyVegetarianEntree,
			Title:       "Vegetarian Entrée Selection",
			Description: description,
			Quantity:    restrictedGuestCount(descriptor),
			Category:    enums.LineItemCategoryDietary,
		})
	}

	if knownService {
		items = append(items, LineItem{
			Key:         KeyServicePackage,
			Title:       "Service Package",
			Description: serviceType.Label(),
			Quantity:    1,
			Category:    enums.LineItemCategoryService,
		})
	}

	for _, a := range serviceAddons {
		if !a.enabled(q) {
			continue
		}
		items = append(items, LineItem{
			Key:         a.key,
			Title:       a.title,
			Description: a.description,
			Quantity:    1,
			Category:    enums.LineItemCategoryServiceAddon,
			Metadata:    map[string]string{"source": metadataSource, "field": a.field},
		})
	}

	if supplies := supplyLabels(q, serviceType); len(supplies) > 0 {
		items = append(items, LineItem{
			Key:         KeySupplies,
			Title:       "Supply & Equipment Package",
			Description: strings.Join(supplies, ", "),
			Quantity:    1,
			Category:    enums.LineItemCategorySupplies,
		})
	}

	return items
}

func packageTitle(eventType string) string {
	label := menu.Format(eventType)
	if label == "" {
		return "Catering Package"
	}
	return label + " Catering Package"
}

func packageDescription(proteins, sides, drinks []string) string {
	var b strings.Builder
	b.WriteString(strings.Join(menu.FormatAll(proteins), " & "))

	included := sides
	if len(included) > packageSideLimit {
		included = included[:packageSideLimit]
	}
	if len(included) > 0 {
		b.WriteString(" with ")
		b.WriteString(strings.Join(menu.FormatAll(included), " and "))
	}

	b.WriteString(", ")
	b.WriteString(dinnerRollsSuffix)

	if len(drinks) > 0 {
		b.WriteString(", ")
		b.WriteString(strings.Join(menu.FormatAll(drinks), " and "))
	}
	return b.String()
}

func splitAppetizers(ids []string) (regular, dietary []string) {
	for _, id := range ids {
		if isDietary(id) {
			dietary = append(dietary, id)
			continue
		}
		regular = append(regular, id)
	}
	return regular, dietary
}

func isDietary(id string) bool {
	lower := strings.ToLower(id)
	for _, marker := range dietaryMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func dietaryGuestCount(guests int) int {
	n := int(decimal.NewFromInt(int64(guests)).Mul(DietaryGuestShare).Floor().IntPart())
	if n < 1 {
		return 1
	}
	return n
}

func restrictedGuestCount(descriptor string) int {
	match := firstInteger.FindString(descriptor)
	if match == "" {
		return 1
	}
	// an explicit "0" is kept; only a descriptor without a usable number
	// falls back to 1
	n, err := strconv.Atoi(match)
	if err != nil {
		return 1
	}
	return n
}

func parseServiceType(raw string) (enums.ServiceType, bool) {
	st, err := enums.ParseServiceType(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", false
	}
	return st, true
}

func supplyLabels(q models.QuoteRequest, serviceType enums.ServiceType) []string {
	var out []string
	if q.ChafersRequested {
		if serviceType == enums.ServiceTypeFullService {
			out = append(out, "Chafing Dishes with Fuel")
		} else {
			out = append(out, "Food Warmers with Fuel")
		}
	}
	if q.UtensilsRequested {
		out = append(out, "Serving Utensils")
	}
	if q.PlatesRequested {
		out = append(out, "Plates")
	}
	if q.CupsRequested {
		out = append(out, "Cups")
	}
	if q.NapkinsRequested {
		out = append(out, "Napkins")
	}
	if q.IceRequested {
		out = append(out, "Ice")
	}
	return out
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// joinNatural renders "a", "a and b", "a, b and c".
func joinNatural(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
	}
}
