package lineitems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catering-backend/pkg/db/models"
	"github.com/angelmondragon/catering-backend/pkg/enums"
)

func keys(items []LineItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Key)
	}
	return out
}

func find(t *testing.T, items []LineItem, key string) LineItem {
	t.Helper()
	for _, item := range items {
		if item.Key == key {
			return item
		}
	}
	t.Fatalf("line item %q not found in %v", key, keys(items))
	return LineItem{}
}

func TestGenerateFriedChickenScenario(t *testing.T) {
	quote := models.QuoteRequest{
		Proteins:         []string{"fried-chicken"},
		Sides:            []string{"mac-and-cheese", "collard-greens", "cornbread"},
		GuestCount:       50,
		ServiceType:      "full-service",
		ChafersRequested: true,
	}

	items := Generate(quote)

	require.Equal(t, []string{KeyCateringPackage, KeyAdditionalSides, KeyServicePackage, KeySupplies}, keys(items))

	pkg := items[0]
	assert.Equal(t, "Catering Package", pkg.Title)
	assert.Equal(t, 50, pkg.Quantity)
	assert.Equal(t, "Fried Chicken with Mac & Cheese and Collard Greens, dinner rolls", pkg.Description)
	assert.Equal(t, enums.LineItemCategoryPackage, pkg.Category)

	sides := items[1]
	assert.Equal(t, "Additional Side Selection", sides.Title)
	assert.Equal(t, 50, sides.Quantity)
	assert.Equal(t, "Cornbread", sides.Description)

	service := items[2]
	assert.Equal(t, 1, service.Quantity)
	assert.Equal(t, "Full Service Catering", service.Description)

	supplies := items[3]
	assert.Equal(t, "Supply & Equipment Package", supplies.Title)
	assert.Equal(t, 1, supplies.Quantity)
	assert.Equal(t, "Chafing Dishes with Fuel", supplies.Description)

	for _, item := range items {
		assert.Zero(t, item.UnitPriceCents, item.Key)
		assert.Zero(t, item.TotalPriceCents, item.Key)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	quote := models.QuoteRequest{
		EventType:          "wedding",
		Proteins:           []string{"smoked-brisket", "bbq-chicken"},
		Sides:              []string{"potato-salad", "baked-beans", "coleslaw", "cornbread"},
		Appetizers:         []string{"deviled-eggs", "veggie-tray"},
		Desserts:           []string{"peach-cobbler"},
		Drinks:             []string{"sweet-tea", "lemonade"},
		GuestCount:         120,
		ServiceType:        "delivery-setup",
		WaitStaffRequested: true,
		CocktailHour:       true,
		PlatesRequested:    true,
	}

	first := Generate(quote)
	second := Generate(quote)
	assert.Equal(t, first, second)
}

func TestGenerateSuppressesAppetizerTiersWithoutAppetizers(t *testing.T) {
	items := Generate(models.QuoteRequest{Proteins: []string{"fried-catfish"}, GuestCount: 30})
	for _, item := range items {
		assert.NotEqual(t, KeyAppetizers, item.Key)
		assert.NotEqual(t, KeyDietaryAppetizers, item.Key)
	}
}

func TestGenerateRoutesDietaryAppetizers(t *testing.T) {
	items := Generate(models.QuoteRequest{
		Appetizers: []string{"vegan-spring-rolls", "fried-chicken-wings"},
		GuestCount: 45,
	})

	require.Equal(t, []string{KeyAppetizers, KeyDietaryAppetizers}, keys(items))
	assert.Equal(t, "Fried Chicken Wings", items[0].Description)
	assert.Equal(t, 45, items[0].Quantity)
	assert.Equal(t, "Vegan Spring Rolls", items[1].Description)
	assert.Equal(t, enums.LineItemCategoryDietary, items[1].Category)
	assert.Equal(t, 4, items[1].Quantity)
}

func TestGenerateDietaryAppetizerMatchingIsCaseInsensitive(t *testing.T) {
	items := Generate(models.QuoteRequest{
		Appetizers: []string{"VEGGIE-Tray", "Vegetarian-Sliders"},
		GuestCount: 5,
	})

	require.Equal(t, []string{KeyDietaryAppetizers}, keys(items))
	assert.Equal(t, "Veggie Tray and Vegetarian Sliders", items[0].Description)
	assert.Equal(t, 1, items[0].Quantity, "small events still get one dietary portion")
}

func TestGeneratePackageIncludesDrinksAndEventType(t *testing.T) {
	items := Generate(models.QuoteRequest{
		EventType:  "holiday-party",
		Proteins:   []string{"jerk-chicken", "oxtails"},
		Drinks:     []string{"sweet-tea", "arnold-palmer"},
		GuestCount: 80,
	})

	pkg := find(t, items, KeyCateringPackage)
	assert.Equal(t, "Holiday Party Catering Package", pkg.Title)
	assert.Equal(t, "Jerk Chicken & Braised Oxtails, dinner rolls, Sweet Tea and Arnold Palmer", pkg.Description)
}

func TestGenerateListsExtraSidesAndDesserts(t *testing.T) {
	items := Generate(models.QuoteRequest{
		Sides:      []string{"mac-and-cheese", "collard-greens", "candied-yams", "cornbread", "okra-gumbo"},
		Desserts:   []string{"banana-pudding", "sweet-potato-pie"},
		GuestCount: 60,
	})

	require.Equal(t, []string{KeyAdditionalSides, KeyDesserts}, keys(items))
	assert.Equal(t, "Candied Yams, Cornbread and Okra Gumbo", items[0].Description)
	assert.Equal(t, "Banana Pudding and Sweet Potato Pie", items[1].Description)
	assert.Equal(t, 60, items[1].Quantity)
}

func TestGenerateVegetarianEntree(t *testing.T) {
	tests := []struct {
		name        string
		descriptor  string
		entrees     []string
		quantity    int
		description string
	}{
		{name: "count from descriptor", descriptor: "about 12 guests are vegetarian", quantity: 12, description: vegetarianEntreeFallback},
		{name: "no digits", descriptor: "a few", quantity: 1, description: vegetarianEntreeFallback},
		{name: "explicit zero", descriptor: "0 guests", quantity: 0, description: vegetarianEntreeFallback},
		{name: "number too large", descriptor: "99999999999999999999 guests", quantity: 1, description: vegetarianEntreeFallback},
		{name: "explicit entrees", entrees: []string{"veggie-lasagna", "stuffed-peppers"}, quantity: 1, description: "Vegetable Lasagna and Stuffed Bell Peppers"},
		{name: "both", descriptor: "8 vegan, 3 gluten free", entrees: []string{"black-bean-burgers"}, quantity: 8, description: "Black Bean Burgers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := Generate(models.QuoteRequest{
				GuestCount:                 40,
				GuestCountWithRestrictions: tt.descriptor,
				VegetarianEntrees:          tt.entrees,
			})
			item := find(t, items, KeyVegetarianEntree)
			assert.Equal(t, tt.quantity, item.Quantity)
			assert.Equal(t, tt.description, item.Description)
			assert.Equal(t, enums.LineItemCategoryDietary, item.Category)
		})
	}
}

func TestGenerateUnknownServiceTypeSuppressesServicePackage(t *testing.T) {
	for _, st := range []string{"", "buffet-deluxe"} {
		items := Generate(models.QuoteRequest{ServiceType: st, ChafersRequested: true})
		assert.Equal(t, []string{KeySupplies}, keys(items), "service type %q", st)
		assert.Equal(t, "Food Warmers with Fuel", items[0].Description)
	}
}

func TestGenerateChaferLabelDependsOnServiceType(t *testing.T) {
	full := Generate(models.QuoteRequest{ServiceType: "full-service", ChafersRequested: true})
	assert.Contains(t, find(t, full, KeySupplies).Description, "Chafing Dishes with Fuel")

	for _, st := range []string{"delivery-setup", "delivery-only", "drop-off"} {
		items := Generate(models.QuoteRequest{ServiceType: st, ChafersRequested: true})
		assert.Contains(t, find(t, items, KeySupplies).Description, "Food Warmers with Fuel", st)
	}
}

func TestGenerateSupplyPackageListsActiveSuppliesOnly(t *testing.T) {
	items := Generate(models.QuoteRequest{
		ServiceType:       "drop-off",
		UtensilsRequested: true,
		NapkinsRequested:  true,
		IceRequested:      true,
		LinensRequested:   true,
	})

	supplies := find(t, items, KeySupplies)
	assert.Equal(t, "Serving Utensils, Napkins, Ice", supplies.Description)
}

func TestGenerateServiceAddonsRecordOriginatingField(t *testing.T) {
	items := Generate(models.QuoteRequest{
		WaitStaffRequested:  true,
		BussingTablesNeeded: true,
		CeremonyIncluded:    true,
		CocktailHour:        true,
	})

	require.Len(t, items, 4)
	fields := []string{"wait_staff_requested", "bussing_tables_needed", "ceremony_included", "cocktail_hour"}
	for i, item := range items {
		assert.Equal(t, enums.LineItemCategoryServiceAddon, item.Category)
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, "customer_request", item.Metadata["source"])
		assert.Equal(t, fields[i], item.Metadata["field"])
	}
}

func TestGenerateEmptyQuote(t *testing.T) {
	assert.Empty(t, Generate(models.QuoteRequest{}))
}

func TestGenerateIgnoresBlankIdentifiers(t *testing.T) {
	items := Generate(models.QuoteRequest{
		Proteins:   []string{" ", ""},
		Desserts:   []string{"", "pound-cake"},
		GuestCount: 10,
	})
	require.Equal(t, []string{KeyDesserts}, keys(items))
	assert.Equal(t, "Pound Cake", items[0].Description)
}

func TestJoinNatural(t *testing.T) {
	assert.Equal(t, "", joinNatural(nil))
	assert.Equal(t, "A", joinNatural([]string{"A"}))
	assert.Equal(t, "A and B", joinNatural([]string{"A", "B"}))
	assert.Equal(t, "A, B and C", joinNatural([]string{"A", "B", "C"}))
}
