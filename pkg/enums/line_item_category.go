package enums

import "fmt"

// LineItemCategory groups invoice line items for display and reporting.
type LineItemCategory string

const (
	LineItemCategoryPackage      LineItemCategory = "package"
	LineItemCategoryAppetizers   LineItemCategory = "appetizers"
	LineItemCategorySides        LineItemCategory = "sides"
	LineItemCategoryDesserts     LineItemCategory = "desserts"
	LineItemCategoryDietary      LineItemCategory = "dietary"
	LineItemCategoryService      LineItemCategory = "service"
	LineItemCategoryServiceAddon LineItemCategory = "service_addon"
	LineItemCategorySupplies     LineItemCategory = "supplies"
)

var validLineItemCategories = []LineItemCategory{
	LineItemCategoryPackage,
	LineItemCategoryAppetizers,
	LineItemCategorySides,
	LineItemCategoryDesserts,
	LineItemCategoryDietary,
	LineItemCategoryService,
	LineItemCategoryServiceAddon,
	LineItemCategorySupplies,
}

// String implements fmt.Stringer.
func (l LineItemCategory) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineItemCategory.
func (l LineItemCategory) IsValid() bool {
	for _, candidate := range validLineItemCategories {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineItemCategory converts raw input into a LineItemCategory.
func ParseLineItemCategory(value string) (LineItemCategory, error) {
	for _, candidate := range validLineItemCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item category %q", value)
}
