// Package menu holds the catalog of known menu-item identifiers and the rule
// that turns an identifier into display text.
package menu

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Course string

const (
	CourseProtein    Course = "protein"
	CourseSide       Course = "side"
	CourseAppetizer  Course = "appetizer"
	CourseDessert    Course = "dessert"
	CourseDrink      Course = "drink"
	CourseVegetarian Course = "vegetarian_entree"
	CourseEventType  Course = "event_type"
)

// Item is one catalog entry. Popular is curated by hand and shown as a badge
// on the public menu.
type Item struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Course  Course `json:"course"`
	Popular bool   `json:"popular"`
}

var catalog = []Item{
	{ID: "fried-chicken", Label: "Fried Chicken", Course: CourseProtein, Popular: true},
	{ID: "bbq-chicken", Label: "BBQ Chicken", Course: CourseProtein, Popular: true},
	{ID: "baked-chicken", Label: "Baked Chicken", Course: CourseProtein},
	{ID: "jerk-chicken", Label: "Jerk Chicken", Course: CourseProtein},
	{ID: "smoked-brisket", Label: "Smoked Brisket", Course: CourseProtein, Popular: true},
	{ID: "pulled-pork", Label: "Pulled Pork", Course: CourseProtein},
	{ID: "bbq-ribs", Label: "BBQ Ribs", Course: CourseProtein},
	{ID: "smothered-pork-chops", Label: "Smothered Pork Chops", Course: CourseProtein},
	{ID: "turkey-wings", Label: "Smothered Turkey Wings", Course: CourseProtein},
	{ID: "fried-catfish", Label: "Fried Catfish", Course: CourseProtein},
	{ID: "shrimp-and-grits", Label: "Shrimp & Grits", Course: CourseProtein},
	{ID: "oxtails", Label: "Braised Oxtails", Course: CourseProtein},

	{ID: "mac-and-cheese", Label: "Mac & Cheese", Course: CourseSide, Popular: true},
	{ID: "collard-greens", Label: "Collard Greens", Course: CourseSide, Popular: true},
	{ID: "candied-yams", Label: "Candied Yams", Course: CourseSide},
	{ID: "potato-salad", Label: "Potato Salad", Course: CourseSide},
	{ID: "baked-beans", Label: "BBQ Baked Beans", Course: CourseSide},
	{ID: "green-beans", Label: "Southern Green Beans", Course: CourseSide},
	{ID: "cornbread", Label: "Cornbread", Course: CourseSide},
	{ID: "rice-and-gravy", Label: "Rice & Gravy", Course: CourseSide},
	{ID: "coleslaw", Label: "Coleslaw", Course: CourseSide},
	{ID: "mashed-potatoes", Label: "Mashed Potatoes", Course: CourseSide},
	{ID: "black-eyed-peas", Label: "Black-Eyed Peas", Course: CourseSide},
	{ID: "corn-on-the-cob", Label: "Corn on the Cob", Course: CourseSide},

	{ID: "deviled-eggs", Label: "Deviled Eggs", Course: CourseAppetizer, Popular: true},
	{ID: "party-wings", Label: "Party Wings", Course: CourseAppetizer},
	{ID: "meatballs", Label: "Sweet & Sour Meatballs", Course: CourseAppetizer},
	{ID: "shrimp-cocktail", Label: "Shrimp Cocktail", Course: CourseAppetizer},
	{ID: "fried-green-tomatoes", Label: "Fried Green Tomatoes", Course: CourseAppetizer},
	{ID: "cheese-and-crackers", Label: "Cheese & Crackers", Course: CourseAppetizer},
	{ID: "spinach-dip", Label: "Spinach Artichoke Dip", Course: CourseAppetizer},
	{ID: "fruit-tray", Label: "Fresh Fruit Tray", Course: CourseAppetizer},
	{ID: "veggie-tray", Label: "Veggie Tray", Course: CourseAppetizer},
	{ID: "vegan-spring-rolls", Label: "Vegan Spring Rolls", Course: CourseAppetizer},
	{ID: "vegetarian-sliders", Label: "Vegetarian Sliders", Course: CourseAppetizer},

	{ID: "peach-cobbler", Label: "Peach Cobbler", Course: CourseDessert, Popular: true},
	{ID: "banana-pudding", Label: "Banana Pudding", Course: CourseDessert, Popular: true},
	{ID: "sweet-potato-pie", Label: "Sweet Potato Pie", Course: CourseDessert},
	{ID: "red-velvet-cake", Label: "Red Velvet Cake", Course: CourseDessert},
	{ID: "pound-cake", Label: "Pound Cake", Course: CourseDessert},
	{ID: "bread-pudding", Label: "Bread Pudding", Course: CourseDessert},

	{ID: "sweet-tea", Label: "Sweet Tea", Course: CourseDrink, Popular: true},
	{ID: "lemonade", Label: "Lemonade", Course: CourseDrink},
	{ID: "arnold-palmer", Label: "Arnold Palmer", Course: CourseDrink},
	{ID: "fruit-punch", Label: "Fruit Punch", Course: CourseDrink},
	{ID: "bottled-water", Label: "Bottled Water", Course: CourseDrink},
	{ID: "coffee-service", Label: "Coffee Service", Course: CourseDrink},

	{ID: "veggie-lasagna", Label: "Vegetable Lasagna", Course: CourseVegetarian},
	{ID: "stuffed-peppers", Label: "Stuffed Bell Peppers", Course: CourseVegetarian},
	{ID: "black-bean-burgers", Label: "Black Bean Burgers", Course: CourseVegetarian},
	{ID: "eggplant-parmesan", Label: "Eggplant Parmesan", Course: CourseVegetarian},

	{ID: "corporate", Label: "Corporate", Course: CourseEventType},
	{ID: "wedding", Label: "Wedding", Course: CourseEventType},
	{ID: "birthday", Label: "Birthday", Course: CourseEventType},
	{ID: "graduation", Label: "Graduation", Course: CourseEventType},
	{ID: "government", Label: "Government", Course: CourseEventType},
	{ID: "holiday-party", Label: "Holiday Party", Course: CourseEventType},
	{ID: "family-reunion", Label: "Family Reunion", Course: CourseEventType},
	{ID: "memorial", Label: "Memorial Service", Course: CourseEventType},
	{ID: "church", Label: "Church Event", Course: CourseEventType},
}

var byID = func() map[string]Item {
	m := make(map[string]Item, len(catalog))
	for _, item := range catalog {
		m[item.ID] = item
	}
	return m
}()

// Lookup returns the catalog entry for id.
func Lookup(id string) (Item, bool) {
	item, ok := byID[strings.ToLower(strings.TrimSpace(id))]
	return item, ok
}

// Format renders an identifier as display text: the catalog label when known,
// otherwise each hyphen-separated token title-cased and joined with spaces.
func Format(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if item, ok := Lookup(id); ok {
		return item.Label
	}

	caser := cases.Title(language.English)
	tokens := strings.Split(id, "-")
	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		words = append(words, caser.String(token))
	}
	return strings.Join(words, " ")
}

// FormatAll formats every non-blank identifier, preserving order.
func FormatAll(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if label := Format(id); label != "" {
			out = append(out, label)
		}
	}
	return out
}

// Catalog returns the known items grouped by course, then alphabetically.
func Catalog() []Item {
	out := make([]Item, len(catalog))
	copy(out, catalog)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Course != out[j].Course {
			return courseRank(out[i].Course) < courseRank(out[j].Course)
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func courseRank(c Course) int {
	switch c {
	case CourseProtein:
		return 0
	case CourseSide:
		return 1
	case CourseAppetizer:
		return 2
	case CourseDessert:
		return 3
	case CourseDrink:
		return 4
	case CourseVegetarian:
		return 5
	default:
		return 6
	}
}
