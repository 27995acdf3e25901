package design

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxProducts bounds every shopping list regardless of its source.
const MaxProducts = 3

type keywordRule struct {
	term  string
	label string
}

// keywordRules is scanned in declared order so repeated runs over the same
// instruction always emit the same stubs.
var keywordRules = []keywordRule{
	{"sofa", "Sofa"}, {"couch", "Sofa"},
	{"chair", "Accent Chair"}, {"rug", "Area Rug"},
	{"lamp", "Lighting"}, {"light", "Lighting"},
	{"mirror", "Mirror"}, {"plant", "Indoor Plant"},
	{"table", "Table"}, {"curtains", "Curtains"},
	{"stool", "Bar Stool"}, {"bed", "Bed Frame"},
}

type defaultItem struct {
	name  string
	typ   string
	query string
}

// FallbackProducts derives up to MaxProducts shoppable stubs without any
// network dependency. Keywords found in the instruction win; room-type
// defaults fill the remaining slots. Total and deterministic.
func FallbackProducts(style, roomType, instruction string) []Product {
	products := make([]Product, 0, MaxProducts)
	cleanInstruction := strings.ToLower(instruction)
	displayStyle := DisplayStyle(style)

	for _, rule := range keywordRules {
		if !strings.Contains(cleanInstruction, rule.term) {
			continue
		}
		products = append(products, Product{
			Name:  displayStyle + " " + rule.label,
			Type:  "Detected Item",
			Price: "Check Prices",
			Image: PlaceholderThumbnail(rule.label),
			Link:  ShoppingLink(displayStyle + "+" + strings.ReplaceAll(rule.label, " ", "+")),
		})
	}

	if len(products) < MaxProducts {
		for _, item := range roomDefaults(displayStyle, roomType) {
			if len(products) >= MaxProducts {
				break
			}
			products = append(products, Product{
				Name:  item.name,
				Type:  item.typ,
				Price: "Check Prices",
				Image: PlaceholderThumbnail(thumbnailWord(item.name)),
				Link:  ShoppingLink(item.query),
			})
		}
	}

	if len(products) > MaxProducts {
		products = products[:MaxProducts]
	}
	return products
}

func roomDefaults(displayStyle, roomType string) []defaultItem {
	switch roomType {
	case "Kitchen":
		return []defaultItem{
			{displayStyle + " Bar Stool", "Furniture", displayStyle + "+Bar+Stool"},
			{displayStyle + " Pendant Light", "Lighting", displayStyle + "+Kitchen+Pendant"},
			{"Kitchen Decor Set", "Decor", displayStyle + "+Kitchen+Decor"},
		}
	case "Bedroom":
		return []defaultItem{
			{displayStyle + " Bed Frame", "Furniture", displayStyle + "+Bed+Frame"},
			{displayStyle + " Nightstand", "Furniture", displayStyle + "+Nightstand"},
			{"Table Lamp", "Lighting", displayStyle + "+Table+Lamp"},
		}
	case "Bathroom":
		return []defaultItem{
			{displayStyle + " Vanity Mirror", "Decor", displayStyle + "+Bathroom+Mirror"},
			{"Bath Accessories", "Decor", displayStyle + "+Bath+Set"},
			{"Wall Sconce", "Lighting", displayStyle + "+Wall+Sconce"},
		}
	default:
		return []defaultItem{
			{displayStyle + " Lounge Chair", "Furniture", displayStyle + "+Accent+Chair"},
			{displayStyle + " Rug", "Decor", displayStyle + "+Area+Rug"},
			{displayStyle + " Floor Lamp", "Lighting", displayStyle + "+Floor+Lamp"},
		}
	}
}

// DisplayStyle renders a style id as a product-label prefix. The custom
// style has no meaningful label of its own and reads as Modern.
func DisplayStyle(style string) string {
	if style == "" || style == "custom" {
		return "Modern"
	}
	return cases.Title(language.Und).String(style)
}

// PlaceholderThumbnail builds the stand-in product image used until a real
// catalog integration exists.
func PlaceholderThumbnail(label string) string {
	return "https://placehold.co/200x200/F5F5F4/333?text=" + strings.ReplaceAll(label, " ", "+")
}

// ShoppingLink builds the outbound shopping-search URL from a +-joined query.
func ShoppingLink(query string) string {
	return "https://www.google.com/search?tbm=shop&q=" + query
}

// thumbnailWord picks the label rendered on a default item's thumbnail: the
// word after the style prefix when present, otherwise the whole name.
func thumbnailWord(name string) string {
	parts := strings.Fields(name)
	if len(parts) > 1 {
		return parts[1]
	}
	return name
}
