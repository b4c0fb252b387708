package constants

import (
	"strings"
)

// Category is the canonical taxonomy for requested line items.
type Category string

const (
	Furniture      Category = "Furniture"
	Electronics    Category = "Electronics"
	AVEquipment    Category = "AV Equipment"
	Catering       Category = "Catering"
	Decoration     Category = "Decoration"
	Printing       Category = "Printing"
	Staffing       Category = "Staffing"
	Transportation Category = "Transportation"
	Venue          Category = "Venue"
	Services       Category = "Services"
	Other          Category = "Other"
)

var allCategories = []Category{
	Furniture,
	Electronics,
	AVEquipment,
	Catering,
	Decoration,
	Printing,
	Staffing,
	Transportation,
	Venue,
	Services,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"chairs":        Furniture,
		"tables":        Furniture,
		"seating":       Furniture,
		"furnishings":   Furniture,
		"audio":         AVEquipment,
		"video":         AVEquipment,
		"sound":         AVEquipment,
		"lighting":      AVEquipment,
		"av":            AVEquipment,
		"food":          Catering,
		"beverages":     Catering,
		"drinks":        Catering,
		"it equipment":  Electronics,
		"computers":     Electronics,
		"signage":       Printing,
		"banners":       Printing,
		"personnel":     Staffing,
		"security":      Staffing,
		"logistics":     Transportation,
		"shipping":      Transportation,
		"location":      Venue,
		"room rental":   Venue,
		"service":       Services,
		"miscellaneous": Other,
		"misc":          Other,
		"uncategorized": Other,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
