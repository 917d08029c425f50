package category

import "strings"

// Category is the fixed set of expense buckets.
type Category string

const (
	Travel    Category = "travel"
	Meals     Category = "meals"
	Office    Category = "office"
	Equipment Category = "equipment"
	Other     Category = "other"
)

var descriptions = map[Category]string{
	Travel:    "Transport, lodging and per diem while travelling",
	Meals:     "Client meals and team food",
	Office:    "Office supplies and consumables",
	Equipment: "Hardware and durable equipment",
	Other:     "Anything that does not fit another category",
}

// All returns the categories in display order.
func All() []Category {
	return []Category{Travel, Meals, Office, Equipment, Other}
}

// Names returns the category values as plain strings, for validators.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return names
}

// Parse normalizes value and reports whether it names a known category.
func Parse(value string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	_, ok := descriptions[c]
	return c, ok
}

func (c Category) Description() string {
	return descriptions[c]
}

func (c Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		Name:        string(c),
		Description: c.Description(),
	}
}
