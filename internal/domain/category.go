package domain

// Category is one of the exercise types the catalog can be browsed by.
type Category struct {
	Type string `json:"type"` // Value sent to the catalog, e.g. "olympic_weightlifting"
	Name string `json:"name"` // Display name
}

// Categories lists the browsable catalog types in display order.
var Categories = []Category{
	{Type: "cardio", Name: "Cardio"},
	{Type: "olympic_weightlifting", Name: "Olympic Weightlifting"},
	{Type: "plyometrics", Name: "Plyometric"},
	{Type: "powerlifting", Name: "Powerlifting"},
	{Type: "strength", Name: "Strength"},
	{Type: "stretching", Name: "Stretching"},
	{Type: "strongman", Name: "Strongman"},
}

// LookupCategory finds a category by its catalog type.
func LookupCategory(typ string) (Category, bool) {
	for _, c := range Categories {
		if c.Type == typ {
			return c, true
		}
	}
	return Category{}, false
}
