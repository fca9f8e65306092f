package model

import "strings"

// Preferences is the trip request submitted by the user. A new submission
// replaces the previous one wholesale.
type Preferences struct {
	Destination  string `json:"destination"`
	HolidayType  string `json:"holiday_type"`
	Comments     string `json:"comments"`
	CheckInDate  string `json:"check_in_date,omitempty"`
	CheckOutDate string `json:"check_out_date,omitempty"`
	TravelDates  string `json:"travel_dates,omitempty"`
	BudgetType   string `json:"budget_type"`
	NumPeople    string `json:"num_people"`
}

// Category is a knowledge index partition.
type Category string

const (
	CategoryNone          Category = ""
	CategoryHiddenGems    Category = "hidden_gems"
	CategoryFoodCulture   Category = "food_culture"
	CategoryLocalInsights Category = "local_insights"
	CategoryPracticalTips Category = "practical_tips"
)

// ParseCategory returns the recognised category for v, or CategoryNone
// (unfiltered) for anything else.
func ParseCategory(v string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(v))); c {
	case CategoryHiddenGems, CategoryFoodCulture, CategoryLocalInsights, CategoryPracticalTips:
		return c
	default:
		return CategoryNone
	}
}

// Categories lists every recognised category in declaration order.
func Categories() []Category {
	return []Category{CategoryHiddenGems, CategoryFoodCulture, CategoryLocalInsights, CategoryPracticalTips}
}
