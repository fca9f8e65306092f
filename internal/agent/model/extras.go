package model

// ExtraKind names an on-demand enrichment.
type ExtraKind string

const (
	ExtraActivities  ExtraKind = "activities"
	ExtraFoodCulture ExtraKind = "food_culture"
	ExtraHotels      ExtraKind = "hotels"
	ExtraPackingList ExtraKind = "packing_list"
	ExtraUsefulLinks ExtraKind = "useful_links"
)

// Link is a titled URL.
type Link struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Extras holds on-demand enrichment results for a session.
type Extras struct {
	Activities  string `json:"activities,omitempty"`
	FoodCulture string `json:"food_culture,omitempty"`
	Hotels      string `json:"hotels,omitempty"`
	PackingList string `json:"packing_list,omitempty"`
	UsefulLinks []Link `json:"useful_links,omitempty"`
}

// ExtraResult is the output of one enrichment run.
type ExtraResult struct {
	Kind     ExtraKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Links    []Link    `json:"links,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
}
