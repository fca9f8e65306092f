package model

// MinContextLength is the retrieved-text length at which local knowledge is
// considered sufficient on its own.
const MinContextLength = 500

// Section labels, in merge order.
const (
	LabelLocalKnowledge = "Vietnam Travel Context (Local Knowledge)"
	LabelWebSearch      = "Additional Travel Information (Web Search)"
	LabelWeather        = "Weather Information"
)

// Section is one labeled slice of generation context. Empty text means the
// section is absent.
type Section struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ContextBundle holds the context sources gathered for one planning run.
type ContextBundle struct {
	LocalKnowledge string `json:"local_knowledge"`
	WebSearch      string `json:"web_search"`
	Weather        string `json:"weather"`
}

// Sections returns the bundle in its fixed order, empty sections included.
func (b ContextBundle) Sections() []Section {
	return []Section{
		{Label: LabelLocalKnowledge, Text: b.LocalKnowledge},
		{Label: LabelWebSearch, Text: b.WebSearch},
		{Label: LabelWeather, Text: b.Weather},
	}
}

// SufficiencySignal reports whether retrieved knowledge met the threshold.
type SufficiencySignal struct {
	TotalLength int  `json:"total_length"`
	Sufficient  bool `json:"sufficient"`
}

// NewSufficiencySignal derives the signal from a total retrieved length.
func NewSufficiencySignal(totalLength int) SufficiencySignal {
	return SufficiencySignal{
		TotalLength: totalLength,
		Sufficient:  totalLength >= MinContextLength,
	}
}
