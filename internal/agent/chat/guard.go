package chat

import (
	"regexp"
	"strings"
)

const (
	// RedirectMessage is returned for clearly off-domain questions.
	RedirectMessage = "I'm a travel assistant focused on helping you plan your trips. " +
		"I can't help with that, but I'd be happy to answer questions about your itinerary, " +
		"destinations, hotels, food, culture or getting around Vietnam."

	// ApologyMessage is returned when the turn fails.
	ApologyMessage = "I'm sorry, I ran into a problem while answering your question. Please try again in a moment."
)

var (
	mathLeadIn   = regexp.MustCompile(`(?i)^(what\s+is|what's|whats|calculate|compute|solve|evaluate|how\s+much\s+is)\s+`)
	mathBody     = regexp.MustCompile(`^[\d\s.,+\-*/×÷^%()=x]+$`)
	mathOperator = regexp.MustCompile(`\d\s*[+\-*/×÷^%x]\s*[\d(]`)
	mathWords    = regexp.MustCompile(`(?i)\d+\s+(plus|minus|times|multiplied\s+by|divided\s+by)\s+\d+`)

	// Only explicit requests. Bare nouns like "code" or "program" also show up
	// in travel questions and are left to the system directive.
	offDomainRequests = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(tell|give|share)\s+(me|us)?\s*(a|an|another|some)\s+(jokes?|riddles?|poems?|limericks?|haikus?|tongue\s+twisters?)\b`),
		regexp.MustCompile(`(?i)\b(write|compose)\s+(me\s+|us\s+)?(a|an|some)\s+(poems?|haikus?|limericks?|riddles?|songs?)\b`),
		regexp.MustCompile(`(?i)\b(write|debug|fix|refactor)\s+(me\s+)?(a\s+|some\s+|my\s+|this\s+|the\s+)?(\w+\s+)?(code|program|script|function|sql\s+query|regex)\b`),
	}

	travelWords = regexp.MustCompile(`(?i)\b(travel|trip|itinerary|hotels?|hostels?|resorts?|stay|flights?|airport|visa|` +
		`food|eat|restaurants?|dish(es)?|street\s+food|pho|banh\s+mi|weather|beach(es)?|tour|museum|temple|pagoda|` +
		`budget|cost|price|currency|dong|vnd|pack(ing)?|transport|bus|train|taxi|grab|motorbike|day|days|night|` +
		`vietnam|hanoi|saigon|ho\s+chi\s+minh|da\s+nang|hoi\s+an|hue|sapa|ha\s+long|halong|nha\s+trang|phu\s+quoc|` +
		`da\s+lat|dalat|mekong|ninh\s+binh|culture|festival|nightlife)\b`)
)

// IsOffDomain reports whether question is clearly unrelated to travel:
// arithmetic, or an explicit request for a joke, poem, riddle or code. Any
// travel term wins.
func IsOffDomain(question string) bool {
	q := strings.TrimSpace(question)
	if q == "" {
		return false
	}
	if travelWords.MatchString(q) {
		return false
	}
	if isArithmetic(q) {
		return true
	}
	for _, re := range offDomainRequests {
		if re.MatchString(q) {
			return true
		}
	}
	return false
}

func isArithmetic(q string) bool {
	if mathWords.MatchString(q) {
		return true
	}
	body := mathLeadIn.ReplaceAllString(q, "")
	body = strings.TrimSpace(strings.TrimRight(body, "?!. "))
	return mathBody.MatchString(body) && mathOperator.MatchString(body)
}
