package research

import (
	"regexp"
	"strings"

	"github.com/nir-assistant/server/internal/agent/model"
)

// visaKeywords flag a message as a visa-shaped query. Substring match on the
// lowercased message, same as the tool descriptions advertise.
var visaKeywords = []string{"visa", "passport", "entry requirement", "travel restriction"}

// IsVisaQuery reports whether the message looks like a visa question.
func IsVisaQuery(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range visaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// countryPair is the outcome of one phrase matcher. A matcher succeeds only
// when both sides are present.
type countryPair struct {
	origin      string
	destination string
}

// visaMatcher inspects the lowercased message and optionally yields an
// origin/destination pair. Matchers are pure and applied in priority order;
// the first success wins.
type visaMatcher func(lower string, extraction model.ExtractionResult) (countryPair, bool)

// Country spans are 1-3 lowercase words.
var (
	doINeedVisaPattern = regexp.MustCompile(`do\s+i\s+need\s+visa\s+from\s+([a-z]+(?:\s+[a-z]+){0,2}?)\s+to\s+([a-z]+(?:\s+[a-z]+){0,2}?)(?:\s|$|[?])`)
	visaFromToPattern  = regexp.MustCompile(`visa\s+from\s+([a-z]+(?:\s+[a-z]+){0,2}?)\s+to\s+([a-z]+(?:\s+[a-z]+){0,2}?)(?:\s|$|[?])`)
	doesNeedPattern    = regexp.MustCompile(`does\s+([a-z]+(?:\s+[a-z]+){0,2}?)\s+need\s+(?:visa|passport)\s+(?:to|for)\s+([a-z]+(?:\s+[a-z]+){0,2}?)(?:\s|$|[?])`)
	genericToPattern   = regexp.MustCompile(`(?:^|\s)([^?\s]+(?:\s+[^?\s]+)*?)\s+to\s+([^?\s]+(?:\s+[^?\s]+)*?)(?:\s|$|[?])`)
	visaForPattern     = regexp.MustCompile(`visa\s+(?:for|to)\s+([^?\s]+(?:\s+[^?\s]+)*?)[?]?`)

	stopWordPattern = regexp.MustCompile(`(?i)\b(do|i|need|visa|from|to|for|a|an|the)\b`)
)

// visaMatchers in priority order: explicit "visa from A to B" phrasings, the
// "does A need visa to B" phrasing, a bare "A to B", and finally "visa for B"
// which borrows the extracted location as origin.
var visaMatchers = []visaMatcher{
	matchDoINeedVisaFromTo,
	matchVisaFromTo,
	matchDoesNeedVisaTo,
	matchGenericTo,
	matchVisaForDestination,
}

func matchDoINeedVisaFromTo(lower string, _ model.ExtractionResult) (countryPair, bool) {
	return pairFromGroups(doINeedVisaPattern.FindStringSubmatch(lower))
}

func matchVisaFromTo(lower string, _ model.ExtractionResult) (countryPair, bool) {
	return pairFromGroups(visaFromToPattern.FindStringSubmatch(lower))
}

func matchDoesNeedVisaTo(lower string, _ model.ExtractionResult) (countryPair, bool) {
	return pairFromGroups(doesNeedPattern.FindStringSubmatch(lower))
}

// matchGenericTo accepts a bare "A to B" only when the matched span is not
// itself visa phrasing, which the higher-priority matchers already own.
func matchGenericTo(lower string, _ model.ExtractionResult) (countryPair, bool) {
	groups := genericToPattern.FindStringSubmatch(lower)
	if groups == nil {
		return countryPair{}, false
	}
	if strings.Contains(groups[0], "visa") || strings.Contains(groups[0], "need") {
		return countryPair{}, false
	}
	return pairFromGroups(groups)
}

// matchVisaForDestination handles "visa for B" / "visa to B", pairing the
// destination with the already-extracted location as origin.
func matchVisaForDestination(lower string, extraction model.ExtractionResult) (countryPair, bool) {
	groups := visaForPattern.FindStringSubmatch(lower)
	if groups == nil || extraction.Location == "" {
		return countryPair{}, false
	}
	return countryPair{origin: extraction.Location, destination: strings.TrimSpace(groups[1])}, true
}

func pairFromGroups(groups []string) (countryPair, bool) {
	if groups == nil {
		return countryPair{}, false
	}
	return countryPair{
		origin:      strings.TrimSpace(groups[1]),
		destination: strings.TrimSpace(groups[2]),
	}, true
}

// ExtractVisaCountries resolves an origin/destination pair from the raw
// message by applying the phrase matchers in priority order and cleaning the
// winning spans. Either side may come back empty when the phrasing is too
// ambiguous, including when stop-word stripping consumes the whole span.
func ExtractVisaCountries(message string, extraction model.ExtractionResult) (origin, destination string) {
	lower := strings.ToLower(message)
	for _, match := range visaMatchers {
		if pair, ok := match(lower, extraction); ok {
			return stripStopWords(pair.origin), stripStopWords(pair.destination)
		}
	}
	return "", ""
}

// stripStopWords removes filler words from a candidate country span and
// collapses the remaining whitespace.
func stripStopWords(span string) string {
	cleaned := stopWordPattern.ReplaceAllString(span, "")
	return strings.Join(strings.Fields(cleaned), " ")
}
