package model

// Intent is the classified purpose of a user message. The taxonomy is closed:
// anything the extractor produces outside of it normalises to IntentLegitimate.
type Intent string

const (
	IntentDestination   Intent = "destination"
	IntentAttractions   Intent = "attractions"
	IntentPacking       Intent = "packing"
	IntentLegitimate    Intent = "legitimate"
	IntentUnsupported   Intent = "unsupported"
	IntentNonLegitimate Intent = "non_legitimate"
)

// FictionalLocation is the sentinel the location extractor emits when the
// user asked about a place that does not exist.
const FictionalLocation = "fictional"

// validIntents are the intents that continue through the ordinary pipeline.
var validIntents = map[Intent]bool{
	IntentDestination: true,
	IntentAttractions: true,
	IntentPacking:     true,
	IntentLegitimate:  true,
}

// nonValidIntents terminate the turn with a canned reply.
var nonValidIntents = map[Intent]bool{
	IntentUnsupported:   true,
	IntentNonLegitimate: true,
}

// ParseIntent reports whether the raw label is a member of the closed taxonomy.
func ParseIntent(raw string) (Intent, bool) {
	in := Intent(raw)
	if validIntents[in] || nonValidIntents[in] {
		return in, true
	}
	return "", false
}

// IsValid reports whether the intent continues through the ordinary pipeline.
func (i Intent) IsValid() bool {
	return validIntents[i]
}

// IsNonValid reports whether the intent terminates the turn at the gate.
func (i Intent) IsNonValid() bool {
	return nonValidIntents[i]
}

// NeedsInstruction reports whether the intent carries an intent-specific
// system instruction into the generation context. Packing and legitimate
// turns rely on the persona prompt and any injected research alone.
func (i Intent) NeedsInstruction() bool {
	return i == IntentDestination || i == IntentAttractions
}

var gateMessages = map[Intent]string{
	IntentUnsupported:   "I'm sorry, but I don't support that request at the moment. I can help you with destination recommendations, packing suggestions, and things to do at your destination.",
	IntentNonLegitimate: "I'm sorry, I can't help with that. Please ask a question about travel planning.",
}

// GateMessage returns the canned reply for a non-valid intent. Unknown members
// fall back to the non-legitimate message.
func GateMessage(i Intent) string {
	if msg, ok := gateMessages[i]; ok {
		return msg
	}
	return gateMessages[IntentNonLegitimate]
}

// ExtractionResult carries the structured fields derived from one user
// message. Empty fields mean "could not be determined", not "false".
// A result is immutable once the extraction fan-in has composed it.
type ExtractionResult struct {
	Intent   Intent
	Location string
	Date     string
}

// HasIntent reports whether the intent sub-extraction produced a value.
func (r ExtractionResult) HasIntent() bool {
	return r.Intent != ""
}

// HasLocation reports whether the location sub-extraction produced a value.
func (r ExtractionResult) HasLocation() bool {
	return r.Location != ""
}

// IsFictional reports whether the extracted location is the fictional sentinel.
func (r ExtractionResult) IsFictional() bool {
	return r.Location == FictionalLocation
}
