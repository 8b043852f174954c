package model

import "fmt"

// ResearchKind identifies which external lookup produced a research item.
type ResearchKind string

const (
	ResearchWeather ResearchKind = "weather"
	ResearchCountry ResearchKind = "country"
	ResearchVisa    ResearchKind = "visa"
)

// ResearchItem is one external lookup result rendered into a bounded
// natural-language block, ready for injection as a system message.
type ResearchItem struct {
	Kind ResearchKind `json:"kind"`
	Text string       `json:"text"`
}

// WeatherForecast is the aggregated daily forecast for a location and range.
type WeatherForecast struct {
	Location           string  `json:"location"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	AvgHigh            float64 `json:"avg_high"`
	AvgLow             float64 `json:"avg_low"`
	TotalPrecipitation float64 `json:"total_precipitation"`
	Conditions         string  `json:"conditions"`
}

// TempRange renders the average low/high span.
func (f *WeatherForecast) TempRange() string {
	return fmt.Sprintf("%.0f°C to %.0f°C", f.AvgLow, f.AvgHigh)
}

// Summary renders a one-line forecast description.
func (f *WeatherForecast) Summary() string {
	return fmt.Sprintf("Average temperatures between %.0f°C and %.0f°C with %s",
		f.AvgLow, f.AvgHigh, lowerFirst(f.Conditions))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

// CountryInfo is the condensed country record used for destination research.
type CountryInfo struct {
	Name      string   `json:"name"`
	Capital   string   `json:"capital"`
	Region    string   `json:"region"`
	Currency  string   `json:"currency"`
	Languages []string `json:"languages"`
	Timezone  string   `json:"timezone"`
}

// Visa requirement status codes.
const (
	VisaRequired      = "yes"
	VisaNotRequired   = "no"
	VisaOnArrival     = "visa_on_arrival"
	VisaEVisa         = "evisa"
	VisaNoAdmission   = "no_admission"
	VisaStatusUnknown = "unknown"
)

var visaStatusDescriptions = map[string]string{
	VisaRequired:      "Visa required",
	VisaNotRequired:   "No visa required",
	VisaOnArrival:     "Visa available on arrival",
	VisaEVisa:         "eVisa available",
	VisaNoAdmission:   "No admission",
	VisaStatusUnknown: "Visa requirement information not available",
}

// DescribeVisaStatus maps a requirement code to human-readable text.
func DescribeVisaStatus(code string) string {
	if d, ok := visaStatusDescriptions[code]; ok {
		return d
	}
	return visaStatusDescriptions[VisaStatusUnknown]
}

// VisaInfo is the visa requirement record for an origin/destination pair.
type VisaInfo struct {
	OriginCountry      string `json:"origin_country"`
	DestinationCountry string `json:"destination_country"`
	Requirement        string `json:"visa_required"`
	StatusDescription  string `json:"status_description"`
	StayDuration       string `json:"stay_duration,omitempty"`
	Notes              string `json:"notes,omitempty"`
	EVisaLink          string `json:"evisa_link,omitempty"`
	Source             string `json:"source,omitempty"`
}
