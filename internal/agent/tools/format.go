package tools

import (
	"fmt"
	"strings"

	"github.com/nir-assistant/server/internal/agent/model"
)

const (
	weatherSource = "Open-Meteo weather forecast"
	countrySource = "REST Countries API"
	visaSource    = "Travel Buddy API"
)

// FormatWeather renders a forecast into the context block injected before
// generation. The output is deterministic for a given payload.
func FormatWeather(f *model.WeatherForecast) string {
	return fmt.Sprintf(`<weather_data>
Location: %s
Dates: %s to %s
Forecast: %s
Temperature Range: %s
Conditions: %s
Source: %s
</weather_data>`, f.Location, f.StartDate, f.EndDate, f.Summary(), f.TempRange(), f.Conditions, weatherSource)
}

// FormatCountry renders a country record into its context block.
func FormatCountry(c *model.CountryInfo) string {
	return fmt.Sprintf(`<country_data>
Country: %s
Capital: %s
Region: %s
Currency: %s
Languages: %s
Timezone: %s
Source: %s
</country_data>`, c.Name, c.Capital, c.Region, c.Currency, strings.Join(c.Languages, ", "), c.Timezone, countrySource)
}

// FormatVisa renders a visa record into its context block. Optional fields
// are omitted entirely rather than rendered empty.
func FormatVisa(v *model.VisaInfo) string {
	var extra strings.Builder
	if v.StayDuration != "" {
		extra.WriteString("\nMaximum Stay: " + v.StayDuration)
	}
	if v.EVisaLink != "" {
		extra.WriteString("\neVisa Portal: " + v.EVisaLink)
	}
	if v.Notes != "" {
		extra.WriteString("\nNotes: " + v.Notes)
	}

	return fmt.Sprintf(`<visa_data>
Origin Country: %s
Destination Country: %s
Visa Requirement: %s%s
Source: %s
</visa_data>`, v.OriginCountry, v.DestinationCountry, v.StatusDescription, extra.String(), visaSource)
}
