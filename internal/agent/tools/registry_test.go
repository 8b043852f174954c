package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nir-assistant/server/internal/agent/model"
	errx "github.com/nir-assistant/server/internal/core/error"
	"github.com/nir-assistant/server/internal/clients"
)

func newRegistryWithServers(t *testing.T, countryBody string) *Registry {
	t.Helper()
	countrySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if countryBody == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(countryBody))
	}))
	t.Cleanup(countrySrv.Close)

	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(missing.Close)

	geocoder := clients.NewGeocoder(missing.URL, time.Second)
	weather := clients.NewWeatherClient(missing.URL, time.Second, geocoder)
	country := clients.NewCountryClient(countrySrv.URL, time.Second, geocoder)
	visa := clients.NewVisaClient(missing.URL, time.Second, country, nil)
	return NewRegistry(weather, country, visa)
}

func TestRegistryInfos(t *testing.T) {
	t.Parallel()

	r := newRegistryWithServers(t, "")
	infos, err := r.Infos(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, ToolFetchWeather, infos[0].Name)
	assert.Equal(t, ToolFetchCountryInfo, infos[1].Name)
	assert.Equal(t, ToolFetchVisaInfo, infos[2].Name)
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	r := newRegistryWithServers(t, "")
	_, err := r.Execute(context.Background(), "teleport", `{}`)
	require.Error(t, err)

	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestRegistryExecuteEmptyLookup(t *testing.T) {
	t.Parallel()

	r := newRegistryWithServers(t, "")
	item, err := r.Execute(context.Background(), ToolFetchVisaInfo, `{"origin_country": "israel", "destination_country": "japan"}`)
	require.NoError(t, err)
	assert.Nil(t, item, "a lookup that found nothing is not an error")
}

func TestFormatDeterminism(t *testing.T) {
	t.Parallel()

	t.Run("weather", func(t *testing.T) {
		t.Parallel()
		f := &model.WeatherForecast{
			Location:           "tokyo",
			StartDate:          "2026-04-01",
			EndDate:            "2026-04-08",
			AvgHigh:            18.4,
			AvgLow:             9.6,
			TotalPrecipitation: 12.5,
			Conditions:         "Partly cloudy",
		}
		first := FormatWeather(f)
		assert.Equal(t, first, FormatWeather(f))
		assert.Contains(t, first, "<weather_data>")
		assert.Contains(t, first, "Location: tokyo")
		assert.Contains(t, first, "10°C to 18°C")
	})

	t.Run("country", func(t *testing.T) {
		t.Parallel()
		c := &model.CountryInfo{
			Name:      "Japan",
			Capital:   "Tokyo",
			Region:    "Asia, Eastern Asia",
			Currency:  "Japanese yen (JPY)",
			Languages: []string{"Japanese"},
			Timezone:  "UTC+09:00",
		}
		first := FormatCountry(c)
		assert.Equal(t, first, FormatCountry(c))
		assert.Contains(t, first, "Capital: Tokyo")
		assert.Contains(t, first, "Source: REST Countries API")
	})

	t.Run("visa optional fields omitted", func(t *testing.T) {
		t.Parallel()
		v := &model.VisaInfo{
			OriginCountry:      "israel",
			DestinationCountry: "japan",
			Requirement:        model.VisaNotRequired,
			StatusDescription:  "No visa required",
		}
		first := FormatVisa(v)
		assert.Equal(t, first, FormatVisa(v))
		assert.NotContains(t, first, "Maximum Stay:")
		assert.NotContains(t, first, "eVisa Portal:")
		assert.NotContains(t, first, "Notes:")
	})

	t.Run("visa optional fields rendered", func(t *testing.T) {
		t.Parallel()
		v := &model.VisaInfo{
			OriginCountry:      "india",
			DestinationCountry: "turkey",
			Requirement:        model.VisaEVisa,
			StatusDescription:  "eVisa available",
			StayDuration:       "30 days",
			EVisaLink:          "https://www.evisa.gov.tr",
			Notes:              "Apply online before travel",
		}
		out := FormatVisa(v)
		assert.Contains(t, out, "Maximum Stay: 30 days")
		assert.Contains(t, out, "eVisa Portal: https://www.evisa.gov.tr")
		assert.Contains(t, out, "Notes: Apply online before travel")
	})
}
