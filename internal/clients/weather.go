package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nir-assistant/server/internal/agent/model"
	logx "github.com/nir-assistant/server/pkg/logger"
)

// WeatherClient fetches daily forecasts from the Open-Meteo forecast API.
// Geocoding runs first, then the dependent forecast call.
type WeatherClient struct {
	baseURL  string
	client   *http.Client
	geocoder *Geocoder
}

func NewWeatherClient(baseURL string, timeout time.Duration, geocoder *Geocoder) *WeatherClient {
	return &WeatherClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		geocoder: geocoder,
	}
}

type forecastResponse struct {
	Daily struct {
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WeatherCode      []int     `json:"weathercode"`
	} `json:"daily"`
}

// ForecastForLocation geocodes the location and fetches the aggregated daily
// forecast for the date range. Returns nil when the location cannot be
// geocoded or the API has no daily data for the range.
func (w *WeatherClient) ForecastForLocation(ctx context.Context, location, startDate, endDate string) (*model.WeatherForecast, error) {
	coords, err := w.geocoder.Coordinates(ctx, location)
	if err != nil {
		return nil, err
	}
	if coords == nil {
		return nil, nil
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weathercode")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		logx.Warn().Err(err).Str("location", location).Msg("forecast request failed")
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast request: status %d", resp.StatusCode)
	}

	var out forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	if len(out.Daily.TemperatureMax) == 0 || len(out.Daily.TemperatureMin) == 0 {
		return nil, nil
	}

	return &model.WeatherForecast{
		Location:           location,
		StartDate:          startDate,
		EndDate:            endDate,
		AvgHigh:            mean(out.Daily.TemperatureMax),
		AvgLow:             mean(out.Daily.TemperatureMin),
		TotalPrecipitation: sum(out.Daily.PrecipitationSum),
		Conditions:         describeConditions(out.Daily.WeatherCode),
	}, nil
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return sum(vals) / float64(len(vals))
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

// describeConditions buckets the average WMO weather code into a short
// human-readable description.
func describeConditions(codes []int) string {
	if len(codes) == 0 {
		return "Variable conditions"
	}

	var total float64
	for _, c := range codes {
		total += float64(c)
	}
	avg := total / float64(len(codes))

	switch {
	case avg < 3:
		return "Mostly clear skies"
	case avg < 45:
		return "Partly cloudy"
	case avg < 50:
		return "Foggy conditions"
	case avg < 70:
		return "Rainy periods"
	case avg < 80:
		return "Snow possible"
	default:
		return "Showers and possible storms"
	}
}
