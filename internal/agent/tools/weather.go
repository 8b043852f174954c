package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/clients"
)

// ===================================
// Fetch Weather Tool
// ===================================

const ToolFetchWeather = "fetch_weather"

// defaultForecastDays is the forward window used when the caller gives no dates.
const defaultForecastDays = 7

type FetchWeatherInput struct {
	Location  string `json:"location"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func newFetchWeatherTool(weather *clients.WeatherClient) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolFetchWeather,
			Desc: "Get weather forecast for a location and date range. Use this when the user asks about weather, packing suggestions, or needs climate information for a destination.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"location": {
					Type:     "string",
					Desc:     "The city or location name (e.g., 'Paris', 'Tokyo', 'New York')",
					Required: true,
				},
				"start_date": {
					Type: "string",
					Desc: "Start date in YYYY-MM-DD format.",
				},
				"end_date": {
					Type: "string",
					Desc: "End date in YYYY-MM-DD format.",
				},
			}),
		},
		func(ctx context.Context, in *FetchWeatherInput) (*model.WeatherForecast, error) {
			if in.Location == "" {
				return nil, fmt.Errorf("location is required")
			}

			if in.StartDate == "" {
				in.StartDate = time.Now().Format("2006-01-02")
			}
			if in.EndDate == "" {
				in.EndDate = time.Now().AddDate(0, 0, defaultForecastDays).Format("2006-01-02")
			}

			return weather.ForecastForLocation(ctx, in.Location, in.StartDate, in.EndDate)
		},
	)
}
