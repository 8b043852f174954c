package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/clients"
)

// ===================================
// Fetch Country Info Tool
// ===================================

const ToolFetchCountryInfo = "fetch_country_info"

type FetchCountryInput struct {
	CountryName string `json:"country_name"`
}

func newFetchCountryTool(country *clients.CountryClient) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolFetchCountryInfo,
			Desc: "Get detailed information about a country including culture, currency, language, and travel tips. Use this when the user asks about destinations, attractions, or general country information.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"country_name": {
					Type:     "string",
					Desc:     "The name of the country (e.g., 'France', 'Japan', 'Brazil')",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *FetchCountryInput) (*model.CountryInfo, error) {
			if in.CountryName == "" {
				return nil, fmt.Errorf("country_name is required")
			}
			return country.Info(ctx, in.CountryName)
		},
	)
}
