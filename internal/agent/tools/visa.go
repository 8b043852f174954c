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
// Fetch Visa Info Tool
// ===================================

const ToolFetchVisaInfo = "fetch_visa_info"

type FetchVisaInput struct {
	OriginCountry      string `json:"origin_country"`
	DestinationCountry string `json:"destination_country"`
}

func newFetchVisaTool(visa *clients.VisaClient) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolFetchVisaInfo,
			Desc: "Get visa requirements and travel restrictions for traveling from one country to another. Use this when the user asks about visa requirements, passport requirements, entry requirements, or travel restrictions. Examples: 'Do I need a visa for Japan?', 'Does Israel need a passport for Japan?', 'What are the visa requirements for France?'",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"origin_country": {
					Type:     "string",
					Desc:     "The country of the traveler's passport/nationality (e.g., 'Israel', 'United States', 'United Kingdom')",
					Required: true,
				},
				"destination_country": {
					Type:     "string",
					Desc:     "The destination country the traveler wants to visit (e.g., 'Japan', 'France', 'Brazil')",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *FetchVisaInput) (*model.VisaInfo, error) {
			if in.OriginCountry == "" || in.DestinationCountry == "" {
				return nil, fmt.Errorf("origin_country and destination_country are required")
			}
			return visa.Requirements(ctx, in.OriginCountry, in.DestinationCountry)
		},
	)
}
