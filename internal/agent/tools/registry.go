// Package tools defines the research tools advertised to the chat model and
// executed by the dispatcher. Each tool wraps one external data provider; the
// registry maps tool names to callables and result kinds, and is read-only
// after construction.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/clients"
	errx "github.com/nir-assistant/server/internal/core/error"
)

type registeredTool struct {
	invokable tool.InvokableTool
	kind      model.ResearchKind
}

// Registry holds the tool descriptors and callables. Safe for concurrent use.
type Registry struct {
	tools map[string]registeredTool
	order []string
}

// NewRegistry registers the weather, country, and visa tools.
func NewRegistry(weather *clients.WeatherClient, country *clients.CountryClient, visa *clients.VisaClient) *Registry {
	return &Registry{
		tools: map[string]registeredTool{
			ToolFetchWeather:     {invokable: newFetchWeatherTool(weather), kind: model.ResearchWeather},
			ToolFetchCountryInfo: {invokable: newFetchCountryTool(country), kind: model.ResearchCountry},
			ToolFetchVisaInfo:    {invokable: newFetchVisaTool(visa), kind: model.ResearchVisa},
		},
		order: []string{ToolFetchWeather, ToolFetchCountryInfo, ToolFetchVisaInfo},
	}
}

// Infos returns the tool declarations in registration order, for binding to
// the chat model.
func (r *Registry) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		info, err := r.tools[name].invokable.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info for %s: %w", name, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Execute validates and runs one tool invocation and formats the result into
// a research item. An unknown tool name is a validation failure; a lookup
// that found nothing returns (nil, nil).
func (r *Registry) Execute(ctx context.Context, name, argumentsJSON string) (*model.ResearchItem, error) {
	reg, ok := r.tools[name]
	if !ok {
		return nil, errx.New(fmt.Errorf("unknown tool %q", name), http.StatusBadRequest, "unknown tool")
	}

	out, err := reg.invokable.InvokableRun(ctx, argumentsJSON)
	if err != nil {
		return nil, err
	}
	return formatResult(reg.kind, out)
}

// formatResult turns a tool's JSON output into a rendered research item.
// "null" output means the lookup found nothing, which is not an error.
func formatResult(kind model.ResearchKind, payloadJSON string) (*model.ResearchItem, error) {
	if payloadJSON == "" || payloadJSON == "null" {
		return nil, nil
	}

	switch kind {
	case model.ResearchWeather:
		var forecast model.WeatherForecast
		if err := json.Unmarshal([]byte(payloadJSON), &forecast); err != nil {
			return nil, fmt.Errorf("decode weather payload: %w", err)
		}
		return &model.ResearchItem{Kind: kind, Text: FormatWeather(&forecast)}, nil

	case model.ResearchCountry:
		var country model.CountryInfo
		if err := json.Unmarshal([]byte(payloadJSON), &country); err != nil {
			return nil, fmt.Errorf("decode country payload: %w", err)
		}
		return &model.ResearchItem{Kind: kind, Text: FormatCountry(&country)}, nil

	case model.ResearchVisa:
		var visa model.VisaInfo
		if err := json.Unmarshal([]byte(payloadJSON), &visa); err != nil {
			return nil, fmt.Errorf("decode visa payload: %w", err)
		}
		return &model.ResearchItem{Kind: kind, Text: FormatVisa(&visa)}, nil

	default:
		return nil, fmt.Errorf("unknown research kind %q", kind)
	}
}
