// Package research decides, per turn, how to gather external data for the
// response: a direct visa lookup for recognizable visa questions, one
// LLM-mediated tool-calling round otherwise, and a deterministic heuristic
// when that round fails. Research never fails the turn.
package research

import (
	"context"
	"encoding/json"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/agent/prompts"
	"github.com/nir-assistant/server/internal/agent/tools"
	logx "github.com/nir-assistant/server/pkg/logger"
)

// Agent runs the research step. The chat model must already have the tool
// registry's declarations bound.
type Agent struct {
	chat     einomodel.BaseChatModel
	cfg      model.ResearchModelConfig
	registry *tools.Registry
}

func NewAgent(chat einomodel.BaseChatModel, cfg model.ResearchModelConfig, registry *tools.Registry) *Agent {
	return &Agent{chat: chat, cfg: cfg, registry: registry}
}

// Research gathers research items for the turn. It requires an extracted
// intent, and either an extracted location or a visa-shaped latest message.
// Errors degrade to fewer (possibly zero) items, never to a failed turn.
func (a *Agent) Research(ctx context.Context, extraction model.ExtractionResult, messages []*schema.Message) []model.ResearchItem {
	if !extraction.HasIntent() {
		return nil
	}

	lastUser := lastUserMessage(messages)
	if !extraction.HasLocation() && !IsVisaQuery(lastUser) {
		return nil
	}

	if IsVisaQuery(lastUser) {
		return a.visaQuery(ctx, lastUser, extraction)
	}

	items, err := a.toolCallingRound(ctx, extraction, lastUser)
	if err != nil {
		logx.Error().Err(err).Msg("tool-calling round failed, using heuristic fallback")
		return a.fallback(ctx, extraction)
	}
	return items
}

// visaQuery is the fast path: resolve origin and destination straight from
// the message text and call the visa tool without a model round. When the
// phrasing does not resolve, or the lookup comes back empty, fall through to
// the ordinary round with just the visa question as context.
func (a *Agent) visaQuery(ctx context.Context, userMessage string, extraction model.ExtractionResult) []model.ResearchItem {
	origin, destination := ExtractVisaCountries(userMessage, extraction)
	if origin != "" && destination != "" {
		args, err := json.Marshal(tools.FetchVisaInput{OriginCountry: origin, DestinationCountry: destination})
		if err == nil {
			item, err := a.registry.Execute(ctx, tools.ToolFetchVisaInfo, string(args))
			if err != nil {
				logx.Warn().Err(err).Str("origin", origin).Str("destination", destination).Msg("direct visa lookup failed")
			} else if item != nil {
				return []model.ResearchItem{*item}
			}
		}
	}

	items, err := a.toolCallingRound(ctx, extraction, userMessage)
	if err != nil {
		logx.Error().Err(err).Msg("visa fallthrough round failed, using heuristic fallback")
		return a.fallback(ctx, extraction)
	}
	return items
}

// toolCallingRound submits one chat round with the tool schema attached,
// then executes every requested invocation concurrently. Invocations that
// fail validation or execution are dropped silently; surviving results keep
// their request order.
func (a *Agent) toolCallingRound(ctx context.Context, extraction model.ExtractionResult, userQuery string) ([]model.ResearchItem, error) {
	researchPrompt, err := prompts.Research(ctx, extraction, userQuery)
	if err != nil {
		return nil, err
	}

	out, err := a.chat.Generate(ctx, []*schema.Message{schema.SystemMessage(researchPrompt)},
		einomodel.WithTemperature(a.cfg.Temperature),
		einomodel.WithMaxTokens(a.cfg.MaxTokens),
	)
	if err != nil {
		return nil, err
	}
	if len(out.ToolCalls) == 0 {
		return nil, nil
	}

	results := make([]*model.ResearchItem, len(out.ToolCalls))
	var wg sync.WaitGroup
	for i, call := range out.ToolCalls {
		wg.Add(1)
		go func(i int, call schema.ToolCall) {
			defer wg.Done()
			item, err := a.registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				logx.Warn().Err(err).Str("tool", call.Function.Name).Msg("tool invocation dropped")
				return
			}
			results[i] = item
		}(i, call)
	}
	wg.Wait()

	items := make([]model.ResearchItem, 0, len(results))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

// fallback is the deterministic last resort when the model round fails:
// packing turns get a week-ahead forecast, destination and attractions turns
// get country information. It never raises; failures degrade to empty.
func (a *Agent) fallback(ctx context.Context, extraction model.ExtractionResult) []model.ResearchItem {
	if !extraction.HasLocation() {
		return nil
	}

	var (
		name string
		args any
	)
	switch extraction.Intent {
	case model.IntentPacking:
		// Empty dates make the weather tool default to the next 7 days.
		name, args = tools.ToolFetchWeather, tools.FetchWeatherInput{Location: extraction.Location}
	case model.IntentDestination, model.IntentAttractions:
		name, args = tools.ToolFetchCountryInfo, tools.FetchCountryInput{CountryName: extraction.Location}
	default:
		return nil
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil
	}
	item, err := a.registry.Execute(ctx, name, string(raw))
	if err != nil || item == nil {
		if err != nil {
			logx.Warn().Err(err).Str("tool", name).Msg("heuristic fallback lookup failed")
		}
		return nil
	}
	return []model.ResearchItem{*item}
}

func lastUserMessage(messages []*schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i] != nil && messages[i].Role == schema.User {
			return messages[i].Content
		}
	}
	return ""
}
