package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/agent/prompts"
	logx "github.com/nir-assistant/server/pkg/logger"
)

var intentFragmentPattern = regexp.MustCompile(`\{[^{}]*"intent"\s*:\s*"[^"]*"[^{}]*\}`)

// extractIntent classifies the message against the intent taxonomy. A model
// failure leaves the intent absent; a parse that lands outside the taxonomy
// defaults to legitimate.
func (e *Extractor) extractIntent(ctx context.Context, message string) model.Intent {
	prompt, err := prompts.IntentExtraction(ctx, message)
	if err != nil {
		logx.Error().Err(err).Msg("intent prompt render failed")
		return ""
	}

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		logx.Error().Err(err).Msg("intent extraction failed")
		return ""
	}
	return parseIntentResponse(raw)
}

// parseIntentResponse walks the fallback chain: strict JSON, a JSON fragment
// pulled out of surrounding prose, then the raw text as a bare label.
func parseIntentResponse(raw string) model.Intent {
	raw = strings.TrimSpace(raw)

	candidate := raw
	if frag := intentFragmentPattern.FindString(raw); frag != "" {
		candidate = frag
	}

	var parsed struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
		return normaliseIntent(parsed.Intent)
	}
	return normaliseIntent(raw)
}

func normaliseIntent(label string) model.Intent {
	label = strings.ToLower(strings.TrimSpace(label))
	if in, ok := model.ParseIntent(label); ok {
		return in
	}
	logx.Warn().Str("label", label).Msg("intent outside taxonomy, defaulting to legitimate")
	return model.IntentLegitimate
}
