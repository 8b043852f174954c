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

var (
	locationFullPattern   = regexp.MustCompile(`\{[^{}]*"location"\s*:\s*"[^"]*"[^{}]*"is_fictional"\s*:\s*(?:true|false)[^{}]*\}`)
	locationNamePattern   = regexp.MustCompile(`\{[^{}]*"location"\s*:\s*"[^"]*"[^{}]*\}`)
	locationNoneSentinels = map[string]bool{"": true, "NONE": true, "NO LOCATION": true, "N/A": true}
)

// extractLocation pulls the place the user asked about, lowercased. A
// fictional place collapses to the fictional sentinel; a model failure or a
// no-location sentinel leaves the field absent.
func (e *Extractor) extractLocation(ctx context.Context, message string) string {
	prompt, err := prompts.LocationExtraction(ctx, message)
	if err != nil {
		logx.Error().Err(err).Msg("location prompt render failed")
		return ""
	}

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		logx.Error().Err(err).Msg("location extraction failed")
		return ""
	}
	return parseLocationResponse(raw)
}

func parseLocationResponse(raw string) string {
	raw = strings.TrimSpace(raw)

	// Preferred shape carries the fictional flag alongside the name.
	candidate := raw
	if frag := locationFullPattern.FindString(raw); frag != "" {
		candidate = frag
	}
	var full struct {
		Location    string `json:"location"`
		IsFictional bool   `json:"is_fictional"`
	}
	if err := json.Unmarshal([]byte(candidate), &full); err == nil {
		loc := strings.TrimSpace(full.Location)
		if locationNoneSentinels[strings.ToUpper(loc)] {
			return ""
		}
		if full.IsFictional {
			return model.FictionalLocation
		}
		return strings.ToLower(loc)
	}

	// Degraded shape has only the name. Without the flag a literal
	// "fictional" name is untrustworthy, so treat it as absent.
	if frag := locationNamePattern.FindString(raw); frag != "" {
		var partial struct {
			Location string `json:"location"`
		}
		if err := json.Unmarshal([]byte(frag), &partial); err == nil {
			loc := strings.TrimSpace(partial.Location)
			if locationNoneSentinels[strings.ToUpper(loc)] {
				return ""
			}
			if strings.EqualFold(loc, model.FictionalLocation) {
				return ""
			}
			return strings.ToLower(loc)
		}
	}

	if locationNoneSentinels[strings.ToUpper(raw)] {
		return ""
	}
	return strings.ToLower(raw)
}
