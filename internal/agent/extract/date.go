package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nir-assistant/server/internal/agent/prompts"
	logx "github.com/nir-assistant/server/pkg/logger"
)

var (
	dateFragmentPattern = regexp.MustCompile(`\{[^{}]*"date"\s*:\s*"[^"]*"[^{}]*\}`)
	dateNoneSentinels   = map[string]bool{"": true, "NONE": true, "NO DATE": true, "N/A": true}
)

// extractDate pulls the travel timeframe the user mentioned, verbatim but
// lowercased. A model failure or a no-date sentinel leaves the field absent.
func (e *Extractor) extractDate(ctx context.Context, message string) string {
	prompt, err := prompts.DateExtraction(ctx, message)
	if err != nil {
		logx.Error().Err(err).Msg("date prompt render failed")
		return ""
	}

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		logx.Error().Err(err).Msg("date extraction failed")
		return ""
	}
	return parseDateResponse(raw)
}

func parseDateResponse(raw string) string {
	raw = strings.TrimSpace(raw)

	candidate := raw
	if frag := dateFragmentPattern.FindString(raw); frag != "" {
		candidate = frag
	}

	var parsed struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
		date := strings.TrimSpace(parsed.Date)
		if dateNoneSentinels[strings.ToUpper(date)] {
			return ""
		}
		return strings.ToLower(date)
	}

	if dateNoneSentinels[strings.ToUpper(raw)] {
		return ""
	}
	return strings.ToLower(raw)
}
