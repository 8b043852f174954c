// Package prompts renders the embedded prompt templates through the Eino
// prompt component. Templates use simple {token} markers replaced up front,
// so JSON braces inside the template text never reach a format engine.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/nir-assistant/server/internal/agent/model"
)

//go:embed template/system_prompt.txt
var personaPrompt string

//go:embed template/intent_extraction.txt
var intentExtractionPrompt string

//go:embed template/location_extraction.txt
var locationExtractionPrompt string

//go:embed template/date_extraction.txt
var dateExtractionPrompt string

//go:embed template/research_agent.txt
var researchPrompt string

//go:embed template/response_instruction.txt
var responseInstructionPrompt string

//go:embed template/user_violation.txt
var violationPrompt string

//go:embed template/visa_estimate.txt
var visaEstimatePrompt string

// render wraps the final content in the Eino prompt component using a
// messages placeholder, so prompt callbacks fire without the component
// interpreting braces in the content itself.
func render(ctx context.Context, role schema.RoleType, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("rendered_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"rendered_messages": []*schema.Message{{Role: role, Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// Persona returns the fixed assistant persona system prompt.
func Persona(ctx context.Context) (string, error) {
	return render(ctx, schema.System, personaPrompt)
}

// IntentExtraction renders the intent classification prompt for one message.
func IntentExtraction(ctx context.Context, message string) (string, error) {
	content := strings.NewReplacer("{message}", message).Replace(intentExtractionPrompt)
	return render(ctx, schema.User, content)
}

// LocationExtraction renders the location extraction prompt for one message.
func LocationExtraction(ctx context.Context, message string) (string, error) {
	content := strings.NewReplacer("{message}", message).Replace(locationExtractionPrompt)
	return render(ctx, schema.User, content)
}

// DateExtraction renders the date extraction prompt for one message.
func DateExtraction(ctx context.Context, message string) (string, error) {
	content := strings.NewReplacer("{message}", message).Replace(dateExtractionPrompt)
	return render(ctx, schema.User, content)
}

// Research renders the research system prompt for one tool-calling round.
func Research(ctx context.Context, extraction model.ExtractionResult, userQuery string) (string, error) {
	content := strings.NewReplacer(
		"{intent}", string(extraction.Intent),
		"{user_query}", userQuery,
		"{location}", orNone(extraction.Location),
		"{date}", orNone(extraction.Date),
	).Replace(researchPrompt)
	return render(ctx, schema.System, content)
}

// IntentInstruction renders the intent-specific system instruction injected
// ahead of generation for destination and attractions turns.
func IntentInstruction(ctx context.Context, intent model.Intent) (string, error) {
	content := strings.NewReplacer("{intent}", string(intent)).Replace(responseInstructionPrompt)
	return render(ctx, schema.System, content)
}

// Violation renders the fictional-location redirect prompt.
func Violation(ctx context.Context, message string) (string, error) {
	content := strings.NewReplacer("{message}", message).Replace(violationPrompt)
	return render(ctx, schema.User, content)
}

// VisaEstimate renders the LLM visa-estimate prompt used when the free visa
// API yields nothing.
func VisaEstimate(ctx context.Context, origin, destination string) (string, error) {
	content := strings.NewReplacer(
		"{origin}", origin,
		"{destination}", destination,
	).Replace(visaEstimatePrompt)
	return render(ctx, schema.User, content)
}

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not specified"
	}
	return v
}
