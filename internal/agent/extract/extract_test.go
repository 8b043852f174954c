package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/nir-assistant/server/internal/agent/model"
)

type fakeChatModel struct {
	generate func(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return f.generate(ctx, in, opts...)
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func reply(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}

func TestParseIntentResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want model.Intent
	}{
		{"strict json", `{"intent": "destination"}`, model.IntentDestination},
		{"json inside prose", `Sure! Here you go: {"intent": "packing"} Anything else?`, model.IntentPacking},
		{"bare label", "unsupported", model.IntentUnsupported},
		{"uppercase label", "NON_LEGITIMATE", model.IntentNonLegitimate},
		{"label outside taxonomy", `{"intent": "weather"}`, model.IntentLegitimate},
		{"gibberish", "I could not classify that message, sorry.", model.IntentLegitimate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseIntentResponse(tt.raw))
		})
	}
}

func TestParseLocationResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"strict json", `{"location": "Paris", "is_fictional": false}`, "paris"},
		{"fictional flag wins over name", `{"location": "Narnia", "is_fictional": true}`, model.FictionalLocation},
		{"json inside prose", `The answer is {"location": "Tokyo", "is_fictional": false} as requested`, "tokyo"},
		{"none sentinel in json", `{"location": "NONE", "is_fictional": false}`, ""},
		{"n/a sentinel in json", `{"location": "N/A", "is_fictional": false}`, ""},
		{"fragment without flag", `{"location": "Berlin"}`, "berlin"},
		{"fictional name without flag is untrusted", `{"location": "fictional"}`, ""},
		{"bare location", "Lisbon", "lisbon"},
		{"bare none", "NO LOCATION", ""},
		{"lowercase n/a", "n/a", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseLocationResponse(tt.raw))
		})
	}
}

func TestParseDateResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"strict json", `{"date": "next week"}`, "next week"},
		{"json inside prose", `Result: {"date": "Mid July"}`, "mid july"},
		{"no date sentinel", `{"date": "NO DATE"}`, ""},
		{"bare date", "2026-03-10", "2026-03-10"},
		{"bare none", "NONE", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseDateResponse(tt.raw))
		})
	}
}

// TestExtractFaultIsolation checks that one sub-extraction failing leaves the
// other two fields untouched.
func TestExtractFaultIsolation(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{
		generate: func(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
			prompt := in[0].Content
			switch {
			case strings.Contains(prompt, `{"intent"`):
				return reply(`{"intent": "packing"}`), nil
			case strings.Contains(prompt, `"is_fictional"`):
				return nil, errors.New("model unavailable")
			case strings.Contains(prompt, `{"date"`):
				return reply(`{"date": "next week"}`), nil
			}
			return nil, errors.New("unexpected prompt")
		},
	}

	e := New(chat, model.ExtractionModelConfig{Model: "test", MaxTokens: 64})
	result := e.Extract(context.Background(), "what should I pack for my trip next week?")

	assert.Equal(t, model.IntentPacking, result.Intent)
	assert.Empty(t, result.Location)
	assert.Equal(t, "next week", result.Date)
}

func TestExtractAllFieldsFail(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{
		generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
			return nil, errors.New("model unavailable")
		},
	}

	e := New(chat, model.ExtractionModelConfig{Model: "test"})
	result := e.Extract(context.Background(), "anything")

	assert.False(t, result.HasIntent())
	assert.False(t, result.HasLocation())
	assert.Empty(t, result.Date)
}

func TestExtractFictionalLocation(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{
		generate: func(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
			prompt := in[0].Content
			switch {
			case strings.Contains(prompt, `{"intent"`):
				return reply(`{"intent": "destination"}`), nil
			case strings.Contains(prompt, `"is_fictional"`):
				return reply(`{"location": "Narnia", "is_fictional": true}`), nil
			}
			return reply(`{"date": "NO DATE"}`), nil
		},
	}

	e := New(chat, model.ExtractionModelConfig{Model: "test"})
	result := e.Extract(context.Background(), "I'm visiting Narnia next week")

	assert.True(t, result.IsFictional())
	assert.Equal(t, model.IntentDestination, result.Intent)
}
