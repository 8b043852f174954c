package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nir-assistant/server/internal/agent/conversations"
	"github.com/nir-assistant/server/internal/agent/extract"
	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/agent/repo"
	"github.com/nir-assistant/server/internal/agent/research"
	"github.com/nir-assistant/server/internal/agent/tools"
	"github.com/nir-assistant/server/internal/clients"
)

type fakeChatModel struct {
	calls    atomic.Int32
	generate func(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls.Add(1)
	return f.generate(ctx, in, opts...)
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

// extractionChat answers the three extraction prompts with fixed payloads.
func extractionChat(intent, location, date string) *fakeChatModel {
	return &fakeChatModel{generate: func(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
		prompt := in[0].Content
		switch {
		case strings.Contains(prompt, `{"intent"`):
			return schema.AssistantMessage(intent, nil), nil
		case strings.Contains(prompt, `"is_fictional"`):
			return schema.AssistantMessage(location, nil), nil
		default:
			return schema.AssistantMessage(date, nil), nil
		}
	}}
}

type testHarness struct {
	orchestrator *Orchestrator
	manager      *conversations.Manager
	researchChat *fakeChatModel
}

func newHarness(t *testing.T, extractionFake, responseFake *fakeChatModel) *testHarness {
	t.Helper()

	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(missing.Close)

	geocoder := clients.NewGeocoder(missing.URL, time.Second)
	weather := clients.NewWeatherClient(missing.URL, time.Second, geocoder)
	country := clients.NewCountryClient(missing.URL, time.Second, geocoder)
	visa := clients.NewVisaClient(missing.URL, time.Second, country, nil)
	registry := tools.NewRegistry(weather, country, visa)

	researchChat := &fakeChatModel{generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
		return schema.AssistantMessage("", nil), nil
	}}

	extractor := extract.New(extractionFake, model.ExtractionModelConfig{Model: "test"})
	researchAgent := research.NewAgent(researchChat, model.ResearchModelConfig{Model: "test"}, registry)
	manager := conversations.NewManager(repo.NewMemoryConversationRepository(), responseFake, model.ConversationConfig{MaxContextMessages: 20})
	orchestrator := NewOrchestrator(extractor, researchAgent, manager, responseFake, model.ResponseModelConfig{Model: "test", MaxTokens: 500, Temperature: 0.3})

	return &testHarness{orchestrator: orchestrator, manager: manager, researchChat: researchChat}
}

func staticResponse(content string) *fakeChatModel {
	return &fakeChatModel{generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}}
}

func TestHandleIntentGate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, extractionChat(`{"intent": "unsupported"}`, "NONE", "NO DATE"), staticResponse("should not generate"))
	ctx := context.Background()

	reply, err := h.orchestrator.Handle(ctx, "c1", "solve this math homework for me")
	require.NoError(t, err)
	assert.Equal(t, model.GateMessage(model.IntentUnsupported), reply)

	count, err := h.manager.MessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "persona + user + canned assistant reply")
	assert.Zero(t, h.researchChat.calls.Load(), "gate must skip research")
}

func TestHandleFictionalShortCircuit(t *testing.T) {
	t.Parallel()

	response := staticResponse("That place only exists in books! How about a real destination?")
	h := newHarness(t, extractionChat(`{"intent": "destination"}`, `{"location": "Narnia", "is_fictional": true}`, "NO DATE"), response)
	ctx := context.Background()

	require.NoError(t, h.orchestrator.StartConversation(ctx, "c1"))
	before, err := h.manager.MessageCount(ctx, "c1")
	require.NoError(t, err)

	reply, err := h.orchestrator.Handle(ctx, "c1", "I'm visiting Narnia next week")
	require.NoError(t, err)
	assert.Equal(t, "That place only exists in books! How about a real destination?", reply)

	after, err := h.manager.MessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, before+2, after, "exactly user + assistant appended")
	assert.Zero(t, h.researchChat.calls.Load(), "violation must skip research")

	history, err := h.manager.History(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, schema.Assistant, history[len(history)-1].Role)
}

func TestHandleOrdinaryTurn(t *testing.T) {
	t.Parallel()

	h := newHarness(t, extractionChat(`{"intent": "legitimate"}`, "NONE", "NO DATE"), staticResponse("Happy to help with your trip."))
	ctx := context.Background()

	reply, err := h.orchestrator.Handle(ctx, "c1", "how should I plan a two week trip?")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help with your trip.", reply)

	history, err := h.manager.History(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, schema.System, history[0].Role)
	assert.Equal(t, schema.User, history[1].Role)
	assert.Equal(t, schema.Assistant, history[2].Role)
}

func TestHandleGenerationFailure(t *testing.T) {
	t.Parallel()

	failing := &fakeChatModel{generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
		return nil, errors.New("model down")
	}}
	h := newHarness(t, extractionChat(`{"intent": "legitimate"}`, "NONE", "NO DATE"), failing)
	ctx := context.Background()

	reply, err := h.orchestrator.Handle(ctx, "c1", "any advice?")
	require.NoError(t, err)
	assert.Equal(t, generationFailureReply, reply)

	history, err := h.manager.History(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, generationFailureReply, history[len(history)-1].Content)
}

func TestResetConversation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, extractionChat(`{"intent": "legitimate"}`, "NONE", "NO DATE"), staticResponse("ok"))
	ctx := context.Background()

	_, err := h.orchestrator.Handle(ctx, "c1", "hello")
	require.NoError(t, err)
	require.NoError(t, h.orchestrator.ResetConversation(ctx, "c1"))

	count, err := h.manager.MessageCount(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, count)
}
