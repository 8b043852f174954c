package research

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nir-assistant/server/internal/agent/model"
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

const japanRecord = `[{
	"name": {"common": "Japan"},
	"capital": ["Tokyo"],
	"region": "Asia",
	"subregion": "Eastern Asia",
	"cca2": "JP",
	"currencies": {"JPY": {"name": "Japanese yen"}},
	"languages": {"jpn": "Japanese"},
	"timezones": ["UTC+09:00"]
}]`

func notFoundServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRegistry(t *testing.T, countryURL, visaURL, geoURL, weatherURL string) *tools.Registry {
	t.Helper()
	geocoder := clients.NewGeocoder(geoURL, time.Second)
	weather := clients.NewWeatherClient(weatherURL, time.Second, geocoder)
	country := clients.NewCountryClient(countryURL, time.Second, geocoder)
	visa := clients.NewVisaClient(visaURL, time.Second, country, nil)
	return tools.NewRegistry(weather, country, visa)
}

func userMessages(content string) []*schema.Message {
	return []*schema.Message{schema.UserMessage(content)}
}

func TestResearchEntryPolicy(t *testing.T) {
	t.Parallel()

	missing := notFoundServer(t)
	chat := &fakeChatModel{generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
		return nil, errors.New("should not be called")
	}}
	agent := NewAgent(chat, model.ResearchModelConfig{Model: "test"}, newTestRegistry(t, missing.URL, missing.URL, missing.URL, missing.URL))

	t.Run("no intent", func(t *testing.T) {
		items := agent.Research(context.Background(), model.ExtractionResult{Location: "japan"}, userMessages("tell me about japan"))
		assert.Empty(t, items)
	})

	t.Run("no location and not a visa query", func(t *testing.T) {
		items := agent.Research(context.Background(), model.ExtractionResult{Intent: model.IntentLegitimate}, userMessages("how do I plan a trip?"))
		assert.Empty(t, items)
	})

	assert.Zero(t, chat.calls.Load(), "entry policy must not reach the chat model")
}

func TestResearchVisaFastPath(t *testing.T) {
	t.Parallel()

	visaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/visa/IL/JP", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category": {"code": "VF", "name": "Visa Free"}, "dur": 90}`))
	}))
	t.Cleanup(visaSrv.Close)
	missing := notFoundServer(t)

	chat := &fakeChatModel{generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
		return nil, errors.New("should not be called")
	}}
	agent := NewAgent(chat, model.ResearchModelConfig{Model: "test"}, newTestRegistry(t, missing.URL, visaSrv.URL, missing.URL, missing.URL))

	extraction := model.ExtractionResult{Intent: model.IntentLegitimate}
	items := agent.Research(context.Background(), extraction, userMessages("does israel need visa to japan"))

	require.Len(t, items, 1)
	assert.Equal(t, model.ResearchVisa, items[0].Kind)
	assert.Contains(t, items[0].Text, "israel")
	assert.Contains(t, items[0].Text, "No visa required")
	assert.Zero(t, chat.calls.Load(), "fast path must bypass the chat model")
}

func TestResearchPartialToolFailure(t *testing.T) {
	t.Parallel()

	countrySrv := jsonServer(t, japanRecord)
	missing := notFoundServer(t)

	out := schema.AssistantMessage("", []schema.ToolCall{
		{Function: schema.FunctionCall{Name: tools.ToolFetchCountryInfo, Arguments: `{"country_name": "japan"}`}},
		{Function: schema.FunctionCall{Name: "bogus_tool", Arguments: `{}`}},
	})
	chat := &fakeChatModel{generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
		return out, nil
	}}
	agent := NewAgent(chat, model.ResearchModelConfig{Model: "test"}, newTestRegistry(t, countrySrv.URL, missing.URL, missing.URL, missing.URL))

	extraction := model.ExtractionResult{Intent: model.IntentDestination, Location: "japan"}
	items := agent.Research(context.Background(), extraction, userMessages("tell me about japan"))

	require.Len(t, items, 1)
	assert.Equal(t, model.ResearchCountry, items[0].Kind)
	assert.Contains(t, items[0].Text, "Tokyo")
}

func TestResearchNoToolCalls(t *testing.T) {
	t.Parallel()

	missing := notFoundServer(t)
	chat := &fakeChatModel{generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
		return schema.AssistantMessage("no data needed", nil), nil
	}}
	agent := NewAgent(chat, model.ResearchModelConfig{Model: "test"}, newTestRegistry(t, missing.URL, missing.URL, missing.URL, missing.URL))

	extraction := model.ExtractionResult{Intent: model.IntentLegitimate, Location: "japan"}
	items := agent.Research(context.Background(), extraction, userMessages("what language do they speak in japan?"))
	assert.Empty(t, items)
}

func TestResearchFallback(t *testing.T) {
	t.Parallel()

	countrySrv := jsonServer(t, japanRecord)
	missing := notFoundServer(t)
	chat := &fakeChatModel{generate: func(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
		return nil, errors.New("model down")
	}}

	t.Run("destination intent fetches country info", func(t *testing.T) {
		t.Parallel()
		agent := NewAgent(chat, model.ResearchModelConfig{Model: "test"}, newTestRegistry(t, countrySrv.URL, missing.URL, missing.URL, missing.URL))
		extraction := model.ExtractionResult{Intent: model.IntentDestination, Location: "japan"}
		items := agent.Research(context.Background(), extraction, userMessages("tell me about japan"))
		require.Len(t, items, 1)
		assert.Equal(t, model.ResearchCountry, items[0].Kind)
	})

	t.Run("legitimate intent degrades to empty", func(t *testing.T) {
		t.Parallel()
		agent := NewAgent(chat, model.ResearchModelConfig{Model: "test"}, newTestRegistry(t, countrySrv.URL, missing.URL, missing.URL, missing.URL))
		extraction := model.ExtractionResult{Intent: model.IntentLegitimate, Location: "japan"}
		items := agent.Research(context.Background(), extraction, userMessages("how expensive is japan?"))
		assert.Empty(t, items)
	})

	t.Run("fallback lookup failure degrades to empty", func(t *testing.T) {
		t.Parallel()
		agent := NewAgent(chat, model.ResearchModelConfig{Model: "test"}, newTestRegistry(t, missing.URL, missing.URL, missing.URL, missing.URL))
		extraction := model.ExtractionResult{Intent: model.IntentDestination, Location: "atlantis"}
		items := agent.Research(context.Background(), extraction, userMessages("tell me about atlantis"))
		assert.Empty(t, items)
	})
}
