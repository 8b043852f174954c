package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/nir-assistant/server/internal/agent"
	"github.com/nir-assistant/server/internal/agent/conversations"
	"github.com/nir-assistant/server/internal/agent/extract"
	"github.com/nir-assistant/server/internal/agent/llm"
	"github.com/nir-assistant/server/internal/agent/model"
	"github.com/nir-assistant/server/internal/agent/repo"
	"github.com/nir-assistant/server/internal/agent/research"
	"github.com/nir-assistant/server/internal/agent/tools"
	"github.com/nir-assistant/server/internal/api"
	"github.com/nir-assistant/server/internal/clients"
	"github.com/nir-assistant/server/internal/core"
	logx "github.com/nir-assistant/server/pkg/logger"
	pkgredis "github.com/nir-assistant/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis  pkgredis.Config
	Server api.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Pipeline configs
	Extraction   model.ExtractionModelConfig
	Research     model.ResearchModelConfig
	Response     model.ResponseModelConfig
	Conversation model.ConversationConfig
	Providers    model.ProvidersConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", cfg.Conversation.TTL, err)
	}

	// Conversation persistence: Redis when configured, in-memory otherwise.
	var conversationRepo model.ConversationRepository
	if cfg.Redis.URL != "" {
		rdb, err := cfg.Redis.New()
		if err != nil {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		defer rdb.Close()
		conversationRepo = repo.NewRedisConversationRepository(rdb, ttl)
		logx.Info().Msg("using Redis conversation repository")
	} else {
		conversationRepo = repo.NewMemoryConversationRepository()
		logx.Info().Msg("using in-memory conversation repository")
	}

	models, err := llm.NewModels(ctx, llm.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Extraction: cfg.Extraction,
		Research:   cfg.Research,
		Response:   cfg.Response,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	// External data providers.
	requestTimeout := time.Duration(cfg.Providers.RequestTimeout) * time.Second
	countryTimeout := time.Duration(cfg.Providers.CountryTimeout) * time.Second
	geocoder := clients.NewGeocoder(cfg.Providers.GeocodingBaseURL, requestTimeout)
	weather := clients.NewWeatherClient(cfg.Providers.WeatherBaseURL, requestTimeout, geocoder)
	country := clients.NewCountryClient(cfg.Providers.CountryBaseURL, countryTimeout, geocoder)
	visa := clients.NewVisaClient(cfg.Providers.VisaBaseURL, requestTimeout, country, models.Research)

	registry := tools.NewRegistry(weather, country, visa)
	infos, err := registry.Infos(ctx)
	if err != nil {
		log.Fatalf("Failed to collect tool declarations: %v", err)
	}
	if err := models.BindResearchTools(ctx, infos); err != nil {
		log.Fatalf("Failed to bind research tools: %v", err)
	}

	extractor := extract.New(models.Extraction, cfg.Extraction)
	researchAgent := research.NewAgent(models.Research, cfg.Research, registry)
	manager := conversations.NewManager(conversationRepo, models.Response, cfg.Conversation)
	orchestrator := agent.NewOrchestrator(extractor, researchAgent, manager, models.Response, cfg.Response)

	server := api.NewServer(orchestrator, cfg.Server)
	if err := server.Run(ctx, cfg.Server.Addr); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
