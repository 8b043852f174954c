package model

// ================ Config ================

// ConversationConfig controls the conversation log behaviour.
type ConversationConfig struct {
	TTL                string `envconfig:"CONVERSATION_TTL" default:"15m"`
	MaxContextMessages int    `envconfig:"CONVERSATION_MAX_CONTEXT_MESSAGES" default:"20"`
}

// ExtractionModelConfig configures the model used by the extraction pipeline.
// Extraction calls are short classification requests, so the token budget is small.
type ExtractionModelConfig struct {
	Model       string  `envconfig:"EXTRACTION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"EXTRACTION_MAX_TOKENS" default:"64"`
	Temperature float32 `envconfig:"EXTRACTION_TEMPERATURE" default:"0.0"`
}

// ResearchModelConfig configures the tool-calling model used by the research agent.
type ResearchModelConfig struct {
	Model       string  `envconfig:"RESEARCH_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"RESEARCH_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"RESEARCH_TEMPERATURE" default:"0.1"`
}

// ResponseModelConfig configures the model that writes the assistant reply.
type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"500"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.3"`
}

// ProvidersConfig holds base URLs and timeouts for the external data providers.
type ProvidersConfig struct {
	GeocodingBaseURL string `envconfig:"GEOCODING_BASE_URL" default:"https://geocoding-api.open-meteo.com/v1"`
	WeatherBaseURL   string `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com/v1"`
	CountryBaseURL   string `envconfig:"COUNTRY_BASE_URL" default:"https://restcountries.com/v3.1"`
	VisaBaseURL      string `envconfig:"VISA_BASE_URL" default:"https://rough-sun-2523.fly.dev"`

	RequestTimeout int `envconfig:"PROVIDER_REQUEST_TIMEOUT" default:"10"`
	CountryTimeout int `envconfig:"PROVIDER_COUNTRY_TIMEOUT" default:"5"`
}
