package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	// Una credencial por tier de modelo; su ausencia se detecta al momento
	// del request, no en el arranque.
	OpenAIKey45    string `env:"OPENAI_API_KEY_4_5"`
	OpenAIKey4o    string `env:"OPENAI_API_KEY_4O"`
	XAIKey         string `env:"XAI_API_KEY"`
	XAIKeyGrok3    string `env:"XAI_API_KEY_GROK3"`
	GeminiFlashKey string `env:"GEMINI_FLASH_API_KEY"`
	GeminiProKey   string `env:"GEMINI_PRO_API_KEY"`

	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	XAIBaseURL    string `env:"XAI_BASE_URL" envDefault:"https://api.x.ai/v1"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`

	SearchAPIKey   string `env:"GOOGLE_SEARCH_API_KEY"`
	SearchEngineID string `env:"GOOGLE_SEARCH_ENGINE_ID"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
