package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	DefaultDevAPIURL  = "http://localhost:8000/api"
	DefaultProdAPIURL = "https://research-assistant.example.com/api"
)

type Config struct {
	// Client side.
	Environment string
	APIURL      string
	ProdAPIURL  string

	// Server side.
	GoogleApiKey  string
	DatabaseURL   string
	Model         string
	DefaultFormat string
	MaxRetries    int
	Port          string
	CORSOrigins   []string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Environment:   getEnv("APP_ENV", "development"),
		APIURL:        getEnv("RESEARCH_API_URL", ""),
		ProdAPIURL:    getEnv("RESEARCH_API_PROD_URL", DefaultProdAPIURL),
		GoogleApiKey:  getEnv("GOOGLE_API_KEY", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Model:         getEnv("FAST_MODEL", "gemini-3-flash-preview"),
		DefaultFormat: getEnv("DEFAULT_FORMAT", "summary"),
		MaxRetries:    getEnvAsInt("MAX_RETRIES", 3),
		Port:          getEnv("PORT", "8000"),
		CORSOrigins:   getEnvAsList("CORS_ORIGINS", []string{"*"}),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}
}

// IsProduction reports whether the deployment environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// APIBaseURL selects the research service endpoint: an explicit URL wins,
// otherwise the environment picks the production or local endpoint.
func (c *Config) APIBaseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	if c.IsProduction() {
		return c.ProdAPIURL
	}
	return DefaultDevAPIURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
