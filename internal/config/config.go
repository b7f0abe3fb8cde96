// Package config provides configuration for the chat relay.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config holds the chat relay configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Redis
	RedisAddr     string
	RedisPassword string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Sessions
	SessionTTL time.Duration

	// WhatsApp Cloud API
	WhatsAppBaseURL string
	MetaToken       string
	PhoneNumberID   string
	VerifyToken     string

	// Advice generation
	OpenRouterAPIKey string
	AdviceModel      string

	// Timeouts
	SendTimeout   time.Duration
	AdviceTimeout time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables. It returns an error
// naming every required variable that is missing; the process must not
// start serving traffic in that case.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:          getEnvInt("HTTP_PORT", 8080),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW", 60)) * time.Second,
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL", 3600)) * time.Second,
		WhatsAppBaseURL:   getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v22.0"),
		MetaToken:         getEnv("META_TOKEN", ""),
		PhoneNumberID:     getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		VerifyToken:       getEnv("VERIFY_TOKEN", ""),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		AdviceModel:       getEnv("ADVICE_MODEL", "google/gemini-2.5-flash-image-preview:free"),
		SendTimeout:       time.Duration(getEnvInt("SEND_TIMEOUT_MS", 20000)) * time.Millisecond,
		AdviceTimeout:     time.Duration(getEnvInt("ADVICE_TIMEOUT_MS", 30000)) * time.Millisecond,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	var missing []string
	for name, val := range map[string]string{
		"META_TOKEN":               cfg.MetaToken,
		"WHATSAPP_PHONE_NUMBER_ID": cfg.PhoneNumberID,
		"VERIFY_TOKEN":             cfg.VerifyToken,
	} {
		if val == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
