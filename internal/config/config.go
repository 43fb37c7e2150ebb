package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
)

// ErrMissingAPIKey is returned by Load when OPENAI_API_KEY is unset or empty.
var ErrMissingAPIKey = errors.New("missing required environment variable: OPENAI_API_KEY")

type Server struct {
	Host string
	Port int
}

// Addr is the listen address in host:port form.
func (s Server) Addr() string { return net.JoinHostPort(s.Host, strconv.Itoa(s.Port)) }

type OpenAI struct {
	APIKey      string
	Model       string
	BaseURL     string // empty means the vendor default
	Temperature float32
	MaxTokens   int
	// RateLimit and RateLimitWindow are surfaced for operators; nothing enforces them.
	RateLimit       int
	RateLimitWindow int // seconds
}

type ElevenLabs struct {
	APIKey  string
	VoiceID string
	BaseURL string
}

// Configured reports whether both the key and the voice are present.
func (e ElevenLabs) Configured() bool { return e.APIKey != "" && e.VoiceID != "" }

type App struct {
	URL string
}

type WebSocket struct {
	Enabled    bool
	PathPrefix string
}

type WebUI struct {
	Enabled bool
}

type Config struct {
	Server     Server
	OpenAI     OpenAI
	ElevenLabs ElevenLabs
	App        App
	WebSocket  WebSocket
	WebUI      WebUI
}

const (
	DefaultModel           = "gpt-4"
	DefaultTemperature     = 0.7
	DefaultMaxTokens       = 2000
	DefaultRateLimit       = 10
	DefaultRateLimitWindow = 60
	DefaultElevenLabsURL   = "https://api.elevenlabs.io"
)

// Load reads the configuration from the process environment. It fails when
// the language-model key is missing; everything else has a default.
func Load() (Config, error) {
	c := Config{
		Server: Server{
			Host: envOrDefault("HOST", "127.0.0.1"),
			Port: envIntOrDefault("PORT", 8080),
		},
		OpenAI: OpenAI{
			APIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:           envOrDefault("OPENAI_API_MODEL", DefaultModel),
			BaseURL:         os.Getenv("OPENAI_BASE_URL"),
			Temperature:     envFloatOrDefault("OPENAI_API_TEMPERATURE", DefaultTemperature),
			MaxTokens:       envIntOrDefault("OPENAI_API_MAX_TOKENS", DefaultMaxTokens),
			RateLimit:       envIntOrDefault("OPENAI_API_RATE_LIMIT", DefaultRateLimit),
			RateLimitWindow: envIntOrDefault("OPENAI_API_RATE_LIMIT_WINDOW", DefaultRateLimitWindow),
		},
		ElevenLabs: ElevenLabs{
			APIKey:  strings.TrimSpace(os.Getenv("ELEVEN_LABS_API_KEY")),
			VoiceID: strings.TrimSpace(os.Getenv("ELEVEN_LABS_VOICE_ID")),
			BaseURL: envOrDefault("ELEVEN_LABS_BASE_URL", DefaultElevenLabsURL),
		},
		WebSocket: WebSocket{
			Enabled:    envBoolOrDefault("WS_ENABLED", false),
			PathPrefix: envOrDefault("WS_PATH_PREFIX", "/ws"),
		},
		WebUI: WebUI{
			Enabled: envBoolOrDefault("WEB_UI_ENABLED", true),
		},
	}
	if c.OpenAI.APIKey == "" {
		return Config{}, ErrMissingAPIKey
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return Config{}, fmt.Errorf("PORT out of range: %d", c.Server.Port)
	}
	c.App.URL = strings.TrimRight(envOrDefault("APP_URL", "http://"+c.Server.Addr()), "/")
	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloatOrDefault(key string, fallback float32) float32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	// Zero falls back too: the vendor client omits a zero temperature.
	if err != nil || f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return float32(f)
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v == "1" || strings.EqualFold(v, "true")
}
