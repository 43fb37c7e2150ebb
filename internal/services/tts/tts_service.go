package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrNotConfigured means the key or voice id is missing; no request was sent.
var ErrNotConfigured = errors.New("elevenlabs: missing api key or voice id")

const (
	Stability       = 0.7
	SimilarityBoost = 0.8
)

type Config struct {
	APIKey     string
	VoiceID    string
	BaseURL    string
	HTTPClient *http.Client
}

// Service converts text to MP3 audio with the ElevenLabs API.
type Service struct {
	apiKey  string
	voiceID string
	baseURL string
	client  *http.Client
}

func New(cfg Config) *Service {
	c := cfg.HTTPClient
	if c == nil {
		c = &http.Client{}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.elevenlabs.io"
	}
	return &Service{apiKey: cfg.APIKey, voiceID: cfg.VoiceID, baseURL: base, client: c}
}

func (s *Service) Configured() bool { return s.apiKey != "" && s.voiceID != "" }

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize performs one text-to-speech round trip and returns the audio.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(speechRequest{
		Text:          text,
		VoiceSettings: voiceSettings{Stability: Stability, SimilarityBoost: SimilarityBoost},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}
	endpoint := s.baseURL + "/v1/text-to-speech/" + url.PathEscape(s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read elevenlabs audio: %w", err)
	}
	return audio, nil
}
