package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"buntychat/internal/chat"
)

// DefaultTemperature is sent when Config.Temperature is zero or not finite.
const DefaultTemperature = 0.7

type Config struct {
	APIKey      string
	BaseURL     string // optional; defaults to the OpenAI API
	Model       string
	Temperature float32
	HTTPClient  *http.Client
}

// Service streams chat completions from OpenAI.
type Service struct {
	client      *openai.Client
	model       string
	temperature float32
}

func New(cfg Config) *Service {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	temp := cfg.Temperature
	if temp == 0 || math.IsNaN(float64(temp)) || math.IsInf(float64(temp), 0) {
		temp = DefaultTemperature
	}
	return &Service{client: openai.NewClientWithConfig(oc), model: cfg.Model, temperature: temp}
}

// TokenStream yields assistant text deltas. Recv returns io.EOF once the
// vendor stream is complete.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// StreamChat opens a streamed completion for messages. Errors returned here
// happen before any token was produced (auth, quota, bad request).
func (s *Service) StreamChat(ctx context.Context, messages []chat.Message) (TokenStream, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		Messages:    toOpenAIMessages(messages),
		Stream:      true,
	}
	stream, err := s.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai stream: %w", describe(err))
	}
	return &openAIStream{stream: stream}, nil
}

func toOpenAIMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (o *openAIStream) Recv() (string, error) {
	for {
		resp, err := o.stream.Recv()
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (o *openAIStream) Close() error { return o.stream.Close() }

// describe keeps the vendor status visible in logs without changing how
// callers classify the failure.
func describe(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d: %w", apiErr.HTTPStatusCode, err)
	}
	return err
}
