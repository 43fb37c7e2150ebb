// Package tui is a terminal front end for the chat proxy.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"buntychat/internal/chat"
)

// Backend is what the terminal client needs from the proxy server.
type Backend interface {
	StreamChat(ctx context.Context, messages []chat.Message) (io.ReadCloser, error)
	Speech(ctx context.Context, text string) ([]byte, error)
}

// Client talks to a running buntychat server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{}}
}

// StreamChat posts the history to /api/chat and returns the streaming body.
// The caller must close it.
func (c *Client) StreamChat(ctx context.Context, messages []chat.Message) (io.ReadCloser, error) {
	resp, err := c.post(ctx, "/api/chat", map[string]any{"messages": messages})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chat: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp.Body, nil
}

// Speech fetches synthesized audio for text from /api/tts.
func (c *Client) Speech(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.post(ctx, "/api/tts", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = "failed to generate speech"
		}
		return nil, fmt.Errorf("tts: status %d: %s", resp.StatusCode, e.Error)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return resp, nil
}
