package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"buntychat/internal/server"
	"buntychat/internal/services/llm"
	"buntychat/internal/services/tts"
)

// fakeOpenAI streams each delta as its own SSE event.
func fakeOpenAI(t *testing.T, deltas ...string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, d := range deltas {
			b, _ := json.Marshal(map[string]any{
				"id":      "chatcmpl-test",
				"object":  "chat.completion.chunk",
				"model":   "gpt-4",
				"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": d}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T, d server.Dependencies) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	server.RegisterRoutes(mux, d)
	ts := httptest.NewServer(server.WithRequestID(mux))
	t.Cleanup(ts.Close)
	return ts
}

func TestE2E_ChatStream(t *testing.T) {
	vendor := fakeOpenAI(t, "Hello", " there")
	chatSvc := llm.New(llm.Config{APIKey: "sk-test", BaseURL: vendor.URL + "/v1", Model: "gpt-4", Temperature: 0.7})
	ts := newTestServer(t, server.Dependencies{Chat: chatSvc})

	body := []byte(`{"messages":[{"role":"user","content":"hi"}]}`)
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("chat request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(out) != "Hello there" {
		t.Fatalf("stream = %q, want %q", out, "Hello there")
	}
}

func TestE2E_TTSMissingConfigSkipsVendor(t *testing.T) {
	var calls atomic.Int32
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls.Add(1) }))
	defer vendor.Close()

	ts := newTestServer(t, server.Dependencies{TTS: tts.New(tts.Config{APIKey: "xi", BaseURL: vendor.URL})})
	resp, err := http.Post(ts.URL+"/api/tts", "application/json", bytes.NewReader([]byte(`{"text":"hi"}`)))
	if err != nil {
		t.Fatalf("tts request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	out, _ := io.ReadAll(resp.Body)
	if string(out) != `{"error":"Missing ElevenLabs configuration"}` {
		t.Fatalf("body = %s", out)
	}
	if calls.Load() != 0 {
		t.Fatalf("vendor called %d times", calls.Load())
	}
}

func TestE2E_TTSAudio(t *testing.T) {
	audio := bytes.Repeat([]byte{0xff, 0xfb}, 512)
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "xi" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(audio)
	}))
	defer vendor.Close()

	ts := newTestServer(t, server.Dependencies{TTS: tts.New(tts.Config{APIKey: "xi", VoiceID: "v1", BaseURL: vendor.URL})})
	resp, err := http.Post(ts.URL+"/api/tts", "application/json", bytes.NewReader([]byte(`{"text":"hi"}`)))
	if err != nil {
		t.Fatalf("tts request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.ContentLength != int64(len(audio)) {
		t.Errorf("content length = %d", resp.ContentLength)
	}
	out, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(out, audio) {
		t.Error("audio bytes differ")
	}
}

func TestE2E_TTSVendorRejection(t *testing.T) {
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer vendor.Close()

	ts := newTestServer(t, server.Dependencies{TTS: tts.New(tts.Config{APIKey: "wrong", VoiceID: "v1", BaseURL: vendor.URL})})
	resp, err := http.Post(ts.URL+"/api/tts", "application/json", bytes.NewReader([]byte(`{"text":"hi"}`)))
	if err != nil {
		t.Fatalf("tts request failed: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusInternalServerError || string(out) != `{"error":"Text-to-speech conversion failed"}` {
		t.Fatalf("got %d %s", resp.StatusCode, out)
	}
}
