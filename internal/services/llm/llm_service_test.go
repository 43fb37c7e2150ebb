package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"buntychat/internal/chat"
)

// fakeOpenAI streams the given deltas as chat.completion.chunk events.
func fakeOpenAI(t *testing.T, deltas []string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if gotBody != nil {
			_ = json.NewDecoder(r.Body).Decode(gotBody)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, d := range deltas {
			chunk := map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"created": 1,
				"model":   "gpt-4",
				"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": d}}},
			}
			b, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestStreamChat_RelaysDeltas(t *testing.T) {
	var body map[string]any
	ts := fakeOpenAI(t, []string{"Hello", "", " there"}, &body)
	defer ts.Close()

	svc := New(Config{APIKey: "sk-test", BaseURL: ts.URL + "/v1", Model: "gpt-4", Temperature: 0.5})
	stream, err := svc.StreamChat(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("stream open failed: %v", err)
	}
	defer stream.Close()

	var got strings.Builder
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("recv failed: %v", err)
		}
		got.WriteString(tok)
	}
	if got.String() != "Hello there" {
		t.Fatalf("got %q", got.String())
	}

	if body["model"] != "gpt-4" || body["stream"] != true {
		t.Errorf("request body = %v", body)
	}
	if temp, _ := body["temperature"].(float64); temp != 0.5 {
		t.Errorf("temperature = %v", body["temperature"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v", body["messages"])
	}
	if m := msgs[0].(map[string]any); m["role"] != "user" || m["content"] != "hi" {
		t.Errorf("message = %v", m)
	}
}

func TestStreamChat_TemperatureOnWire(t *testing.T) {
	for name, temp := range map[string]float32{
		"zero":       0,
		"nan":        float32(math.NaN()),
		"configured": 0.2,
	} {
		t.Run(name, func(t *testing.T) {
			var body map[string]any
			ts := fakeOpenAI(t, []string{"ok"}, &body)
			defer ts.Close()

			svc := New(Config{APIKey: "sk-test", BaseURL: ts.URL + "/v1", Model: "gpt-4", Temperature: temp})
			stream, err := svc.StreamChat(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "hi"}})
			if err != nil {
				t.Fatalf("stream open failed: %v", err)
			}
			_, _ = io.ReadAll(readerOf(stream))
			stream.Close()

			want := DefaultTemperature
			if name == "configured" {
				want = 0.2
			}
			got, ok := body["temperature"].(float64)
			if !ok || got != want {
				t.Fatalf("temperature present=%v value=%v, want %v", ok, body["temperature"], want)
			}
		})
	}
}

// readerOf drains a TokenStream as an io.Reader.
func readerOf(s TokenStream) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		for {
			tok, err := s.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				pw.CloseWithError(err)
				return
			}
			_, _ = io.WriteString(pw, tok)
		}
	}()
	return pr
}

func TestStreamChat_VendorRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	svc := New(Config{APIKey: "bad", BaseURL: ts.URL + "/v1", Model: "gpt-4"})
	if _, err := svc.StreamChat(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("expected error on 401")
	} else if !strings.Contains(err.Error(), "401") {
		t.Errorf("status missing from error: %v", err)
	}
}
