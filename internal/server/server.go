package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"buntychat/internal/chat"
	"buntychat/internal/render"
)

// Error bodies returned by /api/tts.
const (
	MsgMissingSpeechConfig = "Missing ElevenLabs configuration"
	MsgSpeechFailed        = "Text-to-speech conversion failed"
)

type Dependencies struct {
	Chat CompletionService
	TTS  SpeechService
}

func RegisterRoutes(mux *http.ServeMux, d Dependencies) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleChat(w, r, d)
	})

	mux.HandleFunc("/api/tts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleTTS(w, r, d)
	})

	mux.HandleFunc("/api/render", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleRender(w, r)
	})

	mux.HandleFunc("/api/samples", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, chat.SampleQuestions)
	})
}

// -------- Chat Handler --------

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

func handleChat(w http.ResponseWriter, r *http.Request, d Dependencies) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if d.Chat == nil {
		http.Error(w, "completion service unavailable", http.StatusServiceUnavailable)
		return
	}

	stream, err := d.Chat.StreamChat(r.Context(), req.Messages)
	if err != nil {
		logf(r, "chat: %v", err)
		http.Error(w, "completion stream failed", http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			logf(r, "chat stream aborted: %v", err)
			// Abort instead of terminating the chunked body.
			panic(http.ErrAbortHandler)
		}
		if _, err := io.WriteString(w, tok); err != nil {
			logf(r, "chat client gone: %v", err)
			return
		}
		flusher.Flush()
	}
}

// -------- TTS Handler --------

type ttsRequest struct {
	Text string `json:"text"`
}

func handleTTS(w http.ResponseWriter, r *http.Request, d Dependencies) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logf(r, "TTS error: decode body: %v", err)
		writeError(w, http.StatusInternalServerError, MsgSpeechFailed)
		return
	}
	if d.TTS == nil || !d.TTS.Configured() {
		writeError(w, http.StatusInternalServerError, MsgMissingSpeechConfig)
		return
	}
	audio, err := d.TTS.Synthesize(r.Context(), req.Text)
	if err != nil {
		logf(r, "TTS error: %v", err)
		writeError(w, http.StatusInternalServerError, MsgSpeechFailed)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// -------- Render Handler --------

type renderRequest struct {
	Content string `json:"content"`
}

type renderResponse struct {
	Segments []render.Block `json:"segments"`
}

func handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	blocks, err := render.HTML(chat.ParseSegments(req.Content))
	if err != nil {
		logf(r, "render: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{Segments: blocks})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeJSON writes v without the encoder's trailing newline so error bodies
// are byte-exact.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
