package server

import (
	"encoding/base64"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"buntychat/internal/chat"
)

type WSOptions struct {
	Enable     bool
	PathPrefix string
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func RegisterWSRoutes(mux *http.ServeMux, d Dependencies, o WSOptions) {
	if !o.Enable {
		return
	}
	prefix := o.PathPrefix
	if prefix == "" {
		prefix = "/ws"
	}

	if d.Chat != nil {
		mux.HandleFunc(prefix+"/chat", func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				logf(r, "ws upgrade: %v", err)
				return
			}
			defer conn.Close()
			for {
				var req chatRequest
				if err := conn.ReadJSON(&req); err != nil {
					return
				}
				if !streamWS(conn, r, d, req.Messages) {
					return
				}
			}
		})
	}

	mux.HandleFunc(prefix+"/tts", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(r, "ws upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			var req ttsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if d.TTS == nil || !d.TTS.Configured() {
				_ = conn.WriteJSON(errorBody{Error: MsgMissingSpeechConfig})
				continue
			}
			audio, err := d.TTS.Synthesize(r.Context(), req.Text)
			if err != nil {
				logf(r, "ws TTS error: %v", err)
				_ = conn.WriteJSON(errorBody{Error: MsgSpeechFailed})
				continue
			}
			_ = conn.WriteJSON(map[string]any{"ok": true, "mime": "audio/mpeg", "audio_base64": base64.StdEncoding.EncodeToString(audio)})
		}
	})
	log.Printf("WebSocket endpoints enabled at %s/{chat,tts}", prefix)
}

// streamWS relays one completion as data frames followed by a done frame.
// It reports false when the connection is no longer writable.
func streamWS(conn *websocket.Conn, r *http.Request, d Dependencies, messages []chat.Message) bool {
	stream, err := d.Chat.StreamChat(r.Context(), messages)
	if err != nil {
		logf(r, "ws chat: %v", err)
		return conn.WriteJSON(map[string]any{"error": "completion stream failed"}) == nil
	}
	defer stream.Close()
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return conn.WriteJSON(map[string]any{"event": "done"}) == nil
		}
		if err != nil {
			logf(r, "ws chat stream aborted: %v", err)
			return conn.WriteJSON(map[string]any{"error": "completion stream failed"}) == nil
		}
		if err := conn.WriteJSON(map[string]any{"event": "data", "text": tok}); err != nil {
			return false
		}
	}
}
