package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"buntychat/internal/config"
	"buntychat/internal/server"
	"buntychat/internal/services/llm"
	"buntychat/internal/services/tts"
)

func main() {
	var envPath string
	flag.StringVar(&envPath, "env", ".env", "Path to an optional .env file")
	flag.Parse()

	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load %s: %v", envPath, err)
	}

	c, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	chatSvc := llm.New(llm.Config{
		APIKey:      c.OpenAI.APIKey,
		BaseURL:     c.OpenAI.BaseURL,
		Model:       c.OpenAI.Model,
		Temperature: c.OpenAI.Temperature,
	})
	ttsSvc := tts.New(tts.Config{
		APIKey:  c.ElevenLabs.APIKey,
		VoiceID: c.ElevenLabs.VoiceID,
		BaseURL: c.ElevenLabs.BaseURL,
	})
	deps := server.Dependencies{Chat: chatSvc, TTS: ttsSvc}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux, deps)
	server.RegisterWSRoutes(mux, deps, server.WSOptions{Enable: c.WebSocket.Enabled, PathPrefix: c.WebSocket.PathPrefix})
	if c.WebUI.Enabled {
		server.RegisterWebUI(mux)
	}

	// Bind explicitly so we can support port=0 and log the actual port
	ln, err := net.Listen("tcp", c.Server.Addr())
	if err != nil {
		log.Fatalf("listen error: %v", err)
	}
	srv := &http.Server{Handler: server.WithRequestID(mux), ReadHeaderTimeout: 10 * time.Second}

	ttsStatus := "disabled (missing ELEVEN_LABS_API_KEY or ELEVEN_LABS_VOICE_ID)"
	if c.ElevenLabs.Configured() {
		ttsStatus = "enabled (voice=" + c.ElevenLabs.VoiceID + ")"
	}
	wsStatus := "disabled"
	if c.WebSocket.Enabled {
		wsStatus = "enabled (prefix=" + c.WebSocket.PathPrefix + ")"
	}
	uiStatus := "disabled"
	if c.WebUI.Enabled {
		uiStatus = "enabled"
	}
	log.Printf("Startup summary:\n  Address: %s\n  App URL: %s\n  Model: %s (temperature=%.2f, max_tokens=%d)\n  Rate limit: %d per %ds (not enforced)\n  TTS: %s\n  WebSocket: %s\n  Web UI: %s",
		ln.Addr().String(), c.App.URL, c.OpenAI.Model, c.OpenAI.Temperature, c.OpenAI.MaxTokens,
		c.OpenAI.RateLimit, c.OpenAI.RateLimitWindow, ttsStatus, wsStatus, uiStatus)

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
}
