package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"buntychat/internal/tui"
)

func main() {
	var (
		envPath    string
		serverURL  string
		playerCmd  string
		playerArgs string
	)
	flag.StringVar(&envPath, "env", ".env", "Path to an optional .env file")
	flag.StringVar(&serverURL, "server", "", "buntychat server URL (default $APP_URL or http://127.0.0.1:8080)")
	flag.StringVar(&playerCmd, "player", "ffplay", "Command used to play mp3 audio")
	flag.StringVar(&playerArgs, "player-args", strings.Join(tui.DefaultPlayerArgs, " "), "Arguments passed to the player before the file path")
	flag.Parse()

	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load %s: %v", envPath, err)
	}
	if serverURL == "" {
		serverURL = os.Getenv("APP_URL")
	}
	if serverURL == "" {
		serverURL = "http://127.0.0.1:8080"
	}

	// The alt screen owns stdout; logs go to a file only when asked.
	if os.Getenv("DEBUG") != "" {
		f, err := tea.LogToFile("buntytui.log", "buntytui")
		if err != nil {
			log.Fatalf("log file: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	player := tui.NewExecPlayer(playerCmd, strings.Fields(playerArgs))
	model := tui.New(ctx, tui.NewClient(serverURL), player)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "buntytui: %v\n", err)
		os.Exit(1)
	}
}
