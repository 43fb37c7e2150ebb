package tui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"buntychat/internal/chat"
)

// Player is the terminal's single audio slot. Handles are temp files.
type Player interface {
	Load(audio []byte) (chat.Handle, error)
	// Play starts h and returns a channel that yields once playback stops.
	Play(h chat.Handle) (<-chan error, error)
	Pause() error
	Resume() error
	Release(h chat.Handle) error
}

// ExecPlayer plays audio files through an external command such as ffplay.
type ExecPlayer struct {
	command string
	args    []string
	dir     string

	mu      sync.Mutex
	proc    *exec.Cmd
	current chat.Handle
}

var DefaultPlayerArgs = []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}

func NewExecPlayer(command string, args []string) *ExecPlayer {
	return &ExecPlayer{command: command, args: args, dir: os.TempDir()}
}

func (p *ExecPlayer) Load(audio []byte) (chat.Handle, error) {
	path := filepath.Join(p.dir, "bunty-"+uuid.NewString()+".mp3")
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return chat.Handle(path), nil
}

func (p *ExecPlayer) Play(h chat.Handle) (<-chan error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	args := append(append([]string{}, p.args...), string(h))
	cmd := exec.Command(p.command, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", p.command, err)
	}
	p.proc, p.current = cmd, h
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	return done, nil
}

func (p *ExecPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.proc == nil {
		return errors.New("nothing playing")
	}
	return suspend(p.proc.Process)
}

func (p *ExecPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.proc == nil {
		return errors.New("nothing playing")
	}
	return resume(p.proc.Process)
}

// Release stops h if it is playing and deletes its file.
func (p *ExecPlayer) Release(h chat.Handle) error {
	p.mu.Lock()
	if p.current == h {
		p.killLocked()
	}
	p.mu.Unlock()
	if err := os.Remove(string(h)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (p *ExecPlayer) killLocked() {
	if p.proc != nil && p.proc.Process != nil {
		_ = resume(p.proc.Process)
		_ = p.proc.Process.Kill()
	}
	p.proc, p.current = nil, ""
}
