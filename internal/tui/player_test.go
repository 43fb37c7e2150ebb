package tui

import (
	"errors"
	"os"
	"runtime"
	"testing"
	"time"
)

func newTestPlayer(t *testing.T, script string) *ExecPlayer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	p := NewExecPlayer("sh", []string{"-c", script})
	p.dir = t.TempDir()
	return p
}

func TestExecPlayer_LoadAndRelease(t *testing.T) {
	p := newTestPlayer(t, "exit 0")
	h, err := p.Load([]byte("ID3"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := os.ReadFile(string(h))
	if err != nil || string(b) != "ID3" {
		t.Fatalf("audio file: %q %v", b, err)
	}
	if err := p.Release(h); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(string(h)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file still present: %v", err)
	}
	if err := p.Release(h); err != nil {
		t.Errorf("second release: %v", err)
	}
}

func TestExecPlayer_PlayCompletes(t *testing.T) {
	p := newTestPlayer(t, "exit 0")
	h, err := p.Load([]byte("ID3"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	done, err := p.Play(h)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("playback error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("playback never finished")
	}
}

func TestExecPlayer_ReleaseStopsPlayback(t *testing.T) {
	p := newTestPlayer(t, "sleep 30")
	h, err := p.Load([]byte("ID3"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	done, err := p.Play(h)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := p.Release(h); err != nil {
		t.Fatalf("release: %v", err)
	}
	select {
	case err := <-done:
		if err == nil {
			t.Error("killed process reported clean exit")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("release did not stop playback")
	}
	if err := p.Pause(); err == nil {
		t.Error("pause after release should fail")
	}
}

func TestExecPlayer_MissingCommand(t *testing.T) {
	p := NewExecPlayer("bunty-no-such-player", nil)
	p.dir = t.TempDir()
	h, err := p.Load([]byte("x"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := p.Play(h); err == nil {
		t.Fatal("expected start error")
	}
}
