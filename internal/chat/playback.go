package chat

import "fmt"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhasePlaying
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	}
	return "idle"
}

// Handle names a loaded audio resource (an object URL, a temp file).
// The zero value means no resource.
type Handle string

// Playback is the single audio slot shared by a conversation. Index is the
// message the slot belongs to and is meaningless while Idle.
type Playback struct {
	Phase  Phase
	Index  int
	Source Handle
}

func (p Playback) String() string {
	if p.Phase == PhaseIdle {
		return "idle"
	}
	return fmt.Sprintf("%s(%d)", p.Phase, p.Index)
}

// PlayingIndex returns the message index currently audible, if any.
func (p Playback) PlayingIndex() (int, bool) {
	if p.Phase == PhasePlaying {
		return p.Index, true
	}
	return 0, false
}

type PlaybackEvent interface{ playbackEvent() }

type (
	PlayRequested  struct{ Index int }
	FetchFailed    struct{ Index int }
	PlaybackEnded  struct{}
	PlaybackFailed struct{ Err error }
)

// FetchSucceeded carries the loaded audio for message Index.
type FetchSucceeded struct {
	Index  int
	Source Handle
}

func (PlayRequested) playbackEvent()  {}
func (FetchSucceeded) playbackEvent() {}
func (FetchFailed) playbackEvent()    {}
func (PlaybackEnded) playbackEvent()  {}
func (PlaybackFailed) playbackEvent() {}

// Effect is work the caller must perform after a transition, in order.
type Effect interface{ playbackEffect() }

type (
	// Fetch asks for speech synthesis of message Index.
	Fetch   struct{ Index int }
	Play    struct{ Source Handle }
	Pause   struct{}
	Resume  struct{}
	Release struct{ Source Handle }
)

func (Fetch) playbackEffect()   {}
func (Play) playbackEffect()    {}
func (Pause) playbackEffect()   {}
func (Resume) playbackEffect()  {}
func (Release) playbackEffect() {}

// ReducePlayback applies e to p. The returned effects must be executed in
// order; a Release always precedes the Fetch that supersedes it.
func ReducePlayback(p Playback, e PlaybackEvent) (Playback, []Effect) {
	switch ev := e.(type) {
	case PlayRequested:
		if p.Phase != PhaseIdle && p.Index == ev.Index {
			switch p.Phase {
			case PhasePlaying:
				p.Phase = PhasePaused
				return p, []Effect{Pause{}}
			case PhasePaused:
				p.Phase = PhasePlaying
				return p, []Effect{Resume{}}
			case PhaseLoading:
				return p, nil
			}
		}
		var effects []Effect
		if p.Source != "" {
			effects = append(effects, Release{Source: p.Source})
		}
		effects = append(effects, Fetch{Index: ev.Index})
		return Playback{Phase: PhaseLoading, Index: ev.Index}, effects

	case FetchSucceeded:
		if p.Phase != PhaseLoading || p.Index != ev.Index {
			// Superseded while in flight.
			if ev.Source == "" {
				return p, nil
			}
			return p, []Effect{Release{Source: ev.Source}}
		}
		return Playback{Phase: PhasePlaying, Index: ev.Index, Source: ev.Source}, []Effect{Play{Source: ev.Source}}

	case FetchFailed:
		if p.Phase == PhaseLoading && p.Index == ev.Index {
			return Playback{}, nil
		}
		return p, nil

	case PlaybackEnded, PlaybackFailed:
		var effects []Effect
		if p.Source != "" {
			effects = append(effects, Release{Source: p.Source})
		}
		return Playback{}, effects
	}
	return p, nil
}
