package chat

import (
	"slices"
	"strings"
)

// Conversation is the chat transcript plus the input box. Awaiting is set
// while a completion stream is outstanding; only one may be in flight.
type Conversation struct {
	Messages []Message
	Input    string
	Awaiting bool
	// Err is the last stream failure, kept for logging; UIs show nothing for it.
	Err string
}

// ConversationEvent is one of the event types below.
type ConversationEvent interface{ conversationEvent() }

type (
	InputChanged   struct{ Text string }
	SampleSelected struct{ Index int }
	Submitted      struct{}
	ChunkReceived  struct{ Text string }
	StreamFinished struct{}
	StreamFailed   struct{ Err error }
)

func (InputChanged) conversationEvent()   {}
func (SampleSelected) conversationEvent() {}
func (Submitted) conversationEvent()      {}
func (ChunkReceived) conversationEvent()  {}
func (StreamFinished) conversationEvent() {}
func (StreamFailed) conversationEvent()   {}

// CanSubmit reports whether a Submitted event would start a request.
func (c Conversation) CanSubmit() bool {
	return !c.Awaiting && strings.TrimSpace(c.Input) != ""
}

// ReduceConversation applies e to c and returns the new state. c is never
// mutated; message slices are copied before they grow.
func ReduceConversation(c Conversation, e ConversationEvent) Conversation {
	switch ev := e.(type) {
	case InputChanged:
		c.Input = ev.Text
	case SampleSelected:
		if len(c.Messages) > 0 || ev.Index < 0 || ev.Index >= len(SampleQuestions) {
			return c
		}
		c.Input = SampleQuestions[ev.Index].Text
	case Submitted:
		if !c.CanSubmit() {
			return c
		}
		c.Messages = append(slices.Clip(c.Messages), Message{Role: RoleUser, Content: c.Input})
		c.Input = ""
		c.Awaiting = true
		c.Err = ""
	case ChunkReceived:
		if !c.Awaiting {
			return c
		}
		n := len(c.Messages)
		if n > 0 && c.Messages[n-1].Role == RoleAssistant {
			msgs := slices.Clone(c.Messages)
			msgs[n-1].Content += ev.Text
			c.Messages = msgs
		} else {
			c.Messages = append(slices.Clip(c.Messages), Message{Role: RoleAssistant, Content: ev.Text})
		}
	case StreamFinished:
		c.Awaiting = false
	case StreamFailed:
		c.Awaiting = false
		if ev.Err != nil {
			c.Err = ev.Err.Error()
		} else {
			c.Err = "stream failed"
		}
	}
	return c
}
