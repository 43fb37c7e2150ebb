package server

import (
	"context"

	"buntychat/internal/chat"
	"buntychat/internal/services/llm"
)

// CompletionService opens a streamed completion for a message history.
type CompletionService interface {
	StreamChat(ctx context.Context, messages []chat.Message) (llm.TokenStream, error)
}

// SpeechService turns text into audio. Configured must be checked before
// Synthesize; an unconfigured service is never called.
type SpeechService interface {
	Configured() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
