// Package chat holds the client-side conversation model: messages, code-fence
// parsing, the audio playback state machine and the sample prompts. Every
// transition is a pure function so UIs can drive it from their own event loop.
package chat

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of the conversation, in the wire shape /api/chat accepts.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
