package chat

// Sample is a suggested prompt offered while the conversation is empty.
type Sample struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

var SampleQuestions = []Sample{
	{Text: "What is React?", Icon: "🤔"},
	{Text: "Give me example Python code", Icon: "🐍"},
	{Text: "Explain TypeScript", Icon: "💡"},
	{Text: "Best coding practices?", Icon: "✨"},
}

// ShowSamples reports whether sample prompts should be offered.
func (c Conversation) ShowSamples() bool { return len(c.Messages) == 0 }
