package llm

import (
	"strings"
)

// SystemPrompt is the assistant persona sent ahead of every chat reply.
const SystemPrompt = "You are FinanceAI, an expert financial advisor. Explain clearly and professionally. " +
	"Include risks and caveats where relevant. Keep answers concise and actionable."

// SummaryPrompt instructs the model to produce a chat brief.
const SummaryPrompt = "You summarize finance conversations. Write 3-4 concise bullets covering the user's goal, " +
	"the main topics discussed, and suggested next steps. Use plain text lines starting with \"- \"."

// Sampling parameters per call kind
const (
	ReplyTemperature   = 0.7
	ReplyMaxTokens     = 1200
	SummaryTemperature = 0.5
	SummaryMaxTokens   = 400

	// SummaryWindow is how many trailing messages feed a summary.
	SummaryWindow = 30
)

// BuildReplyRequest prepends the persona instruction to the conversation.
func BuildReplyRequest(history []Message, model string) Request {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: SystemPrompt})
	messages = append(messages, history...)

	return Request{
		Model:       model,
		Messages:    messages,
		Temperature: ReplyTemperature,
		MaxTokens:   ReplyMaxTokens,
	}
}

// BuildSummaryRequest sends the transcript as a single user turn.
func BuildSummaryRequest(history []Message, model string) Request {
	return Request{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: SummaryPrompt},
			{Role: RoleUser, Content: FormatTranscript(history)},
		},
		Temperature: SummaryTemperature,
		MaxTokens:   SummaryMaxTokens,
	}
}

// FormatTranscript renders messages as "ROLE: content" lines, oldest first.
func FormatTranscript(history []Message) string {
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
