package llm

import "context"

// Message roles understood by every provider
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat-completion prompt
type Message struct {
	Role    string
	Content string
}

// Request contains chat-completion parameters
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// System returns the concatenated system instructions of the request.
func (r Request) System() string {
	var out string
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// Turns returns the request messages without system instructions.
func (r Request) Turns() []Message {
	turns := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			turns = append(turns, m)
		}
	}
	return turns
}

// Response contains LLM generation result
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete runs a single chat completion. An empty req.Model selects
	// DefaultModel.
	Complete(ctx context.Context, req Request) (*Response, error)
}
