// interface.go - Text-completion provider interface for supporting multiple AI providers

package ai

import "context"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions are the sampling settings of a single completion
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// Completer defines the interface that all completion providers must implement
// This allows us to support multiple AI providers (Gemini, OpenAI) with the same interface
type Completer interface {
	// Complete sends the ordered messages and returns the model's free text answer
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)

	// Name returns the name of the provider (e.g., "gemini", "openai")
	Name() string
}

// CompleterConfig contains configuration for completion providers
type CompleterConfig struct {
	// Provider name: "gemini" or "openai"
	Provider string

	// Gemini configuration
	GeminiAPIKey string
	GeminiModel  string

	// OpenAI configuration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

// System returns a system message
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message
func User(content string) Message { return Message{Role: RoleUser, Content: content} }
