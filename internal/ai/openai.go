// openai.go - OpenAI compatible completion provider (via langchaingo)

package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainCompleter implements Completer on any langchaingo chat model
type LangChainCompleter struct {
	llm  llms.Model
	name string
}

// NewOpenAICompleter creates an OpenAI provider. baseURL is optional and
// allows OpenAI compatible gateways.
func NewOpenAICompleter(apiKey, model, baseURL string) (*LangChainCompleter, error) {
	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return NewLangChainCompleter(llm, "openai"), nil
}

// NewLangChainCompleter wraps an existing langchaingo model
func NewLangChainCompleter(llm llms.Model, name string) *LangChainCompleter {
	return &LangChainCompleter{llm: llm, name: name}
}

// Name returns the provider name
func (l *LangChainCompleter) Name() string {
	return l.name
}

// Complete runs one chat completion
func (l *LangChainCompleter) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := l.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", categorizeError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", l.name)
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
