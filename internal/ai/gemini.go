// gemini.go - Gemini completion provider

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiCompleter implements Completer on top of the Gemini API
type GeminiCompleter struct {
	apiKey    string
	modelName string
}

// NewGeminiCompleter creates a new Gemini provider
func NewGeminiCompleter(apiKey, modelName string) *GeminiCompleter {
	return &GeminiCompleter{apiKey: apiKey, modelName: modelName}
}

// Name returns the provider name
func (g *GeminiCompleter) Name() string {
	return "gemini"
}

// Complete runs one chat completion. System messages become the model's
// system instruction, the last user message is sent and earlier turns are
// replayed as history.
func (g *GeminiCompleter) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("gemini: no messages to send")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.modelName)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	var systemParts []genai.Part
	var history []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, genai.Text(msg.Content))
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{Parts: systemParts}
	}
	if len(history) == 0 {
		return "", fmt.Errorf("gemini: no user message to send")
	}

	last := history[len(history)-1]
	session := model.StartChat()
	session.History = history[:len(history)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", categorizeError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
