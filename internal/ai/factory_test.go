package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosocmputer/account_statement_ai/configs"
)

func TestFallbackCompleter(t *testing.T) {
	msgs := []Message{{Role: RoleUser, Content: "hi"}}

	t.Run("primary answers", func(t *testing.T) {
		primary := &fakeCompleter{replies: replies("Revenue")}
		fallback := &fakeCompleter{replies: replies("Expense")}
		text, err := NewFallbackCompleter(primary, fallback).Complete(context.Background(), msgs, CompletionOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Revenue", text)
		assert.Zero(t, fallback.calls)
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := &fakeCompleter{replies: []scriptedReply{{err: errors.New("quota exceeded")}}}
		fallback := &fakeCompleter{replies: replies("Expense")}
		text, err := NewFallbackCompleter(primary, fallback).Complete(context.Background(), msgs, CompletionOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Expense", text)
		assert.Equal(t, msgs, fallback.seen[0])
	})

	t.Run("empty answer is not a failure", func(t *testing.T) {
		primary := &fakeCompleter{replies: replies("")}
		fallback := &fakeCompleter{replies: replies("Expense")}
		text, err := NewFallbackCompleter(primary, fallback).Complete(context.Background(), msgs, CompletionOptions{})
		require.NoError(t, err)
		assert.Empty(t, text)
		assert.Zero(t, fallback.calls)
	})

	t.Run("both fail", func(t *testing.T) {
		primary := &fakeCompleter{replies: []scriptedReply{{err: errors.New("quota exceeded")}}}
		fallback := &fakeCompleter{replies: []scriptedReply{{err: errors.New("bad gateway")}}}
		_, err := NewFallbackCompleter(primary, fallback).Complete(context.Background(), msgs, CompletionOptions{})
		assert.ErrorContains(t, err, "quota exceeded")
		assert.ErrorContains(t, err, "bad gateway")
	})

	t.Run("cancelled context skips fallback", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		primary := &fakeCompleter{replies: []scriptedReply{{err: context.Canceled}}}
		fallback := &fakeCompleter{replies: replies("Expense")}
		_, err := NewFallbackCompleter(primary, fallback).Complete(ctx, msgs, CompletionOptions{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, fallback.calls)
	})
}

func TestCreateCompleterWithFallback(t *testing.T) {
	provider, geminiKey, openAIKey := configs.LLM_PROVIDER, configs.GEMINI_API_KEY, configs.OPENAI_API_KEY
	t.Cleanup(func() {
		configs.LLM_PROVIDER, configs.GEMINI_API_KEY, configs.OPENAI_API_KEY = provider, geminiKey, openAIKey
	})

	configs.LLM_PROVIDER, configs.GEMINI_API_KEY, configs.OPENAI_API_KEY = "gemini", "key", ""
	completer, err := CreateCompleterWithFallback()
	require.NoError(t, err)
	assert.Equal(t, "gemini", completer.Name())

	configs.OPENAI_API_KEY = "sk-test"
	completer, err = CreateCompleterWithFallback()
	require.NoError(t, err)
	assert.IsType(t, &FallbackCompleter{}, completer)
	assert.Equal(t, "gemini+openai", completer.Name())

	configs.LLM_PROVIDER = "openai"
	completer, err = CreateCompleterWithFallback()
	require.NoError(t, err)
	assert.Equal(t, "openai+gemini", completer.Name())
}
