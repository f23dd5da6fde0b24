package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosocmputer/account_statement_ai/internal/common"
)

type scriptedReply struct {
	text string
	err  error
}

// fakeCompleter replays scripted replies in order
type fakeCompleter struct {
	replies []scriptedReply
	calls   int
	seen    [][]Message
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, messages []Message, _ CompletionOptions) (string, error) {
	f.seen = append(f.seen, messages)
	if f.calls >= len(f.replies) {
		f.calls++
		return "", errors.New("no scripted reply")
	}
	r := f.replies[f.calls]
	f.calls++
	return r.text, r.err
}

func replies(texts ...string) []scriptedReply {
	out := make([]scriptedReply, 0, len(texts))
	for _, t := range texts {
		out = append(out, scriptedReply{text: t})
	}
	return out
}

func newTestClient(f *fakeCompleter) *ConsensusClient {
	cfg := DefaultConsensusConfig()
	cfg.Retry = NoDelay
	return NewConsensusClient(f, nil, cfg)
}

func TestConsensusClassificationMajority(t *testing.T) {
	f := &fakeCompleter{replies: replies("Revenue", "Revenue", "Expenses")}
	result, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskClassify, Messages: []Message{User("x")}})

	require.NoError(t, err)
	assert.Equal(t, "Revenue", result.Value)
	assert.InDelta(t, 2.0/3.0, result.Agreement, 1e-9)
	assert.False(t, result.Verified)
	assert.Len(t, result.Attempts, 3)
	assert.Equal(t, 3, f.calls)
}

func TestConsensusClassificationUnanimous(t *testing.T) {
	f := &fakeCompleter{replies: replies("Net Burn", "Net Burn", "Net Burn")}
	result, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskClassify})

	require.NoError(t, err)
	assert.Equal(t, "Net Burn", result.Value)
	assert.True(t, result.Verified)
	assert.Equal(t, 1.0, result.Agreement)
}

func TestConsensusClassificationTieFirstSeen(t *testing.T) {
	f := &fakeCompleter{replies: replies("Expenses", "Revenue")}
	client := newTestClient(f)
	result, err := client.Run(context.Background(), Task{Kind: TaskClassify, MaxAttempts: 2})

	require.NoError(t, err)
	assert.Equal(t, "Expenses", result.Value)
}

func TestConsensusAmountVerified(t *testing.T) {
	raw := []string{
		`{"final_amount": 100, "confidence": 0.9}`,
		"```json\n{\"final_amount\": 102, \"confidence\": 0.9, \"extraction_notes\": \"grand total line\"}\n```",
		`The answer: {"final_amount": "99", "confidence": 0.8}`,
	}
	f := &fakeCompleter{replies: replies(raw...)}
	result, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskExtractAmount})

	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Contains(t, raw, result.Value)
	assert.Equal(t, raw[1], result.Value, "longest raw response wins")
	assert.InDelta(t, 1-(102-301.0/3)/(301.0/3), result.Agreement, 1e-9)
	require.NotNil(t, result.Attempts[0].Parsed)
	assert.Equal(t, 100.0, result.Attempts[0].Parsed["final_amount"])
}

func TestConsensusAmountDisagreementFallsBackToFirst(t *testing.T) {
	raw := []string{`{"final_amount": 100}`, `{"final_amount": 250, "note": "longer answer"}`, `{"amount": 100}`}
	f := &fakeCompleter{replies: replies(raw...)}
	result, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskExtractAmount})

	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, raw[0], result.Value)
}

func TestConsensusAmountZeroMean(t *testing.T) {
	f := &fakeCompleter{replies: replies(`{"final_amount": 0}`, `{"final_amount": 0.0, "x": 1}`)}
	result, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskExtractAmount, MaxAttempts: 2})
	require.NoError(t, err)
	assert.True(t, result.Verified)

	f = &fakeCompleter{replies: replies(`{"final_amount": 5}`, `{"final_amount": -5}`)}
	result, err = newTestClient(f).Run(context.Background(), Task{Kind: TaskExtractAmount, MaxAttempts: 2})
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, `{"final_amount": 5}`, result.Value)
}

func TestConsensusToleratesEarlyFailures(t *testing.T) {
	f := &fakeCompleter{replies: []scriptedReply{
		{err: errors.New("connection reset")},
		{text: "  "},
		{text: "Revenue"},
	}}
	result, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskClassify})

	require.NoError(t, err)
	assert.Equal(t, "Revenue", result.Value)
	assert.False(t, result.Verified, "one success is below the verification threshold")
}

func TestConsensusFinalFailureIsServiceFailure(t *testing.T) {
	f := &fakeCompleter{replies: []scriptedReply{
		{text: "Revenue"},
		{err: errors.New("boom")},
		{err: context.DeadlineExceeded},
	}}
	_, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskClassify})

	var sf *common.ServiceFailure
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, 3, sf.Attempts)
	assert.Len(t, sf.Causes, 2)
	assert.Contains(t, err.Error(), "attempt 2")
	assert.Contains(t, err.Error(), "attempt 3")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestConsensusAllEmpty(t *testing.T) {
	f := &fakeCompleter{replies: replies("", "", "")}
	result, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskGeneral})

	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestConsensusGeneralReturnsFirst(t *testing.T) {
	f := &fakeCompleter{replies: replies("first", "second answer", "third")}
	result, err := newTestClient(f).Run(context.Background(), Task{Kind: TaskGeneral, Messages: []Message{System("s"), User("u")}})

	require.NoError(t, err)
	assert.Equal(t, "first", result.Value)
	require.Len(t, f.seen, 3)
	assert.Equal(t, RoleSystem, f.seen[0][0].Role)
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, "rate_limit", categorizeError(errors.New("googleapi: Error 429: Resource exhausted")).Category)
	assert.Equal(t, "timeout", categorizeError(context.DeadlineExceeded).Category)
	assert.True(t, categorizeError(context.DeadlineExceeded).Retryable)
	assert.Equal(t, "canceled", categorizeError(context.Canceled).Category)
	assert.Equal(t, "unknown", categorizeError(errors.New("weird")).Category)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, ExtractJSON("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": {"b": 2}}`, ExtractJSON(`prefix {"a": {"b": 2}} suffix`))
	assert.Equal(t, "no json", ExtractJSON("  no json "))

	var out map[string]interface{}
	require.NoError(t, DecodeJSON("{\"notes\": \"line one\nline two\"}", &out))
	assert.Equal(t, "line one\nline two", out["notes"])
}
