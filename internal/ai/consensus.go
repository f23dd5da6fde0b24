// consensus.go - Multi-sample completion with reconciliation

package ai

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/ratelimit"
)

// TaskKind selects the reconciliation strategy for a task
type TaskKind string

const (
	TaskGeneral       TaskKind = "general"
	TaskClassify      TaskKind = "classify/category"
	TaskExtractAmount TaskKind = "extract/amount"
)

// AmountTolerance is the maximum relative deviation from the mean for
// numeric answers to count as agreeing
const AmountTolerance = 0.10

// Task is one prompt to be answered by several sampled completions
type Task struct {
	Kind     TaskKind
	Name     string
	Messages []Message

	// Zero values fall back to the client's configuration
	MaxAttempts          int
	VerificationAttempts int
}

// ExtractionAttempt is one sampled completion of a task
type ExtractionAttempt struct {
	Number int                    `json:"attempt"`
	Kind   TaskKind               `json:"kind"`
	Raw    string                 `json:"raw"`
	Parsed map[string]interface{} `json:"parsed,omitempty"`
	Err    error                  `json:"-"`
}

// Succeeded reports whether the attempt produced a usable answer
func (a ExtractionAttempt) Succeeded() bool {
	return a.Err == nil && a.Raw != ""
}

// ConsensusResult is the reconciled answer of a task. An empty Value means
// no attempt produced an answer.
type ConsensusResult struct {
	Value     string              `json:"value"`
	Attempts  []ExtractionAttempt `json:"attempts"`
	Agreement float64             `json:"agreement"`
	Verified  bool                `json:"verified"`
}

// Empty reports whether the result carries no answer
func (r *ConsensusResult) Empty() bool {
	return r == nil || r.Value == ""
}

// ConsensusConfig holds the sampling settings of a ConsensusClient
type ConsensusConfig struct {
	MaxAttempts          int
	VerificationAttempts int
	Temperature          float64
	Retry                RetryConfig
}

// DefaultConsensusConfig returns 3 attempts, 2 needed for verification, temperature 0.1
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		MaxAttempts:          3,
		VerificationAttempts: 2,
		Temperature:          0.1,
		Retry:                DefaultRetryConfig,
	}
}

// ConsensusClient issues sequential sampled completions and reconciles them
type ConsensusClient struct {
	completer Completer
	limiter   *ratelimit.RateLimiter
	config    ConsensusConfig
}

// NewConsensusClient creates a client. limiter may be nil.
func NewConsensusClient(completer Completer, limiter *ratelimit.RateLimiter, config ConsensusConfig) *ConsensusClient {
	defaults := DefaultConsensusConfig()
	if config.MaxAttempts < 1 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.VerificationAttempts < 1 {
		config.VerificationAttempts = defaults.VerificationAttempts
	}
	return &ConsensusClient{completer: completer, limiter: limiter, config: config}
}

// Run samples the task up to MaxAttempts times. Failed or empty attempts
// before the last are tolerated; a failure of the final attempt returns a
// *common.ServiceFailure listing every failed attempt.
func (c *ConsensusClient) Run(ctx context.Context, task Task) (*ConsensusResult, error) {
	rc := common.FromContext(ctx)

	maxAttempts := task.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = c.config.MaxAttempts
	}
	verificationAttempts := task.VerificationAttempts
	if verificationAttempts < 1 {
		verificationAttempts = c.config.VerificationAttempts
	}
	kind := task.Kind
	if kind == "" {
		kind = TaskGeneral
	}

	opts := CompletionOptions{Temperature: c.config.Temperature}
	result := &ConsensusResult{Attempts: make([]ExtractionAttempt, 0, maxAttempts)}
	var failures []error

	for n := 1; n <= maxAttempts; n++ {
		attempt := ExtractionAttempt{Number: n, Kind: kind}

		if err := c.limiter.Wait(ctx); err != nil {
			attempt.Err = err
		} else {
			text, err := c.completer.Complete(ctx, task.Messages, opts)
			attempt.Raw = strings.TrimSpace(text)
			attempt.Err = err
		}
		result.Attempts = append(result.Attempts, attempt)

		if attempt.Err == nil {
			if attempt.Raw == "" {
				rc.LogWarning("⚠️  %s attempt %d/%d returned an empty answer", c.completer.Name(), n, maxAttempts)
			}
			continue
		}

		compErr := categorizeError(attempt.Err)
		failures = append(failures, fmt.Errorf("attempt %d: %w", n, compErr))
		rc.LogError("%s attempt %d/%d failed: %s", c.completer.Name(), n, maxAttempts, compErr.Error())

		if n == maxAttempts {
			return nil, &common.ServiceFailure{
				Service:  c.completer.Name() + " completion",
				Attempts: maxAttempts,
				Causes:   failures,
			}
		}

		if compErr.Retryable {
			delay := calculateBackoff(n, c.config.Retry)
			if compErr.Category == "rate_limit" {
				delay = delay * 2
				rc.LogWarning("Rate limit hit, waiting %v before retry", delay)
			}
			if err := sleepContext(ctx, delay); err != nil {
				failures = append(failures, err)
				return nil, &common.ServiceFailure{
					Service:  c.completer.Name() + " completion",
					Attempts: n,
					Causes:   failures,
				}
			}
		}
	}

	reconcile(result, kind, verificationAttempts)
	if result.Empty() {
		rc.LogWarning("⚠️  %s task %q produced no answer after %d attempts", kind, task.Name, maxAttempts)
	}
	return result, nil
}

func reconcile(result *ConsensusResult, kind TaskKind, verificationAttempts int) {
	responses := make([]string, 0, len(result.Attempts))
	for _, a := range result.Attempts {
		if a.Succeeded() {
			responses = append(responses, a.Raw)
		}
	}

	if len(responses) == 0 {
		return
	}
	result.Value = responses[0]
	if len(responses) < verificationAttempts {
		return
	}

	switch kind {
	case TaskClassify:
		result.Value, result.Agreement = majority(responses)
		result.Verified = result.Agreement == 1
	case TaskExtractAmount:
		amounts := make([]float64, 0, len(responses))
		for i := range result.Attempts {
			a := &result.Attempts[i]
			if !a.Succeeded() {
				continue
			}
			if amount, ok := parseAmountField(a); ok {
				amounts = append(amounts, amount)
			}
		}
		if len(amounts) < 2 {
			return
		}
		deviation, ok := maxRelativeDeviation(amounts)
		if !ok {
			return
		}
		result.Agreement = math.Max(0, 1-deviation)
		if deviation < AmountTolerance {
			result.Verified = true
			result.Value = longest(responses)
		}
	}
}

// majority returns the most frequent answer, ties broken by first-seen order,
// and the winner's share of the answers
func majority(responses []string) (string, float64) {
	counts := make(map[string]int, len(responses))
	order := make([]string, 0, len(responses))
	for _, r := range responses {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}

	winner := order[0]
	for _, r := range order[1:] {
		if counts[r] > counts[winner] {
			winner = r
		}
	}
	return winner, float64(counts[winner]) / float64(len(responses))
}

// parseAmountField decodes the embedded object of an attempt and reads
// final_amount, falling back to amount
func parseAmountField(a *ExtractionAttempt) (float64, bool) {
	var payload map[string]interface{}
	if err := DecodeJSON(a.Raw, &payload); err != nil {
		return 0, false
	}
	a.Parsed = payload

	raw, ok := payload["final_amount"]
	if !ok {
		raw, ok = payload["amount"]
	}
	if !ok {
		return 0, false
	}
	return toFloat(raw)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// maxRelativeDeviation returns max|x - mean| / |mean|. When the mean is zero
// the set agrees only if every value is zero.
func maxRelativeDeviation(values []float64) (float64, bool) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var maxDev float64
	for _, v := range values {
		if d := math.Abs(v - mean); d > maxDev {
			maxDev = d
		}
	}

	if mean == 0 {
		if maxDev == 0 {
			return 0, true
		}
		return 0, false
	}
	return maxDev / math.Abs(mean), true
}

// longest returns the longest response, first one on ties
func longest(responses []string) string {
	best := responses[0]
	for _, r := range responses[1:] {
		if len(r) > len(best) {
			best = r
		}
	}
	return best
}
