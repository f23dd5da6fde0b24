// analyzer.go - Specialized callers of the consensus client

package analysis

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bosocmputer/account_statement_ai/internal/ai"
	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/ledger"
	"github.com/bosocmputer/account_statement_ai/internal/payment"
)

// Consensus runs one sampled task
type Consensus interface {
	Run(ctx context.Context, task ai.Task) (*ai.ConsensusResult, error)
}

// Analyzer extracts amounts, classifications and document facts from text
type Analyzer struct {
	llm       Consensus
	validator *payment.Validator
	accounts  *ledger.AccountingMap
	now       func() time.Time
}

// NewAnalyzer creates an analyzer. A nil validator uses the wall clock and a
// nil accounting map uses the built-in table.
func NewAnalyzer(llm Consensus, validator *payment.Validator, accounts *ledger.AccountingMap) *Analyzer {
	if validator == nil {
		validator = payment.NewValidator()
	}
	if accounts == nil {
		accounts = ledger.DefaultAccountingMap()
	}
	now := time.Now
	if validator.Now != nil {
		now = validator.Now
	}
	return &Analyzer{llm: llm, validator: validator, accounts: accounts, now: now}
}

// Classify returns the dashboard category of text, or "" on failure
func (a *Analyzer) Classify(ctx context.Context, text string) string {
	result, err := a.llm.Run(ctx, ai.Task{
		Kind: ai.TaskClassify,
		Name: "classify_transaction",
		Messages: []ai.Message{
			ai.System(classificationSystemPrompt()),
			ai.User("Classify this text: " + text),
		},
	})
	if err != nil {
		common.FromContext(ctx).Logger().Warn().Err(err).Msg("classification failed")
		return ""
	}
	if result.Empty() {
		return ""
	}
	return strings.TrimSpace(result.Value)
}

// number reads a JSON number or numeric string
func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return number(f)
	default:
		return 0, false
	}
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}
