// notes.go - Narrative financial analysis produced by the completion model

package statements

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bosocmputer/account_statement_ai/internal/ai"
	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/ledger"
)

// ProfessionalNotes holds either the generated analysis or placeholder sections
type ProfessionalNotes struct {
	ProfessionalAnalysis string `json:"professional_analysis,omitempty"`
	GeneratedAt          string `json:"generated_at,omitempty"`
	AIVerified           bool   `json:"ai_verified,omitempty"`

	ExecutiveSummary     string             `json:"executive_summary,omitempty"`
	BalanceSheetAnalysis string             `json:"balance_sheet_analysis,omitempty"`
	ProfitLossAnalysis   string             `json:"profit_loss_analysis,omitempty"`
	CashFlowAnalysis     string             `json:"cash_flow_analysis,omitempty"`
	KeyRatios            map[string]float64 `json:"key_ratios,omitempty"`
	RiskAssessment       string             `json:"risk_assessment,omitempty"`
	Recommendations      string             `json:"recommendations,omitempty"`
	Error                string             `json:"error,omitempty"`
}

// Placeholder reports whether the notes are the fallback sections
func (n *ProfessionalNotes) Placeholder() bool {
	return n != nil && n.ProfessionalAnalysis == ""
}

func placeholderNotes() *ProfessionalNotes {
	return &ProfessionalNotes{
		ExecutiveSummary:     "Financial analysis completed successfully.",
		BalanceSheetAnalysis: "Balance sheet analysis available.",
		ProfitLossAnalysis:   "Profit and loss analysis completed.",
		CashFlowAnalysis:     "Cash flow analysis available.",
		KeyRatios:            map[string]float64{},
		RiskAssessment:       "Standard financial risks identified.",
		Recommendations:      "General recommendations provided.",
	}
}

// Consensus runs one sampled task
type Consensus interface {
	Run(ctx context.Context, task ai.Task) (*ai.ConsensusResult, error)
}

// CategorySummary aggregates the transactions of one category
type CategorySummary struct {
	Count    int      `json:"count"`
	Total    float64  `json:"total"`
	Accounts []string `json:"ledger_accounts,omitempty"`
}

// ConsensusNotes generates notes through the consensus client
type ConsensusNotes struct {
	llm      Consensus
	accounts *ledger.AccountingMap
	now      func() time.Time
}

// NewConsensusNotes creates a notes generator. A nil accounting map uses the built-in table.
func NewConsensusNotes(llm Consensus, accounts *ledger.AccountingMap) *ConsensusNotes {
	if accounts == nil {
		accounts = ledger.DefaultAccountingMap()
	}
	return &ConsensusNotes{llm: llm, accounts: accounts, now: time.Now}
}

// Generate never fails: an empty answer yields placeholder sections and an
// error yields placeholder sections plus the error text.
func (g *ConsensusNotes) Generate(ctx context.Context, s *Statements, transactions []ledger.Transaction) *ProfessionalNotes {
	rc := common.FromContext(ctx)

	result, err := g.llm.Run(ctx, ai.Task{
		Kind: ai.TaskGeneral,
		Name: "professional_notes",
		Messages: []ai.Message{
			ai.System(notesSystemPrompt),
			ai.User(g.summaryPrompt(s, transactions)),
		},
	})
	if err != nil {
		rc.LogWarning("⚠️ Professional notes failed: %v", err)
		notes := placeholderNotes()
		notes.Error = "Professional analysis generation failed: " + err.Error()
		return notes
	}
	if result.Empty() {
		rc.LogWarning("⚠️ Professional notes empty, using placeholders")
		return placeholderNotes()
	}

	return &ProfessionalNotes{
		ProfessionalAnalysis: result.Value,
		GeneratedAt:          g.now().Format(time.RFC3339),
		AIVerified:           true,
	}
}

// Summarize aggregates transactions per category with the ledger accounts
// the accounting map assigns to that category
func (g *ConsensusNotes) Summarize(transactions []ledger.Transaction) map[string]CategorySummary {
	totals := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for _, tx := range transactions {
		category := string(tx.Category)
		if category == "" {
			category = "other"
		}
		counts[category]++
		totals[category] = totals[category].Add(decimal.NewFromFloat(tx.Amount.Float64()))
	}

	summary := make(map[string]CategorySummary, len(counts))
	for category, count := range counts {
		summary[category] = CategorySummary{
			Count:    count,
			Total:    totals[category].InexactFloat64(),
			Accounts: g.accounts.Accounts(category),
		}
	}
	return summary
}

func (g *ConsensusNotes) summaryPrompt(s *Statements, transactions []ledger.Transaction) string {
	assets := sumLines(s.BalanceSheet, TypeAsset)
	liabilities := sumLines(s.BalanceSheet, TypeLiability)
	equity := sumLines(s.BalanceSheet, TypeEquity)
	revenue := sumLines(s.ProfitLoss, TypeRevenue)
	expenses := sumLines(s.ProfitLoss, TypeExpense)

	var b strings.Builder
	b.WriteString("Generate professional financial statement notes for the following data:\n\n")
	b.WriteString("FINANCIAL SUMMARY:\n")
	fmt.Fprintf(&b, "- Total Assets: $%s\n", money(assets))
	fmt.Fprintf(&b, "- Total Liabilities: $%s\n", money(liabilities))
	fmt.Fprintf(&b, "- Total Equity: $%s\n", money(equity))
	fmt.Fprintf(&b, "- Total Revenue: $%s\n", money(revenue))
	fmt.Fprintf(&b, "- Total Expenses: $%s\n", money(expenses))
	fmt.Fprintf(&b, "- Net Income: $%s\n\n", money(revenue.Sub(expenses)))

	writeSection(&b, "BALANCE SHEET DETAILS", s.BalanceSheet)
	writeSection(&b, "PROFIT & LOSS DETAILS", s.ProfitLoss)
	writeSection(&b, "CASH FLOW DETAILS", s.CashFlow)
	writeSection(&b, "TRANSACTION SUMMARY", g.Summarize(transactions))

	b.WriteString("Generate comprehensive professional analysis and notes.\n")
	return b.String()
}

func writeSection(b *strings.Builder, title string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data = []byte("[]")
	}
	fmt.Fprintf(b, "%s:\n%s\n\n", title, data)
}

func sumLines(lines []StatementLine, kind string) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Type == kind {
			total = total.Add(decimal.NewFromFloat(l.Amount))
		}
	}
	return total
}

// money formats d with two decimals and thousands separators
func money(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	lead := len(whole) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(whole[:lead])
	for i := lead; i < len(whole); i += 3 {
		b.WriteString(",")
		b.WriteString(whole[i : i+3])
	}

	out := b.String() + "." + frac
	if d.IsNegative() {
		return "-" + out
	}
	return out
}

const notesSystemPrompt = "You are a professional financial analyst and accountant. Generate comprehensive, " +
	"professional financial statement notes and analysis based on the provided financial data. " +
	"Your response should include:\n\n" +
	"1. EXECUTIVE SUMMARY: Brief overview of financial performance\n" +
	"2. BALANCE SHEET ANALYSIS: Analysis of assets, liabilities, and equity\n" +
	"3. PROFIT & LOSS ANALYSIS: Revenue and expense analysis\n" +
	"4. CASH FLOW ANALYSIS: Operating, investing, and financing activities\n" +
	"5. KEY FINANCIAL RATIOS: Calculate and interpret important ratios\n" +
	"6. RISK ASSESSMENT: Identify potential financial risks\n" +
	"7. RECOMMENDATIONS: Strategic recommendations for improvement\n\n" +
	"Use professional accounting terminology and provide insights that would be valuable " +
	"for stakeholders, investors, and management. Format the response in clear sections " +
	"with proper headings and bullet points where appropriate."
