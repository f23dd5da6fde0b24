// engine.go - Financial statement synthesis from categorized transactions

package statements

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/ledger"
)

// Line types
const (
	TypeAsset     = "asset"
	TypeLiability = "liability"
	TypeEquity    = "equity"
	TypeRevenue   = "revenue"
	TypeExpense   = "expense"
)

// Cash flow activities
const (
	ActivityOperating = "operating"
	ActivityInvesting = "investing"
	ActivityFinancing = "financing"
)

const (
	AccountRetainedEarnings = "Retained Earnings"
	AccountOpeningEarnings  = "Retained Earnings (Opening)"
	AccountSuspenseCredit   = "Suspense Account (Credit)"
	AccountSuspenseDebit    = "Suspense Account (Debit)"
	LineNetChangeInCash     = "Net Change in Cash"
)

// balanceTolerance is the largest difference treated as balanced
var balanceTolerance = decimal.RequireFromString("0.01")

// StatementLine is one balance sheet or profit and loss line
type StatementLine struct {
	Account  string  `json:"account"`
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}

// TrialBalanceEntry is one trial balance row
type TrialBalanceEntry struct {
	Account string  `json:"account"`
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
}

// CashFlowLine is one cash flow statement row
type CashFlowLine struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
}

// Statements is the output of one synthesis run
type Statements struct {
	BalanceSheet      []StatementLine     `json:"balanceSheet"`
	ProfitLoss        []StatementLine     `json:"profitLoss"`
	TrialBalance      []TrialBalanceEntry `json:"trialBalance"`
	CashFlow          []CashFlowLine      `json:"cashFlow"`
	ProfessionalNotes *ProfessionalNotes  `json:"professionalNotes"`
}

// NotesGenerator writes the narrative analysis of a set of statements. It
// must never fail; problems are reported inside the returned notes.
type NotesGenerator interface {
	Generate(ctx context.Context, s *Statements, transactions []ledger.Transaction) *ProfessionalNotes
}

// Engine builds the four statements of a transaction batch
type Engine struct {
	heuristics Heuristics
	notes      NotesGenerator
}

// NewEngine creates an engine. notes may be nil, in which case no narrative is produced.
func NewEngine(heuristics Heuristics, notes NotesGenerator) *Engine {
	return &Engine{heuristics: heuristics, notes: notes}
}

// totals are the running balances accumulated over a batch
type totals struct {
	cash              decimal.Decimal
	revenue           decimal.Decimal
	expenses          decimal.Decimal
	cogs              decimal.Decimal
	operatingExpenses decimal.Decimal
	otherIncome       decimal.Decimal
	otherExpenses     decimal.Decimal
	receivable        decimal.Decimal
	payable           decimal.Decimal
	inventory         decimal.Decimal
	fixedAssets       decimal.Decimal
	longTermDebt      decimal.Decimal
}

func (t *totals) netIncome() decimal.Decimal {
	grossProfit := t.revenue.Sub(t.cogs)
	operatingIncome := grossProfit.Sub(t.operatingExpenses)
	return operatingIncome.Add(t.otherIncome).Sub(t.otherExpenses)
}

// Generate derives balance sheet, profit and loss, trial balance and cash
// flow from transactions, then asks the notes generator for commentary.
// An empty batch yields empty statements and no notes.
func (e *Engine) Generate(ctx context.Context, transactions []ledger.Transaction) *Statements {
	rc := common.FromContext(ctx)

	if len(transactions) == 0 {
		rc.LogInfo("📭 No transactions, returning empty statements")
		return &Statements{
			BalanceSheet: []StatementLine{},
			ProfitLoss:   []StatementLine{},
			TrialBalance: []TrialBalanceEntry{},
			CashFlow:     []CashFlowLine{},
		}
	}

	rc.StartStep("statement_synthesis")
	start := time.Now()

	rc.StartSubStep("accumulate")
	t := e.accumulate(transactions)
	rc.EndSubStep("")

	netIncome := t.netIncome()

	rc.StartSubStep("balance_sheet")
	balanceSheet, adjustment := buildBalanceSheet(t, netIncome)
	rc.EndSubStep("retained earnings adjusted by " + adjustment.StringFixed(2))

	profitLoss := buildProfitLoss(t)

	rc.StartSubStep("trial_balance")
	trialBalance := buildTrialBalance(balanceSheet, profitLoss)
	rc.EndSubStep("")

	cashFlow := e.buildCashFlow(t, netIncome)

	s := &Statements{
		BalanceSheet: toLines(balanceSheet),
		ProfitLoss:   toLines(profitLoss),
		TrialBalance: toEntries(trialBalance),
		CashFlow:     toCashFlow(cashFlow),
	}

	rc.Logger().Info().
		Int("transactions", len(transactions)).
		Str("net_income", netIncome.StringFixed(2)).
		Dur("took", time.Since(start)).
		Msg("📊 statements built")
	rc.EndStep("success", nil)

	if e.notes != nil {
		rc.StartStep("professional_notes")
		s.ProfessionalNotes = e.notes.Generate(ctx, s, transactions)
		rc.EndStep("success", nil)
	}
	return s
}

func (e *Engine) accumulate(transactions []ledger.Transaction) *totals {
	r := e.heuristics.decimals()
	t := &totals{}

	for _, tx := range transactions {
		amount := decimal.NewFromFloat(tx.Amount.Float64())
		credit := tx.IsCredit()

		switch category := tx.Category; {
		case category == ledger.CategoryInvoices:
			if credit {
				t.revenue = t.revenue.Add(amount)
				t.cash = t.cash.Add(amount.Mul(r.invoiceCash))
				t.receivable = t.receivable.Add(amount.Mul(r.invoiceOpen))
			} else {
				t.receivable = t.receivable.Add(amount)
			}

		case category == ledger.CategoryBills:
			if credit {
				t.payable = t.payable.Add(amount)
			} else {
				t.expenses = t.expenses.Add(amount)
				t.cash = t.cash.Sub(amount.Mul(r.billCash))
				t.payable = t.payable.Add(amount.Mul(r.billOpen))
			}

		case category == ledger.CategoryBankTransactions:
			if credit {
				t.cash = t.cash.Add(amount)
			} else {
				t.cash = t.cash.Sub(amount)
			}

		case category == ledger.CategoryInventory:
			if credit {
				t.revenue = t.revenue.Add(amount)
				t.inventory = decimal.Max(decimal.Zero, t.inventory.Sub(amount.Mul(r.inventoryCost)))
				t.cash = t.cash.Add(amount)
			} else {
				t.cogs = t.cogs.Add(amount)
				t.inventory = t.inventory.Add(amount)
				t.cash = t.cash.Sub(amount)
			}

		case category == ledger.CategoryItemRestocks:
			if credit {
				t.inventory = t.inventory.Add(amount)
			} else {
				t.cogs = t.cogs.Add(amount)
				t.inventory = t.inventory.Add(amount)
				t.cash = t.cash.Sub(amount)
			}

		case category.IsJournal():
			if credit {
				t.cash = t.cash.Add(amount)
				if amount.GreaterThan(r.otherIncome) {
					t.otherIncome = t.otherIncome.Add(amount)
				}
			} else {
				t.cash = t.cash.Sub(amount)
				if amount.GreaterThan(r.operatingExpense) {
					t.operatingExpenses = t.operatingExpenses.Add(amount)
				} else {
					t.otherExpenses = t.otherExpenses.Add(amount)
				}
			}

		case category == ledger.CategoryFixedAssets:
			t.fixedAssets = t.fixedAssets.Add(amount)

		case category == ledger.CategoryLongTermDebt:
			t.longTermDebt = t.longTermDebt.Add(amount)
		}
	}
	return t
}

// line is the decimal form of StatementLine
type line struct {
	account  string
	kind     string
	amount   decimal.Decimal
	category string
}

type entry struct {
	account string
	debit   decimal.Decimal
	credit  decimal.Decimal
}

type flow struct {
	description string
	amount      decimal.Decimal
	kind        string
}

// buildBalanceSheet returns the balance sheet lines and the adjustment that
// was added to retained earnings to make assets equal liabilities plus equity.
func buildBalanceSheet(t *totals, netIncome decimal.Decimal) ([]line, decimal.Decimal) {
	lines := []line{{
		account:  "Cash and Cash Equivalents",
		kind:     TypeAsset,
		amount:   decimal.Max(decimal.Zero, t.cash),
		category: "Current",
	}}

	if t.receivable.IsPositive() {
		lines = append(lines, line{"Accounts Receivable", TypeAsset, t.receivable, "Current"})
	}
	if t.inventory.IsPositive() {
		lines = append(lines, line{"Inventory", TypeAsset, t.inventory, "Current"})
	}
	if t.fixedAssets.IsPositive() {
		lines = append(lines, line{"Fixed Assets", TypeAsset, t.fixedAssets, "Non-Current"})
	}
	if t.payable.IsPositive() {
		lines = append(lines, line{"Accounts Payable", TypeLiability, t.payable, "Current"})
	}
	if t.longTermDebt.IsPositive() {
		lines = append(lines, line{"Long-term Debt", TypeLiability, t.longTermDebt, "Non-Current"})
	}

	lines = append(lines, line{AccountRetainedEarnings, TypeEquity, netIncome, "Equity"})

	assets, liabilities, equity := sumByType(lines, TypeAsset), sumByType(lines, TypeLiability), sumByType(lines, TypeEquity)
	difference := assets.Sub(liabilities.Add(equity))
	if difference.Abs().GreaterThan(balanceTolerance) {
		last := len(lines) - 1
		lines[last].amount = lines[last].amount.Add(difference)
		return lines, difference
	}
	return lines, decimal.Zero
}

func buildProfitLoss(t *totals) []line {
	var lines []line
	if t.revenue.IsPositive() {
		lines = append(lines, line{"Revenue & Sales", TypeRevenue, t.revenue, "Revenue"})
	}
	if t.cogs.IsPositive() {
		lines = append(lines, line{"Cost of Goods Sold", TypeExpense, t.cogs, "COGS"})
	}
	if t.operatingExpenses.IsPositive() {
		lines = append(lines, line{"Operating Expenses", TypeExpense, t.operatingExpenses, "Operating"})
	}
	if t.otherIncome.IsPositive() {
		lines = append(lines, line{"Other Income", TypeRevenue, t.otherIncome, "Other"})
	}
	if t.otherExpenses.IsPositive() {
		lines = append(lines, line{"Other Expenses", TypeExpense, t.otherExpenses, "Other"})
	}
	return lines
}

func buildTrialBalance(balanceSheet, profitLoss []line) []entry {
	var entries []entry

	for _, l := range balanceSheet {
		if l.account == AccountRetainedEarnings {
			continue
		}
		if l.kind == TypeAsset {
			entries = append(entries, entry{l.account, l.amount, decimal.Zero})
		} else {
			entries = append(entries, entry{l.account, decimal.Zero, l.amount})
		}
	}

	for _, l := range profitLoss {
		if l.kind == TypeRevenue {
			entries = append(entries, entry{l.account, decimal.Zero, l.amount})
		} else {
			entries = append(entries, entry{l.account, l.amount, decimal.Zero})
		}
	}

	// No prior period is carried in
	entries = append(entries, entry{AccountOpeningEarnings, decimal.Zero, decimal.Zero})

	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		debits = debits.Add(e.debit)
		credits = credits.Add(e.credit)
	}

	difference := debits.Sub(credits)
	if difference.Abs().GreaterThan(balanceTolerance) {
		if difference.IsPositive() {
			entries = append(entries, entry{AccountSuspenseCredit, decimal.Zero, difference})
		} else {
			entries = append(entries, entry{AccountSuspenseDebit, difference.Abs(), decimal.Zero})
		}
	}
	return entries
}

// buildCashFlow follows the indirect method and forces the total to match the tracked cash balance
func (e *Engine) buildCashFlow(t *totals, netIncome decimal.Decimal) []flow {
	r := e.heuristics.decimals()
	flows := []flow{{"Net Income", netIncome, ActivityOperating}}

	if t.operatingExpenses.IsPositive() {
		flows = append(flows, flow{"Add: Operating Expenses (non-cash)", t.operatingExpenses.Mul(r.nonCash), ActivityOperating})
	}
	if t.receivable.IsPositive() {
		flows = append(flows, flow{"Less: Increase in Accounts Receivable", t.receivable.Neg(), ActivityOperating})
	}
	if t.payable.IsPositive() {
		flows = append(flows, flow{"Add: Increase in Accounts Payable", t.payable, ActivityOperating})
	}
	if t.inventory.IsPositive() {
		flows = append(flows, flow{"Less: Increase in Inventory", t.inventory.Neg(), ActivityOperating})
	}
	if t.fixedAssets.IsPositive() {
		flows = append(flows, flow{"Purchase of Fixed Assets", t.fixedAssets.Neg(), ActivityInvesting})
	}
	if t.longTermDebt.IsPositive() {
		flows = append(flows, flow{"Proceeds from Long-term Debt", t.longTermDebt, ActivityFinancing})
	}

	net := decimal.Zero
	for _, f := range flows {
		net = net.Add(f.amount)
	}
	if net.Sub(t.cash).Abs().GreaterThan(balanceTolerance) {
		flows = append(flows, flow{LineNetChangeInCash, t.cash, ActivityOperating})
	}
	return flows
}

func sumByType(lines []line, kind string) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.kind == kind {
			total = total.Add(l.amount)
		}
	}
	return total
}

func toLines(lines []line) []StatementLine {
	out := make([]StatementLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, StatementLine{Account: l.account, Type: l.kind, Amount: l.amount.InexactFloat64(), Category: l.category})
	}
	return out
}

func toEntries(entries []entry) []TrialBalanceEntry {
	out := make([]TrialBalanceEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, TrialBalanceEntry{Account: e.account, Debit: e.debit.InexactFloat64(), Credit: e.credit.InexactFloat64()})
	}
	return out
}

func toCashFlow(flows []flow) []CashFlowLine {
	out := make([]CashFlowLine, 0, len(flows))
	for _, f := range flows {
		out = append(out, CashFlowLine{Description: f.description, Amount: f.amount.InexactFloat64(), Type: f.kind})
	}
	return out
}
