// validator.go - Date parsing and payment status heuristics

package payment

import (
	"strings"
	"time"

	"github.com/bosocmputer/account_statement_ai/internal/ledger"
)

// Payment statuses
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusOverdue = "overdue"
)

// OverdueAfterDays is the number of elapsed days after which an unpaid amount is overdue
const OverdueAfterDays = 30

// dateLayouts are tried in order, first match wins
var dateLayouts = []string{
	"2006-1-2",            // ISO
	"2/1/2006",            // DD/MM/YYYY
	"1/2/2006",            // MM/DD/YYYY
	"2006/1/2",            // YYYY/MM/DD
	"2-1-2006",            // DD-MM-YYYY
	"1-2-2006",            // MM-DD-YYYY
	"2.1.2006",            // DD.MM.YYYY
	"1.2.2006",            // MM.DD.YYYY
	"January 2, 2006",     // full month name
	"2 January 2006",      // day first, full month name
	"Jan 2, 2006",         // abbreviated month name
	"2006-01-02 15:04:05", // timestamp
}

// Validator evaluates payment status relative to Now
type Validator struct {
	Now func() time.Time
}

// NewValidator creates a validator using the wall clock
func NewValidator() *Validator {
	return &Validator{Now: time.Now}
}

func (v *Validator) today() time.Time {
	now := time.Now
	if v != nil && v.Now != nil {
		now = v.Now
	}
	return dateOnly(now())
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses s against the accepted layouts. Unparsable input yields
// today's date.
func (v *Validator) ParseDate(s string) time.Time {
	t, ok := parseDate(s)
	if !ok {
		return v.today()
	}
	return t
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// NormalizeDate returns s as an ISO calendar date (YYYY-MM-DD)
func (v *Validator) NormalizeDate(s string) string {
	return v.ParseDate(s).Format("2006-01-02")
}

// DaysElapsed returns the whole days between date and today; negative for future dates
func (v *Validator) DaysElapsed(date time.Time) int {
	return int(v.today().Sub(dateOnly(date)).Hours() / 24)
}

// Status classifies a payment as paid, pending or overdue
func (v *Validator) Status(amount float64, date string) string {
	if amount <= 0 {
		return StatusPending
	}
	days := v.DaysElapsed(v.ParseDate(date))
	switch {
	case days > OverdueAfterDays:
		return StatusOverdue
	case days > 0:
		return StatusPending
	default:
		return StatusPaid
	}
}

// Summary counts transactions per status
type Summary struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
}

// OverduePayment is one transaction past the overdue threshold
type OverduePayment struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	DaysOverdue int     `json:"days_overdue"`
}

// ValidationIssue records a transaction that failed a sanity check. Issues
// never abort the batch.
type ValidationIssue struct {
	ID    string      `json:"id"`
	Issue string      `json:"issue"`
	Value interface{} `json:"value"`
}

// ValidationSummary is the result of ValidatePayments
type ValidationSummary struct {
	TotalTransactions int               `json:"total_transactions"`
	ValidatedAt       string            `json:"validated_at"`
	PaymentSummary    Summary           `json:"payment_summary"`
	OverduePayments   []OverduePayment  `json:"overdue_payments"`
	ValidationIssues  []ValidationIssue `json:"validation_issues"`
}

// ValidatePayments classifies every transaction and collects sanity issues
func (v *Validator) ValidatePayments(transactions []ledger.Transaction) *ValidationSummary {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}

	result := &ValidationSummary{
		TotalTransactions: len(transactions),
		ValidatedAt:       now().Format(time.RFC3339),
		OverduePayments:   []OverduePayment{},
		ValidationIssues:  []ValidationIssue{},
	}

	for _, tx := range transactions {
		amount := tx.Amount.Float64()

		if amount <= 0 {
			result.ValidationIssues = append(result.ValidationIssues, ValidationIssue{
				ID:    tx.ID,
				Issue: "Invalid amount",
				Value: amount,
			})
		}
		if strings.TrimSpace(tx.Date) == "" {
			result.ValidationIssues = append(result.ValidationIssues, ValidationIssue{
				ID:    tx.ID,
				Issue: "Missing date",
				Value: tx.Date,
			})
		}

		switch v.Status(amount, tx.Date) {
		case StatusPaid:
			result.PaymentSummary.Paid++
		case StatusPending:
			result.PaymentSummary.Pending++
		case StatusOverdue:
			result.PaymentSummary.Overdue++
			result.OverduePayments = append(result.OverduePayments, OverduePayment{
				ID:          tx.ID,
				Description: tx.Description,
				Amount:      amount,
				Date:        tx.Date,
				DaysOverdue: v.DaysElapsed(v.ParseDate(tx.Date)),
			})
		}
	}

	return result
}
