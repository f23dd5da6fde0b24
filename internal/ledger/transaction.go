// transaction.go - Categorized transaction records and amount sanitizing

package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Category is the document category a transaction was extracted from
type Category string

const (
	CategoryBankTransactions Category = "bank-transactions"
	CategoryInvoices         Category = "invoices"
	CategoryBills            Category = "bills"
	CategoryInventory        Category = "inventory"
	CategoryItemRestocks     Category = "item-restocks"
	CategoryManualJournals   Category = "manual-journals"
	CategoryGeneralLedgers   Category = "general-ledgers"
	CategoryGeneralEntries   Category = "general-entries"
	CategoryFixedAssets      Category = "fixed-assets"
	CategoryLongTermDebt     Category = "long-term-debt"
)

// DocumentCategories are the categories a document can be classified into
var DocumentCategories = []Category{
	CategoryBankTransactions,
	CategoryInvoices,
	CategoryBills,
	CategoryInventory,
	CategoryItemRestocks,
	CategoryManualJournals,
	CategoryGeneralLedgers,
	CategoryGeneralEntries,
}

// IsJournal reports whether c is one of the general journal categories
func (c Category) IsJournal() bool {
	return c == CategoryManualJournals || c == CategoryGeneralLedgers || c == CategoryGeneralEntries
}

// EntryType is the side of a transaction
type EntryType string

const (
	Debit  EntryType = "debit"
	Credit EntryType = "credit"
)

// Transaction is one categorized record of a statement batch
type Transaction struct {
	ID                string    `json:"id"`
	Date              string    `json:"date"`
	Description       string    `json:"description"`
	Amount            Amount    `json:"amount"`
	Category          Category  `json:"category"`
	Type              EntryType `json:"type"`
	Vendor            string    `json:"vendor,omitempty"`
	Customer          string    `json:"customer,omitempty"`
	DashboardCategory string    `json:"dashboardCategory,omitempty"`
	DueDate           string    `json:"dueDate,omitempty"`
}

// IsCredit reports whether the transaction is credit-type. Anything that is
// not explicitly "credit" is treated as a debit.
func (t Transaction) IsCredit() bool {
	return strings.EqualFold(string(t.Type), string(Credit))
}

// AssignMissingIDs gives every transaction with a blank id a generated one
func AssignMissingIDs(transactions []Transaction) {
	for i := range transactions {
		if strings.TrimSpace(transactions[i].ID) == "" {
			transactions[i].ID = uuid.NewString()
		}
	}
}

// Amount is a sanitized non-negative monetary value. Decoding never fails:
// malformed input becomes 0.
type Amount float64

// Float64 returns the amount as float64
func (a Amount) Float64() float64 { return float64(a) }

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(SanitizeAmount(raw))
	return nil
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// SanitizeAmount strips everything except digits, '.' and '-' and parses the
// rest. Negative values clamp to 0 so the result is always a finite number
// >= 0; any failure yields 0. SanitizeAmount(SanitizeAmount(x)) == SanitizeAmount(x).
func SanitizeAmount(value interface{}) float64 {
	var s string
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return finiteNonNegative(v)
	case float32:
		return finiteNonNegative(float64(v))
	case int:
		return finiteNonNegative(float64(v))
	case int64:
		return finiteNonNegative(float64(v))
	case int32:
		return finiteNonNegative(float64(v))
	case Amount:
		return finiteNonNegative(float64(v))
	case json.Number:
		s = v.String()
	case string:
		s = v
	case bool:
		return 0
	default:
		s = fmt.Sprint(v)
	}

	clean := nonNumeric.ReplaceAllString(s, "")
	if clean == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return finiteNonNegative(parsed)
}

func finiteNonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, v)
}
