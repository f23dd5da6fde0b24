// heuristics.go - Business assumptions applied when deriving statements

package statements

import (
	"github.com/shopspring/decimal"

	"github.com/bosocmputer/account_statement_ai/configs"
)

// Heuristics are the split ratios and thresholds used to turn a transaction
// into balance movements. They are estimates, not accounting rules.
type Heuristics struct {
	InvoiceCashRatio          float64 // share of a paid invoice collected in cash
	BillCashRatio             float64 // share of a debit bill paid in cash
	InventoryCostRatio        float64 // cost share of an inventory sale
	OtherIncomeThreshold      float64 // journal credits above this are other income
	OperatingExpenseThreshold float64 // journal debits above this are operating expenses
	NonCashExpenseRatio       float64 // share of operating expenses added back in cash flow
}

// DefaultHeuristics returns 0.7 / 0.6 / 0.8 / 1000 / 500 / 0.2
func DefaultHeuristics() Heuristics {
	return Heuristics{
		InvoiceCashRatio:          0.7,
		BillCashRatio:             0.6,
		InventoryCostRatio:        0.8,
		OtherIncomeThreshold:      1000,
		OperatingExpenseThreshold: 500,
		NonCashExpenseRatio:       0.2,
	}
}

// HeuristicsFromConfig reads the heuristic overrides loaded by configs.LoadConfig.
// Values that were never loaded keep their defaults.
func HeuristicsFromConfig() Heuristics {
	h := DefaultHeuristics()
	if configs.INVOICE_CASH_RATIO > 0 {
		h.InvoiceCashRatio = configs.INVOICE_CASH_RATIO
	}
	if configs.BILL_CASH_RATIO > 0 {
		h.BillCashRatio = configs.BILL_CASH_RATIO
	}
	if configs.INVENTORY_COST_RATIO > 0 {
		h.InventoryCostRatio = configs.INVENTORY_COST_RATIO
	}
	if configs.OTHER_INCOME_THRESHOLD > 0 {
		h.OtherIncomeThreshold = configs.OTHER_INCOME_THRESHOLD
	}
	if configs.OPERATING_EXPENSE_THRESHOLD > 0 {
		h.OperatingExpenseThreshold = configs.OPERATING_EXPENSE_THRESHOLD
	}
	if configs.NON_CASH_EXPENSE_RATIO > 0 {
		h.NonCashExpenseRatio = configs.NON_CASH_EXPENSE_RATIO
	}
	return h
}

// ratios is the decimal form of Heuristics used by the engine
type ratios struct {
	invoiceCash      decimal.Decimal
	invoiceOpen      decimal.Decimal
	billCash         decimal.Decimal
	billOpen         decimal.Decimal
	inventoryCost    decimal.Decimal
	otherIncome      decimal.Decimal
	operatingExpense decimal.Decimal
	nonCash          decimal.Decimal
}

func (h Heuristics) decimals() ratios {
	one := decimal.NewFromInt(1)
	invoiceCash := decimal.NewFromFloat(h.InvoiceCashRatio)
	billCash := decimal.NewFromFloat(h.BillCashRatio)
	return ratios{
		invoiceCash:      invoiceCash,
		invoiceOpen:      one.Sub(invoiceCash),
		billCash:         billCash,
		billOpen:         one.Sub(billCash),
		inventoryCost:    decimal.NewFromFloat(h.InventoryCostRatio),
		otherIncome:      decimal.NewFromFloat(h.OtherIncomeThreshold),
		operatingExpense: decimal.NewFromFloat(h.OperatingExpenseThreshold),
		nonCash:          decimal.NewFromFloat(h.NonCashExpenseRatio),
	}
}
