// accounting_map.go - Read-only category -> ledger classification reference data

package ledger

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// AccountingMapEntry classifies one extracted field of a document category
type AccountingMapEntry struct {
	ChartType    string `json:"chart_type" yaml:"chart_type" bson:"chart_type"`
	Account      string `json:"account" yaml:"account" bson:"account"`
	TrialBalance string `json:"trial_balance" yaml:"trial_balance" bson:"trial_balance"`
	BalanceSheet string `json:"balance_sheet,omitempty" yaml:"balance_sheet,omitempty" bson:"balance_sheet,omitempty"`
	PnL          string `json:"pnl,omitempty" yaml:"pnl,omitempty" bson:"pnl,omitempty"`
	CashFlow     string `json:"cash_flow,omitempty" yaml:"cash_flow,omitempty" bson:"cash_flow,omitempty"`
}

// AccountingMap is immutable once built. All accessors return copies.
type AccountingMap struct {
	categories map[string]map[string]AccountingMapEntry
	aliases    map[Category]string
}

// AccountingMapDocument is the serialized form used by YAML files and MongoDB
type AccountingMapDocument struct {
	Categories map[string]map[string]AccountingMapEntry `yaml:"categories" bson:"categories"`
	Aliases    map[string]string                        `yaml:"aliases" bson:"aliases"`
}

// NewAccountingMap builds a map from a document, copying all data
func NewAccountingMap(doc AccountingMapDocument) (*AccountingMap, error) {
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("accounting map has no categories")
	}

	am := &AccountingMap{
		categories: make(map[string]map[string]AccountingMapEntry, len(doc.Categories)),
		aliases:    make(map[Category]string, len(doc.Aliases)),
	}
	for category, fields := range doc.Categories {
		copied := make(map[string]AccountingMapEntry, len(fields))
		for field, entry := range fields {
			if entry.Account == "" {
				return nil, fmt.Errorf("accounting map %s/%s: account is required", category, field)
			}
			copied[field] = entry
		}
		am.categories[category] = copied
	}
	for alias, target := range doc.Aliases {
		if _, ok := am.categories[target]; !ok {
			return nil, fmt.Errorf("accounting map alias %s points to unknown category %s", alias, target)
		}
		am.aliases[Category(alias)] = target
	}
	return am, nil
}

// LoadAccountingMapYAML decodes an AccountingMapDocument from YAML
func LoadAccountingMapYAML(r io.Reader) (*AccountingMap, error) {
	var doc AccountingMapDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode accounting map: %w", err)
	}
	return NewAccountingMap(doc)
}

// ResolveCategory maps a transaction/document category to its map key
func (am *AccountingMap) ResolveCategory(category string) string {
	if target, ok := am.aliases[Category(category)]; ok {
		return target
	}
	return category
}

// Lookup returns the entry for (category, field); aliases are resolved
func (am *AccountingMap) Lookup(category, field string) (AccountingMapEntry, bool) {
	fields, ok := am.categories[am.ResolveCategory(category)]
	if !ok {
		return AccountingMapEntry{}, false
	}
	entry, ok := fields[field]
	return entry, ok
}

// Fields returns the sorted field names known for a category
func (am *AccountingMap) Fields(category string) []string {
	fields := am.categories[am.ResolveCategory(category)]
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Accounts returns the distinct ledger accounts mapped for a category, sorted
func (am *AccountingMap) Accounts(category string) []string {
	seen := map[string]bool{}
	accounts := []string{}
	for _, entry := range am.categories[am.ResolveCategory(category)] {
		if !seen[entry.Account] {
			seen[entry.Account] = true
			accounts = append(accounts, entry.Account)
		}
	}
	sort.Strings(accounts)
	return accounts
}

// Len returns the number of categories
func (am *AccountingMap) Len() int {
	return len(am.categories)
}

// Document returns a serializable copy of the map
func (am *AccountingMap) Document() AccountingMapDocument {
	doc := AccountingMapDocument{
		Categories: make(map[string]map[string]AccountingMapEntry, len(am.categories)),
		Aliases:    make(map[string]string, len(am.aliases)),
	}
	for category, fields := range am.categories {
		copied := make(map[string]AccountingMapEntry, len(fields))
		for field, entry := range fields {
			copied[field] = entry
		}
		doc.Categories[category] = copied
	}
	for alias, target := range am.aliases {
		doc.Aliases[string(alias)] = target
	}
	return doc
}

// DefaultAccountingMap returns the built-in reference table
func DefaultAccountingMap() *AccountingMap {
	am, err := NewAccountingMap(AccountingMapDocument{
		Categories: defaultCategories(),
		Aliases: map[string]string{
			string(CategoryInvoices):         "sales-invoice",
			string(CategoryBills):            "purchase-invoice",
			string(CategoryBankTransactions): "bank-statement",
			string(CategoryItemRestocks):     "inventory",
			string(CategoryFixedAssets):      "fixed-asset-purchase",
		},
	})
	if err != nil {
		panic(err)
	}
	return am
}

func entry(chartType, account, trialBalance, balanceSheet, pnl, cashFlow string) AccountingMapEntry {
	return AccountingMapEntry{
		ChartType:    chartType,
		Account:      account,
		TrialBalance: trialBalance,
		BalanceSheet: balanceSheet,
		PnL:          pnl,
		CashFlow:     cashFlow,
	}
}

func defaultCategories() map[string]map[string]AccountingMapEntry {
	return map[string]map[string]AccountingMapEntry{
		"sales-invoice": {
			"Invoice Amount":    entry("Income", "Sales Revenue", "Credit", "", "Revenue", "Operating Inflow"),
			"Customer Name":     entry("Asset", "Accounts Receivable (Debtors)", "Debit", "Current Asset", "", ""),
			"Output GST/VAT":    entry("Liability", "Output Tax Payable", "Credit", "Current Liability", "", ""),
			"Discount Given":    entry("Expense", "Sales Discount", "Debit", "", "Operating Expense", "Operating Outflow"),
			"Freight Collected": entry("Income", "Freight Revenue", "Credit", "", "Revenue", "Operating Inflow"),
		},
		"purchase-invoice": {
			"Bill Amount":   entry("Expense/COGS", "Purchase / Raw Material", "Debit", "", "COGS/Operating Expense", "Operating Outflow"),
			"Supplier Name": entry("Liability", "Accounts Payable (Creditors)", "Credit", "Current Liability", "", ""),
			"Input GST/VAT": entry("Asset", "Input Tax Receivable", "Debit", "Current Asset", "", ""),
			"Freight Paid":  entry("Expense", "Freight Inward", "Debit", "", "Operating Expense", "Operating Outflow"),
		},
		"bank-statement": {
			"Bank Balance":         entry("Asset", "Bank Account", "Debit", "Current Asset", "", "Ending Balance"),
			"Interest Earned":      entry("Income", "Interest Income", "Credit", "", "Other Income", "Operating Inflow"),
			"Bank Charges":         entry("Expense", "Bank Charges", "Debit", "", "Admin Expense", "Operating Outflow"),
			"Loan Received":        entry("Liability", "Loan Payable", "Credit", "Long-Term Liability", "", "Financing Inflow"),
			"Loan Repayment":       entry("Liability (Reduction)", "Loan Payable", "Debit", "Long-Term Liability (↓)", "", "Financing Outflow"),
			"Fixed Asset Purchase": entry("Asset", "Machinery / Equipment", "Debit", "Fixed Asset", "", "Investing Outflow"),
		},
		"receipts": {
			"Customer Payment":       entry("Asset (↓) / Asset (↑)", "Debtors ↓ / Bank ↑", "Debit / Credit", "Current Asset", "", "Operating Inflow"),
			"Tax Collected Included": entry("Liability", "Output GST/VAT Payable", "Credit", "Current Liability", "", ""),
		},
		"payments": {
			"Vendor Payment":      entry("Liability (↓) / Asset (↓)", "Creditors ↓ / Bank ↓", "Debit / Credit", "Current Liability / Asset", "", "Operating Outflow"),
			"Direct Expense":      entry("Expense", "Rent, Utilities, Admin Expense", "Debit", "", "Operating Expense", "Operating Outflow"),
			"Capital Expenditure": entry("Asset", "Plant & Machinery", "Debit", "Fixed Asset", "", "Investing Outflow"),
		},
		"payroll": {
			"Gross Salary":        entry("Expense", "Salary Expense", "Debit", "", "Operating Expense", "Operating Outflow"),
			"PF / TDS Payable":    entry("Liability", "Statutory Payables", "Credit", "Current Liability", "", ""),
			"Net Pay Transferred": entry("Asset (↓)", "Bank / Cash", "Credit", "Current Asset", "", "Operating Outflow"),
		},
		"fixed-asset-purchase": {
			"Asset Cost":      entry("Asset", "Equipment, Vehicle, etc.", "Debit", "Fixed Asset", "", "Investing Outflow"),
			"Tax on Purchase": entry("Asset", "Input GST/VAT Receivable", "Debit", "Current Asset", "", ""),
		},
		"asset-sale": {
			"Sale Proceeds": entry("Income", "Gain on Asset Disposal", "Credit", "", "Other Income (if profit)", "Investing Inflow"),
			"Book Value":    entry("Asset (Reduction)", "Fixed Asset", "Credit", "Fixed Asset (↓)", "", "Investing Outflow"),
		},
		"capital-infusion": {
			"Owner Capital Introduced": entry("Equity", "Owner’s Capital", "Credit", "Equity", "", "Financing Inflow"),
			"Deposited to Bank":        entry("Asset", "Bank", "Debit", "Current Asset", "", ""),
		},
		"drawings": {
			"Owner Withdrawal": entry("Equity (Reduction)", "Drawings", "Debit", "Equity (↓)", "", "Financing Outflow"),
		},
		"depreciation": {
			"Annual Depreciation Expense": entry("Expense", "Depreciation", "Debit", "", "Non-Cash Expense", "Adjusted in Operating"),
			"Accumulated Depreciation":    entry("Contra-Asset", "Accumulated Depreciation", "Credit", "Fixed Asset (contra)", "", ""),
		},
		"prepaid-expense": {
			"Amount Paid": entry("Asset", "Prepaid Rent, Insurance", "Debit", "Current Asset", "", "Operating Outflow"),
		},
		"accrued-expense": {
			"Expense Incurred But Unpaid": entry("Liability", "Accrued Salaries, Bills", "Credit", "Current Liability", "Expense", "Adjusted in Operating"),
		},
		"inventory": {
			"Purchase of Goods":  entry("Asset", "Inventory", "Debit", "Current Asset", "", "Operating Outflow"),
			"Inventory Consumed": entry("Expense", "COGS", "Debit", "", "Direct Expense", "Operating Outflow"),
		},
		"tax-payments": {
			"GST/TDS/Income Tax Paid": entry("Liability (↓)", "GST Payable / Tax Payable", "Debit", "Current Liability", "", "Operating Outflow"),
		},
	}
}
