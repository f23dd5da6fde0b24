package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosocmputer/account_statement_ai/internal/ledger"
)

const sampleYAML = `
categories:
  consulting:
    Fee:
      chart_type: Income
      account: Consulting Revenue
      trial_balance: Credit
aliases:
  invoices: consulting
`

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	am, err := FileSource{Path: path}.LoadAccountingMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Consulting Revenue"}, am.Accounts("invoices"))

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.LoadAccountingMap(context.Background())
	assert.ErrorContains(t, err, "failed to open accounting map file")
}

func TestLoadAccountingMap(t *testing.T) {
	am, store, err := LoadAccountingMap(context.Background(), LoaderConfig{})
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.Equal(t, ledger.DefaultAccountingMap().Len(), am.Len())

	path := filepath.Join(t.TempDir(), "map.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))
	am, store, err = LoadAccountingMap(context.Background(), LoaderConfig{File: path, MongoURI: "mongodb://unused"})
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.Equal(t, 1, am.Len())

	_, _, err = LoadAccountingMap(context.Background(), LoaderConfig{File: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestAccountingMapFromRecords(t *testing.T) {
	am, err := AccountingMapFromRecords([]AccountingCategoryRecord{
		{
			Category: "purchase-invoice",
			Aliases:  []string{"bills"},
			Fields: map[string]ledger.AccountingMapEntry{
				"Bill Amount": {ChartType: "Liability", Account: "Accounts Payable", TrialBalance: "Credit"},
			},
		},
	})
	require.NoError(t, err)

	entry, ok := am.Lookup("bills", "Bill Amount")
	require.True(t, ok)
	assert.Equal(t, "Accounts Payable", entry.Account)

	_, err = AccountingMapFromRecords([]AccountingCategoryRecord{{Fields: map[string]ledger.AccountingMapEntry{}}})
	assert.ErrorContains(t, err, "without category")

	_, err = AccountingMapFromRecords([]AccountingCategoryRecord{
		{Category: "a", Fields: map[string]ledger.AccountingMapEntry{"F": {Account: "Cash"}}},
		{Category: "a", Fields: map[string]ledger.AccountingMapEntry{"F": {Account: "Cash"}}},
	})
	assert.ErrorContains(t, err, "defined twice")

	_, err = AccountingMapFromRecords(nil)
	assert.Error(t, err)
}

func TestSourceFunc(t *testing.T) {
	var src Source = DefaultSource
	am, err := src.LoadAccountingMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultAccountingMap().Len(), am.Len())
}
