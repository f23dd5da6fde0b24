package ledger

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeAmount(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{"plain number", 1250.5, 1250.5},
		{"currency string", "$1,250.50", 1250.5},
		{"euro with text", "EUR 99.90 total", 99.9},
		{"negative number", -40.0, 0},
		{"negative string", "-12.5", 0},
		{"negative currency", "-$20.00", 0},
		{"empty string", "", 0},
		{"letters only", "N/A", 0},
		{"two decimal points", "1.2.3", 0},
		{"double minus", "--5", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"int", 300, 300},
		{"json number", json.Number("42.10"), 42.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SanitizeAmount(tt.input), 1e-9)
		})
	}
}

func TestSanitizeAmountIdempotentAndNonNegative(t *testing.T) {
	inputs := []interface{}{
		"$1,000.00", "-0", "abc", "12e3", "-7.25", 0.1, -0.0, 1e300, "..", "-", "3-4",
		math.MaxFloat64, -math.SmallestNonzeroFloat64, "1 234,56",
	}
	for _, in := range inputs {
		once := SanitizeAmount(in)
		twice := SanitizeAmount(once)
		assert.Equal(t, once, twice, "input %v", in)
		assert.GreaterOrEqual(t, once, 0.0, "input %v", in)
		assert.False(t, math.IsNaN(once) || math.IsInf(once, 0), "input %v", in)
	}
}

func TestTransactionDecodeNeverFailsOnAmount(t *testing.T) {
	payload := `[
		{"id":"1","amount":"1,000.00","category":"invoices","type":"credit"},
		{"id":"2","amount":null,"category":"bills"},
		{"id":"3","amount":{"nested":true},"category":"bank-transactions","type":"DEBIT"},
		{"id":"4","amount":-55,"category":"inventory","type":"credit"}
	]`

	var txs []Transaction
	require.NoError(t, json.Unmarshal([]byte(payload), &txs))
	require.Len(t, txs, 4)

	assert.Equal(t, Amount(1000), txs[0].Amount)
	assert.True(t, txs[0].IsCredit())
	assert.Equal(t, Amount(0), txs[1].Amount)
	assert.False(t, txs[1].IsCredit())
	assert.Equal(t, Amount(0), txs[2].Amount)
	assert.Equal(t, Amount(0), txs[3].Amount)
}

func TestAssignMissingIDs(t *testing.T) {
	txs := []Transaction{{ID: "inv-1"}, {ID: "  "}, {}}
	AssignMissingIDs(txs)

	assert.Equal(t, "inv-1", txs[0].ID)
	for _, tx := range txs[1:] {
		_, err := uuid.Parse(tx.ID)
		assert.NoError(t, err, tx.ID)
	}
	assert.NotEqual(t, txs[1].ID, txs[2].ID)
}

func TestCategoryIsJournal(t *testing.T) {
	assert.True(t, CategoryManualJournals.IsJournal())
	assert.True(t, CategoryGeneralLedgers.IsJournal())
	assert.True(t, CategoryGeneralEntries.IsJournal())
	assert.False(t, CategoryInvoices.IsJournal())
}
