// amount.go - Final amount extraction

package analysis

import (
	"context"
	"errors"

	"github.com/bosocmputer/account_statement_ai/internal/ai"
	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/ledger"
)

// FinalAmount is the single total a document communicates
type FinalAmount struct {
	FinalAmount     float64 `json:"final_amount"`
	Confidence      float64 `json:"confidence"`
	AmountType      string  `json:"amount_type"`
	ExtractionNotes string  `json:"extraction_notes"`
	RawResponse     string  `json:"raw_response"`
	Verified        bool    `json:"verified"`
}

// ExtractFinalAmount never fails: any error yields a payload with amount 0,
// confidence 0 and amount_type "Error"
func (a *Analyzer) ExtractFinalAmount(ctx context.Context, text string) FinalAmount {
	result, err := a.llm.Run(ctx, ai.Task{
		Kind: ai.TaskExtractAmount,
		Name: "extract_final_amount",
		Messages: []ai.Message{
			ai.System(finalAmountSystemPrompt()),
			ai.User("Extract the FINAL AMOUNT from this text: " + text),
		},
	})
	if err != nil {
		return amountError(ctx, err)
	}
	if result.Empty() {
		return amountError(ctx, &common.ParseFailure{Err: errors.New("empty model response")})
	}

	amount, err := parseFinalAmount(result.Value)
	if err != nil {
		return amountError(ctx, err)
	}
	amount.Verified = result.Verified
	return amount
}

func parseFinalAmount(raw string) (FinalAmount, error) {
	var payload map[string]interface{}
	if err := ai.DecodeJSON(raw, &payload); err != nil {
		return FinalAmount{}, &common.ParseFailure{Raw: raw, Err: err}
	}

	confidence, _ := number(payload["confidence"])
	return FinalAmount{
		FinalAmount:     ledger.SanitizeAmount(payload["final_amount"]),
		Confidence:      confidence,
		AmountType:      stringOr(payload["amount_type"], "Unknown"),
		ExtractionNotes: stringOr(payload["extraction_notes"], ""),
		RawResponse:     raw,
	}, nil
}

func amountError(ctx context.Context, err error) FinalAmount {
	common.FromContext(ctx).Logger().Warn().Err(err).Msg("final amount extraction failed")
	return FinalAmount{
		AmountType:      "Error",
		ExtractionNotes: "Extraction failed: " + err.Error(),
	}
}
