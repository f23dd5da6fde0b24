// document.go - Full document analysis: category, facts, amount and payment checks

package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bosocmputer/account_statement_ai/internal/ai"
	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/ledger"
	"github.com/bosocmputer/account_statement_ai/internal/payment"
)

// FinalAmountConfidenceThreshold is the confidence above which the dedicated
// final amount extraction overrides the amount found by document analysis
const FinalAmountConfidenceThreshold = 0.5

// DocumentAnalysis is the structured result of AnalyzeDocument
type DocumentAnalysis struct {
	Category          string                 `json:"category"`
	ExtractedData     map[string]interface{} `json:"extractedData,omitempty"`
	Confidence        float64                `json:"confidence"`
	DashboardCategory string                 `json:"dashboardCategory"`
	ProcessedAt       string                 `json:"processed_at"`
	TextLength        int                    `json:"text_length"`
}

// ValidationChecks summarizes the sanity checks on an analyzed document
type ValidationChecks struct {
	AmountValid           bool    `json:"amount_valid"`
	DateValid             bool    `json:"date_valid"`
	PaymentOverdue        bool    `json:"payment_overdue"`
	FinalAmountConfidence float64 `json:"final_amount_confidence"`
}

// AnalyzeDocument classifies document text into a ledger category and
// extracts its facts. An empty model answer is a *common.ServiceFailure and
// an unparsable one a *common.ParseFailure.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, text string) (*DocumentAnalysis, error) {
	rc := common.FromContext(ctx)

	rc.StartSubStep("document_analysis")
	result, err := a.llm.Run(ctx, ai.Task{
		Kind: ai.TaskGeneral,
		Name: "analyze_document",
		Messages: []ai.Message{
			ai.System(documentAnalysisSystemPrompt()),
			ai.User("Extract the FINAL AMOUNT from this document. Look for the total amount that should be paid or received: " + text),
		},
	})
	rc.EndSubStep("")
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		return nil, &common.ServiceFailure{
			Service:  "document analysis",
			Attempts: len(result.Attempts),
			Causes:   []error{errors.New("no response from the completion provider after retries")},
		}
	}

	var payload struct {
		Category      string                 `json:"category"`
		ExtractedData map[string]interface{} `json:"extractedData"`
		Confidence    interface{}            `json:"confidence"`
	}
	if err := ai.DecodeJSON(result.Value, &payload); err != nil {
		return nil, &common.ParseFailure{Raw: result.Value, Err: err}
	}

	analysis := &DocumentAnalysis{
		Category:      payload.Category,
		ExtractedData: payload.ExtractedData,
	}
	analysis.Confidence, _ = number(payload.Confidence)

	if analysis.ExtractedData != nil {
		rc.StartSubStep("enrich_extracted_data")
		a.enrich(ctx, strings.ToLower(payload.Category), analysis.ExtractedData, text)
		rc.EndSubStep("")
	}

	rc.StartSubStep("dashboard_classification")
	analysis.DashboardCategory = a.Classify(ctx, text)
	rc.EndSubStep(analysis.DashboardCategory)

	analysis.ProcessedAt = a.now().Format(time.RFC3339)
	analysis.TextLength = len(text)
	return analysis, nil
}

func (a *Analyzer) enrich(ctx context.Context, category string, data map[string]interface{}, text string) {
	final := a.ExtractFinalAmount(ctx, text)

	if final.Confidence > FinalAmountConfidenceThreshold || isFalsy(data["amount"]) {
		data["amount"] = final.FinalAmount
		data["final_amount_extraction"] = final
	} else {
		data["amount"] = ledger.SanitizeAmount(data["amount"])
		confidence, ok := number(data["final_amount_confidence"])
		if !ok {
			confidence = 0.5
		}
		data["final_amount_extraction"] = FinalAmount{
			FinalAmount:     data["amount"].(float64),
			Confidence:      confidence,
			AmountType:      "Original Extraction",
			ExtractionNotes: "Used amount from original extraction",
		}
	}

	if v, ok := data["date"]; ok {
		data["date"] = a.validator.NormalizeDate(stringOr(v, ""))
	}
	if v, ok := data["due_date"]; ok {
		data["due_date"] = a.validator.NormalizeDate(stringOr(v, ""))
	}

	amount := data["amount"].(float64)
	date := stringOr(data["date"], "")
	status := a.validator.Status(amount, date)

	data["payment_status"] = status
	data["validated_at"] = a.now().Format(time.RFC3339)
	data["validation_checks"] = ValidationChecks{
		AmountValid:           amount > 0,
		DateValid:             date != "",
		PaymentOverdue:        status == payment.StatusOverdue,
		FinalAmountConfidence: final.Confidence,
	}

	accountingInfo := map[string]ledger.AccountingMapEntry{}
	for field := range data {
		if entry, ok := a.accounts.Lookup(category, field); ok {
			accountingInfo[field] = entry
		}
	}
	data["accountingInfo"] = accountingInfo
}

// isFalsy reports whether a decoded JSON value is missing, null, zero or empty
func isFalsy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	default:
		return false
	}
}
