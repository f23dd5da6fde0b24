package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosocmputer/account_statement_ai/internal/analysis"
	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/ledger"
	"github.com/bosocmputer/account_statement_ai/internal/payment"
	"github.com/bosocmputer/account_statement_ai/internal/statements"
)

type fakeExtractor struct {
	text string
	err  error
	ext  string
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ []byte, ext string) (string, error) {
	f.ext = ext
	return f.text, f.err
}

type fakeAnalyzer struct {
	analysis *analysis.DocumentAnalysis
	err      error
	text     string
}

func (f *fakeAnalyzer) AnalyzeDocument(_ context.Context, text string) (*analysis.DocumentAnalysis, error) {
	f.text = text
	return f.analysis, f.err
}

func (f *fakeAnalyzer) Classify(_ context.Context, text string) string {
	f.text = text
	return "Revenue"
}

func (f *fakeAnalyzer) ExtractFinalAmount(_ context.Context, text string) analysis.FinalAmount {
	f.text = text
	return analysis.FinalAmount{FinalAmount: 42, Confidence: 0.9, AmountType: "Total"}
}

type fakeGenerator struct {
	received []ledger.Transaction
}

func (f *fakeGenerator) Generate(_ context.Context, transactions []ledger.Transaction) *statements.Statements {
	f.received = transactions
	return &statements.Statements{
		BalanceSheet: []statements.StatementLine{{Account: "Cash and Cash Equivalents", Type: statements.TypeAsset, Amount: 1, Category: "Current"}},
		ProfitLoss:   []statements.StatementLine{},
		TrialBalance: []statements.TrialBalanceEntry{},
		CashFlow:     []statements.CashFlowLine{},
	}
}

type fakePayments struct{}

func (fakePayments) ValidatePayments(transactions []ledger.Transaction) *payment.ValidationSummary {
	return &payment.ValidationSummary{TotalTransactions: len(transactions)}
}

type fixture struct {
	extractor *fakeExtractor
	analyzer  *fakeAnalyzer
	generator *fakeGenerator
	router    *gin.Engine
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		extractor: &fakeExtractor{text: "Invoice total 42"},
		analyzer:  &fakeAnalyzer{analysis: &analysis.DocumentAnalysis{Category: "invoices", Confidence: 0.8}},
		generator: &fakeGenerator{},
	}
	f.router = gin.New()
	NewHandlers(f.extractor, f.analyzer, f.generator, fakePayments{}, zerolog.Nop()).Register(f.router)
	return f
}

func (f *fixture) do(req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func upload(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealth(t *testing.T) {
	f := newFixture()
	w, body := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestExtractText(t *testing.T) {
	f := newFixture()
	w, body := f.do(upload(t, "/api/v1/extract-text", "Scan.PDF", []byte("%PDF")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Invoice total 42", body["text"])
	assert.Equal(t, "Scan.PDF", body["filename"])
	assert.Equal(t, ".pdf", f.extractor.ext)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestExtractTextFailures(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		err    error
		status int
		errMsg string
	}{
		{"unsupported", "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ".exe"), http.StatusBadRequest, "Unsupported file format"},
		{"empty text", "   ", nil, http.StatusBadRequest, "Failed to extract text from document"},
		{"ocr failure text", "Error during PDF to image conversion: boom", nil, http.StatusBadRequest, "Failed to extract text from document"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.extractor.text, f.extractor.err = tc.text, tc.err

			w, body := f.do(upload(t, "/api/v1/extract-text", "doc.pdf", []byte("x")))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.errMsg, body["error"])
			assert.NotEmpty(t, body["request_id"])
		})
	}
}

func TestExtractTextRequiresFile(t *testing.T) {
	f := newFixture()
	w, body := f.do(jsonRequest("/api/v1/extract-text", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid upload", body["error"])
}

func TestAnalyzeDocument(t *testing.T) {
	f := newFixture()
	w, body := f.do(upload(t, "/api/v1/analyze-document", "invoice.png", []byte("png")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "invoices", body["category"])
	assert.Equal(t, "Invoice total 42", f.analyzer.text)
}

func TestAnalyzeDocumentErrors(t *testing.T) {
	cases := map[string]error{
		"service failure": &common.ServiceFailure{Service: "analyze_document", Attempts: 3, Causes: []error{errors.New("attempt 3: down")}},
		"parse failure":   &common.ParseFailure{Raw: "not json", Err: errors.New("invalid JSON in model response")},
	}
	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.analyzer.err = err
			w, body := f.do(upload(t, "/api/v1/analyze-document", "invoice.png", []byte("png")))
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, body["details"], err.Error())
		})
	}
}

func TestGenerateFinancialStatements(t *testing.T) {
	f := newFixture()
	w, body := f.do(jsonRequest("/api/v1/generate-financial-statements",
		`[{"id":"1","amount":"$1,000.00","category":"invoices","type":"credit"},{"id":"2","amount":"abc","category":"bills"}]`))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.generator.received, 2)
	assert.Equal(t, ledger.Amount(1000), f.generator.received[0].Amount)
	assert.Equal(t, ledger.Amount(0), f.generator.received[1].Amount)
	assert.Equal(t, "1", f.generator.received[0].ID)
	assert.Contains(t, body, "balanceSheet")
	assert.Contains(t, body, "professionalNotes")

	w, _ = f.do(jsonRequest("/api/v1/generate-financial-statements", `{"not":"an array"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateFinancialStatementsAssignsMissingIDs(t *testing.T) {
	f := newFixture()
	w, _ := f.do(jsonRequest("/api/v1/generate-financial-statements", `[{"amount":5,"category":"invoices"},{"id":"","amount":7}]`))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.generator.received, 2)
	assert.NotEmpty(t, f.generator.received[0].ID)
	assert.NotEmpty(t, f.generator.received[1].ID)
	assert.NotEqual(t, f.generator.received[0].ID, f.generator.received[1].ID)
}

func TestClassifyTransaction(t *testing.T) {
	f := newFixture()
	w, body := f.do(jsonRequest("/api/v1/classify-transaction", `{"description":"Consulting fee received"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Revenue", body["dashboardCategory"])
	assert.Equal(t, "Consulting fee received", f.analyzer.text)

	w, _ = f.do(jsonRequest("/api/v1/classify-transaction", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractFinalAmount(t *testing.T) {
	f := newFixture()
	w, body := f.do(jsonRequest("/api/v1/extract-final-amount", `{"text":"Total: 42"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42.0, body["final_amount"])
	assert.Equal(t, "Total", body["amount_type"])
}

func TestValidatePayments(t *testing.T) {
	f := newFixture()
	w, body := f.do(jsonRequest("/api/v1/validate-payments", `[{"id":"a","amount":10,"date":"2024-01-01"}]`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["total_transactions"])
}

func TestValidatePaymentsReportsGeneratedIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandlers(&fakeExtractor{}, &fakeAnalyzer{}, &fakeGenerator{}, payment.NewValidator(), zerolog.Nop()).Register(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("/api/v1/validate-payments", `[{"amount":-500,"date":"2024-01-01"}]`))
	require.Equal(t, http.StatusOK, w.Code)

	var result payment.ValidationSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.ValidationIssues, 1)
	assert.Equal(t, "Invalid amount", result.ValidationIssues[0].Issue)
	assert.NotEmpty(t, result.ValidationIssues[0].ID)
	assert.Equal(t, 1, result.PaymentSummary.Pending)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("wrap: %w", common.ErrExtractionFailure)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(common.ErrUnsupportedFormat))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(&common.ServiceFailure{Service: "x", Attempts: 1}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("other")))
}
