// handlers.go - HTTP handlers for document extraction, analysis and statements

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bosocmputer/account_statement_ai/internal/analysis"
	"github.com/bosocmputer/account_statement_ai/internal/common"
	"github.com/bosocmputer/account_statement_ai/internal/ledger"
	"github.com/bosocmputer/account_statement_ai/internal/ocr"
	"github.com/bosocmputer/account_statement_ai/internal/payment"
	"github.com/bosocmputer/account_statement_ai/internal/statements"
)

// MaxUploadBytes is the largest accepted upload
const MaxUploadBytes = 32 << 20

// TextExtractor turns document bytes into text
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, ext string) (string, error)
}

// DocumentAnalyzer runs the model-backed analyses
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, text string) (*analysis.DocumentAnalysis, error)
	Classify(ctx context.Context, text string) string
	ExtractFinalAmount(ctx context.Context, text string) analysis.FinalAmount
}

// StatementGenerator builds financial statements from a batch
type StatementGenerator interface {
	Generate(ctx context.Context, transactions []ledger.Transaction) *statements.Statements
}

// PaymentValidator summarizes payment status of a batch
type PaymentValidator interface {
	ValidatePayments(transactions []ledger.Transaction) *payment.ValidationSummary
}

// Handlers serves the public API
type Handlers struct {
	extractor  TextExtractor
	analyzer   DocumentAnalyzer
	statements StatementGenerator
	payments   PaymentValidator
	logger     zerolog.Logger
}

// NewHandlers creates the handler set
func NewHandlers(extractor TextExtractor, analyzer DocumentAnalyzer, generator StatementGenerator, payments PaymentValidator, logger zerolog.Logger) *Handlers {
	return &Handlers{
		extractor:  extractor,
		analyzer:   analyzer,
		statements: generator,
		payments:   payments,
		logger:     logger,
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/extract-text", h.ExtractText)
	v1.POST("/analyze-document", h.AnalyzeDocument)
	v1.POST("/generate-financial-statements", h.GenerateFinancialStatements)
	v1.POST("/classify-transaction", h.ClassifyTransaction)
	v1.POST("/extract-final-amount", h.ExtractFinalAmount)
	v1.POST("/validate-payments", h.ValidatePayments)
}

// Health reports liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "account-statement-ai",
		"version": "1.0.0",
	})
}

func (h *Handlers) begin(c *gin.Context, operation string) (*common.RequestContext, context.Context) {
	rc := common.NewRequestContext(h.logger, operation)
	c.Header("X-Request-ID", rc.RequestID)
	return rc, common.WithRequestContext(c.Request.Context(), rc)
}

// ExtractText returns the text of an uploaded document
func (h *Handlers) ExtractText(c *gin.Context) {
	rc, ctx := h.begin(c, "extract_text")

	filename, text, err := h.extractUpload(ctx, c)
	if err != nil {
		h.fail(c, rc, err)
		return
	}

	rc.GetSummary()
	c.JSON(http.StatusOK, gin.H{
		"filename":    filename,
		"text":        text,
		"text_length": len(text),
		"request_id":  rc.RequestID,
	})
}

// AnalyzeDocument extracts an uploaded document and analyzes its text
func (h *Handlers) AnalyzeDocument(c *gin.Context) {
	rc, ctx := h.begin(c, "analyze_document")

	_, text, err := h.extractUpload(ctx, c)
	if err != nil {
		h.fail(c, rc, err)
		return
	}

	rc.StartStep("analyze")
	result, err := h.analyzer.AnalyzeDocument(ctx, text)
	if err != nil {
		rc.EndStep("failed", err)
		h.fail(c, rc, err)
		return
	}
	rc.EndStep("success", nil)

	rc.GetSummary()
	c.JSON(http.StatusOK, result)
}

// GenerateFinancialStatements builds statements from a JSON array of transactions
func (h *Handlers) GenerateFinancialStatements(c *gin.Context) {
	rc, ctx := h.begin(c, "generate_financial_statements")

	var transactions []ledger.Transaction
	if err := c.ShouldBindJSON(&transactions); err != nil {
		h.badRequest(c, rc, "Invalid request format", err, "JSON array of transactions")
		return
	}
	ledger.AssignMissingIDs(transactions)
	rc.LogInfo("📥 %d transactions received", len(transactions))

	result := h.statements.Generate(ctx, transactions)
	rc.GetSummary()
	c.JSON(http.StatusOK, result)
}

type classifyRequest struct {
	Description string `json:"description" binding:"required"`
}

// ClassifyTransaction returns the dashboard category of a description
func (h *Handlers) ClassifyTransaction(c *gin.Context) {
	rc, ctx := h.begin(c, "classify_transaction")

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, rc, "Invalid request format", err, `{"description": "..."}`)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboardCategory": h.analyzer.Classify(ctx, req.Description)})
}

type finalAmountRequest struct {
	Text string `json:"text" binding:"required"`
}

// ExtractFinalAmount returns the payable total found in text
func (h *Handlers) ExtractFinalAmount(c *gin.Context) {
	rc, ctx := h.begin(c, "extract_final_amount")

	var req finalAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, rc, "Invalid request format", err, `{"text": "..."}`)
		return
	}

	c.JSON(http.StatusOK, h.analyzer.ExtractFinalAmount(ctx, req.Text))
}

// ValidatePayments summarizes the payment status of a JSON array of transactions
func (h *Handlers) ValidatePayments(c *gin.Context) {
	rc, _ := h.begin(c, "validate_payments")

	var transactions []ledger.Transaction
	if err := c.ShouldBindJSON(&transactions); err != nil {
		h.badRequest(c, rc, "Invalid request format", err, "JSON array of transactions")
		return
	}
	ledger.AssignMissingIDs(transactions)

	c.JSON(http.StatusOK, h.payments.ValidatePayments(transactions))
}

// extractUpload reads the "file" form field and extracts its text. Empty
// text and OCR failure text are reported as extraction failures.
func (h *Handlers) extractUpload(ctx context.Context, c *gin.Context) (string, string, error) {
	rc := common.FromContext(ctx)

	rc.StartStep("read_upload")
	header, err := c.FormFile("file")
	if err != nil {
		err = fmt.Errorf("%w: file is required: %v", errInvalidUpload, err)
		rc.EndStep("failed", err)
		return "", "", err
	}
	if header.Size > MaxUploadBytes {
		err = fmt.Errorf("%w: %s is larger than %d bytes", errInvalidUpload, header.Filename, MaxUploadBytes)
		rc.EndStep("failed", err)
		return "", "", err
	}

	file, err := header.Open()
	if err != nil {
		rc.EndStep("failed", err)
		return "", "", fmt.Errorf("%w: %v", errInvalidUpload, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		rc.EndStep("failed", err)
		return "", "", fmt.Errorf("%w: %v", errInvalidUpload, err)
	}
	rc.EndStep("success", nil)

	rc.StartStep("extract_text")
	ext := strings.ToLower(filepath.Ext(header.Filename))
	text, err := h.extractor.ExtractText(ctx, data, ext)
	if err != nil {
		rc.EndStep("failed", err)
		return header.Filename, "", err
	}
	if strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: no extractable text found in the document", common.ErrExtractionFailure)
		rc.EndStep("failed", err)
		return header.Filename, "", err
	}
	if ocr.IsFailureText(text) {
		err = fmt.Errorf("%w: %s", common.ErrExtractionFailure, text)
		rc.EndStep("failed", err)
		return header.Filename, "", err
	}
	rc.EndStep("success", nil)

	rc.LogInfo("📄 %s: %d characters extracted", header.Filename, len(text))
	return header.Filename, text, nil
}

var errInvalidUpload = errors.New("invalid upload")

// StatusFor maps an error to the HTTP status it is reported with. Input
// problems are 400; completion and parse failures are 500.
func StatusFor(err error) int {
	if errors.Is(err, errInvalidUpload) ||
		errors.Is(err, common.ErrUnsupportedFormat) ||
		errors.Is(err, common.ErrExtractionFailure) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handlers) fail(c *gin.Context, rc *common.RequestContext, err error) {
	status := StatusFor(err)
	message := "Processing failed"
	switch {
	case errors.Is(err, errInvalidUpload):
		message = "Invalid upload"
	case errors.Is(err, common.ErrUnsupportedFormat):
		message = "Unsupported file format"
	case errors.Is(err, common.ErrExtractionFailure):
		message = "Failed to extract text from document"
	default:
		var serviceFailure *common.ServiceFailure
		var parseFailure *common.ParseFailure
		if errors.As(err, &serviceFailure) {
			message = "No response from the completion service after retries"
		} else if errors.As(err, &parseFailure) {
			message = "Failed to parse model response"
		}
	}

	rc.LogError("❌ %s: %v", message, err)
	rc.GetSummary()
	c.JSON(status, gin.H{
		"error":      message,
		"details":    err.Error(),
		"request_id": rc.RequestID,
	})
}

func (h *Handlers) badRequest(c *gin.Context, rc *common.RequestContext, message string, err error, expected string) {
	rc.LogWarning("⚠️ %s: %v", message, err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      message,
		"details":    err.Error(),
		"expected":   expected,
		"request_id": rc.RequestID,
	})
}
