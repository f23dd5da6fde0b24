// extractor.go - File type dispatch for document text extraction

package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/bosocmputer/account_statement_ai/internal/common"
)

// OCR is the fallback chain used for PDFs and images
type OCR interface {
	ExtractPDF(ctx context.Context, data []byte) string
	ExtractImage(ctx context.Context, data []byte) string
}

// SupportedExtensions lists every extension ExtractText accepts
var SupportedExtensions = []string{".pdf", ".docx", ".csv", ".xlsx", ".xls", ".png", ".jpg", ".jpeg", ".tif", ".tiff"}

// Extractor turns raw document bytes into plain text
type Extractor struct {
	ocr OCR
}

// New creates an extractor backed by the given OCR chain
func New(ocr OCR) *Extractor {
	return &Extractor{ocr: ocr}
}

// NormalizeExtension lowercases ext and adds the leading dot
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// IsSupported reports whether ext can be extracted
func IsSupported(ext string) bool {
	ext = NormalizeExtension(ext)
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// ExtractText returns the document text, or "" when nothing could be read.
// The only error is common.ErrUnsupportedFormat.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, ext string) (text string, err error) {
	ext = NormalizeExtension(ext)
	if !IsSupported(ext) {
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	rc := common.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			rc.LogError("❌ text extraction panic (%s): %v", ext, r)
			text, err = "", nil
		}
	}()

	var readErr error
	switch ext {
	case ".pdf":
		text = e.ocr.ExtractPDF(ctx, data)
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		text = e.ocr.ExtractImage(ctx, data)
	case ".docx":
		text, readErr = readDocx(data)
	case ".csv":
		text, readErr = readCSV(data)
	case ".xlsx":
		text, readErr = readXLSX(data)
	case ".xls":
		text, readErr = readXLS(data)
	}

	if readErr != nil {
		rc.LogError("Text extraction failed (%s): %v", ext, readErr)
		return "", nil
	}
	rc.LogInfo("📄 extracted %d chars from %s document", len(text), ext)
	return text, nil
}
