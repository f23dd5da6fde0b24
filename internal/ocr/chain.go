// chain.go - PDF and image OCR fallback cascade

package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bosocmputer/account_statement_ai/internal/common"
)

// DefaultDPI is the rasterization resolution for scanned PDFs
const DefaultDPI = 150

// failurePrefix marks descriptive failure strings returned in place of text
const failurePrefix = "Error"

// TextLayerReader reads the native text layer of a PDF
type TextLayerReader interface {
	ReadText(ctx context.Context, pdf []byte) (string, error)
}

// Rasterizer renders every page of a PDF to an image file inside outDir and
// returns the page image paths in page order
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error)
}

// CloudOCR recognizes text in a whole document (PDF or image bytes)
type CloudOCR interface {
	DetectText(ctx context.Context, document []byte) (string, error)
}

// LocalOCR recognizes text in a single page image
type LocalOCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Preprocessor prepares an image for local OCR
type Preprocessor func(image []byte) ([]byte, error)

// Chain tries each stage only when the previous one produced no text
type Chain struct {
	Native     TextLayerReader
	Rasterizer Rasterizer
	// RasterizerErr is reported in place of text when no rasterizer could be resolved
	RasterizerErr error
	Cloud         CloudOCR // optional
	Local         LocalOCR
	Preprocess    Preprocessor // optional, images only
	DPI           int
}

// IsFailureText reports whether text is a descriptive failure string produced
// by the chain instead of document text
func IsFailureText(text string) bool {
	return strings.HasPrefix(text, failurePrefix+":") || strings.HasPrefix(text, failurePrefix+" during")
}

// ExtractPDF returns the best available text of a PDF, a descriptive failure
// string (see IsFailureText) or "". It never returns an error or panics.
func (c *Chain) ExtractPDF(ctx context.Context, data []byte) (text string) {
	rc := common.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			rc.LogError("❌ OCR chain panic: %v", r)
			text = ""
		}
	}()

	if c.Native != nil {
		rc.StartSubStep("native_text_layer")
		native, err := c.Native.ReadText(ctx, data)
		if err != nil {
			rc.LogWarning("⚠️  native PDF text extraction failed: %v", err)
		}
		native = strings.TrimSpace(native)
		rc.EndSubStep(pluralChars(len(native)))
		if native != "" {
			return native
		}
		rc.LogWarning("⚠️  PDF has no text layer, using OCR fallback")
	}

	if c.Rasterizer == nil {
		err := c.RasterizerErr
		if err == nil {
			err = &common.ConfigurationError{Setting: "POPPLER_PATH", Reason: "no PDF renderer configured"}
		}
		return failurePrefix + ": " + err.Error()
	}

	tempDir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		rc.LogError("failed to create temp dir: %v", err)
		return ""
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, "document.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		rc.LogError("failed to write temp PDF: %v", err)
		return ""
	}

	dpi := c.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	rc.StartSubStep("rasterize_pages")
	pages, rasterErr := c.Rasterizer.Rasterize(ctx, pdfPath, tempDir, dpi)
	rc.EndSubStep(pluralPages(len(pages)))

	if c.Cloud != nil {
		rc.StartSubStep("cloud_ocr")
		cloudText, err := c.Cloud.DetectText(ctx, data)
		rc.EndSubStep(pluralChars(len(cloudText)))
		if err != nil {
			rc.LogWarning("⚠️  cloud OCR failed, using local OCR: %v", err)
		} else if strings.TrimSpace(cloudText) != "" {
			return cloudText
		}
	}

	if rasterErr != nil {
		return failurePrefix + " during PDF to image conversion: " + rasterErr.Error()
	}

	rc.StartSubStep("local_ocr")
	var sb strings.Builder
	for i, page := range pages {
		img, err := os.ReadFile(page)
		if err != nil {
			rc.LogWarning("⚠️  failed to read page %d: %v", i+1, err)
			sb.WriteString("\n")
			continue
		}
		pageText, err := c.Local.Recognize(ctx, img)
		if err != nil {
			rc.LogWarning("⚠️  local OCR failed on page %d: %v", i+1, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	text = strings.TrimSpace(sb.String())
	rc.EndSubStep(pluralChars(len(text)))
	return text
}

// ExtractImage runs local OCR on an image, preprocessing it first when a
// Preprocessor is set. Failures yield "".
func (c *Chain) ExtractImage(ctx context.Context, data []byte) (text string) {
	rc := common.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			rc.LogError("❌ image OCR panic: %v", r)
			text = ""
		}
	}()

	if c.Preprocess != nil {
		rc.StartSubStep("image_preprocessing")
		processed, err := c.Preprocess(data)
		if err != nil {
			rc.LogWarning("⚠️  preprocessing failed, using original: %v", err)
		} else {
			data = processed
		}
		rc.EndSubStep("")
	}

	rc.StartSubStep("local_ocr")
	text, err := c.Local.Recognize(ctx, data)
	rc.EndSubStep(pluralChars(len(text)))
	if err != nil {
		rc.LogError("local OCR failed: %v", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func pluralChars(n int) string {
	return fmt.Sprintf("%d chars", n)
}

func pluralPages(n int) string {
	return fmt.Sprintf("%d pages", n)
}
