// tesseract.go - Local OCR through the Tesseract engine

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguages are the Tesseract models used for every page
var DefaultLanguages = []string{"eng", "nld"}

// TesseractOCR runs one Tesseract client per call; clients are not shared
// across goroutines
type TesseractOCR struct {
	Languages   []string
	PageSegMode gosseract.PageSegMode
}

// NewTesseractOCR creates a local OCR engine. psm 0 selects single block mode.
func NewTesseractOCR(languages []string, psm int) *TesseractOCR {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	mode := gosseract.PSM_SINGLE_BLOCK
	if psm > 0 {
		mode = gosseract.PageSegMode(psm)
	}
	return &TesseractOCR{Languages: languages, PageSegMode: mode}
}

// Recognize returns the text found in an encoded image
func (t *TesseractOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Languages...); err != nil {
		return "", fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetPageSegMode(t.PageSegMode); err != nil {
		return "", fmt.Errorf("tesseract page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	return client.Text()
}
