// rasterizer.go - PDF page rendering with poppler's pdftoppm

package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bosocmputer/account_statement_ai/internal/common"
)

const pdftoppmBinary = "pdftoppm"

// PdftoppmRasterizer renders pages to PNG files
type PdftoppmRasterizer struct {
	Binary string
}

// ResolvePdftoppm locates pdftoppm in popplerPath (when it is a directory)
// or on PATH. Neither being available is a configuration error.
func ResolvePdftoppm(popplerPath string) (*PdftoppmRasterizer, error) {
	if popplerPath != "" {
		if info, err := os.Stat(popplerPath); err == nil && info.IsDir() {
			return &PdftoppmRasterizer{Binary: filepath.Join(popplerPath, pdftoppmBinary)}, nil
		}
	}
	if bin, err := exec.LookPath(pdftoppmBinary); err == nil {
		return &PdftoppmRasterizer{Binary: bin}, nil
	}
	return nil, &common.ConfigurationError{
		Setting: "POPPLER_PATH",
		Reason:  "Poppler is required for PDF processing. Install it and add to PATH, or set POPPLER_PATH in your .env file.",
	}
}

// Rasterize writes outDir/page-N.png for every page and returns the paths in page order
func (p *PdftoppmRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, p.Binary, "-r", strconv.Itoa(dpi), "-png", pdfPath, prefix)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(p.Binary), err, strings.TrimSpace(string(output)))
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s produced no page images", filepath.Base(p.Binary))
	}
	// pdftoppm zero-pads page numbers to equal width, so lexical order is page order
	sort.Strings(pages)
	return pages, nil
}
