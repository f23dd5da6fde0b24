package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bosocmputer/account_statement_ai/internal/common"
)

type fakeOCR struct {
	pdfCalls, imageCalls int
}

func (f *fakeOCR) ExtractPDF(context.Context, []byte) string {
	f.pdfCalls++
	return "pdf text"
}

func (f *fakeOCR) ExtractImage(context.Context, []byte) string {
	f.imageCalls++
	return "image text"
}

func TestExtractTextDispatch(t *testing.T) {
	ocr := &fakeOCR{}
	e := New(ocr)
	ctx := context.Background()

	text, err := e.ExtractText(ctx, []byte("%PDF"), ".PDF")
	require.NoError(t, err)
	assert.Equal(t, "pdf text", text)

	for _, ext := range []string{"png", ".jpg", ".jpeg", ".tiff"} {
		text, err = e.ExtractText(ctx, []byte("img"), ext)
		require.NoError(t, err)
		assert.Equal(t, "image text", text)
	}
	assert.Equal(t, 1, ocr.pdfCalls)
	assert.Equal(t, 4, ocr.imageCalls)
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := New(&fakeOCR{}).ExtractText(context.Background(), []byte("x"), ".exe")
	assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))

	_, err = New(&fakeOCR{}).ExtractText(context.Background(), []byte("x"), "")
	assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
}

func TestExtractTextBrokenFilesDegradeToEmpty(t *testing.T) {
	e := New(&fakeOCR{})
	for _, ext := range []string{".docx", ".xlsx", ".xls"} {
		text, err := e.ExtractText(context.Background(), []byte("definitely not an office file"), ext)
		assert.NoError(t, err, ext)
		assert.Equal(t, "", text, ext)
	}
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadDocx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Invoice </w:t></w:r><w:r><w:t>INV-7</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>   </w:t></w:r></w:p>`+
			`<w:p></w:p>`+
			`<w:p><w:r><w:t>Total</w:t><w:tab/><w:t>1,250.00</w:t></w:r></w:p>`)

	text, err := New(&fakeOCR{}).ExtractText(context.Background(), data, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-7\nTotal\t1,250.00", text)
}

func TestReadCSV(t *testing.T) {
	text, err := New(&fakeOCR{}).ExtractText(context.Background(), []byte("name,amount\nRent,1200\nCoffee,4.5,extra\n"), ".csv")
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, len(lines[0]), len(line), "columns are right aligned")
	}
	assert.Equal(t, []string{"name", "amount"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Coffee", "4.5", "extra"}, strings.Fields(lines[2]))
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "description"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "amount"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Office chairs"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 480))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := New(&fakeOCR{}).ExtractText(context.Background(), buf.Bytes(), ".xlsx")
	require.NoError(t, err)
	assert.Contains(t, text, "description")
	assert.Contains(t, text, "Office chairs")
	assert.Contains(t, text, "480")
}

func TestRenderTableEmpty(t *testing.T) {
	assert.Equal(t, "", renderTable(nil))
	assert.Equal(t, "", renderTable([][]string{{}}))
}
