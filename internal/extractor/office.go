// office.go - Word processor and spreadsheet readers

package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// readDocx returns the non-blank paragraphs of word/document.xml, one per line
func readDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("docx has no word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var paragraphs []string
	var current strings.Builder
	inText := false

	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				current.Reset()
			case "t":
				inText = true
			case "tab":
				current.WriteString("\t")
			case "br", "cr":
				current.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := current.String(); strings.TrimSpace(p) != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}

func readCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse csv: %w", err)
	}
	return renderTable(rows), nil
}

// readXLSX renders the first sheet
func readXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return "", errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	return renderTable(rows), nil
}

// readXLS renders the first sheet of a legacy workbook. The reader only
// opens files, so the bytes go through a temp file.
func readXLS(data []byte) (string, error) {
	tmpFile, err := os.CreateTemp("", "extract-*.xls")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return "", err
	}
	tmpFile.Close()

	book, err := xls.OpenFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to open xls: %w", err)
	}
	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return "", errors.New("xls has no sheets")
	}

	rows := [][]string{}
	for _, xlsRow := range sheet.GetRows() {
		row := []string{}
		for _, col := range xlsRow.GetCols() {
			row = append(row, col.GetString())
		}
		rows = append(rows, row)
	}
	return renderTable(rows), nil
}

// renderTable lays rows out as right aligned columns. The first row is the
// header; short rows are padded so every column lines up.
func renderTable(rows [][]string) string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return ""
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', tabwriter.AlignRight)
	for _, row := range rows {
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = strings.TrimSpace(strings.ReplaceAll(row[i], "\t", " "))
			}
			fmt.Fprint(w, cell, "\t")
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		// every cell carries one space of left padding; drop it from the first column
		lines[i] = strings.TrimPrefix(line, " ")
	}
	return strings.Join(lines, "\n")
}
