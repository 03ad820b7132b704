package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pdfTableWidth = 277.0

// PDFExporter renders datasets into a landscape tabular score sheet.
type PDFExporter struct {
	numeric map[string]bool
}

// NewPDFExporter constructs a PDF exporter. Columns named in numericColumns are right aligned.
func NewPDFExporter(numericColumns ...string) *PDFExporter {
	numeric := make(map[string]bool, len(numericColumns))
	for _, col := range numericColumns {
		numeric[col] = true
	}
	return &PDFExporter{numeric: numeric}
}

// Render creates a PDF document with the dataset title and a table body.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := pdfTableWidth / float64(len(data.Headers))
	writeHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 8, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	pdf.SetHeaderFuncMode(func() {
		if pdf.PageNo() > 1 {
			writeHeader()
		}
	}, false)
	writeHeader()

	for _, row := range data.Rows {
		for _, header := range data.Headers {
			align := "L"
			if e.numeric[header] {
				align = "R"
			}
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
