package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a Dataset as a simple one-table PDF document.
type PDFExporter struct{}

// NewPDFExporter builds a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays out an optional title followed by the dataset as a bordered
// table with evenly sized columns.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(12, 14, 12)
	doc.AddPage()

	if title != "" {
		doc.SetFont("Helvetica", "B", 14)
		doc.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		doc.Ln(4)
	}

	pageWidth, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(data.Headers))

	doc.SetFont("Helvetica", "B", 10)
	for _, header := range data.Headers {
		doc.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			doc.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
