package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const landscapeWidth = 277.0

// PDFExporter renders datasets into a tabular landscape PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with a title, an optional subtitle line and a table body.
// Rows sharing the value of the first column are grouped under a shaded band.
func (e *PDFExporter) Render(data Dataset, title, subtitle string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	widths := columnWidths(data)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, strings.ToUpper(title), "", 1, "C", false, 0, "")
	}
	if subtitle != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(220, 226, 235)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	group := data.Headers[0]
	previous := ""
	shade := false
	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		if pdf.GetY() > 190 {
			pdf.AddPage()
			header()
			pdf.SetFont("Arial", "", 9)
		}
		if row[group] != previous {
			shade = !shade
			previous = row[group]
		}
		if shade {
			pdf.SetFillColor(245, 247, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], 7, row[h], "1", 0, "", true, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(data.Rows) == 0 {
		pdf.CellFormat(landscapeWidth, 8, "No entries scheduled", "1", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(data Dataset) []float64 {
	if len(data.Widths) == len(data.Headers) {
		return data.Widths
	}
	widths := make([]float64, len(data.Headers))
	for i := range widths {
		widths[i] = landscapeWidth / float64(len(data.Headers))
	}
	return widths
}
