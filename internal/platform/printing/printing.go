// Package printing holds the gofpdf scaffolding shared by the printable
// documents (payslips, transfer orders).
package printing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Company struct {
	Name    string `json:"name"`
	NIF     string `json:"nif"`
	Address string `json:"address"`
}

// Document wraps a gofpdf A4 page with a cp1252 translator so Portuguese
// accents print with the core fonts.
type Document struct {
	PDF *gofpdf.Fpdf
	tr  func(string) string
}

func NewA4() *Document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 10, 12)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	return &Document{PDF: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *Document) T(s string) string {
	return d.tr(s)
}

// Header prints the company block and a title at the current position.
func (d *Document) Header(company Company, title, subtitle string) {
	pdf := d.PDF
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, d.T(company.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 4, d.T(fmt.Sprintf("NIF: %s", company.NIF)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, d.T(company.Address), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, d.T(title), "B", 1, "C", false, 0, "")
	if subtitle != "" {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, d.T(subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(1)
}

// Row prints a label/value line with the value right-aligned.
func (d *Document) Row(label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	d.PDF.SetFont("Helvetica", style, 8)
	width, _ := d.PDF.GetPageSize()
	left, _, right, _ := d.PDF.GetMargins()
	usable := width - left - right
	d.PDF.CellFormat(usable*0.7, 4, d.T(label), "", 0, "L", false, 0, "")
	d.PDF.CellFormat(usable*0.3, 4, d.T(value), "", 1, "R", false, 0, "")
}

func (d *Document) Footer(issued time.Time) {
	d.PDF.SetFont("Helvetica", "I", 7)
	d.PDF.CellFormat(0, 4, d.T("Emitido em "+issued.Format("02/01/2006 15:04")), "", 1, "R", false, 0, "")
}

func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.PDF.Output(&buf); err != nil {
		return nil, fmt.Errorf("platform/printing: %w", err)
	}
	return buf.Bytes(), nil
}
