package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/mattn/go-runewidth"

	"riskadvisor/internal/domain"
)

const (
	pdfTitle     = "Data Export"
	pdfRowHeight = 6.0
	pdfMargin    = 14.0
)

// PDF dibuja una grilla con cabecera oscura y filas alternadas.
func PDF(w io.Writer, ds *domain.Dataset) error {
	if ds.Len() == 0 || len(ds.Columns) == 0 {
		return ErrNoData
	}

	orientation := "P"
	if len(ds.Columns) > 6 {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 20, pdfMargin)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", 16)
	pdf.Text(20, 20, pdfTitle)
	pdf.SetY(30)

	pageWidth, _ := pdf.GetPageSize()
	colWidth := (pageWidth - 2*pdfMargin) / float64(len(ds.Columns))
	maxChars := int(colWidth / 1.6)

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(41, 51, 64)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetDrawColor(200, 200, 200)
		for _, col := range ds.Columns {
			pdf.CellFormat(colWidth, pdfRowHeight, tr(clip(col, maxChars)), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.SetHeaderFuncMode(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	}, true)
	header()

	for i, row := range ds.Rows {
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(245, 245, 245)
		}
		for _, col := range ds.Columns {
			pdf.CellFormat(colWidth, pdfRowHeight, tr(clip(domain.Text(row[col]), maxChars)), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func clip(s string, limit int) string {
	if limit < 4 {
		limit = 4
	}
	return runewidth.Truncate(s, limit, "...")
}
