package infra

// pdf.go: sale receipt generation with go-pdf/fpdf.
// Narrow receipt-style page: business header, sale id and date, customer,
// one row per detail line and the bold total. Files land in
// storagePath/comprobante_<venta_id>.pdf and are overwritten on regeneration.

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
)

// GenerarComprobantePDF renders the receipt for venta and returns the file path.
func GenerarComprobantePDF(venta *model.Venta, negocio, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("comprobante_%s.pdf", venta.ID))

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: 60 + float64(len(venta.Detalles))*5},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, tr(negocio), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Comprobante de venta", "", 1, "C", false, 0, "")
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Venta: "+venta.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, "Fecha: "+venta.Fecha.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Cliente: "+venta.ClienteNombre), "", 1, "L", false, 0, "")
	if venta.RealizadoPor != "" {
		pdf.CellFormat(contentW, 4, tr("Atendido por: "+venta.RealizadoPor), "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	// ── Lines ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.14
	col3 := contentW * 0.36

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, d := range venta.Detalles {
		pdf.CellFormat(col1, 5, tr(truncar(d.ProductoNombre, 26)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", d.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+d.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if venta.Notas != nil && *venta.Notas != "" {
		pdf.SetFont("Helvetica", "I", 6)
		pdf.MultiCell(contentW, 3, tr(*venta.Notas), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func truncar(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "..."
}
