package documents

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF lays the document out on A4 or on an 80 mm roll.
func RenderPDF(d Document) ([]byte, error) {
	var pdf *gofpdf.Fpdf
	margin := 15.0
	if d.Kind == KindReceipt {
		margin = 4
		height := 120.0 + 8*float64(len(d.Lines)+len(d.Fields))
		pdf = gofpdf.NewCustom(&gofpdf.InitType{
			OrientationStr: "P",
			UnitStr:        "mm",
			Size:           gofpdf.SizeType{Wd: WidthReceipt, Ht: height},
		})
	} else {
		pdf = gofpdf.New("P", "mm", "A4", "")
	}
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, _ := pdf.GetPageSize()
	content := width - 2*margin
	big, normal := 16.0, 11.0
	if d.Kind == KindReceipt {
		big, normal = 12, 8
	}

	pdf.SetFont("Arial", "B", big)
	pdf.CellFormat(content, big/2, tr(d.Company), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", normal)
	pdf.CellFormat(content, normal/2, tr(d.Title+" "+d.Number), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, f := range d.Fields {
		pdf.SetFont("Arial", "B", normal)
		pdf.CellFormat(content*0.35, normal/2, tr(f.Label+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", normal)
		pdf.CellFormat(content*0.65, normal/2, tr(f.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	cols := []float64{content * 0.46, content * 0.1, content * 0.22, content * 0.22}
	pdf.SetFont("Arial", "B", normal)
	for i, h := range []string{"Description", "Qty", "Price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(cols[i], normal/2+1, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", normal)
	for _, l := range d.Lines {
		pdf.CellFormat(cols[0], normal/2+1, tr(l.Description), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], normal/2+1, fmt.Sprintf("%d", l.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[2], normal/2+1, l.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3], normal/2+1, l.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", normal)
	pdf.CellFormat(cols[0]+cols[1]+cols[2], normal/2+2, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(cols[3], normal/2+2, tr(d.Money(d.Total)), "T", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", normal)
	for _, line := range d.Footer {
		pdf.MultiCell(content, normal/2, tr(line), "", "C", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
