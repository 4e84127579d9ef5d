package invoice

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const dateLayout = "Jan 02, 2006"

// rs formats an amount for the built-in PDF fonts, which lack the rupee sign.
func rs(v float64) string {
	return fmt.Sprintf("Rs. %.2f", v)
}

// RenderPDF writes inv as a single page A4 receipt.
func RenderPDF(w io.Writer, inv Invoice) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.InvoiceID, false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, BusinessName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Tax invoice / receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	meta := [][2]string{
		{"Invoice", inv.InvoiceID},
		{"Date", inv.Date.Format(dateLayout + " 15:04")},
		{"Service", string(inv.Service)},
	}
	if inv.CustomerName != "" {
		meta = append(meta, [2]string{"Customer", strings.TrimSpace(inv.CustomerName + "  " + inv.CustomerPhone)})
	}
	meta = append(meta, [2]string{"Payment", fmt.Sprintf("%s (%s)", inv.PaymentMethod, inv.PaymentStatus)})
	for _, kv := range meta {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, kv[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{85, 20, 30, 15, 30}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Description", "Qty", "Unit price", "Tax", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range inv.Lines {
		tax := ""
		if l.Tax > 0 {
			tax = fmt.Sprintf("%g%%", l.Tax)
		}
		pdf.CellFormat(widths[0], 7, l.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", l.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, rs(l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, tax, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, rs(l.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	if inv.Incomplete {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 7, "Item details unavailable for this sale.", "1", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	totals := [][2]string{{"Subtotal", rs(inv.Subtotal)}}
	if inv.DiscountPct > 0 {
		totals = append(totals, [2]string{fmt.Sprintf("Discount (%g%%)", inv.DiscountPct), "- " + rs(inv.DiscountAmount)})
	}
	totals = append(totals, [2]string{"Total", rs(inv.Total)})
	for i, kv := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(150, 7, kv[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, kv[1], "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	switch {
	case inv.Membership != nil:
		m := inv.Membership
		kind := "New membership"
		if m.Renewal {
			kind = "Renewal"
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("%s: %s", kind, m.Plan), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Valid %s to %s", m.StartDate.Format(dateLayout), m.EndDate.Format(dateLayout)), "", 1, "L", false, 0, "")
		if m.ShowJoiningFee {
			pdf.CellFormat(0, 6, "Includes one-time joining fee of "+rs(m.JoiningFee), "", 1, "L", false, 0, "")
		}
	case inv.Trainer != nil:
		t := inv.Trainer
		pdf.CellFormat(0, 6, "Trainer: "+t.TrainerName, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Sessions %s to %s", t.StartDate.Format(dateLayout), t.EndDate.Format(dateLayout)), "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Thank you for training with us.", "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
