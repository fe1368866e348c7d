package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/stafflink/finance-api/internal/models"
)

// InvoiceRenderer produces the PDF document attached to outbound invoice
// emails.
type InvoiceRenderer struct{}

// NewInvoiceRenderer constructs an invoice renderer.
func NewInvoiceRenderer() *InvoiceRenderer {
	return &InvoiceRenderer{}
}

// Render lays out one invoice: header, parties, line item table, totals and
// payment instructions.
func (r *InvoiceRenderer) Render(invoice *models.Invoice, client *models.Client, agency *models.Agency) ([]byte, error) {
	if len(invoice.LineItems) == 0 {
		return nil, fmt.Errorf("invoice %s has no line items", invoice.InvoiceNumber)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "INVOICE "+invoice.InvoiceNumber, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(95, 6, agency.Name, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Billed to: "+client.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(95, 5, agency.ContactEmail, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 5, fmt.Sprintf("Invoice date: %s", invoice.InvoiceDate.Format("2 Jan 2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 5, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 5, fmt.Sprintf("Due date: %s", invoice.DueDate.Format("2 Jan 2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 5, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 5, fmt.Sprintf("Period: %s to %s",
		invoice.PeriodStart.Format("2 Jan 2006"), invoice.PeriodEnd.Format("2 Jan 2006")), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	withLocation := hasLocations(invoice.LineItems)
	r.renderTable(pdf, invoice.LineItems, withLocation)
	pdf.Ln(2)
	r.renderTotals(pdf, invoice)
	pdf.Ln(8)
	r.renderPaymentInstructions(pdf, agency)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *InvoiceRenderer) renderTable(pdf *gofpdf.Fpdf, items models.LineItems, withLocation bool) {
	type column struct {
		header string
		width  float64
		align  string
	}
	columns := []column{
		{"Date", 22, "L"},
		{"Description", 68, "L"},
		{"Shift", 24, "L"},
		{"Hours", 18, "R"},
		{"Rate", 24, "R"},
		{"Amount", 34, "R"},
	}
	if withLocation {
		columns = []column{
			{"Date", 20, "L"},
			{"Description", 50, "L"},
			{"Location", 32, "L"},
			{"Shift", 20, "L"},
			{"Hours", 16, "R"},
			{"Rate", 22, "R"},
			{"Amount", 30, "R"},
		}
	}

	pdf.SetFont("Arial", "B", 9)
	for _, col := range columns {
		pdf.CellFormat(col.width, 8, col.header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, item := range items {
		cells := []string{
			item.ShiftDate,
			item.Description,
			item.ShiftType,
			item.Hours.String(),
			item.Rate.StringFixed(2),
			item.Amount.StringFixed(2),
		}
		if withLocation {
			location := ""
			if item.WorkLocation != nil {
				location = *item.WorkLocation
			}
			cells = []string{
				item.ShiftDate,
				item.Description,
				location,
				item.ShiftType,
				item.Hours.String(),
				item.Rate.StringFixed(2),
				item.Amount.StringFixed(2),
			}
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 7, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func (r *InvoiceRenderer) renderTotals(pdf *gofpdf.Fpdf, invoice *models.Invoice) {
	rows := []struct {
		label, value string
		bold         bool
	}{
		{"Subtotal", invoice.Subtotal.StringFixed(2), false},
		{fmt.Sprintf("VAT (%s%%)", invoice.VATRate.String()), invoice.VATAmount.StringFixed(2), false},
		{"Total due", invoice.Total.StringFixed(2), true},
	}
	for _, row := range rows {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(156, 7, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(34, 7, row.value, "1", 1, "R", false, 0, "")
	}
}

func (r *InvoiceRenderer) renderPaymentInstructions(pdf *gofpdf.Fpdf, agency *models.Agency) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, "Payment instructions", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)

	bank := agency.BankDetails
	if !bank.Complete() {
		pdf.CellFormat(0, 6, fmt.Sprintf("Please contact %s for payment details.", agency.Name), "", 1, "L", false, 0, "")
		return
	}

	pdf.CellFormat(0, 6, "Account name: "+bank.AccountName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Account number: "+bank.AccountNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Sort code: "+bank.SortCode, "", 1, "L", false, 0, "")
	if bank.BankName != "" {
		pdf.CellFormat(0, 6, "Bank: "+bank.BankName, "", 1, "L", false, 0, "")
	}
	if bank.IBAN != "" {
		pdf.CellFormat(0, 6, "IBAN: "+bank.IBAN, "", 1, "L", false, 0, "")
	}
}

func hasLocations(items models.LineItems) bool {
	for _, item := range items {
		if item.WorkLocation != nil && *item.WorkLocation != "" {
			return true
		}
	}
	return false
}
