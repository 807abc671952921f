package chat

import (
	"fmt"
	"strconv"
	"strings"

	"bill-assistant/internal/extraction"
)

// NoDataNarrative is the context used before a document has been extracted.
const NoDataNarrative = "No extracted data available for this document yet."

const currencySymbol = "₹"

// Narrative renders a stored record as plain text for the chat model. Only
// present values are written, always in the same order: bill fields,
// customer, seller, line items, summary, metadata.
func Narrative(rec *extraction.ExtractedData) string {
	if rec == nil {
		return NoDataNarrative
	}

	var sections []string
	add := func(lines []string, heading string) {
		if len(lines) == 0 {
			return
		}
		if heading == "" {
			sections = append(sections, strings.Join(lines, "\n"))
			return
		}
		sections = append(sections, heading+":\n"+strings.Join(lines, "\n"))
	}

	var bill lines
	bill.text("Bill ID", rec.BillID)
	bill.text("Bill Type", rec.BillType)
	bill.text("Invoice Number", rec.InvoiceNumber)
	bill.text("Order ID", rec.OrderID)
	bill.text("Order Date", rec.OrderDate)
	bill.text("Invoice Date", rec.InvoiceDate)
	bill.text("Due Date", rec.DueDate)
	bill.text("Payment Status", rec.PaymentStatus)
	add(bill, "")

	if c := rec.Customer; c != nil {
		var l lines
		l.text("  Name", c.Name)
		l.text("  Address", c.Address)
		l.text("  Phone", c.Phone)
		l.text("  Email", c.Email)
		add(l, "Customer")
	}

	if s := rec.Seller; s != nil {
		var l lines
		l.text("  Name", s.Name)
		l.text("  GSTIN", s.GSTIN)
		l.text("  Address", s.Address)
		l.text("  Phone", s.Phone)
		add(l, "Seller")
	}

	var items []string
	for i, item := range rec.Items {
		if line := itemLine(item); line != "" {
			items = append(items, fmt.Sprintf("  %d. %s", i+1, line))
		}
	}
	add(items, "Line Items")

	if s := rec.Summary; s != nil {
		var l lines
		l.money("  Sub Total", s.SubTotal)
		l.money("  Discount", s.Discount)
		l.money("  CGST", s.CGST)
		l.money("  SGST", s.SGST)
		l.money("  IGST", s.IGST)
		l.money("  Total Tax", s.TotalTax)
		l.money("  Shipping", s.Shipping)
		l.money("  Round Off", s.RoundOff)
		l.money("  Grand Total", s.GrandTotal)
		l.money("  Amount Paid", s.AmountPaid)
		l.money("  Balance Due", s.BalanceDue)
		l.text("  Currency", s.Currency)
		l.text("  Amount in Words", s.AmountInWords)
		add(l, "Summary")
	}

	if m := rec.Metadata; m != nil {
		var l lines
		l.text("  Source", m.Source)
		l.text("  Extraction Method", m.ExtractionMethod)
		l.number("  Confidence Score", m.ConfidenceScore)
		l.text("  Uploaded By", m.UploadedBy)
		l.text("  Extraction Date", m.ExtractionDate)
		add(l, "Extraction Metadata")
	}

	if len(sections) == 0 {
		return NoDataNarrative
	}
	return strings.Join(sections, "\n\n")
}

type lines []string

func (l *lines) text(label string, t extraction.Text) {
	if t.Present() {
		*l = append(*l, label+": "+strings.TrimSpace(t.Value))
	}
}

func (l *lines) money(label string, a extraction.Amount) {
	if v := money(a); v != "" {
		*l = append(*l, label+": "+v)
	}
}

func (l *lines) number(label string, a extraction.Amount) {
	if v := number(a); v != "" {
		*l = append(*l, label+": "+v)
	}
}

func itemLine(item extraction.LineItem) string {
	var parts []string
	desc := strings.TrimSpace(item.Description.Value)
	if !item.Description.Present() {
		desc = "Item"
	}
	if item.HSNCode.Present() {
		parts = append(parts, "HSN: "+strings.TrimSpace(item.HSNCode.Value))
	}
	if q := number(item.Quantity); q != "" {
		if item.Unit.Present() {
			q += " " + strings.TrimSpace(item.Unit.Value)
		}
		parts = append(parts, "Qty: "+q)
	}
	for _, f := range []struct {
		label string
		value string
	}{
		{"Unit Price", money(item.UnitPrice)},
		{"Discount", money(item.Discount)},
		{"Tax Rate", percent(item.TaxRate)},
		{"Tax", money(item.TaxAmount)},
		{"Total", money(item.Total)},
	} {
		if f.value != "" {
			parts = append(parts, f.label+": "+f.value)
		}
	}
	if len(parts) == 0 {
		if !item.Description.Present() {
			return ""
		}
		return desc
	}
	return desc + " - " + strings.Join(parts, ", ")
}

func money(a extraction.Amount) string {
	if !a.Present() {
		return ""
	}
	if a.Numeric {
		return currencySymbol + strconv.FormatFloat(a.Value, 'f', 2, 64)
	}
	return strings.TrimSpace(a.Raw)
}

func number(a extraction.Amount) string {
	if !a.Present() {
		return ""
	}
	if a.Numeric {
		return strconv.FormatFloat(a.Value, 'f', -1, 64)
	}
	return strings.TrimSpace(a.Raw)
}

func percent(a extraction.Amount) string {
	v := number(a)
	if v != "" && a.Numeric {
		return v + "%"
	}
	return v
}
