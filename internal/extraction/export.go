package extraction

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	billSheet  = "Bill"
	itemsSheet = "Items"
)

var itemHeaders = []string{"#", "Description", "HSN Code", "Quantity", "Unit", "Unit Price", "Discount", "Tax Rate", "Tax Amount", "Total"}

// Export renders the stored record for a document as an XLSX workbook.
func (s *Service) Export(ctx context.Context, userID, documentID string) ([]byte, error) {
	rec, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	return Workbook(rec)
}

// Workbook writes rec into a workbook with a field/value sheet and a line
// item sheet.
func Workbook(rec ExtractedData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", billSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	row := 1
	write := func(sheet string, col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(billSheet, 1, "Field")
	write(billSheet, 2, "Value")
	row++
	for _, line := range billRows(rec) {
		write(billSheet, 1, line[0])
		write(billSheet, 2, line[1])
		row++
	}

	row = 1
	for i, h := range itemHeaders {
		write(itemsSheet, i+1, h)
	}
	row++
	for i, item := range rec.Items {
		values := []any{
			i + 1,
			item.Description.Value,
			item.HSNCode.Value,
			cellAmount(item.Quantity),
			item.Unit.Value,
			cellAmount(item.UnitPrice),
			cellAmount(item.Discount),
			cellAmount(item.TaxRate),
			cellAmount(item.TaxAmount),
			cellAmount(item.Total),
		}
		for col, v := range values {
			write(itemsSheet, col+1, v)
		}
		row++
	}

	_ = f.SetColWidth(billSheet, "A", "A", 24)
	_ = f.SetColWidth(billSheet, "B", "B", 48)
	_ = f.SetColWidth(itemsSheet, "B", "B", 40)
	_ = f.SetColWidth(itemsSheet, "C", "J", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func billRows(rec ExtractedData) [][2]string {
	var rows [][2]string
	addText := func(label string, t Text) {
		if t.Present() {
			rows = append(rows, [2]string{label, t.Value})
		}
	}
	addAmount := func(label string, a Amount) {
		if a.Valid {
			rows = append(rows, [2]string{label, a.String()})
		}
	}

	addText("Bill ID", rec.BillID)
	addText("Bill Type", rec.BillType)
	addText("Invoice Number", rec.InvoiceNumber)
	addText("Order ID", rec.OrderID)
	addText("Order Date", rec.OrderDate)
	addText("Invoice Date", rec.InvoiceDate)
	addText("Due Date", rec.DueDate)
	addText("Payment Status", rec.PaymentStatus)
	if c := rec.Customer; c != nil {
		addText("Customer Name", c.Name)
		addText("Customer Address", c.Address)
		addText("Customer Phone", c.Phone)
		addText("Customer Email", c.Email)
	}
	if sl := rec.Seller; sl != nil {
		addText("Seller Name", sl.Name)
		addText("Seller GSTIN", sl.GSTIN)
		addText("Seller Address", sl.Address)
		addText("Seller Phone", sl.Phone)
	}
	if sm := rec.Summary; sm != nil {
		addAmount("Sub Total", sm.SubTotal)
		addAmount("Discount", sm.Discount)
		addAmount("CGST", sm.CGST)
		addAmount("SGST", sm.SGST)
		addAmount("IGST", sm.IGST)
		addAmount("Total Tax", sm.TotalTax)
		addAmount("Shipping", sm.Shipping)
		addAmount("Round Off", sm.RoundOff)
		addAmount("Grand Total", sm.GrandTotal)
		addAmount("Amount Paid", sm.AmountPaid)
		addAmount("Balance Due", sm.BalanceDue)
		addText("Currency", sm.Currency)
		addText("Amount In Words", sm.AmountInWords)
	}
	if m := rec.Metadata; m != nil {
		addText("Source", m.Source)
		addText("Extraction Method", m.ExtractionMethod)
		addAmount("Confidence Score", m.ConfidenceScore)
		addText("Uploaded By", m.UploadedBy)
		addText("Extraction Date", m.ExtractionDate)
	}
	return rows
}

// cellAmount keeps numbers numeric in the sheet.
func cellAmount(a Amount) any {
	switch {
	case !a.Valid:
		return ""
	case a.Numeric:
		return a.Value
	default:
		return a.Raw
	}
}
