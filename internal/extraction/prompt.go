package extraction

import "strings"

const targetSchema = `{
  "bill_id": string | null,
  "bill_type": string | null,
  "invoice_number": string | null,
  "order_id": string | null,
  "order_date": string | null,
  "invoice_date": string | null,
  "due_date": string | null,
  "payment_status": string | null,
  "customer": {
    "name": string, "address": string, "phone": string, "email": string
  },
  "seller": {
    "name": string, "gstin": string, "address": string, "phone": string
  },
  "items": [
    {
      "description": string, "hsn_code": string, "quantity": number, "unit": string,
      "unit_price": number, "discount": number, "tax_rate": number, "tax_amount": number, "total": number
    }
  ],
  "summary": {
    "sub_total": number, "discount": number, "cgst": number, "sgst": number, "igst": number,
    "total_tax": number, "shipping": number, "round_off": number, "grand_total": number,
    "amount_paid": number, "balance_due": number, "currency": string, "amount_in_words": string
  },
  "extraction_metadata": {
    "source": string, "extraction_method": string, "confidence_score": number,
    "uploaded_by": string, "extraction_date": string
  }
}`

// BuildPrompt returns the single user message sent for a transcript.
func BuildPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Extract ALL information from the following bill or receipt (plain text content) ")
	b.WriteString("and return ONLY valid JSON matching this structure:\n")
	b.WriteString(targetSchema)
	b.WriteString("\nUse null for unknown scalar values and omit unknown nested keys. ")
	b.WriteString("Amounts must be plain numbers without currency symbols. Dates as they appear on the document. ")
	b.WriteString("'items' must be a list of objects, one per billed line. ")
	b.WriteString("NO extra text, NO markdown. TEXT:\n'''")
	b.WriteString(transcript)
	b.WriteString("'''")
	return b.String()
}
