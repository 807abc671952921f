package extraction

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ExtractedData is the structured record produced for one document.
type ExtractedData struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fields holds every extracted value. Nested records may be nil only when a
// stored blob could not be decoded.
type Fields struct {
	BillID        Text `json:"bill_id"`
	BillType      Text `json:"bill_type"`
	InvoiceNumber Text `json:"invoice_number"`
	OrderID       Text `json:"order_id"`
	OrderDate     Text `json:"order_date"`
	InvoiceDate   Text `json:"invoice_date"`
	DueDate       Text `json:"due_date"`
	PaymentStatus Text `json:"payment_status"`

	Customer *Customer  `json:"customer"`
	Seller   *Seller    `json:"seller"`
	Items    []LineItem `json:"items"`
	Summary  *Summary   `json:"summary"`
	Metadata *Metadata  `json:"extraction_metadata"`
}

type Customer struct {
	Name    Text `json:"name,omitzero"`
	Address Text `json:"address,omitzero"`
	Phone   Text `json:"phone,omitzero"`
	Email   Text `json:"email,omitzero"`
}

type Seller struct {
	Name    Text `json:"name,omitzero"`
	GSTIN   Text `json:"gstin,omitzero"`
	Address Text `json:"address,omitzero"`
	Phone   Text `json:"phone,omitzero"`
}

type LineItem struct {
	Description Text   `json:"description,omitzero"`
	HSNCode     Text   `json:"hsn_code,omitzero"`
	Quantity    Amount `json:"quantity,omitzero"`
	Unit        Text   `json:"unit,omitzero"`
	UnitPrice   Amount `json:"unit_price,omitzero"`
	Discount    Amount `json:"discount,omitzero"`
	TaxRate     Amount `json:"tax_rate,omitzero"`
	TaxAmount   Amount `json:"tax_amount,omitzero"`
	Total       Amount `json:"total,omitzero"`
}

type Summary struct {
	SubTotal      Amount `json:"sub_total,omitzero"`
	Discount      Amount `json:"discount,omitzero"`
	CGST          Amount `json:"cgst,omitzero"`
	SGST          Amount `json:"sgst,omitzero"`
	IGST          Amount `json:"igst,omitzero"`
	TotalTax      Amount `json:"total_tax,omitzero"`
	Shipping      Amount `json:"shipping,omitzero"`
	RoundOff      Amount `json:"round_off,omitzero"`
	GrandTotal    Amount `json:"grand_total,omitzero"`
	AmountPaid    Amount `json:"amount_paid,omitzero"`
	BalanceDue    Amount `json:"balance_due,omitzero"`
	Currency      Text   `json:"currency,omitzero"`
	AmountInWords Text   `json:"amount_in_words,omitzero"`
}

type Metadata struct {
	Source           Text   `json:"source,omitzero"`
	ExtractionMethod Text   `json:"extraction_method,omitzero"`
	ConfidenceScore  Amount `json:"confidence_score,omitzero"`
	UploadedBy       Text   `json:"uploaded_by,omitzero"`
	ExtractionDate   Text   `json:"extraction_date,omitzero"`
}

// Text is an optional scalar kept as text. Any JSON scalar decodes into it;
// objects and arrays are kept as their compact JSON.
type Text struct {
	Value string
	Valid bool
}

// NewText returns a present Text.
func NewText(s string) Text { return Text{Value: s, Valid: true} }

func (t Text) IsZero() bool { return !t.Valid }

// Present reports whether the value should be shown to a reader.
func (t Text) Present() bool { return t.Valid && strings.TrimSpace(t.Value) != "" }

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Text{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = NewText(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*t = NewText(buf.String())
	return nil
}

// Amount is an optional money or quantity value. Numbers and numeric text
// are held in Value; anything else is kept verbatim in Raw.
type Amount struct {
	Value   float64
	Raw     string
	Valid   bool
	Numeric bool
}

// NewAmount returns a present numeric Amount.
func NewAmount(v float64) Amount { return Amount{Value: v, Valid: true, Numeric: true} }

func (a Amount) IsZero() bool { return !a.Valid }

// Present reports whether the value should be shown to a reader. Zero
// amounts are treated as absent.
func (a Amount) Present() bool {
	if !a.Valid {
		return false
	}
	if a.Numeric {
		return a.Value != 0
	}
	return strings.TrimSpace(a.Raw) != ""
}

func (a Amount) MarshalJSON() ([]byte, error) {
	switch {
	case !a.Valid:
		return []byte("null"), nil
	case a.Numeric:
		return []byte(strconv.FormatFloat(a.Value, 'f', -1, 64)), nil
	default:
		return json.Marshal(a.Raw)
	}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var t Text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	if !t.Valid {
		*a = Amount{}
		return nil
	}
	*a = ParseAmount(t.Value)
	return nil
}

var currencyMarks = strings.NewReplacer("₹", "", "$", "", "€", "", "£", "", ",", "", " ", "")

// ParseAmount interprets s as a number after dropping currency marks and
// thousands separators. Non-numeric text is kept as Raw.
func ParseAmount(s string) Amount {
	trimmed := strings.TrimSpace(s)
	cleaned := trimmed
	upper := strings.ToUpper(cleaned)
	for _, prefix := range []string{"INR", "RS.", "RS"} {
		if strings.HasPrefix(upper, prefix) {
			cleaned = cleaned[len(prefix):]
			break
		}
	}
	cleaned = currencyMarks.Replace(cleaned)
	if v, err := strconv.ParseFloat(cleaned, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return NewAmount(v)
	}
	return Amount{Raw: trimmed, Valid: true}
}

// String renders the amount for humans: two decimals for numbers, the raw
// text otherwise.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	if a.Numeric {
		return strconv.FormatFloat(a.Value, 'f', 2, 64)
	}
	return a.Raw
}
