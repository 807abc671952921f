package extraction

import (
	"encoding/json"
	"strings"
	"time"
)

// Default extraction_metadata values used when the model returns none.
const (
	DefaultExtractionMethod = "ocr_llm"
	DefaultConfidenceScore  = 0.9
	DefaultUploadedBy       = "user"
)

// DefaultMetadata returns the metadata recorded when the model supplied no
// usable extraction_metadata object.
func DefaultMetadata(fileType string, now time.Time) *Metadata {
	source := strings.ToLower(strings.TrimSpace(fileType))
	if source == "" {
		source = "unknown"
	}
	return &Metadata{
		Source:           NewText(source + "_upload"),
		ExtractionMethod: NewText(DefaultExtractionMethod),
		ConfidenceScore:  NewAmount(DefaultConfidenceScore),
		UploadedBy:       NewText(DefaultUploadedBy),
		ExtractionDate:   NewText(now.UTC().Format("2006-01-02")),
	}
}

// Coerce turns an arbitrary decoded mapping into a complete record.
// Nested objects that are missing or not objects become empty, items that are
// missing or not a list become empty, list entries that are not objects are
// dropped, and unknown keys are ignored. Scalars of any type are kept as text.
// Coerce never fails.
func Coerce(raw map[string]any, fileType string, now time.Time) Fields {
	clean := make(map[string]any, len(raw))
	for _, key := range scalarKeys {
		if v, ok := raw[key]; ok {
			clean[key] = v
		}
	}
	for _, key := range []string{"customer", "seller", "summary"} {
		if m, ok := raw[key].(map[string]any); ok {
			clean[key] = m
		}
	}
	if m, ok := raw["extraction_metadata"].(map[string]any); ok {
		clean["extraction_metadata"] = m
	}
	if list, ok := raw["items"].([]any); ok {
		items := make([]any, 0, len(list))
		for _, entry := range list {
			if m, ok := entry.(map[string]any); ok {
				items = append(items, m)
			}
		}
		clean["items"] = items
	}

	var out Fields
	if payload, err := json.Marshal(clean); err == nil {
		if err := json.Unmarshal(payload, &out); err != nil {
			out = Fields{}
		}
	}
	if _, ok := clean["extraction_metadata"]; !ok || out.Metadata == nil {
		out.Metadata = DefaultMetadata(fileType, now)
	}
	out.fillEmpty()
	return out
}

// fillEmpty replaces nil nested values with empty ones.
func (f *Fields) fillEmpty() {
	if f.Customer == nil {
		f.Customer = &Customer{}
	}
	if f.Seller == nil {
		f.Seller = &Seller{}
	}
	if f.Summary == nil {
		f.Summary = &Summary{}
	}
	if f.Metadata == nil {
		f.Metadata = &Metadata{}
	}
	if f.Items == nil {
		f.Items = []LineItem{}
	}
}

// scalarKeys lists the top-level text fields in column order.
var scalarKeys = []string{
	"bill_id",
	"bill_type",
	"invoice_number",
	"order_id",
	"order_date",
	"invoice_date",
	"due_date",
	"payment_status",
}

// scalar returns a pointer to the named top-level text field.
func (f *Fields) scalar(key string) *Text {
	switch key {
	case "bill_id":
		return &f.BillID
	case "bill_type":
		return &f.BillType
	case "invoice_number":
		return &f.InvoiceNumber
	case "order_id":
		return &f.OrderID
	case "order_date":
		return &f.OrderDate
	case "invoice_date":
		return &f.InvoiceDate
	case "due_date":
		return &f.DueDate
	case "payment_status":
		return &f.PaymentStatus
	}
	return nil
}
