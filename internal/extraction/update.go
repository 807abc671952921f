package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Patch is a partial update. Only the fields it carries are written.
type Patch struct {
	Scalars  map[string]Text
	Customer *Customer
	Seller   *Seller
	Summary  *Summary
	Metadata *Metadata
	Items    []LineItem
	SetItems bool
}

func (p Patch) apply(f *Fields) {
	for key, v := range p.Scalars {
		if dst := f.scalar(key); dst != nil {
			*dst = v
		}
	}
	if p.Customer != nil {
		f.Customer = p.Customer
	}
	if p.Seller != nil {
		f.Seller = p.Seller
	}
	if p.Summary != nil {
		f.Summary = p.Summary
	}
	if p.Metadata != nil {
		f.Metadata = p.Metadata
	}
	if p.SetItems {
		f.Items = p.Items
	}
}

const updateSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "$defs": {
    "scalar": {"type": ["string", "number", "boolean", "null"]},
    "record": {
      "type": ["object", "null"],
      "additionalProperties": {"$ref": "#/$defs/scalar"}
    }
  },
  "properties": {
    "bill_id": {"$ref": "#/$defs/scalar"},
    "bill_type": {"$ref": "#/$defs/scalar"},
    "invoice_number": {"$ref": "#/$defs/scalar"},
    "order_id": {"$ref": "#/$defs/scalar"},
    "order_date": {"$ref": "#/$defs/scalar"},
    "invoice_date": {"$ref": "#/$defs/scalar"},
    "due_date": {"$ref": "#/$defs/scalar"},
    "payment_status": {"$ref": "#/$defs/scalar"},
    "customer": {"$ref": "#/$defs/record"},
    "seller": {"$ref": "#/$defs/record"},
    "summary": {"$ref": "#/$defs/record"},
    "extraction_metadata": {"$ref": "#/$defs/record"},
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "additionalProperties": {"$ref": "#/$defs/scalar"}
      }
    }
  }
}`

var updateSchema = jsonschema.MustCompileString("extraction-update.json", updateSchemaJSON)

var nestedKeys = []string{"customer", "seller", "summary", "extraction_metadata", "items"}

// ParsePatch validates an update body and converts it into a Patch. Nested
// fields may be sent either as JSON values or as JSON text.
func ParsePatch(body []byte) (Patch, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return Patch{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidInput)
	}
	if doc == nil {
		return Patch{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidInput)
	}

	for _, key := range nestedKeys {
		text, ok := doc[key].(string)
		if !ok {
			continue
		}
		inner := json.NewDecoder(bytes.NewReader([]byte(text)))
		inner.UseNumber()
		var v any
		if err := inner.Decode(&v); err != nil {
			return Patch{}, fmt.Errorf("%w: %s is not valid JSON text", ErrInvalidInput, key)
		}
		doc[key] = v
	}

	if err := updateSchema.Validate(any(doc)); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	p := Patch{Scalars: map[string]Text{}}
	for _, key := range scalarKeys {
		v, ok := doc[key]
		if !ok {
			continue
		}
		var t Text
		if err := remarshal(v, &t); err != nil {
			return Patch{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, key, err)
		}
		p.Scalars[key] = t
	}

	var err error
	if p.Customer, err = nestedValue[Customer](doc, "customer"); err != nil {
		return Patch{}, err
	}
	if p.Seller, err = nestedValue[Seller](doc, "seller"); err != nil {
		return Patch{}, err
	}
	if p.Summary, err = nestedValue[Summary](doc, "summary"); err != nil {
		return Patch{}, err
	}
	if p.Metadata, err = nestedValue[Metadata](doc, "extraction_metadata"); err != nil {
		return Patch{}, err
	}
	if v, ok := doc["items"]; ok {
		p.SetItems = true
		p.Items = []LineItem{}
		if v != nil {
			if err := remarshal(v, &p.Items); err != nil {
				return Patch{}, fmt.Errorf("%w: items: %v", ErrInvalidInput, err)
			}
		}
	}
	return p, nil
}

// nestedValue decodes doc[key] into a T. A null value clears the record.
func nestedValue[T any](doc map[string]any, key string) (*T, error) {
	v, ok := doc[key]
	if !ok {
		return nil, nil
	}
	out := new(T)
	if v == nil {
		return out, nil
	}
	if err := remarshal(v, out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, key, err)
	}
	return out, nil
}

func remarshal(v any, dst any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dst)
}
