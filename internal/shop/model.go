package shop

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errBadID = errors.New("product id must be a string or a number")

// maxIDExponent bounds the digits a numeric id can expand to.
const maxIDExponent = 64

// ProductID is the JSON literal of an id. Numbers are kept in canonical
// decimal form, so 1, 1.0 and 1e0 are one product while 1 and "1" are two.
type ProductID string

func NumberID(n int64) ProductID {
	return ProductID(strconv.FormatInt(n, 10))
}

func StringID(s string) ProductID {
	b, _ := json.Marshal(s)
	return ProductID(b)
}

// ParseProductID reads an id taken from a URL path segment.
func ParseProductID(s string) ProductID {
	if n, ok := canonicalNumber(s); ok {
		return ProductID(n)
	}
	return StringID(s)
}

// canonicalNumber reports whether lit is a JSON number and returns its
// shortest decimal spelling.
func canonicalNumber(lit string) (string, bool) {
	if lit == "" {
		return "", false
	}
	if c := lit[0]; c != '-' && (c < '0' || c > '9') {
		return "", false
	}
	if c := lit[len(lit)-1]; c < '0' || c > '9' {
		return "", false
	}
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return "", false
	}
	if e := d.Exponent(); e > maxIDExponent || e < -maxIDExponent {
		return "", false
	}
	return d.String(), true
}

func (id ProductID) IsZero() bool { return id == "" }

func (id ProductID) String() string {
	if len(id) > 0 && id[0] == '"' {
		var s string
		if err := json.Unmarshal([]byte(id), &s); err == nil {
			return s
		}
	}
	return string(id)
}

func (id ProductID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return []byte(id), nil
}

func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}

	switch c := b[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = StringID(s)
	case c == '-' || (c >= '0' && c <= '9'):
		n, ok := canonicalNumber(string(b))
		if !ok {
			return errBadID
		}
		*id = ProductID(n)
	default:
		return errBadID
	}
	return nil
}

// Category is an opaque record handed to callers as it was loaded.
type Category struct {
	raw []byte
}

func (c Category) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}
	c.raw = append([]byte(nil), b...)
	return nil
}

func (c Category) clone() Category {
	return Category{raw: append([]byte(nil), c.raw...)}
}

// Product is a catalog entry. Fields other than id, price and quantity are
// kept in Attrs and written back unchanged.
type Product struct {
	ID       ProductID
	Price    decimal.Decimal
	Quantity int
	Attrs    map[string]jsoniter.RawMessage
}

const (
	fieldID       = "id"
	fieldPrice    = "price"
	fieldQuantity = "quantity"
)

func (p Product) Attr(key string) (jsoniter.RawMessage, bool) {
	v, ok := p.Attrs[key]
	return v, ok
}

func (p Product) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Attrs)+3)
	for k, v := range p.Attrs {
		m[k] = v
	}
	m[fieldID] = p.ID
	m[fieldPrice] = jsoniter.RawMessage(p.Price.String())
	m[fieldQuantity] = p.Quantity
	return json.Marshal(m)
}

func (p *Product) UnmarshalJSON(b []byte) error {
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	var out Product
	if raw, ok := fields[fieldID]; ok {
		if err := out.ID.UnmarshalJSON(raw); err != nil {
			return err
		}
		delete(fields, fieldID)
	}
	if raw, ok := fields[fieldPrice]; ok {
		if !isNull(raw) {
			if err := out.Price.UnmarshalJSON(raw); err != nil {
				return err
			}
		}
		delete(fields, fieldPrice)
	}
	if raw, ok := fields[fieldQuantity]; ok {
		if !isNull(raw) {
			var q int
			if err := json.Unmarshal(raw, &q); err != nil {
				return errors.New("quantity must be an integer")
			}
			out.Quantity = q
		}
		delete(fields, fieldQuantity)
	}
	if len(fields) > 0 {
		out.Attrs = fields
	}

	*p = out
	return nil
}

func (p Product) clone() Product {
	if p.Attrs == nil {
		return p
	}
	attrs := make(map[string]jsoniter.RawMessage, len(p.Attrs))
	for k, v := range p.Attrs {
		attrs[k] = append(jsoniter.RawMessage(nil), v...)
	}
	p.Attrs = attrs
	return p
}

func isNull(raw []byte) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// CartLine is a product snapshot whose Quantity counts how many times it was
// added.
type CartLine struct {
	Product
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	Lines      []CartLine
	TotalPrice decimal.Decimal
}

type cartJSON struct {
	Lines      []CartLine      `json:"cart"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (c Cart) MarshalJSON() ([]byte, error) {
	lines := c.Lines
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(struct {
		Lines      []CartLine          `json:"cart"`
		TotalPrice jsoniter.RawMessage `json:"totalPrice"`
	}{lines, jsoniter.RawMessage(c.TotalPrice.String())})
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var v cartJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	c.Lines = v.Lines
	c.TotalPrice = v.TotalPrice
	return nil
}

func totalPrice(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
