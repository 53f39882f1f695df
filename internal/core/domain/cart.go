package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductRef is a product identity as it arrives from the storefront
// backend. Some endpoints send a plain id, others embed the whole product
// document; both decode to the same canonical id.
type ProductRef string

func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ProductRef(strings.TrimSpace(s))
		return nil
	case '{':
		var embedded struct {
			MongoID json.RawMessage `json:"_id"`
			ID      json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &embedded); err != nil {
			return err
		}
		raw := embedded.MongoID
		if len(raw) == 0 {
			raw = embedded.ID
		}
		if len(raw) == 0 {
			*r = ""
			return nil
		}
		return r.UnmarshalJSON(raw)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("product ref: unsupported shape %s", string(data))
		}
		*r = ProductRef(n.String())
		return nil
	}
}

func (r ProductRef) String() string {
	return string(r)
}

type CartLine struct {
	ProductID ProductRef      `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`

	// MaxStock is set by reconciliation when Quantity exceeds what is
	// available. It is never persisted back to the cart.
	MaxStock *int `json:"maxStock,omitempty"`
}

// Key identifies the line within a cart: the same product in another
// size or color is a different line.
func (l CartLine) Key() string {
	return string(l.ProductID) + "|" + l.Color + "|" + l.Size
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotal sums price * quantity over all lines.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

type WishlistItem struct {
	ProductID ProductRef      `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}
