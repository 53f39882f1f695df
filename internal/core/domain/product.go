package domain

import "encoding/json"

type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

type ColorVariant struct {
	ColorName string      `json:"colorName"`
	Sizes     []SizeStock `json:"sizes"`
}

// ProductSnapshot is the catalog view used for one reconciliation pass.
// Stock is nil when the backend omits it.
type ProductSnapshot struct {
	ID     ProductRef     `json:"id"`
	Stock  *int           `json:"stock,omitempty"`
	Colors []ColorVariant `json:"colors,omitempty"`
}

// UnmarshalJSON also accepts the backend's "_id" field for the identity.
func (p *ProductSnapshot) UnmarshalJSON(data []byte) error {
	type alias ProductSnapshot
	var aux struct {
		alias
		MongoID ProductRef `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = ProductSnapshot(aux.alias)
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	return nil
}

func (p ProductSnapshot) HasVariantStock() bool {
	return len(p.Colors) > 0
}

// VariantStock returns the stock of the color/size pair, 0 when either is unknown.
func (p ProductSnapshot) VariantStock(color, size string) int {
	for _, c := range p.Colors {
		if c.ColorName != color {
			continue
		}
		for _, s := range c.Sizes {
			if s.Size == size {
				return s.Stock
			}
		}
		return 0
	}
	return 0
}

func (p ProductSnapshot) FlatStock() int {
	if p.Stock == nil {
		return 0
	}
	return *p.Stock
}

// TotalStock is the sum of variant stock, or the flat stock for products
// without variants.
func (p ProductSnapshot) TotalStock() int {
	if !p.HasVariantStock() {
		return p.FlatStock()
	}
	total := 0
	for _, c := range p.Colors {
		for _, s := range c.Sizes {
			total += s.Stock
		}
	}
	return total
}
