package domain

// ReconciliationResult partitions a cart: every input line lands in exactly
// one of Valid or Invalid.
type ReconciliationResult struct {
	Valid   []CartLine `json:"valid"`
	Invalid []CartLine `json:"invalid"`
}

type StockWarning struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}
