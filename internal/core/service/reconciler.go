package service

import (
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

// Reconcile classifies every cart line against the catalog snapshot.
// Lines whose product is unknown or has no stock for the requested variant
// are invalid. Valid lines asking for more than is available come back
// annotated with MaxStock. Inputs are never mutated.
func Reconcile(lines []domain.CartLine, products []domain.ProductSnapshot) domain.ReconciliationResult {
	index := make(map[domain.ProductRef]domain.ProductSnapshot, len(products))
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, seen := index[p.ID]; !seen {
			index[p.ID] = p
		}
	}

	result := domain.ReconciliationResult{
		Valid:   make([]domain.CartLine, 0, len(lines)),
		Invalid: make([]domain.CartLine, 0),
	}

	for _, line := range lines {
		line.MaxStock = nil

		product, ok := index[line.ProductID]
		if line.ProductID == "" || !ok {
			result.Invalid = append(result.Invalid, line)
			continue
		}

		available := availableStock(line, product)
		if available <= 0 {
			result.Invalid = append(result.Invalid, line)
			continue
		}

		if line.Quantity > available {
			maxStock := available
			line.MaxStock = &maxStock
		}
		result.Valid = append(result.Valid, line)
	}

	return result
}

func availableStock(line domain.CartLine, product domain.ProductSnapshot) int {
	if line.Size != "" && line.Color != "" && product.HasVariantStock() {
		return product.VariantStock(line.Color, line.Size)
	}
	return product.FlatStock()
}
