package service

import (
	"sync"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

type exceedState struct {
	requested int
	available int
}

// StockWarnings reports quantity-exceeds-stock lines once per state change.
// Repeated reconciliation of an unchanged cart yields no new warnings; a
// line that changes quantity or stock, or stops and later resumes
// exceeding, is reported again.
type StockWarnings struct {
	mu       sync.Mutex
	reported map[string]map[string]exceedState
}

func NewStockWarnings() *StockWarnings {
	return &StockWarnings{reported: make(map[string]map[string]exceedState)}
}

func (w *StockWarnings) Filter(userID string, result domain.ReconciliationResult) []domain.StockWarning {
	w.mu.Lock()
	defer w.mu.Unlock()

	previous := w.reported[userID]
	current := make(map[string]exceedState)
	warnings := make([]domain.StockWarning, 0)

	for _, line := range result.Valid {
		if line.MaxStock == nil {
			continue
		}
		state := exceedState{requested: line.Quantity, available: *line.MaxStock}
		key := line.Key()
		current[key] = state

		if prev, ok := previous[key]; ok && prev == state {
			continue
		}
		warnings = append(warnings, domain.StockWarning{
			ProductID: line.ProductID.String(),
			Name:      line.Name,
			Size:      line.Size,
			Color:     line.Color,
			Requested: line.Quantity,
			Available: *line.MaxStock,
		})
	}

	if len(current) == 0 {
		delete(w.reported, userID)
	} else {
		w.reported[userID] = current
	}
	return warnings
}

// Forget drops everything reported for the user.
func (w *StockWarnings) Forget(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.reported, userID)
}
