package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

const cartSnapshotKeyPrefix = "cart_snapshot_"

// CartSnapshots keeps each user's latest reconciled cart as JSON in a KVStore.
type CartSnapshots struct {
	store port.KVStore
}

func NewCartSnapshots(store port.KVStore) *CartSnapshots {
	return &CartSnapshots{store: store}
}

func (c *CartSnapshots) CurrentCart(ctx context.Context, userID string) ([]domain.CartLine, error) {
	raw, ok, err := c.store.Get(ctx, cartSnapshotKeyPrefix+userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return lines, nil
}

func (c *CartSnapshots) SaveCart(ctx context.Context, userID string, lines []domain.CartLine) error {
	if len(lines) == 0 {
		return c.ClearCart(ctx, userID)
	}

	snapshot := make([]domain.CartLine, len(lines))
	for i, l := range lines {
		l.MaxStock = nil
		snapshot[i] = l
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	return c.store.Set(ctx, cartSnapshotKeyPrefix+userID, string(raw))
}

func (c *CartSnapshots) ClearCart(ctx context.Context, userID string) error {
	return c.store.Remove(ctx, cartSnapshotKeyPrefix+userID)
}
