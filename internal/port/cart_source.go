package port

import (
	"context"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

type CurrentCartSource interface {
	// CurrentCart returns the user's cart as it is right now
	CurrentCart(ctx context.Context, userID string) ([]domain.CartLine, error)
}

type CartSnapshotStore interface {
	CurrentCartSource

	// SaveCart replaces the user's cart snapshot
	SaveCart(ctx context.Context, userID string, lines []domain.CartLine) error

	// ClearCart drops the snapshot, e.g. after checkout
	ClearCart(ctx context.Context, userID string) error
}
