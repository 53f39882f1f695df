package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/obs"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

var ErrMissingUser = errors.New("missing user id")

// CartService is what the transports talk to. It keeps the user's current
// cart snapshot in step with reconciliation and the reminder lifecycle.
type CartService struct {
	carts     port.CartSnapshotStore
	scheduler *AbandonmentScheduler
	monitor   *StockMonitor
	warnings  *StockWarnings
}

func NewCartService(carts port.CartSnapshotStore, scheduler *AbandonmentScheduler, monitor *StockMonitor) *CartService {
	return &CartService{
		carts:     carts,
		scheduler: scheduler,
		monitor:   monitor,
		warnings:  NewStockWarnings(),
	}
}

// Reconcile classifies the cart and, for a known user, stores the valid
// lines as the current cart and returns the warnings not reported before.
// A cart with nothing purchasable left stops the user's reminders.
func (s *CartService) Reconcile(ctx context.Context, userID string, lines []domain.CartLine, products []domain.ProductSnapshot) (domain.ReconciliationResult, []domain.StockWarning) {
	result := Reconcile(lines, products)
	obs.Reconciliations.WithLabelValues("valid").Add(float64(len(result.Valid)))
	obs.Reconciliations.WithLabelValues("invalid").Add(float64(len(result.Invalid)))

	if userID == "" {
		return result, []domain.StockWarning{}
	}

	warnings := s.warnings.Filter(userID, result)
	if err := s.carts.SaveCart(ctx, userID, result.Valid); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("could not save cart snapshot")
	}
	if len(result.Valid) == 0 {
		s.scheduler.Cancel(userID)
	}
	return result, warnings
}

// Background is called when the app loses focus with the reconciled cart.
// An empty cart cancels whatever reminders are still armed.
func (s *CartService) Background(ctx context.Context, userID string, lines []domain.CartLine) (bool, error) {
	if userID == "" {
		return false, ErrMissingUser
	}
	if err := s.carts.SaveCart(ctx, userID, lines); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("could not save cart snapshot")
	}
	if len(lines) == 0 {
		s.scheduler.Cancel(userID)
		return false, nil
	}
	return s.scheduler.Arm(userID, lines), nil
}

func (s *CartService) Foreground(userID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	s.scheduler.Cancel(userID)
	return nil
}

func (s *CartService) CompleteCheckout(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	s.scheduler.Cancel(userID)
	s.warnings.Forget(userID)
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) Schedule(userID string) (domain.ReminderSchedule, bool) {
	return s.scheduler.Schedule(userID)
}

func (s *CartService) BackInStock(ctx context.Context, productID, productName string) bool {
	return s.monitor.NotifyBackInStock(ctx, productID, productName)
}

func (s *CartService) WishlistPrices(ctx context.Context, items []domain.WishlistItem) []domain.PriceDrop {
	return s.monitor.MonitorWishlistPrices(ctx, items)
}

func (s *CartService) ObserveStock(ctx context.Context, items []domain.WishlistItem, products []domain.ProductSnapshot) int {
	return s.monitor.ObserveStock(ctx, items, products)
}

// Close stops every armed reminder.
func (s *CartService) Close() {
	s.scheduler.CancelAll()
}
