package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/obs"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/port"
)

const (
	DefaultBackInStockCooldown = 24 * time.Hour
	DefaultPriceDropThreshold  = 0.05

	backInStockKeyPrefix  = "stock_notified_"
	priceHistoryKeyPrefix = "price_history_"
	stockStateKeyPrefix   = "stock_state_"

	stockStateIn  = "in"
	stockStateOut = "out"
)

var hundred = decimal.NewFromInt(100)

type MonitorConfig struct {
	BackInStockCooldown time.Duration
	// PriceDropThreshold is the minimum relative decrease, 0.05 for 5%.
	PriceDropThreshold float64
}

func (c MonitorConfig) withDefaults() MonitorConfig {
	if c.BackInStockCooldown <= 0 {
		c.BackInStockCooldown = DefaultBackInStockCooldown
	}
	if c.PriceDropThreshold <= 0 || c.PriceDropThreshold >= 1 {
		c.PriceDropThreshold = DefaultPriceDropThreshold
	}
	return c
}

// StockMonitor sends back-in-stock and price-drop notifications, using the
// key-value store to remember what was already sent. Store failures never
// block a notification: an unreadable record counts as no record.
//
// The mutex serializes decisions inside this process. Another process
// sharing the store may interleave, which at worst produces one duplicate.
type StockMonitor struct {
	store     port.KVStore
	sink      port.NotificationSink
	clock     port.Clock
	cooldown  time.Duration
	dropRatio decimal.Decimal

	mu sync.Mutex
}

func NewStockMonitor(store port.KVStore, sink port.NotificationSink, clock port.Clock, cfg MonitorConfig) *StockMonitor {
	cfg = cfg.withDefaults()
	return &StockMonitor{
		store:     store,
		sink:      sink,
		clock:     clock,
		cooldown:  cfg.BackInStockCooldown,
		dropRatio: decimal.NewFromInt(1).Sub(decimal.NewFromFloat(cfg.PriceDropThreshold)),
	}
}

// NotifyBackInStock sends at most one back-in-stock notification per
// product per cooldown window. It reports whether a notification went out.
func (m *StockMonitor) NotifyBackInStock(ctx context.Context, productID, productName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifyBackInStock(ctx, productID, productName)
}

func (m *StockMonitor) notifyBackInStock(ctx context.Context, productID, productName string) bool {
	key := backInStockKeyPrefix + productID
	log := logrus.WithFields(logrus.Fields{
		"product_id": productID,
		"kind":       domain.KindBackInStock,
	})

	now := m.clock.Now()
	var record domain.Cooldown
	if m.readJSON(ctx, key, &record, log) && now.Sub(record.LastFiredAt) < m.cooldown {
		log.WithField("last_fired_at", record.LastFiredAt).Debug("back-in-stock notification still cooling down")
		obs.Notifications.WithLabelValues(string(domain.KindBackInStock), obs.OutcomeSuppressed).Inc()
		return false
	}

	n := backInStockNotification(productID, productName)
	if err := m.sink.Send(ctx, n); err != nil {
		log.WithError(err).Error("failed to send back-in-stock notification")
		obs.Notifications.WithLabelValues(string(domain.KindBackInStock), obs.OutcomeFailed).Inc()
		return false
	}
	obs.Notifications.WithLabelValues(string(domain.KindBackInStock), obs.OutcomeSent).Inc()
	log.WithField("notification_id", n.ID).Info("sent back-in-stock notification")

	m.writeJSON(ctx, key, domain.Cooldown{Key: key, LastFiredAt: now}, log)
	return true
}

// MonitorWishlistPrices compares each item with its last seen price and
// notifies when the price fell by at least the threshold. The last seen
// price is always replaced with the current one. It returns the drops that
// were notified.
func (m *StockMonitor) MonitorWishlistPrices(ctx context.Context, items []domain.WishlistItem) []domain.PriceDrop {
	m.mu.Lock()
	defer m.mu.Unlock()

	drops := make([]domain.PriceDrop, 0)
	for _, item := range items {
		productID := item.ProductID.String()
		if productID == "" {
			continue
		}
		key := priceHistoryKeyPrefix + productID
		log := logrus.WithFields(logrus.Fields{
			"product_id": productID,
			"kind":       domain.KindPriceDrop,
		})

		var previous domain.PriceRecord
		if m.readJSON(ctx, key, &previous, log) && previous.Price.IsPositive() &&
			item.Price.LessThanOrEqual(previous.Price.Mul(m.dropRatio)) {
			drop := domain.PriceDrop{
				ProductID:       productID,
				Name:            item.Name,
				OldPrice:        previous.Price,
				NewPrice:        item.Price,
				DiscountPercent: int(previous.Price.Sub(item.Price).Div(previous.Price).Mul(hundred).Round(0).IntPart()),
			}

			n := priceDropNotification(drop)
			if err := m.sink.Send(ctx, n); err != nil {
				log.WithError(err).Error("failed to send price-drop notification")
				obs.Notifications.WithLabelValues(string(domain.KindPriceDrop), obs.OutcomeFailed).Inc()
			} else {
				log.WithFields(logrus.Fields{
					"old_price":        drop.OldPrice.String(),
					"new_price":        drop.NewPrice.String(),
					"discount_percent": drop.DiscountPercent,
				}).Info("sent price-drop notification")
				obs.Notifications.WithLabelValues(string(domain.KindPriceDrop), obs.OutcomeSent).Inc()
				drops = append(drops, drop)
			}
		}

		m.writeJSON(ctx, key, domain.PriceRecord{
			ProductID:  productID,
			Price:      item.Price,
			ObservedAt: m.clock.Now(),
		}, log)
	}
	return drops
}

// ObserveStock records whether each wishlisted product is in stock and sends
// a back-in-stock notification when one comes back after being out. It
// returns how many notifications went out.
func (m *StockMonitor) ObserveStock(ctx context.Context, items []domain.WishlistItem, products []domain.ProductSnapshot) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := make(map[domain.ProductRef]domain.ProductSnapshot, len(products))
	for _, p := range products {
		index[p.ID] = p
	}

	sent := 0
	seen := make(map[domain.ProductRef]bool, len(items))
	for _, item := range items {
		product, ok := index[item.ProductID]
		if item.ProductID == "" || !ok || seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true

		productID := item.ProductID.String()
		key := stockStateKeyPrefix + productID
		log := logrus.WithField("product_id", productID)

		state := stockStateOut
		if product.TotalStock() > 0 {
			state = stockStateIn
		}

		previous, found, err := m.store.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("could not read stock state")
			found = false
		}
		if found && previous == state {
			continue
		}

		if found && previous == stockStateOut && state == stockStateIn {
			if m.notifyBackInStock(ctx, productID, item.Name) {
				sent++
			}
		}

		if err := m.store.Set(ctx, key, state); err != nil {
			log.WithError(err).Warn("could not record stock state")
		}
	}
	return sent
}

// readJSON loads key into v. It reports false when the key is missing or
// cannot be read or decoded.
func (m *StockMonitor) readJSON(ctx context.Context, key string, v any, log *logrus.Entry) bool {
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("could not read notification history, treating as empty")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.WithError(err).Warn("discarding unreadable notification history")
		return false
	}
	return true
}

func (m *StockMonitor) writeJSON(ctx context.Context, key string, v any, log *logrus.Entry) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("could not encode notification history")
		return
	}
	if err := m.store.Set(ctx, key, string(raw)); err != nil {
		log.WithError(err).Warn("could not persist notification history")
	}
}
