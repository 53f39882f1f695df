package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type NotificationKind string

const (
	KindCartAbandonment NotificationKind = "cart_abandonment"
	KindBackInStock     NotificationKind = "back_in_stock"
	KindPriceDrop       NotificationKind = "price_drop"
)

type Notification struct {
	ID       string           `json:"id"`
	Kind     NotificationKind `json:"kind"`
	UserID   string           `json:"userId,omitempty"`
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// Stage orders the abandonment reminders of one arm cycle.
type Stage int

const (
	StageImmediate Stage = iota
	StageUrgent
	StageFinal
)

func (s Stage) String() string {
	switch s {
	case StageImmediate:
		return "immediate"
	case StageUrgent:
		return "urgent"
	case StageFinal:
		return "final"
	default:
		return "unknown"
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	switch string(text) {
	case "immediate":
		*s = StageImmediate
	case "urgent":
		*s = StageUrgent
	case "final":
		*s = StageFinal
	default:
		return fmt.Errorf("unknown reminder stage %q", text)
	}
	return nil
}

type ReminderSchedule struct {
	UserID   string     `json:"userId"`
	CycleID  string     `json:"cycleId"`
	ArmedAt  time.Time  `json:"armedAt"`
	Pending  []Stage    `json:"pending"`
	Snapshot []CartLine `json:"snapshot"`
}

// Cooldown is the persisted record of the last time a notification for a
// subject went out.
type Cooldown struct {
	Key         string    `json:"key"`
	LastFiredAt time.Time `json:"lastFiredAt"`
}

type PriceRecord struct {
	ProductID  string          `json:"productId"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observedAt"`
}

type PriceDrop struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	OldPrice        decimal.Decimal `json:"oldPrice"`
	NewPrice        decimal.Decimal `json:"newPrice"`
	DiscountPercent int             `json:"discountPercent"`
}
