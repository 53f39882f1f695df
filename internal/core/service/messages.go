package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

const maxListedItems = 3

// itemSummary lists the first few item names and a "+N more" suffix for the rest.
func itemSummary(lines []domain.CartLine) string {
	names := make([]string, 0, maxListedItems)
	for i, l := range lines {
		if i == maxListedItems {
			break
		}
		name := strings.TrimSpace(l.Name)
		if name == "" {
			name = l.ProductID.String()
		}
		names = append(names, name)
	}

	summary := strings.Join(names, ", ")
	if extra := len(lines) - maxListedItems; extra > 0 {
		summary = fmt.Sprintf("%s +%d more", summary, extra)
	}
	return summary
}

func reminderNotification(userID, cycleID string, stage domain.Stage, lines []domain.CartLine) domain.Notification {
	items := itemSummary(lines)
	total := domain.CartTotal(lines).StringFixed(2)

	var title, body string
	switch stage {
	case domain.StageImmediate:
		title = "You left something in your cart 🛒"
		body = fmt.Sprintf("%s are waiting for you. Total: $%s", items, total)
	case domain.StageUrgent:
		title = "Your cart is about to expire ⏰"
		body = fmt.Sprintf("Items in your cart are selling fast: %s. Complete your $%s order before they're gone!", items, total)
	default:
		title = "Last chance! 🔥"
		body = fmt.Sprintf("This is your final reminder: %s ($%s) are still in your cart.", items, total)
	}

	return domain.Notification{
		ID:     uuid.NewString(),
		Kind:   domain.KindCartAbandonment,
		UserID: userID,
		Title:  title,
		Body:   body,
		Metadata: map[string]any{
			"type":      string(domain.KindCartAbandonment),
			"stage":     stage.String(),
			"cycleId":   cycleID,
			"itemCount": len(lines),
			"cartValue": total,
		},
	}
}

func backInStockNotification(productID, productName string) domain.Notification {
	return domain.Notification{
		ID:    uuid.NewString(),
		Kind:  domain.KindBackInStock,
		Title: "Back in stock! 🎉",
		Body:  fmt.Sprintf("%s is available again. Grab it before it sells out.", productName),
		Metadata: map[string]any{
			"type":      string(domain.KindBackInStock),
			"productId": productID,
		},
	}
}

func priceDropNotification(drop domain.PriceDrop) domain.Notification {
	return domain.Notification{
		ID:    uuid.NewString(),
		Kind:  domain.KindPriceDrop,
		Title: "Price drop alert 💸",
		Body: fmt.Sprintf("%s is now $%s (%d%% off)",
			drop.Name, drop.NewPrice.StringFixed(2), drop.DiscountPercent),
		Metadata: map[string]any{
			"type":            string(domain.KindPriceDrop),
			"productId":       drop.ProductID,
			"oldPrice":        drop.OldPrice.StringFixed(2),
			"newPrice":        drop.NewPrice.StringFixed(2),
			"discountPercent": drop.DiscountPercent,
		},
	}
}
