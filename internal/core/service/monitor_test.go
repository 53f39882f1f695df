package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/clock"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

type monitorFixture struct {
	clock   *clock.Fake
	store   *mockStore
	sink    *mockSink
	monitor *StockMonitor
}

func newMonitorFixture() *monitorFixture {
	f := &monitorFixture{
		clock: clock.NewFake(epoch),
		store: newMockStore(),
		sink:  &mockSink{},
	}
	f.monitor = NewStockMonitor(f.store, f.sink, f.clock, MonitorConfig{})
	return f
}

func TestNotifyBackInStock_Cooldown(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()

	assert.True(t, f.monitor.NotifyBackInStock(ctx, "p1", "Shoe"))

	f.clock.Advance(23 * time.Hour)
	assert.False(t, f.monitor.NotifyBackInStock(ctx, "p1", "Shoe"))
	assert.Len(t, f.sink.notifications(), 1)

	f.clock.Advance(2 * time.Hour)
	assert.True(t, f.monitor.NotifyBackInStock(ctx, "p1", "Shoe"))

	sent := f.sink.notifications()
	require.Len(t, sent, 2)
	assert.Equal(t, domain.KindBackInStock, sent[0].Kind)
	assert.Contains(t, sent[0].Body, "Shoe")
	assert.Equal(t, "p1", sent[0].Metadata["productId"])
}

func TestNotifyBackInStock_PerProduct(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()

	assert.True(t, f.monitor.NotifyBackInStock(ctx, "p1", "Shoe"))
	assert.True(t, f.monitor.NotifyBackInStock(ctx, "p2", "Hat"))
	assert.False(t, f.monitor.NotifyBackInStock(ctx, "p1", "Shoe"))
}

func TestNotifyBackInStock_PersistsCooldownRecord(t *testing.T) {
	f := newMonitorFixture()
	f.monitor.NotifyBackInStock(context.Background(), "p1", "Shoe")

	raw, ok := f.store.data["stock_notified_p1"]
	require.True(t, ok)

	var record domain.Cooldown
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.Equal(t, "stock_notified_p1", record.Key)
	assert.True(t, record.LastFiredAt.Equal(epoch))
}

func TestNotifyBackInStock_ReadFailureFailsOpen(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()
	f.monitor.NotifyBackInStock(ctx, "p1", "Shoe")

	f.store.getErr = errUnavailable
	assert.True(t, f.monitor.NotifyBackInStock(ctx, "p1", "Shoe"))
}

func TestNotifyBackInStock_CorruptRecordFailsOpen(t *testing.T) {
	f := newMonitorFixture()
	f.store.data["stock_notified_p1"] = "{not json"

	assert.True(t, f.monitor.NotifyBackInStock(context.Background(), "p1", "Shoe"))
}

func TestNotifyBackInStock_WriteFailureStillSends(t *testing.T) {
	f := newMonitorFixture()
	f.store.setErr = errUnavailable

	assert.True(t, f.monitor.NotifyBackInStock(context.Background(), "p1", "Shoe"))
	assert.Len(t, f.sink.notifications(), 1)
}

func TestNotifyBackInStock_FailedSendIsNotRecorded(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()
	f.sink.fails = 1

	assert.False(t, f.monitor.NotifyBackInStock(ctx, "p1", "Shoe"))
	assert.True(t, f.monitor.NotifyBackInStock(ctx, "p1", "Shoe"))
}

func wish(id string, price string) domain.WishlistItem {
	return domain.WishlistItem{ProductID: domain.ProductRef(id), Name: "Item " + id, Price: decimal.RequireFromString(price)}
}

func TestMonitorWishlistPrices_Threshold(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()

	assert.Empty(t, f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "100")}))
	assert.Empty(t, f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "96")}), "4% is below the floor")
	assert.Empty(t, f.sink.notifications())

	// baseline is now 96, so 94 is only ~2% off
	assert.Empty(t, f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "94")}))
}

func TestMonitorWishlistPrices_Fires(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()

	f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "100")})
	drops := f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "94")})

	require.Len(t, drops, 1)
	assert.Equal(t, 6, drops[0].DiscountPercent)
	assert.True(t, drops[0].OldPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, drops[0].NewPrice.Equal(decimal.NewFromInt(94)))

	sent := f.sink.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.KindPriceDrop, sent[0].Kind)
	assert.Equal(t, 6, sent[0].Metadata["discountPercent"])
	assert.Contains(t, sent[0].Body, "$94.00")
}

func TestMonitorWishlistPrices_ExactlyFivePercent(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()

	f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "100")})
	drops := f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "95")})

	require.Len(t, drops, 1)
	assert.Equal(t, 5, drops[0].DiscountPercent)
}

func TestMonitorWishlistPrices_AlwaysUpdatesBaseline(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()

	f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "100")})
	f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "120")})
	drops := f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "110")})

	require.Len(t, drops, 1, "110 is 8% below the latest baseline of 120")
	assert.Equal(t, 8, drops[0].DiscountPercent)

	var record domain.PriceRecord
	require.NoError(t, json.Unmarshal([]byte(f.store.data["price_history_p1"]), &record))
	assert.True(t, record.Price.Equal(decimal.NewFromInt(110)))
}

func TestMonitorWishlistPrices_SinkFailureStillUpdatesBaseline(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()

	f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "100")})
	f.sink.fails = 1
	assert.Empty(t, f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "50")}))

	var record domain.PriceRecord
	require.NoError(t, json.Unmarshal([]byte(f.store.data["price_history_p1"]), &record))
	assert.True(t, record.Price.Equal(decimal.NewFromInt(50)))
}

func TestMonitorWishlistPrices_MultipleItems(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()

	f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "10"), wish("p2", "20")})
	drops := f.monitor.MonitorWishlistPrices(ctx, []domain.WishlistItem{wish("p1", "5"), wish("p2", "20"), {Name: "no id"}})

	require.Len(t, drops, 1)
	assert.Equal(t, "p1", drops[0].ProductID)
	assert.Equal(t, 50, drops[0].DiscountPercent)
}

func TestObserveStock_NotifiesOnTransition(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()
	items := []domain.WishlistItem{wish("p1", "10"), wish("p1", "10"), wish("p2", "10")}

	out := []domain.ProductSnapshot{{ID: "p1", Stock: stock(0)}, {ID: "p2", Stock: stock(3)}}
	assert.Equal(t, 0, f.monitor.ObserveStock(ctx, items, out), "first observation only records state")

	back := []domain.ProductSnapshot{{ID: "p1", Stock: stock(2)}, {ID: "p2", Stock: stock(3)}}
	assert.Equal(t, 1, f.monitor.ObserveStock(ctx, items, back))
	assert.Equal(t, 0, f.monitor.ObserveStock(ctx, items, back), "no transition, nothing to send")

	sent := f.sink.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "p1", sent[0].Metadata["productId"])
}

func TestObserveStock_CooldownAppliesToFlapping(t *testing.T) {
	f := newMonitorFixture()
	ctx := context.Background()
	items := []domain.WishlistItem{wish("p1", "10")}
	out := []domain.ProductSnapshot{{ID: "p1", Stock: stock(0)}}
	in := []domain.ProductSnapshot{{ID: "p1", Colors: []domain.ColorVariant{
		{ColorName: "Red", Sizes: []domain.SizeStock{{Size: "M", Stock: 1}}},
	}}}

	f.monitor.ObserveStock(ctx, items, out)
	assert.Equal(t, 1, f.monitor.ObserveStock(ctx, items, in))
	f.monitor.ObserveStock(ctx, items, out)
	assert.Equal(t, 0, f.monitor.ObserveStock(ctx, items, in), "second transition within 24h is suppressed")
}
