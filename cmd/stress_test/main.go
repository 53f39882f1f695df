package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/clock"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/adapter/storage"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/service"
)

const (
	redisAddr    = "localhost:6379"
	keyPrefix    = "cartengine-stress:"
	totalUsers   = 200
	armsPerUser  = 20
	cancelEveryN = 4
)

// countingSink tallies reminders per user.
type countingSink struct {
	mu     sync.Mutex
	byUser map[string]int
	total  atomic.Int32
}

func (c *countingSink) Send(ctx context.Context, n domain.Notification) error {
	c.mu.Lock()
	c.byUser[n.UserID]++
	c.mu.Unlock()
	c.total.Add(1)
	return nil
}

func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Clear previous run
	keys, _ := rdb.Keys(ctx, keyPrefix+"*").Result()
	for _, k := range keys {
		rdb.Del(ctx, k)
	}

	store := storage.NewRedisStore(rdb).WithPrefix(keyPrefix)
	carts := storage.NewCartSnapshots(store)
	sink := &countingSink{byUser: make(map[string]int)}

	scheduler := service.NewAbandonmentScheduler(clock.NewReal(), carts, sink, service.ReminderConfig{
		ImmediateAfter: 50 * time.Millisecond,
		UrgentAfter:    100 * time.Millisecond,
		FinalAfter:     200 * time.Millisecond,
		SinkTimeout:    time.Second,
	})
	svc := service.NewCartService(carts, scheduler, service.NewStockMonitor(store, sink, clock.NewReal(), service.MonitorConfig{}))
	defer svc.Close()

	cart := []domain.CartLine{
		{ProductID: "p1", Name: "Sneakers", Price: decimal.NewFromInt(80), Quantity: 1},
		{ProductID: "p2", Name: "Socks", Price: decimal.NewFromInt(5), Quantity: 3},
	}

	// Every user backgrounds the app repeatedly; some come back.
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalUsers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n)
			for j := 0; j < armsPerUser; j++ {
				if _, err := svc.Background(ctx, userID, cart); err != nil {
					log.Printf("arm %s: %v", userID, err)
				}
			}
			if n%cancelEveryN == 0 {
				svc.Foreground(userID)
			}
		}(i)
	}

	wg.Wait()
	armed := time.Since(start)

	// Let every stage fire
	time.Sleep(time.Second)

	cancelled := (totalUsers + cancelEveryN - 1) / cancelEveryN
	overLimit, wrongCancelled, short := 0, 0, 0

	sink.mu.Lock()
	for i := 0; i < totalUsers; i++ {
		got := sink.byUser[fmt.Sprintf("user-%d", i)]
		switch {
		case got > 3:
			overLimit++
		case i%cancelEveryN == 0 && got != 0:
			wrongCancelled++
		case i%cancelEveryN != 0 && got != 3:
			short++
		}
	}
	sink.mu.Unlock()

	fmt.Println("========== REMINDER STRESS RESULTS ==========")
	fmt.Printf("Users:             %d\n", totalUsers)
	fmt.Printf("Arms per user:     %d\n", armsPerUser)
	fmt.Printf("Cancelled users:   %d\n", cancelled)
	fmt.Printf("Reminders sent:    %d\n", sink.total.Load())
	fmt.Printf("Arming took:       %v\n", armed)
	fmt.Println("=============================================")

	if overLimit == 0 {
		fmt.Println("PASS: no user received more than 3 reminders")
	} else {
		fmt.Printf("FAIL: %d users received more than 3 reminders\n", overLimit)
	}

	if wrongCancelled == 0 {
		fmt.Println("PASS: cancelled users received nothing")
	} else {
		fmt.Printf("FAIL: %d cancelled users received reminders\n", wrongCancelled)
	}

	expected := int32((totalUsers - cancelled) * 3)
	if short == 0 && sink.total.Load() == expected {
		fmt.Printf("PASS: exactly %d reminders delivered\n", expected)
	} else {
		fmt.Printf("FAIL: expected %d reminders, got %d (%d users short)\n", expected, sink.total.Load(), short)
	}
}
