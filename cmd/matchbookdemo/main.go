package main

import (
	"context"
	"log"
	"time"

	"matchbook/internal/core"
	"matchbook/internal/service"
)

func main() {
	// 1. Wire a service around a fresh book.
	svc := service.NewService(service.DefaultConfig())
	defer svc.Close()

	ctx := context.Background()

	// 2. Seed the book with a small resting ladder on both sides.
	seed := []core.Order{
		{ID: 1, Side: core.Sell, Type: core.GoodTillCancel, Price: 102, Qty: 10},
		{ID: 2, Side: core.Sell, Type: core.GoodTillCancel, Price: 101, Qty: 5},
		{ID: 3, Side: core.Buy, Type: core.GoodTillCancel, Price: 99, Qty: 5},
		{ID: 4, Side: core.Buy, Type: core.GoodTillCancel, Price: 98, Qty: 10},
	}
	for _, o := range seed {
		if _, _, err := svc.AddOrder(ctx, o); err != nil {
			log.Fatalf("seeding order %d: %v", o.ID, err)
		}
	}

	bids, asks, err := svc.Levels(ctx)
	if err != nil {
		log.Fatalf("Levels: %v", err)
	}
	log.Printf("seeded book: bids=%v asks=%v", bids, asks)

	// 3. Run a small fixed script of arrivals against the seeded book:
	// a crossing limit, a market order, and a fill-and-kill whose limit
	// does not reach the best ask, so it is dropped without trading.
	script := []core.Order{
		{ID: 5, Side: core.Buy, Type: core.GoodTillCancel, Price: 101, Qty: 5},
		{ID: 6, Side: core.Sell, Type: core.Market, Qty: 3},
		{ID: 7, Side: core.Buy, Type: core.FillAndKill, Price: 100, Qty: 20},
	}
	for _, o := range script {
		trades, _, err := svc.AddOrder(ctx, o)
		if err != nil {
			log.Printf("order %d rejected: %v", o.ID, err)
			continue
		}
		log.Printf("order %d produced %d trade(s)", o.ID, len(trades))
		for _, tr := range trades {
			log.Printf("  trade: bid=%+v ask=%+v", tr.Bid, tr.Ask)
		}
	}

	// 4. Drain whatever events the seeding and the script above produced.
	drainCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
drain:
	for {
		select {
		case ev := <-svc.Events():
			log.Printf("event: %#v", ev)
		case <-drainCtx.Done():
			break drain
		}
	}

	bids, asks, err = svc.Levels(ctx)
	if err != nil {
		log.Fatalf("Levels: %v", err)
	}
	log.Printf("final book: bids=%v asks=%v", bids, asks)
}
