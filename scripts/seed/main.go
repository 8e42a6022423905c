package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/odyssey-erp/boutique/internal/app"
	"github.com/odyssey-erp/boutique/internal/invoicing"
	"github.com/odyssey-erp/boutique/internal/store"
)

// Seeds demo sales on top of the built-in catalogue so dashboards and
// reports have data to show.
func main() {
	count := flag.Int("invoices", 40, "number of sales to record")
	days := flag.Int("days", 180, "spread sales over the last N days")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	services, err := app.Bootstrap(ctx, cfg, app.NewLogger(cfg))
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer services.Close()

	rng := rand.New(rand.NewSource(*seed))
	now := time.Now().UTC()
	methods := services.Store.Snapshot().PaymentMethods

	fmt.Println("→ Recording sales...")
	recorded := 0
	for i := 0; i < *count; i++ {
		state := services.Store.Snapshot()
		if len(state.Clients) == 0 || len(state.Products) == 0 {
			break
		}
		client := state.Clients[rng.Intn(len(state.Clients))]
		var draft invoicing.Draft
		for n := 1 + rng.Intn(3); n > 0; n-- {
			p := state.Products[rng.Intn(len(state.Products))]
			if p.Stock < 2 {
				continue
			}
			_ = draft.Add(p, 1+rng.Intn(2))
		}
		if len(draft.Lines) == 0 {
			continue
		}
		snapshot := client.Snapshot()
		draft.Client = &snapshot
		draft.Date = now.AddDate(0, 0, -rng.Intn(*days)).Format(store.DateLayout)
		if len(methods) > 0 {
			draft.PaymentMethod = methods[rng.Intn(len(methods))].ID
		}
		inv, err := services.Invoices.Issue(ctx, draft, store.InvoicePending)
		if err != nil {
			log.Printf("skip sale %d: %v", i, err)
			continue
		}
		// Three sales out of four are settled.
		if rng.Intn(4) > 0 {
			if _, err := services.Invoices.SetStatus(ctx, inv.ID, store.InvoicePaid); err != nil {
				log.Printf("settle %s: %v", inv.Number, err)
			}
		}
		recorded++
	}
	fmt.Printf("✓ %d sales recorded\n", recorded)
}
