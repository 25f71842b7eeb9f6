package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/stock-count/internal/adapter/storage"
	"github.com/rl1809/stock-count/internal/core/domain"
	"github.com/rl1809/stock-count/internal/core/service"
)

const (
	warehouseID   = 1
	productID     = 1
	unitsPerPack  = 12
	counters      = 50
	addsPerWorker = 20
	rounds        = 10
	queueSize     = 100000
)

var (
	admin   = domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin}
	counter = domain.User{ID: 2, Username: "counter", Role: domain.RoleUser, WarehouseIDs: []int64{warehouseID}}
)

func main() {
	ctx := context.Background()

	store, err := storage.NewMemoryAdapter()
	if err != nil {
		log.Fatalf("failed to create store: %v", err)
	}
	seed(store)

	guard := service.NewGuard(service.NewWarehouseResolver(store), service.ClosePolicyAdmin)
	countService := service.NewCountService(store, store, store, guard, queueSize, zap.NewNop())
	defer countService.Close()

	// Drain the event queue in background
	go func() {
		for range countService.Events() {
		}
	}()

	failed := false
	for round := 1; round <= rounds; round++ {
		if !runRound(ctx, countService, round) {
			failed = true
		}
	}

	fmt.Println("==========================================")
	if failed {
		fmt.Println("FAIL: at least one round lost or leaked an item")
	} else {
		fmt.Println("PASS: every round serialized adds against the close")
	}
}

func runRound(ctx context.Context, svc *service.CountService, round int) bool {
	count, err := svc.CreateCount(ctx, counter, service.NewCount{
		Name:        fmt.Sprintf("stress-%d", round),
		CutOffDate:  time.Now().Format(domain.CutOffDateLayout),
		WarehouseID: warehouseID,
	})
	if err != nil {
		log.Fatalf("failed to create count: %v", err)
	}

	var (
		accepted atomic.Int32
		rejected atomic.Int32
		other    atomic.Int32
		wg       sync.WaitGroup
	)
	start := make(chan struct{})
	begin := time.Now()

	for i := 0; i < counters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < addsPerWorker; j++ {
				_, err := svc.AddItem(ctx, counter, count.ID, productID, 1)
				switch {
				case err == nil:
					accepted.Add(1)
				case domain.KindOf(err) == domain.KindInvalidState:
					rejected.Add(1)
				default:
					other.Add(1)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		time.Sleep(time.Millisecond)
		if _, err := svc.CloseCount(ctx, admin, count.ID); err != nil {
			log.Printf("round %d: close failed: %v", round, err)
		}
	}()

	close(start)
	wg.Wait()
	elapsed := time.Since(begin)

	detail, err := svc.GetCountDetail(ctx, admin, count.ID)
	if err != nil {
		log.Fatalf("failed to load count: %v", err)
	}

	stored := len(detail.Items)
	units := 0
	for _, it := range detail.Items {
		units += it.Quantity
	}

	fmt.Printf("round %2d: accepted=%d rejected=%d other=%d stored=%d status=%s duration=%v\n",
		round, accepted.Load(), rejected.Load(), other.Load(), stored, detail.Status, elapsed)

	ok := true
	if detail.Status != domain.CountStatusClosed {
		fmt.Printf("  FAIL: expected closed count, got %s\n", detail.Status)
		ok = false
	}
	if int32(stored) != accepted.Load() {
		fmt.Printf("  FAIL: %d items accepted but %d stored\n", accepted.Load(), stored)
		ok = false
	}
	if units != stored*unitsPerPack {
		fmt.Printf("  FAIL: expected %d units, got %d\n", stored*unitsPerPack, units)
		ok = false
	}
	if other.Load() != 0 {
		fmt.Printf("  FAIL: %d unexpected errors\n", other.Load())
		ok = false
	}
	return ok
}

func seed(store *storage.MemoryAdapter) {
	must := func(err error) {
		if err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
	}
	must(store.PutWarehouse(domain.Warehouse{ID: warehouseID, Name: "Stress"}))
	must(store.PutUser(admin))
	must(store.PutUser(counter))
	must(store.PutProduct(domain.Product{ID: productID, Name: "Box", UnitsPerPackage: unitsPerPack}))
}
