package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

func TestStorage_GetPutAggregate(t *testing.T) {
	storage := New()
	ctx := context.Background()

	// Getting a non-existent date returns nil, nil
	agg, err := storage.GetAggregate(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("GetAggregate failed: %v", err)
	}
	if agg != nil {
		t.Errorf("Expected nil aggregate for fresh date, got %+v", agg)
	}

	// Put and get back
	put := subpulse.NewDailyAggregate("2025-03-10")
	put.IOS.InitialPurchases = 2
	put.IOS.TotalRevenue = 98000

	if err := storage.PutAggregate(ctx, put); err != nil {
		t.Fatalf("PutAggregate failed: %v", err)
	}

	got, err := storage.GetAggregate(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("GetAggregate failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected aggregate, got nil")
	}
	if got.IOS.InitialPurchases != 2 {
		t.Errorf("InitialPurchases mismatch: got %d, want 2", got.IOS.InitialPurchases)
	}
	if got.IOS.TotalRevenue != 98000 {
		t.Errorf("TotalRevenue mismatch: got %d, want 98000", got.IOS.TotalRevenue)
	}
}

func TestStorage_PutAggregate_Invalid(t *testing.T) {
	storage := New()
	ctx := context.Background()

	if err := storage.PutAggregate(ctx, nil); err == nil {
		t.Error("Expected error for nil aggregate")
	}
	if err := storage.PutAggregate(ctx, &subpulse.DailyAggregate{}); err == nil {
		t.Error("Expected error for aggregate without date")
	}
}

func TestStorage_ReturnsCopies(t *testing.T) {
	storage := New()
	ctx := context.Background()

	put := subpulse.NewDailyAggregate("2025-03-10")
	put.Android.Renewals = 1
	if err := storage.PutAggregate(ctx, put); err != nil {
		t.Fatalf("PutAggregate failed: %v", err)
	}

	// Mutating what Put and Get handed out must not change the stored record
	put.Android.Renewals = 99

	got, err := storage.GetAggregate(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("GetAggregate failed: %v", err)
	}
	got.Android.Renewals = 42

	again, err := storage.GetAggregate(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("GetAggregate failed: %v", err)
	}
	if again.Android.Renewals != 1 {
		t.Errorf("Stored record was mutated: got %d, want 1", again.Android.Renewals)
	}
}

func TestStorage_ApplyUpdate(t *testing.T) {
	storage := New()
	ctx := context.Background()

	agg, err := storage.ApplyUpdate(ctx, "2025-03-10", subpulse.CounterUpdate{
		Kind:     subpulse.KindPurchase,
		Platform: subpulse.PlatformIOS,
		Revenue:  49000,
	})
	if err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	if agg.IOS.InitialPurchases != 1 {
		t.Errorf("InitialPurchases mismatch: got %d, want 1", agg.IOS.InitialPurchases)
	}
	if agg.IOS.TotalRevenue != 49000 {
		t.Errorf("TotalRevenue mismatch: got %d, want 49000", agg.IOS.TotalRevenue)
	}

	// Second update accumulates
	agg, err = storage.ApplyUpdate(ctx, "2025-03-10", subpulse.CounterUpdate{
		Kind:     subpulse.KindRenewal,
		Platform: subpulse.PlatformIOS,
		Revenue:  25000,
	})
	if err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	if agg.IOS.Renewals != 1 {
		t.Errorf("Renewals mismatch: got %d, want 1", agg.IOS.Renewals)
	}
	if agg.IOS.TotalRevenue != 74000 {
		t.Errorf("TotalRevenue mismatch: got %d, want 74000", agg.IOS.TotalRevenue)
	}
}

func TestStorage_ApplyUpdate_EmptyDate(t *testing.T) {
	storage := New()

	if _, err := storage.ApplyUpdate(context.Background(), "", subpulse.CounterUpdate{}); err == nil {
		t.Error("Expected error for empty date")
	}
}

func TestStorage_ApplyUpdate_Concurrent(t *testing.T) {
	storage := New()
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := storage.ApplyUpdate(ctx, "2025-03-10", subpulse.CounterUpdate{
				Kind:     subpulse.KindRenewal,
				Platform: subpulse.PlatformAndroid,
				Revenue:  100,
			})
			if err != nil {
				t.Errorf("ApplyUpdate failed: %v", err)
			}
		}()
	}
	wg.Wait()

	agg, err := storage.GetAggregate(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("GetAggregate failed: %v", err)
	}
	if agg.Android.Renewals != goroutines {
		t.Errorf("Renewals mismatch: got %d, want %d", agg.Android.Renewals, goroutines)
	}
	if agg.Android.TotalRevenue != goroutines*100 {
		t.Errorf("TotalRevenue mismatch: got %d, want %d", agg.Android.TotalRevenue, goroutines*100)
	}
}
