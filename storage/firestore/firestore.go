// Package firestore provides a Firestore implementation of the
// subpulse.Storage interface. One document per date; atomic counter updates
// run inside a Firestore transaction.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

// DefaultCollection is the collection holding one summary document per date.
// The name matches the original DailySummary table.
const DefaultCollection = "DailySummary"

// Storage implements subpulse.Storage using Google Cloud Firestore.
type Storage struct {
	client     *firestore.Client
	collection string
}

// Config holds Firestore storage configuration.
type Config struct {
	// Collection is the Firestore collection for daily summaries.
	// Default: "DailySummary".
	Collection string
}

// New creates a new Firestore storage adapter.
func New(client *firestore.Client, config Config) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}

	if config.Collection == "" {
		config.Collection = DefaultCollection
	}

	return &Storage{
		client:     client,
		collection: config.Collection,
	}, nil
}

func (s *Storage) doc(date string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(date)
}

// GetAggregate implements subpulse.Storage.
func (s *Storage) GetAggregate(ctx context.Context, date string) (*subpulse.DailyAggregate, error) {
	snap, err := s.doc(date).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil // no record yet is not an error
		}
		return nil, fmt.Errorf("failed to get aggregate: %w: %v", subpulse.ErrStorageUnavailable, err)
	}

	if !snap.Exists() {
		return nil, nil
	}

	return aggregateFromData(date, snap.Data()), nil
}

// PutAggregate implements subpulse.Storage.
func (s *Storage) PutAggregate(ctx context.Context, agg *subpulse.DailyAggregate) error {
	if agg == nil || agg.Date == "" {
		return fmt.Errorf("invalid aggregate")
	}

	if _, err := s.doc(agg.Date).Set(ctx, aggregateToData(agg)); err != nil {
		return fmt.Errorf("failed to put aggregate: %w: %v", subpulse.ErrStorageUnavailable, err)
	}
	return nil
}

// ApplyUpdate implements subpulse.AtomicApplier with a Firestore transaction.
func (s *Storage) ApplyUpdate(ctx context.Context, date string, upd subpulse.CounterUpdate) (*subpulse.DailyAggregate, error) {
	var result *subpulse.DailyAggregate

	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		doc := s.doc(date)

		agg := subpulse.NewDailyAggregate(date)
		snap, err := tx.Get(doc)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil && snap.Exists() {
			agg = aggregateFromData(date, snap.Data())
		}

		agg.ApplyUpdate(upd)
		if err := tx.Set(doc, aggregateToData(agg)); err != nil {
			return err
		}
		result = agg
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply update: %w: %v", subpulse.ErrStorageUnavailable, err)
	}
	return result, nil
}

// Field names match the persisted record layout: one counter field per
// platform plus per-platform revenue.
func aggregateToData(agg *subpulse.DailyAggregate) map[string]interface{} {
	return map[string]interface{}{
		"date":                      agg.Date,
		"initial_purchases_android": agg.Android.InitialPurchases,
		"initial_purchases_ios":     agg.IOS.InitialPurchases,
		"renewals_android":          agg.Android.Renewals,
		"renewals_ios":              agg.IOS.Renewals,
		"cancellations_android":     agg.Android.Cancellations,
		"cancellations_ios":         agg.IOS.Cancellations,
		"product_changes_android":   agg.Android.ProductChanges,
		"product_changes_ios":       agg.IOS.ProductChanges,
		"total_revenue_android":     agg.Android.TotalRevenue,
		"total_revenue_ios":         agg.IOS.TotalRevenue,
	}
}

func aggregateFromData(date string, data map[string]interface{}) *subpulse.DailyAggregate {
	agg := subpulse.NewDailyAggregate(date)
	agg.Android.InitialPurchases = getInt64(data, "initial_purchases_android")
	agg.IOS.InitialPurchases = getInt64(data, "initial_purchases_ios")
	agg.Android.Renewals = getInt64(data, "renewals_android")
	agg.IOS.Renewals = getInt64(data, "renewals_ios")
	agg.Android.Cancellations = getInt64(data, "cancellations_android")
	agg.IOS.Cancellations = getInt64(data, "cancellations_ios")
	agg.Android.ProductChanges = getInt64(data, "product_changes_android")
	agg.IOS.ProductChanges = getInt64(data, "product_changes_ios")
	agg.Android.TotalRevenue = getInt64(data, "total_revenue_android")
	agg.IOS.TotalRevenue = getInt64(data, "total_revenue_ios")
	return agg
}

func getInt64(data map[string]interface{}, key string) int64 {
	switch v := data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
