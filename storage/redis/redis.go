// Package redis provides a Redis implementation of the subpulse.Storage
// interface. One hash per date; counter updates are applied atomically via a
// Lua script.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

const defaultKeyPrefix = "subpulse:summary:"

// Storage implements subpulse.Storage using Redis.
type Storage struct {
	client      redis.UniversalClient
	config      Config
	applyScript *redis.Script
}

// Config holds Redis storage configuration.
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "subpulse:summary:")
	KeyPrefix string

	// AggregateTTL is the TTL for aggregate keys (0 = no expiration).
	// Stale dates accumulate unless a TTL prunes them.
	AggregateTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:    defaultKeyPrefix,
		AggregateTTL: 0,
	}
}

// New creates a new Redis storage adapter.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
func New(client redis.UniversalClient, config Config) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if config.KeyPrefix == "" {
		config.KeyPrefix = defaultKeyPrefix
	}

	s := &Storage{
		client: client,
		config: config,
	}

	// Increment the counter and revenue fields atomically; empty field
	// names mean no counter effect (write-through), which still
	// materializes the date key.
	s.applyScript = redis.NewScript(`
		local key = KEYS[1]
		local countField = ARGV[1]
		local revenueField = ARGV[2]
		local revenue = tonumber(ARGV[3])
		local ttl = tonumber(ARGV[4])
		local date = ARGV[5]

		redis.call('HSETNX', key, 'date', date)
		if countField ~= '' then
			redis.call('HINCRBY', key, countField, 1)
		end
		if revenueField ~= '' and revenue ~= 0 then
			redis.call('HINCRBY', key, revenueField, revenue)
		end
		if ttl > 0 then
			redis.call('EXPIRE', key, ttl)
		end
		return redis.call('HGETALL', key)
	`)

	return s, nil
}

func (s *Storage) key(date string) string {
	return s.config.KeyPrefix + date
}

// GetAggregate implements subpulse.Storage.
func (s *Storage) GetAggregate(ctx context.Context, date string) (*subpulse.DailyAggregate, error) {
	fields, err := s.client.HGetAll(ctx, s.key(date)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate: %w: %v", subpulse.ErrStorageUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil // no record yet is not an error
	}
	return aggregateFromFields(date, fields), nil
}

// PutAggregate implements subpulse.Storage.
func (s *Storage) PutAggregate(ctx context.Context, agg *subpulse.DailyAggregate) error {
	if agg == nil || agg.Date == "" {
		return fmt.Errorf("invalid aggregate")
	}

	key := s.key(agg.Date)
	if err := s.client.HSet(ctx, key, aggregateToFields(agg)).Err(); err != nil {
		return fmt.Errorf("failed to put aggregate: %w: %v", subpulse.ErrStorageUnavailable, err)
	}

	if s.config.AggregateTTL > 0 {
		if err := s.client.Expire(ctx, key, s.config.AggregateTTL).Err(); err != nil {
			return fmt.Errorf("failed to set aggregate TTL: %w", err)
		}
	}
	return nil
}

// ApplyUpdate implements subpulse.AtomicApplier via the Lua script.
func (s *Storage) ApplyUpdate(ctx context.Context, date string, upd subpulse.CounterUpdate) (*subpulse.DailyAggregate, error) {
	if date == "" {
		return nil, fmt.Errorf("invalid date")
	}

	countField := counterField(upd.Kind, upd.Platform)

	revenueField := ""
	var revenue int64
	if upd.Kind == subpulse.KindPurchase || upd.Kind == subpulse.KindRenewal {
		if suffix := platformSuffix(upd.Platform); suffix != "" {
			revenueField = "total_revenue_" + suffix
			revenue = upd.Revenue
		}
	}

	ttl := int64(s.config.AggregateTTL / time.Second)
	res, err := s.applyScript.Run(ctx, s.client,
		[]string{s.key(date)},
		countField, revenueField, revenue, ttl, date).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to apply update: %w: %v", subpulse.ErrStorageUnavailable, err)
	}

	raw, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected script result type %T", res)
	}
	fields := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		k, _ := raw[i].(string)
		v, _ := raw[i+1].(string)
		fields[k] = v
	}
	return aggregateFromFields(date, fields), nil
}

func counterField(kind subpulse.EventKind, platform subpulse.Platform) string {
	suffix := platformSuffix(platform)
	if suffix == "" {
		return ""
	}

	switch kind {
	case subpulse.KindPurchase:
		return "initial_purchases_" + suffix
	case subpulse.KindRenewal:
		return "renewals_" + suffix
	case subpulse.KindCancellation:
		return "cancellations_" + suffix
	case subpulse.KindProductChange:
		return "product_changes_" + suffix
	default:
		return ""
	}
}

func platformSuffix(p subpulse.Platform) string {
	switch p {
	case subpulse.PlatformAndroid:
		return "android"
	case subpulse.PlatformIOS:
		return "ios"
	default:
		return ""
	}
}

func aggregateToFields(agg *subpulse.DailyAggregate) map[string]interface{} {
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

func aggregateFromFields(date string, fields map[string]string) *subpulse.DailyAggregate {
	agg := subpulse.NewDailyAggregate(date)
	agg.Android.InitialPurchases = parseInt(fields["initial_purchases_android"])
	agg.IOS.InitialPurchases = parseInt(fields["initial_purchases_ios"])
	agg.Android.Renewals = parseInt(fields["renewals_android"])
	agg.IOS.Renewals = parseInt(fields["renewals_ios"])
	agg.Android.Cancellations = parseInt(fields["cancellations_android"])
	agg.IOS.Cancellations = parseInt(fields["cancellations_ios"])
	agg.Android.ProductChanges = parseInt(fields["product_changes_android"])
	agg.IOS.ProductChanges = parseInt(fields["product_changes_ios"])
	agg.Android.TotalRevenue = parseInt(fields["total_revenue_android"])
	agg.IOS.TotalRevenue = parseInt(fields["total_revenue_ios"])
	return agg
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
