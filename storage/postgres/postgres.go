// Package postgres provides a PostgreSQL implementation of the
// subpulse.Storage interface. One row per date; counter updates are applied
// atomically with a single upsert statement.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

// Storage implements subpulse.Storage using PostgreSQL.
type Storage struct {
	pool   *pgxpool.Pool
	config Config
}

// Config holds PostgreSQL storage configuration.
type Config struct {
	// ConnectionString is the PostgreSQL connection string
	ConnectionString string

	// Pool configuration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// New creates a new PostgreSQL storage adapter.
func New(ctx context.Context, config Config) (*Storage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{pool: pool, config: config}, nil
}

// Close closes the PostgreSQL connection pool.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the daily_summaries table if it does not exist.
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS daily_summaries (
			date TEXT PRIMARY KEY,
			initial_purchases_android BIGINT NOT NULL DEFAULT 0,
			initial_purchases_ios BIGINT NOT NULL DEFAULT 0,
			renewals_android BIGINT NOT NULL DEFAULT 0,
			renewals_ios BIGINT NOT NULL DEFAULT 0,
			cancellations_android BIGINT NOT NULL DEFAULT 0,
			cancellations_ios BIGINT NOT NULL DEFAULT 0,
			product_changes_android BIGINT NOT NULL DEFAULT 0,
			product_changes_ios BIGINT NOT NULL DEFAULT 0,
			total_revenue_android BIGINT NOT NULL DEFAULT 0,
			total_revenue_ios BIGINT NOT NULL DEFAULT 0
		)`)
	if err != nil {
		return fmt.Errorf("failed to create daily_summaries table: %w", err)
	}
	return nil
}

const selectColumns = `initial_purchases_android, initial_purchases_ios,
	renewals_android, renewals_ios,
	cancellations_android, cancellations_ios,
	product_changes_android, product_changes_ios,
	total_revenue_android, total_revenue_ios`

// GetAggregate implements subpulse.Storage.
func (s *Storage) GetAggregate(ctx context.Context, date string) (*subpulse.DailyAggregate, error) {
	agg := subpulse.NewDailyAggregate(date)

	err := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM daily_summaries WHERE date = $1`,
		date).Scan(
		&agg.Android.InitialPurchases, &agg.IOS.InitialPurchases,
		&agg.Android.Renewals, &agg.IOS.Renewals,
		&agg.Android.Cancellations, &agg.IOS.Cancellations,
		&agg.Android.ProductChanges, &agg.IOS.ProductChanges,
		&agg.Android.TotalRevenue, &agg.IOS.TotalRevenue,
	)

	if err == pgx.ErrNoRows {
		return nil, nil // no record yet is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate: %w: %v", subpulse.ErrStorageUnavailable, err)
	}
	return agg, nil
}

// PutAggregate implements subpulse.Storage.
func (s *Storage) PutAggregate(ctx context.Context, agg *subpulse.DailyAggregate) error {
	if agg == nil || agg.Date == "" {
		return fmt.Errorf("invalid aggregate")
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_summaries (date,
			initial_purchases_android, initial_purchases_ios,
			renewals_android, renewals_ios,
			cancellations_android, cancellations_ios,
			product_changes_android, product_changes_ios,
			total_revenue_android, total_revenue_ios)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (date) DO UPDATE SET
			initial_purchases_android = EXCLUDED.initial_purchases_android,
			initial_purchases_ios = EXCLUDED.initial_purchases_ios,
			renewals_android = EXCLUDED.renewals_android,
			renewals_ios = EXCLUDED.renewals_ios,
			cancellations_android = EXCLUDED.cancellations_android,
			cancellations_ios = EXCLUDED.cancellations_ios,
			product_changes_android = EXCLUDED.product_changes_android,
			product_changes_ios = EXCLUDED.product_changes_ios,
			total_revenue_android = EXCLUDED.total_revenue_android,
			total_revenue_ios = EXCLUDED.total_revenue_ios`,
		agg.Date,
		agg.Android.InitialPurchases, agg.IOS.InitialPurchases,
		agg.Android.Renewals, agg.IOS.Renewals,
		agg.Android.Cancellations, agg.IOS.Cancellations,
		agg.Android.ProductChanges, agg.IOS.ProductChanges,
		agg.Android.TotalRevenue, agg.IOS.TotalRevenue,
	)
	if err != nil {
		return fmt.Errorf("failed to put aggregate: %w: %v", subpulse.ErrStorageUnavailable, err)
	}
	return nil
}

// ApplyUpdate implements subpulse.AtomicApplier with a single upsert.
// Column names come from a closed switch, never from input.
func (s *Storage) ApplyUpdate(ctx context.Context, date string, upd subpulse.CounterUpdate) (*subpulse.DailyAggregate, error) {
	if date == "" {
		return nil, fmt.Errorf("invalid date")
	}

	countColumn := counterColumn(upd.Kind, upd.Platform)
	if countColumn == "" {
		// No counter effect: still materialize the row for the date.
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO daily_summaries (date) VALUES ($1) ON CONFLICT (date) DO NOTHING`,
			date); err != nil {
			return nil, fmt.Errorf("failed to apply update: %w: %v", subpulse.ErrStorageUnavailable, err)
		}
		return s.getOrZero(ctx, date)
	}

	var err error
	if revenueColumn := revenueColumnFor(upd); revenueColumn != "" {
		query := fmt.Sprintf(`
			INSERT INTO daily_summaries (date, %[1]s, %[2]s) VALUES ($1, 1, $2)
			ON CONFLICT (date) DO UPDATE SET
				%[1]s = daily_summaries.%[1]s + 1,
				%[2]s = daily_summaries.%[2]s + $2`,
			countColumn, revenueColumn)
		_, err = s.pool.Exec(ctx, query, date, upd.Revenue)
	} else {
		query := fmt.Sprintf(`
			INSERT INTO daily_summaries (date, %[1]s) VALUES ($1, 1)
			ON CONFLICT (date) DO UPDATE SET %[1]s = daily_summaries.%[1]s + 1`,
			countColumn)
		_, err = s.pool.Exec(ctx, query, date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply update: %w: %v", subpulse.ErrStorageUnavailable, err)
	}

	return s.getOrZero(ctx, date)
}

func (s *Storage) getOrZero(ctx context.Context, date string) (*subpulse.DailyAggregate, error) {
	agg, err := s.GetAggregate(ctx, date)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		agg = subpulse.NewDailyAggregate(date)
	}
	return agg, nil
}

func counterColumn(kind subpulse.EventKind, platform subpulse.Platform) string {
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

func revenueColumnFor(upd subpulse.CounterUpdate) string {
	if upd.Kind != subpulse.KindPurchase && upd.Kind != subpulse.KindRenewal {
		return ""
	}
	suffix := platformSuffix(upd.Platform)
	if suffix == "" {
		return ""
	}
	return "total_revenue_" + suffix
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
