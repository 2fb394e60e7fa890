// Package subpulse turns subscription-billing webhook events into chat
// notifications and accumulates them into persisted per-date daily aggregates.
package subpulse

import "strings"

// Platform identifies the distribution channel a billing event originated from.
type Platform string

const (
	PlatformAndroid Platform = "ANDROID"
	PlatformIOS     Platform = "IOS"
	PlatformUnknown Platform = "UNKNOWN"
)

// NormalizePlatform maps a raw store identifier to a Platform.
// Matching is case-insensitive; unrecognized stores map to PlatformUnknown.
func NormalizePlatform(store string) Platform {
	switch strings.ToUpper(strings.TrimSpace(store)) {
	case "APP_STORE":
		return PlatformIOS
	case "PLAY_STORE":
		return PlatformAndroid
	default:
		return PlatformUnknown
	}
}

// EventKind is the closed set of billing event categories the tracker
// understands. The zero value is KindUnrecognized so an unclassified
// CounterUpdate never touches a counter.
type EventKind int

const (
	KindUnrecognized EventKind = iota
	KindPurchase
	KindRenewal
	KindCancellation
	KindProductChange
)

// String returns the wire-format event type for known kinds.
func (k EventKind) String() string {
	switch k {
	case KindPurchase:
		return "INITIAL_PURCHASE"
	case KindRenewal:
		return "RENEWAL"
	case KindCancellation:
		return "CANCELLATION"
	case KindProductChange:
		return "PRODUCT_CHANGE"
	default:
		return "UNRECOGNIZED"
	}
}

// CounterUpdate is the counter effect of one classified billing event.
// Revenue is only meaningful for KindPurchase and KindRenewal.
type CounterUpdate struct {
	Kind     EventKind
	Platform Platform
	Revenue  int64
}

// BillingEvent is the normalized inbound event. It is produced by the wire
// parser (pkg/revenuecat), not owned by this package.
type BillingEvent struct {
	// Type is the raw event type string; any value is accepted.
	Type string

	// Price is the event price in whole currency units. Nil when the
	// payload carried no price.
	Price *float64

	// Platform is the normalized store identifier.
	Platform Platform

	// ProductID is the purchased product identifier.
	ProductID string

	// NewProductID is the target product for PRODUCT_CHANGE events.
	NewProductID string

	// UserID is the app user identifier, used for the deep link.
	UserID string
}

// PlatformCounters holds the per-platform slice of a daily aggregate.
type PlatformCounters struct {
	InitialPurchases int64
	Renewals         int64
	Cancellations    int64
	ProductChanges   int64

	// TotalRevenue is whole currency units; fractional revenue is
	// truncated at classification time.
	TotalRevenue int64
}

func (c PlatformCounters) add(o PlatformCounters) PlatformCounters {
	return PlatformCounters{
		InitialPurchases: c.InitialPurchases + o.InitialPurchases,
		Renewals:         c.Renewals + o.Renewals,
		Cancellations:    c.Cancellations + o.Cancellations,
		ProductChanges:   c.ProductChanges + o.ProductChanges,
		TotalRevenue:     c.TotalRevenue + o.TotalRevenue,
	}
}

// DailyAggregate is the counter record for one calendar date (Jakarta time).
// Exactly one record exists per date; a date with no prior activity yields
// all-zero counters.
type DailyAggregate struct {
	// Date is the calendar date key, format YYYY-MM-DD.
	Date string

	Android PlatformCounters
	IOS     PlatformCounters
}

// NewDailyAggregate returns a fresh all-zero aggregate for date.
func NewDailyAggregate(date string) *DailyAggregate {
	return &DailyAggregate{Date: date}
}

// Counters returns the bucket for platform, or nil when the platform has no
// bucket (PlatformUnknown).
func (a *DailyAggregate) Counters(p Platform) *PlatformCounters {
	switch p {
	case PlatformAndroid:
		return &a.Android
	case PlatformIOS:
		return &a.IOS
	default:
		return nil
	}
}

// Totals returns the cross-platform sums.
func (a *DailyAggregate) Totals() PlatformCounters {
	return a.Android.add(a.IOS)
}

// ApplyUpdate mutates the aggregate in place according to upd.
// KindUnrecognized and updates with no platform bucket leave all counters
// untouched; persisting the unchanged record is the caller's decision.
func (a *DailyAggregate) ApplyUpdate(upd CounterUpdate) {
	bucket := a.Counters(upd.Platform)
	if bucket == nil {
		return
	}

	switch upd.Kind {
	case KindPurchase:
		bucket.InitialPurchases++
		bucket.TotalRevenue += upd.Revenue
	case KindRenewal:
		bucket.Renewals++
		bucket.TotalRevenue += upd.Revenue
	case KindCancellation:
		bucket.Cancellations++
	case KindProductChange:
		bucket.ProductChanges++
	}
}
