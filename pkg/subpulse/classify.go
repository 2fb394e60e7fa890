package subpulse

import (
	"fmt"
	"strconv"
	"strings"
)

// customerBaseURL is the dashboard deep link prefix; the app user id is
// appended to it in every notification.
const customerBaseURL = "https://app.revenuecat.com/customers/ec85b090/"

const (
	unknownProduct = "Unknown Product"
	unknownUser    = "Unknown User"
	unknownEvent   = "Unknown Event"
	noNewProduct   = "N/A"
)

// Classify maps a raw billing event to its counter effect and the rendered
// notification text. It is pure: storage writes and dispatch belong to the
// caller.
//
// Unrecognized event types produce a generic notification and a no-op
// CounterUpdate, never an error. A missing price is only an error for
// purchase and renewal events.
func Classify(ev *BillingEvent) (CounterUpdate, string, error) {
	if ev == nil {
		return CounterUpdate{}, "", ErrMissingEvent
	}

	kind := kindOf(ev.Type)
	upd := CounterUpdate{Kind: kind, Platform: ev.Platform}

	switch kind {
	case KindPurchase, KindRenewal:
		if ev.Price == nil {
			return CounterUpdate{}, "", fmt.Errorf("%w for %s event", ErrMissingPrice, kind)
		}
		upd.Revenue = int64(*ev.Price) // truncation toward zero, matches historical behavior
	case KindUnrecognized:
		upd = CounterUpdate{Kind: KindUnrecognized}
	}

	return upd, renderNotification(kind, ev), nil
}

func kindOf(eventType string) EventKind {
	switch eventType {
	case "INITIAL_PURCHASE":
		return KindPurchase
	case "RENEWAL":
		return KindRenewal
	case "CANCELLATION":
		return KindCancellation
	case "PRODUCT_CHANGE":
		return KindProductChange
	default:
		return KindUnrecognized
	}
}

func renderNotification(kind EventKind, ev *BillingEvent) string {
	product := orDefault(ev.ProductID, unknownProduct)
	link := customerBaseURL + orDefault(ev.UserID, unknownUser)
	amount := "Rp" + formatThousands(truncatedPrice(ev))

	switch kind {
	case KindPurchase:
		return fmt.Sprintf("🎉 NEW PURCHASE (%s)\n%s\n%s\n%s\n", ev.Platform, product, amount, link)
	case KindRenewal:
		return fmt.Sprintf("♻️ RENEWAL (%s)\n%s\n%s\n%s\n", ev.Platform, product, amount, link)
	case KindCancellation:
		return fmt.Sprintf("❌ CANCELLATION (%s)\n%s\n%s\n%s\n", ev.Platform, product, amount, link)
	case KindProductChange:
		return fmt.Sprintf("🔁 PRODUCT CHANGE (%s)\n%s → %s\n%s\n",
			ev.Platform, product, orDefault(ev.NewProductID, noNewProduct), link)
	default:
		return fmt.Sprintf("📢 UNRECOGNIZED EVENT (%s)\n%s\n%s\n%s\n%s",
			ev.Platform, product, orDefault(ev.Type, unknownEvent), amount, link)
	}
}

func truncatedPrice(ev *BillingEvent) int64 {
	if ev.Price == nil {
		return 0
	}
	return int64(*ev.Price)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// formatThousands renders n with comma thousands separators.
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
