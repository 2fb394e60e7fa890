// Package revenuecat decodes RevenueCat webhook invocation payloads into the
// normalized billing events the tracker consumes.
package revenuecat

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

// ScheduledDetailType marks a scheduled daily-report trigger payload.
const ScheduledDetailType = "Scheduled Event"

// Invocation is a decoded trigger payload: either a scheduled report run or
// exactly one billing event.
type Invocation struct {
	Scheduled bool
	Event     *subpulse.BillingEvent
}

// envelope covers both payload shapes: the event nested directly, or a
// JSON-encoded body string containing it (API gateway style).
type envelope struct {
	DetailType string        `json:"detail-type"`
	Body       string        `json:"body"`
	Event      *eventPayload `json:"event"`
}

type eventPayload struct {
	Type                     string  `json:"type"`
	ProductID                string  `json:"product_id"`
	NewProductID             string  `json:"new_product_id"`
	AppUserID                string  `json:"app_user_id"`
	Store                    string  `json:"store"`
	Price                    *Amount `json:"price"`
	PriceInPurchasedCurrency *Amount `json:"price_in_purchased_currency"`
}

// Amount is a price that may arrive as a JSON number or a decimal string.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("invalid price: %w", err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", str, err)
		}
		*a = Amount(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}
	*a = Amount(v)
	return nil
}

// ParseInvocation decodes a raw trigger payload. A payload whose detail-type
// is ScheduledDetailType yields a scheduled invocation; anything else must
// carry an event (directly or inside a body string) or the parse fails with
// subpulse.ErrMissingEvent.
func ParseInvocation(raw []byte) (*Invocation, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}

	if env.DetailType == ScheduledDetailType {
		return &Invocation{Scheduled: true}, nil
	}

	if env.Body != "" {
		var inner envelope
		if err := json.Unmarshal([]byte(env.Body), &inner); err != nil {
			return nil, fmt.Errorf("failed to parse payload body: %w", err)
		}
		env.Event = inner.Event
	}

	if env.Event == nil {
		return nil, subpulse.ErrMissingEvent
	}

	return &Invocation{Event: env.Event.toBillingEvent()}, nil
}

func (e *eventPayload) toBillingEvent() *subpulse.BillingEvent {
	ev := &subpulse.BillingEvent{
		Type:         e.Type,
		ProductID:    e.ProductID,
		NewProductID: e.NewProductID,
		UserID:       e.AppUserID,
		Platform:     subpulse.NormalizePlatform(e.Store),
	}

	// price_in_purchased_currency wins over the generic price field.
	if e.PriceInPurchasedCurrency != nil {
		price := float64(*e.PriceInPurchasedCurrency)
		ev.Price = &price
	} else if e.Price != nil {
		price := float64(*e.Price)
		ev.Price = &price
	}
	return ev
}
