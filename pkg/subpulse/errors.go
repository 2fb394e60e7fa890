package subpulse

import "errors"

var (
	// ErrMissingEvent is returned when a webhook payload carries no event data
	ErrMissingEvent = errors.New("no event data in webhook payload")

	// ErrMissingPrice is returned when a purchase or renewal event has no price
	ErrMissingPrice = errors.New("missing price")

	// ErrStorageUnavailable is returned when the aggregate store cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")
)
