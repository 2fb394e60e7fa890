package api

import (
	"context"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

// Notifier dispatches a rendered notification to the chat channel.
// pkg/telegram provides the production implementation.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
}

// Config holds handler configuration.
type Config struct {
	// Tracker is the daily aggregate tracker (required).
	Tracker *subpulse.Tracker

	// Notifier delivers notifications (required).
	Notifier Notifier

	// Logger receives structured logs. If nil, logging is disabled.
	Logger subpulse.Logger

	// Metrics receives invocation counters. If nil, metrics are silently
	// ignored.
	Metrics subpulse.Metrics
}
