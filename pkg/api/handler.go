// Package api routes inbound invocations - webhook events and the scheduled
// daily report trigger - through classification, aggregation and dispatch.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mihaimyh/subpulse/pkg/revenuecat"
	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

// MaxPayloadBytes caps inbound webhook payloads. RevenueCat payloads are
// typically well under 100KB.
const MaxPayloadBytes = 256 * 1024

const (
	triggerWebhook   = "webhook"
	triggerScheduled = "scheduled"
	statusSuccess    = "success"
	statusError      = "error"
)

// Handler processes webhook and scheduled invocations. Each invocation is
// independent and short-lived; state lives entirely in the tracker's storage.
type Handler struct {
	tracker  *subpulse.Tracker
	notifier Notifier
	logger   subpulse.Logger
	metrics  subpulse.Metrics
}

// NewHandler creates a Handler from config.
func NewHandler(config Config) (*Handler, error) {
	if config.Tracker == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	if config.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = &subpulse.NoopLogger{}
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = &subpulse.NoopMetrics{}
	}

	return &Handler{
		tracker:  config.Tracker,
		notifier: config.Notifier,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// HandleInvocation routes a raw trigger payload and always returns a
// Response; a 500 carries the error description in Body. A dispatch failure
// alone does not fail the invocation: the counter update already succeeded
// and a missed chat message is an accepted inconsistency.
func (h *Handler) HandleInvocation(ctx context.Context, payload []byte) Response {
	start := time.Now()

	inv, err := revenuecat.ParseInvocation(payload)
	if err != nil {
		h.logger.Error("failed to parse invocation", subpulse.Field{Key: "error", Value: err.Error()})
		h.metrics.RecordInvocation(triggerWebhook, statusError)
		return errorResponse(err)
	}

	if inv.Scheduled {
		return h.handleScheduled(ctx, start)
	}
	return h.handleEvent(ctx, start, inv.Event)
}

// HandleScheduled runs the daily report flow directly, without decoding a
// trigger payload. Framework adapters use it for cron-style endpoints.
func (h *Handler) HandleScheduled(ctx context.Context) Response {
	return h.handleScheduled(ctx, time.Now())
}

func (h *Handler) handleScheduled(ctx context.Context, start time.Time) Response {
	date := h.tracker.CurrentDate()

	report, err := h.tracker.Render(ctx, date)
	if err != nil {
		h.logger.Error("failed to render daily report",
			subpulse.Field{Key: "date", Value: date},
			subpulse.Field{Key: "error", Value: err.Error()})
		h.metrics.RecordInvocation(triggerScheduled, statusError)
		return errorResponse(err)
	}

	h.dispatch(ctx, report)
	h.metrics.RecordInvocation(triggerScheduled, statusSuccess)
	h.metrics.RecordInvocationDuration(triggerScheduled, time.Since(start))
	return Response{StatusCode: http.StatusOK, Body: "daily summary sent to Telegram successfully"}
}

func (h *Handler) handleEvent(ctx context.Context, start time.Time, ev *subpulse.BillingEvent) Response {
	upd, text, err := subpulse.Classify(ev)
	if err != nil {
		h.logger.Error("failed to classify event",
			subpulse.Field{Key: "type", Value: ev.Type},
			subpulse.Field{Key: "error", Value: err.Error()})
		h.metrics.RecordInvocation(triggerWebhook, statusError)
		return errorResponse(err)
	}

	date := h.tracker.CurrentDate()
	if _, err := h.tracker.Apply(ctx, date, upd); err != nil {
		h.logger.Error("failed to update aggregate",
			subpulse.Field{Key: "date", Value: date},
			subpulse.Field{Key: "error", Value: err.Error()})
		h.metrics.RecordInvocation(triggerWebhook, statusError)
		return errorResponse(err)
	}

	h.dispatch(ctx, text)
	h.metrics.RecordInvocation(triggerWebhook, statusSuccess)
	h.metrics.RecordInvocationDuration(triggerWebhook, time.Since(start))
	return Response{StatusCode: http.StatusOK, Body: "message sent to Telegram successfully"}
}

// dispatch sends text to the notifier. Failures are logged and counted, never
// propagated; there is no retry and no rollback of the counter update.
func (h *Handler) dispatch(ctx context.Context, text string) {
	if err := h.notifier.SendMessage(ctx, text); err != nil {
		h.logger.Error("failed to dispatch notification", subpulse.Field{Key: "error", Value: err.Error()})
		h.metrics.RecordDispatchError("send_failed")
	}
}

func errorResponse(err error) Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body:       fmt.Sprintf("error processing request: %v", err),
	}
}

// WebhookHandler returns an http.Handler for the inbound webhook endpoint.
// It accepts POST only and caps the body at MaxPayloadBytes.
func (h *Handler) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxPayloadBytes)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		writeResponse(w, h.HandleInvocation(r.Context(), body))
	})
}

// ReportHandler returns an http.Handler that triggers the daily report, for
// cron-style schedulers that call back over HTTP.
func (h *Handler) ReportHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		writeResponse(w, h.HandleScheduled(r.Context()))
	})
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		// Response already sent, nothing left to do.
		_ = err
	}
}
