package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
	"github.com/mihaimyh/subpulse/storage/memory"
)

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) SendMessage(_ context.Context, text string) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, text)
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestHandler(t *testing.T, notifier Notifier) (*Handler, *memory.Storage) {
	t.Helper()

	storage := memory.New()
	tracker, err := subpulse.NewTracker(storage, &subpulse.Config{
		Clock: fixedClock{t: time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	handler, err := NewHandler(Config{Tracker: tracker, Notifier: notifier})
	require.NoError(t, err)
	return handler, storage
}

func TestNewHandlerValidation(t *testing.T) {
	tracker, err := subpulse.NewTracker(memory.New(), nil)
	require.NoError(t, err)

	_, err = NewHandler(Config{Notifier: &fakeNotifier{}})
	assert.Error(t, err, "missing tracker")

	_, err = NewHandler(Config{Tracker: tracker})
	assert.Error(t, err, "missing notifier")
}

func TestHandleInvocationPurchase(t *testing.T) {
	notifier := &fakeNotifier{}
	handler, storage := newTestHandler(t, notifier)

	payload := `{"event": {
		"type": "INITIAL_PURCHASE",
		"product_id": "pro_monthly",
		"app_user_id": "user-1",
		"store": "APP_STORE",
		"price": 49000
	}}`

	resp := handler.HandleInvocation(context.Background(), []byte(payload))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "message sent to Telegram successfully", resp.Body)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "NEW PURCHASE (IOS)")
	assert.Contains(t, notifier.messages[0], "pro_monthly")
	assert.Contains(t, notifier.messages[0], "Rp49,000")

	agg, err := storage.GetAggregate(context.Background(), "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, int64(1), agg.IOS.InitialPurchases)
	assert.Equal(t, int64(49000), agg.IOS.TotalRevenue)
}

func TestHandleInvocationMissingEvent(t *testing.T) {
	handler, storage := newTestHandler(t, &fakeNotifier{})

	resp := handler.HandleInvocation(context.Background(), []byte(`{}`))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, "error processing request")

	agg, err := storage.GetAggregate(context.Background(), "2025-03-10")
	require.NoError(t, err)
	assert.Nil(t, agg, "a failed invocation must not write a record")
}

func TestHandleInvocationMissingPrice(t *testing.T) {
	handler, storage := newTestHandler(t, &fakeNotifier{})

	payload := `{"event": {"type": "RENEWAL", "store": "APP_STORE"}}`
	resp := handler.HandleInvocation(context.Background(), []byte(payload))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	agg, err := storage.GetAggregate(context.Background(), "2025-03-10")
	require.NoError(t, err)
	assert.Nil(t, agg)
}

func TestHandleInvocationDispatchFailureStillSucceeds(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	handler, storage := newTestHandler(t, notifier)

	payload := `{"event": {"type": "INITIAL_PURCHASE", "store": "PLAY_STORE", "price": 10000}}`
	resp := handler.HandleInvocation(context.Background(), []byte(payload))

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	agg, err := storage.GetAggregate(context.Background(), "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, agg, "counter update survives a dispatch failure")
	assert.Equal(t, int64(1), agg.Android.InitialPurchases)
}

func TestHandleInvocationUnrecognizedEvent(t *testing.T) {
	notifier := &fakeNotifier{}
	handler, storage := newTestHandler(t, notifier)

	payload := `{"event": {"type": "BILLING_ISSUE", "store": "APP_STORE", "app_user_id": "user-9"}}`
	resp := handler.HandleInvocation(context.Background(), []byte(payload))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "UNRECOGNIZED EVENT")

	agg, err := storage.GetAggregate(context.Background(), "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, subpulse.PlatformCounters{}, agg.Totals())
}

func TestHandleInvocationScheduled(t *testing.T) {
	notifier := &fakeNotifier{}
	handler, _ := newTestHandler(t, notifier)

	resp := handler.HandleInvocation(context.Background(), []byte(`{"detail-type": "Scheduled Event"}`))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "daily summary sent to Telegram successfully", resp.Body)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "DAILY SUMMARY • 2025-03-10")
	assert.Contains(t, notifier.messages[0], "Rp0")
}

func TestScheduledReportDoesNotResetCounters(t *testing.T) {
	notifier := &fakeNotifier{}
	handler, storage := newTestHandler(t, notifier)
	ctx := context.Background()

	payload := `{"event": {"type": "RENEWAL", "store": "APP_STORE", "price": 25000}}`
	resp := handler.HandleInvocation(ctx, []byte(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = handler.HandleScheduled(ctx)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	agg, err := storage.GetAggregate(ctx, "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, int64(1), agg.IOS.Renewals)
	assert.Equal(t, int64(25000), agg.IOS.TotalRevenue)
}

func TestWebhookHandler(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeNotifier{})

	payload := `{"event": {"type": "INITIAL_PURCHASE", "store": "APP_STORE", "price": 49000}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/revenuecat", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.WebhookHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"statusCode":200`)
	assert.Contains(t, rec.Body.String(), "message sent to Telegram successfully")
}

func TestWebhookHandlerRejectsGet(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/revenuecat", nil)
	rec := httptest.NewRecorder()

	handler.WebhookHandler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReportHandler(t *testing.T) {
	notifier := &fakeNotifier{}
	handler, _ := newTestHandler(t, notifier)

	req := httptest.NewRequest(http.MethodPost, "/reports/daily", nil)
	rec := httptest.NewRecorder()

	handler.ReportHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "DAILY SUMMARY")
}
