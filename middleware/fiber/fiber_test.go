package fiber

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/mihaimyh/subpulse/pkg/api"
	"github.com/mihaimyh/subpulse/pkg/subpulse"
	"github.com/mihaimyh/subpulse/storage/memory"
)

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) SendMessage(_ context.Context, text string) error {
	n.messages = append(n.messages, text)
	return nil
}

// Test helper to create a handler backed by in-memory storage
func setupTestHandler(t *testing.T) (*api.Handler, *fakeNotifier) {
	t.Helper()

	tracker, err := subpulse.NewTracker(memory.New(), nil)
	if err != nil {
		t.Fatalf("Failed to create tracker: %v", err)
	}

	notifier := &fakeNotifier{}
	handler, err := api.NewHandler(api.Config{Tracker: tracker, Notifier: notifier})
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}
	return handler, notifier
}

func TestWebhook(t *testing.T) {
	handler, notifier := setupTestHandler(t)

	app := fiber.New()
	app.Post("/webhooks/revenuecat", Webhook(handler))

	payload := `{"event": {"type": "CANCELLATION", "store": "APP_STORE", "product_id": "pro_monthly"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/revenuecat", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if !strings.Contains(string(body), "message sent to Telegram successfully") {
		t.Errorf("Unexpected response body: %s", body)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "CANCELLATION (IOS)") {
		t.Errorf("Unexpected notification: %q", notifier.messages[0])
	}
}

func TestWebhook_MissingEvent(t *testing.T) {
	handler, _ := setupTestHandler(t)

	app := fiber.New()
	app.Post("/webhooks/revenuecat", Webhook(handler))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/revenuecat", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", resp.StatusCode)
	}
}

func TestReport(t *testing.T) {
	handler, notifier := setupTestHandler(t)

	app := fiber.New()
	app.Post("/reports/daily", Report(handler))

	req := httptest.NewRequest(http.MethodPost, "/reports/daily", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "DAILY SUMMARY") {
		t.Errorf("Unexpected notification: %q", notifier.messages[0])
	}
}

func TestWebhook_NilHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for nil handler")
		}
	}()
	Webhook(nil)
}
