// Package gin provides Gin handlers for mounting the webhook receiver
package gin

import (
	"io"
	"net/http"

	gongin "github.com/gin-gonic/gin"

	"github.com/mihaimyh/subpulse/pkg/api"
)

// Webhook returns a Gin handler that feeds the request body to the
// invocation handler.
func Webhook(h *api.Handler) gongin.HandlerFunc {
	if h == nil {
		panic("subpulse/gin: handler is required")
	}

	return func(c *gongin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, api.MaxPayloadBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gongin.H{"error": "invalid payload"})
			return
		}

		resp := h.HandleInvocation(c.Request.Context(), body)
		c.JSON(resp.StatusCode, resp)
	}
}

// Report returns a Gin handler that triggers the daily report.
func Report(h *api.Handler) gongin.HandlerFunc {
	if h == nil {
		panic("subpulse/gin: handler is required")
	}

	return func(c *gongin.Context) {
		resp := h.HandleScheduled(c.Request.Context())
		c.JSON(resp.StatusCode, resp)
	}
}
