// Package echo provides Echo handlers for mounting the webhook receiver
package echo

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mihaimyh/subpulse/pkg/api"
)

// Webhook returns an Echo handler that feeds the request body to the
// invocation handler.
func Webhook(h *api.Handler) echo.HandlerFunc {
	if h == nil {
		panic("subpulse/echo: handler is required")
	}

	return func(c echo.Context) error {
		body, err := io.ReadAll(io.LimitReader(c.Request().Body, api.MaxPayloadBytes))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}

		resp := h.HandleInvocation(c.Request().Context(), body)
		return c.JSON(resp.StatusCode, resp)
	}
}

// Report returns an Echo handler that triggers the daily report.
func Report(h *api.Handler) echo.HandlerFunc {
	if h == nil {
		panic("subpulse/echo: handler is required")
	}

	return func(c echo.Context) error {
		resp := h.HandleScheduled(c.Request().Context())
		return c.JSON(resp.StatusCode, resp)
	}
}
