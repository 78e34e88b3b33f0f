package middleware

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger emits one JSON object per request to stdout after the handler
// chain finishes. It logs the route pattern alongside the raw path so
// dashboards can group by endpoint without exploding on IDs.
func Logger() fiber.Handler {
	return LoggerTo(os.Stdout)
}

// LoggerTo is Logger writing to the given sink; tests use it to capture output.
func LoggerTo(w io.Writer) fiber.Handler {
	enc := json.NewEncoder(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Collected after the handler so we see the final status.
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}

		_ = enc.Encode(map[string]any{
			"ts":         start.UTC().Format(time.RFC3339Nano),
			"level":      "info",
			"component":  "http",
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"route":      route,
			"status":     c.Response().StatusCode(),
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes_out":  len(c.Response().Body()),
		})

		return err
	}
}
