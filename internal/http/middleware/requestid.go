package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates request IDs across service boundaries.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is where the request ID lives in Fiber's context locals.
	RequestIDLocalKey = "request_id"

	// maxInboundIDLen caps how much of a caller-supplied ID we accept.
	maxInboundIDLen = 128
)

// RequestID ensures every request carries an ID: a caller-supplied
// X-Request-ID is reused (truncated if oversized), otherwise a UUID is
// generated. The ID is stored in context locals and echoed on the
// response so logs, error envelopes, and clients all agree on it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if len(id) > maxInboundIDLen {
			id = id[:maxInboundIDLen]
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
