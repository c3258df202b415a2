package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ww1air/frontlines/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`           // Error code: bad_request, not_found, internal_error, etc.
	Kind      string `json:"kind,omitempty"` // domain error kind, e.g. DegenerateGeometry
	Message   string `json:"message"`        // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// StatusOf maps a domain error kind to its HTTP status and code.
func StatusOf(kind string) (int, string) {
	switch kind {
	case "InvalidPeriod", "InvalidTheater", "InvalidAngleFormat", "AxisMismatch", "OutOfRange":
		return 400, "bad_request"
	case "EmptyTheater", "NotFound":
		return 404, "not_found"
	case "DegenerateGeometry", "UnsupportedTopology", "InsufficientGeometry", "DuplicateDate":
		return 422, "unprocessable_entity"
	default:
		return 500, "internal_error"
	}
}

// errDomain writes err with the status of its domain kind.
func errDomain(c *fiber.Ctx, err error) error {
	kind := domain.ErrorKind(err)
	status, code := StatusOf(kind)
	if status >= 500 {
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "kind", kind, "error", err)
	}
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Kind:      kind,
		Message:   err.Error(),
		RequestID: reqID,
	})
}
