package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by the health endpoint; set at link time.
var Version = "dev"

// HealthHandler returns a basic liveness check with the theaters
// currently held in memory.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		loaded := []string{}
		if deps.Frontlines != nil {
			loaded = deps.Frontlines.Loaded()
		}
		return c.JSON(fiber.Map{
			"status":          "healthy",
			"uptime":          time.Since(startedAt).String(),
			"version":         Version,
			"theaters_loaded": loaded,
		})
	}
}

// readiness collects named check results.
type readiness struct {
	checks map[string]string
	ok     bool
}

func (r *readiness) record(name string, err error, okMsg string) {
	if err != nil {
		r.checks[name] = "error: " + err.Error()
		r.ok = false
		return
	}
	r.checks[name] = okMsg
}

// ReadyHandler reports ready once every configured theater loads with at
// least one snapshot and the optional backends answer. A backend that is
// not configured does not make the service unready.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		r := &readiness{checks: map[string]string{}, ok: true}

		for _, theater := range deps.Theaters {
			store, err := deps.Frontlines.Store(ctx, theater)
			msg := ""
			if err == nil {
				msg = fmt.Sprintf("ok: %d snapshots, %d warnings", store.Len(), len(store.Warnings()))
			}
			r.record("theater:"+theater, err, msg)
		}

		switch {
		case deps.DB == nil:
			r.checks["archive"] = "not configured"
		default:
			r.record("archive", deps.DB.Pool.Ping(ctx), "ok")
		}

		switch {
		case deps.NATS == nil:
			r.checks["events"] = "not configured"
		case !deps.NATS.IsConnected():
			r.record("events", fmt.Errorf("disconnected"), "")
		default:
			r.checks["events"] = "ok"
		}

		switch {
		case deps.Cache == nil:
			r.checks["cache"] = "not configured"
		default:
			r.record("cache", deps.Cache.Ping(ctx), "ok")
		}

		if !r.ok {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": r.checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": r.checks})
	}
}
