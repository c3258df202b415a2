package http

import (
	"github.com/nats-io/nats.go"

	"github.com/ww1air/frontlines/internal/adapters/postgres"
	"github.com/ww1air/frontlines/internal/adapters/valkey"
	"github.com/ww1air/frontlines/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// Only Frontlines is required.
type Dependencies struct {
	Frontlines *usecases.FrontlineService
	Theaters   []string // must load for /v1/ready to report ready
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
}
