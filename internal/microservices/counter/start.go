package counter

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"

	"coffeeshop-counter/internal/common/cache"
	"coffeeshop-counter/internal/common/httpx"
	"coffeeshop-counter/internal/common/logger"
	"coffeeshop-counter/internal/config"
	"coffeeshop-counter/internal/microservices/counter/catalog"
	"coffeeshop-counter/internal/microservices/counter/events"
	"coffeeshop-counter/internal/microservices/counter/handlers"
	"coffeeshop-counter/internal/microservices/counter/repository"
	"coffeeshop-counter/internal/microservices/counter/service"
)

// NewHandler assembles the counter from its collaborators. c and publisher
// may be nil.
func NewHandler(cfg *config.Config, db *sqlx.DB, c cache.Cache, publisher events.TicketPublisher) http.Handler {
	repo := repository.New(db, c, cfg.Redis.IdempotencyTTL)
	resolver := catalog.NewClient(cfg.Catalog, nil)
	svc := service.New(repo, resolver, publisher)
	return handlers.Router(handlers.New(svc), cfg.App.RequestTimeout)
}

// Run serves the counter API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, db *sqlx.DB, c cache.Cache, publisher events.TicketPublisher) error {
	lg := logger.New("counter-service")
	srv := httpx.New(cfg.App.Addr(), NewHandler(cfg, db, c, publisher))

	lg.Info("service_started", map[string]any{
		"addr":        cfg.App.Addr(),
		"catalog":     cfg.Catalog.BaseURL,
		"idempotency": c != nil,
		"tickets":     cfg.RabbitMQ.Enabled(),
	})
	if err := srv.Run(ctx); err != nil {
		lg.Error("server_failed", err, nil)
		return err
	}
	lg.Info("service_stopped", nil)
	return nil
}
