package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coffeeshop-counter/internal/common/cache"
	"coffeeshop-counter/internal/common/logger"
	"coffeeshop-counter/internal/common/telemetry"
	"coffeeshop-counter/internal/config"
	"coffeeshop-counter/internal/connections/database"
	"coffeeshop-counter/internal/connections/rabbitmq"
	"coffeeshop-counter/internal/microservices/counter"
	"coffeeshop-counter/internal/microservices/counter/events"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (default: config.yaml if present)")
	port := flag.Int("port", 0, "http port, overrides config and APP_PORT")
	flag.Parse()

	if err := run(*cfgPath, *port); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string, port int) error {
	if cfgPath == "" {
		p, err := config.FindConfig()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	if port != 0 {
		cfg.App.Port = port
	}

	logger.Setup(os.Stdout, cfg.App.LogLevel)
	lg := logger.New("bootstrap")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry setup error: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			lg.Error("telemetry_shutdown_failed", err, nil)
		}
	}()

	// DB connect
	db, err := database.ConnectDB(ctx, cfg.Database, database.Options{})
	if err != nil {
		return fmt.Errorf("db connect error: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("db migrate error: %w", err)
	}
	lg.Info("db_connected", map[string]any{"driver": db.DriverName()})

	// Redis (optional)
	var c cache.Cache
	if cfg.Redis.Enabled() {
		c = cache.NewRedisCache(cfg.Redis.Addr, cfg.Telemetry.ServiceName)
		defer c.Close()
		lg.Info("redis_configured", map[string]any{"addr": cfg.Redis.Addr})
	}

	// Rabbit connect (optional)
	var publisher events.TicketPublisher = events.NopPublisher{}
	if cfg.RabbitMQ.Enabled() {
		rmq, err := rabbitmq.Dial(cfg.RabbitMQ, cfg.RabbitMQ.UseTLS)
		if err != nil {
			return fmt.Errorf("rabbitmq connect error: %w", err)
		}
		defer rmq.Close()
		if err := rmq.Ping(); err != nil {
			return fmt.Errorf("rabbitmq connect error: %w", err)
		}
		if err := rmq.DeclareTicketTopology(cfg.RabbitMQ.Exchange, events.BaristaStation, events.KitchenStation); err != nil {
			return fmt.Errorf("rabbitmq declare %s: %w", cfg.RabbitMQ.Exchange, err)
		}
		publisher = events.NewAMQPPublisher(rmq, cfg.RabbitMQ.Exchange)
		lg.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host, "exchange": cfg.RabbitMQ.Exchange, "tls": cfg.RabbitMQ.UseTLS})
	}

	return counter.Run(ctx, cfg, db, c, publisher)
}
