package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-parcel-ledger/internal/config"
	kafkax "github.com/ariefcatur/go-parcel-ledger/internal/kafka"
	"github.com/ariefcatur/go-parcel-ledger/internal/logger"
	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/postgres"
	"github.com/ariefcatur/go-parcel-ledger/internal/redisx"
	"github.com/ariefcatur/go-parcel-ledger/internal/tracker"
)

// noEvents drops events; the warmer only reads.
type noEvents struct{}

func (noEvents) Emit([]byte, orders.Envelope) {}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.ServiceName+"-cachewarmer")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := tracker.NewService(
		&postgres.Store{DB: db},
		redisx.NewSnapshotCache(rdb, cfg.SnapshotTTL),
		noEvents{},
		config.Preferences{},
		zl,
		cfg.ServiceName,
	)
	w := &tracker.Warmer{Service: svc, Redis: rdb, Name: cfg.WarmerGroup, Log: zl}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WarmerGroup, orders.TopicLedgerChanged, cfg.WarmerWorkers, zl)
	go func() {
		zl.Info("cache warmer started",
			zap.String("group", cfg.WarmerGroup), zap.String("topic", orders.TopicLedgerChanged), zap.Int("workers", cfg.WarmerWorkers))
		if err := cons.Start(ctx, w.Handle); err != nil {
			zl.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	zl.Info("shutting down consumer")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
