package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-parcel-ledger/internal/config"
	"github.com/ariefcatur/go-parcel-ledger/internal/httpx"
	kafkax "github.com/ariefcatur/go-parcel-ledger/internal/kafka"
	"github.com/ariefcatur/go-parcel-ledger/internal/logger"
	"github.com/ariefcatur/go-parcel-ledger/internal/orders"
	"github.com/ariefcatur/go-parcel-ledger/internal/postgres"
	"github.com/ariefcatur/go-parcel-ledger/internal/redisx"
	"github.com/ariefcatur/go-parcel-ledger/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			zl.Fatal("db migrate", zap.Error(err))
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prefs, err := config.LoadPreferences(cfg.PrefsFile)
	if err != nil {
		zl.Fatal("preferences", zap.Error(err))
	}

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicLedgerChanged, 1024, zl)
	prod.Start(ctx)

	svc := tracker.NewService(
		&postgres.Store{DB: db},
		redisx.NewSnapshotCache(rdb, cfg.SnapshotTTL),
		prod,
		prefs,
		zl,
		cfg.ServiceName,
	)

	router := httpx.NewRouter()
	h := &httpx.LedgerHandler{Ledger: svc, BaseCurrency: cfg.BaseCurrency, Log: zl}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		zl.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zl.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // flush queued events, then close the writer
	cancel()
	prod.WaitClosed()
}
