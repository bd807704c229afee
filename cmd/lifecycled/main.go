// Command lifecycled runs the product lifecycle ledger as a standalone node
// with an HTTP API, pebble storage and optional Kafka event delivery.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/config"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/events"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/httpapi"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/logging"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/metrics"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/service"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogMode, os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("lifecycled stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := metrics.NewRegistry()

	g, gctx := errgroup.WithContext(ctx)

	// The publisher outlives the HTTP server so events of in-flight
	// requests are still flushed.
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()

	var (
		publisher events.Publisher
		kp        *events.KafkaPublisher
	)
	if cfg.Events.Kafka.Brokers != "" {
		kp = events.NewKafkaPublisher(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic, cfg.Events.Buffer,
			logger.Named("events"), reg)
		publisher = kp
	} else {
		publisher = events.NewLogPublisher(logger.Named("events"))
	}

	svc := service.New(st, publisher,
		service.WithMetrics(reg),
		service.WithLogger(logger.Named("ledger")),
	)
	if err := svc.Bootstrap(ledger.Principal(cfg.Admin)); err != nil {
		return err
	}

	// Bootstrap events are buffered until the publisher starts.
	if kp != nil {
		g.Go(func() error { return kp.Run(pubCtx) })
		logger.Info("publishing events to kafka",
			zap.String("brokers", cfg.Events.Kafka.Brokers),
			zap.String("topic", cfg.Events.Kafka.Topic))
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Handler:        httpapi.NewHandler(svc),
			MetricsHandler: reg.Handler(),
			Logger:         logger.Named("http"),
		}),
	}

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopPublisher()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
