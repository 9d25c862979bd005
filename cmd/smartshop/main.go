// Command smartshop serves a single shopping session over gRPC. A separate
// HTTP port carries Prometheus metrics, a health probe and a JSON gateway.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bearuzish-arch/SmartShop/catalog"
	"github.com/bearuzish-arch/SmartShop/config"
	"github.com/bearuzish-arch/SmartShop/events"
	ledger "github.com/bearuzish-arch/SmartShop/ledger/logic"
	ledgerstore "github.com/bearuzish-arch/SmartShop/ledger/store"
	"github.com/bearuzish-arch/SmartShop/metrics"
	pricing "github.com/bearuzish-arch/SmartShop/pricing/logic"
	"github.com/bearuzish-arch/SmartShop/session"
	"github.com/bearuzish-arch/SmartShop/shop"
)

const Domain = "smartshop"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	tp, err := shop.InitTracerProvider(ctx, Domain, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	store, closeStore, err := openBalanceStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	l, err := ledger.Open(ctx, store, ledger.WithLogger(logger.Named("ledger")))
	if err != nil {
		return err
	}

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewShopMetrics(reg)

	// Carts and checkout are served while the catalog is still loading.
	live := catalog.NewLive(nil, nil)
	source := catalog.NewSource(nil, logger.Named("catalog"))
	go source.LoadInto(ctx, live, cfg.CatalogURL, cfg.ReviewsURL)

	sess := session.New(l,
		session.WithFees(pricing.Fees{Delivery: cfg.DeliveryFee, Shipping: cfg.ShippingFee}),
		session.WithCatalog(live),
		session.WithPublisher(publisher),
		session.WithMetrics(m),
		session.WithLogger(logger.Named("session")),
	)
	srv := &server{session: sess, catalog: live}

	loopback, err := grpc.NewClient("localhost:"+cfg.Port, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer loopback.Close()
	gw, err := newGateway(ctx, loopback)
	if err != nil {
		return err
	}

	ops := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           opsRouter(reg, gw),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("ops http listening", zap.String("addr", ops.Addr))
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops http failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ops.Shutdown(shutdownCtx)
	}()

	return shop.RunServer(ctx, shop.ServerConfig{
		Domain:  Domain,
		Port:    cfg.Port,
		Options: []grpc.ServerOption{grpc.ChainUnaryInterceptor(latencyInterceptor(m))},
	}, logger, func(s *grpc.Server) {
		RegisterShopServer(s, srv)
	})
}

// openBalanceStore picks Redis, then Postgres, then process memory.
func openBalanceStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ledger.Store, func(), error) {
	switch {
	case cfg.RedisAddr != "":
		rs := ledgerstore.NewRedisStore(cfg.RedisAddr, logger.Named("redis"))
		if err := rs.Initialize(ctx, 5); err != nil {
			_ = rs.Close()
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil

	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		ps := ledgerstore.NewPostgresStore(pool)
		if err := ps.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("postgres store ready")
		return ps, pool.Close, nil
	}

	logger.Warn("no durable store configured, balance will not survive restarts")
	return ledger.NewMemoryStore(), func() {}, nil
}

func newPublisher(cfg *config.Config, logger *zap.Logger) events.Publisher {
	brokers := events.ParseBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		return events.NopPublisher{}
	}
	logger.Info("publishing receipts to kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	return events.NewKafkaPublisher(events.NewKafkaWriter(brokers, cfg.KafkaTopic), logger.Named("events"))
}

// opsRouter serves /metrics, /healthz and the JSON gateway under /v1/.
func opsRouter(reg *prometheus.Registry, gateway http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.PathPrefix("/v1/").Handler(gateway)
	r.Handle("/metrics", metrics.Handler(reg)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}
