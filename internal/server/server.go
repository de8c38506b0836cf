package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"banking-service/internal/config"
	"banking-service/internal/middleware"
	"banking-service/internal/pub"
	"banking-service/internal/repository"
	"banking-service/internal/repository/memory"
	mongorepo "banking-service/internal/repository/mongo"
	"banking-service/internal/repository/postgres"
	"banking-service/internal/router"
	"banking-service/internal/usecase"
	"banking-service/pkg/cache"
	"banking-service/pkg/jwtutil"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type Server struct {
	cfg        config.AppConfig
	logger     *zap.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	closers    []func(ctx context.Context) error
}

// New connects the configured backends and wires the HTTP and gRPC servers.
func New(cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, store.Close)

	var (
		accountCache usecase.Cache
		publishers   pub.Multi
		rateLimit    func(http.Handler) http.Handler
	)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPass,
			PoolSize:     50,
			MinIdleConns: 5,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr := rdb.Ping(ctx).Err()
		cancel()

		if pingErr != nil {
			logger.Warn("redis unavailable, caching, rate limiting and pub/sub disabled", zap.Error(pingErr))
			_ = rdb.Close()
		} else {
			accountCache = cache.New(rdb, "banking")
			publishers = append(publishers, pub.NewTransactionEventPublisher(rdb, logger))
			rateLimit = middleware.RateLimiter(rdb, cfg.RateLimit, cfg.RateWindow, cfg.RateWindow, "rl:banking")
			s.closers = append(s.closers, func(context.Context) error { return rdb.Close() })
			logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		writer := pub.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publishers = append(publishers, pub.NewKafkaPublisher(writer))
		s.closers = append(s.closers, func(context.Context) error { return writer.Close() })
		logger.Info("kafka writer initialized",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	var publisher usecase.EventPublisher
	if len(publishers) > 0 {
		publisher = publishers
	}

	tokens := jwtutil.NewManager(cfg.JWT)
	accountUC := usecase.NewAccountUsecase(store.Accounts, usecase.NewAccountNumberGenerator(), accountCache, logger)
	transactionUC := usecase.NewTransactionUsecase(store, publisher, accountCache, cfg.TxTimeout, logger)

	r := router.New(router.Deps{
		Accounts:     accountUC,
		Transactions: transactionUC,
		Tokens:       tokens,
		Logger:       logger,
		RateLimit:    rateLimit,
		DevTokens:    !cfg.IsProduction(),
	})

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.grpcServer, s.health = newGRPCServer(logger)

	return s, nil
}

func openStore(cfg config.AppConfig, logger *zap.Logger) (*repository.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return openPostgres(cfg.DB, logger)

	case config.BackendMongo:
		client, err := config.ConnectMongo(cfg.MongoURI, logger)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := mongorepo.EnsureIndexes(ctx, client.Database(cfg.MongoDB)); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return mongorepo.NewStore(client, cfg.MongoDB), nil

	case config.BackendMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(memory.New()), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

var (
	connectPostgres = config.ConnectDB
	migratePostgres = config.RunMigrations
)

// openPostgres waits for the database through the connect retry loop before migrating.
func openPostgres(cfg config.DBConfig, logger *zap.Logger) (*repository.Store, error) {
	pool, err := connectPostgres(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := migratePostgres(cfg, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return postgres.NewStore(pool), nil
}

// ListenAndServe blocks until either listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	go func() {
		lis, err := net.Listen("tcp", s.cfg.GRPCAddr)
		if err != nil {
			errCh <- fmt.Errorf("failed to listen on %s: %w", s.cfg.GRPCAddr, err)
			return
		}
		s.logger.Info("grpc server listening", zap.String("addr", s.cfg.GRPCAddr))
		if err := s.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
			return
		}
		errCh <- nil
	}()

	return <-errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	errs := []error{s.httpServer.Shutdown(ctx)}

	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}

	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	return errors.Join(errs...)
}
