package bootstrap

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/venuescout/auth-service/internal/adapters/cache"
	eventadapter "github.com/venuescout/auth-service/internal/adapters/events"
	httpadapter "github.com/venuescout/auth-service/internal/adapters/http"
	"github.com/venuescout/auth-service/internal/adapters/postgres"
	"github.com/venuescout/auth-service/internal/adapters/security"
	"github.com/venuescout/auth-service/internal/application"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	audit      *eventadapter.AuditDispatcher
	retention  *eventadapter.RetentionWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping auth service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	encryptionKey, err := hex.DecodeString(cfg.EncryptionKeyHex)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	cipher, err := security.NewAESGCMCipher(encryptionKey)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init secret cipher: %w", err)
	}
	tokenSigner, err := security.NewJWTSigner(cfg.SigningSecret)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	audit := eventadapter.NewAuditDispatcher(repos.Audit, cfg.AuditBufferSize)

	rateLimits := make(map[string]application.RateLimitPolicy, len(cfg.RateLimits))
	for class, setting := range cfg.RateLimits {
		rateLimits[class] = application.RateLimitPolicy{
			Limit:  int64(setting.Limit),
			Window: setting.Window,
		}
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			DefaultRole:     cfg.DefaultRole,
			Issuer:          cfg.Issuer,
			AppBaseURL:      cfg.AppBaseURL,
			SessionTTL:      cfg.SessionTTL,
			MagicLinkTTL:    cfg.MagicLinkTTL,
			BackupCodeCount: cfg.BackupCodeCount,
			RateLimits:      rateLimits,
		},
		Identities:       repos.Identities,
		MagicLinks:       repos.MagicLinks,
		BackupCodes:      repos.BackupCodes,
		Sessions:         repos.Sessions,
		RateLimitRecords: repos.RateLimitRecords,
		OAuthConnections: repos.OAuthConnections,
		RateCounters:     cacheadapter.NewRedisRateCounterStore(redisClient),
		Revocations:      cacheadapter.NewRedisSessionRevocationStore(redisClient),
		OAuthState:       cacheadapter.NewRedisOAuthStateStore(redisClient),
		OAuthExchanger: security.NewHTTPOAuthExchanger(security.OAuthExchangerConfig{
			HTTPClient:   &http.Client{Timeout: cfg.OAuthHTTPTimeout},
			Provider:     cfg.OAuthProvider,
			TokenURL:     cfg.OAuthTokenURL,
			UserInfoURL:  cfg.OAuthUserInfoURL,
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURI:  cfg.OAuthRedirectURI,
		}),
		Cipher:      cipher,
		Hasher:      security.NewBcryptHasher(cfg.BcryptCost),
		TokenSigner: tokenSigner,
		TOTP:        security.NewTOTPEngine(cfg.Issuer, uint(cfg.TOTPSkew)),
		Tokens:      security.RandomTokenGenerator{},
		Mailer:      eventadapter.NewLoggingMailer(),
		Audit:       audit,
	})

	readyCheck := func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}

	handler := httpadapter.NewHandler(svc, cfg.SecureCookies, readyCheck)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	retention := eventadapter.NewRetentionWorker(
		logger,
		repos.MagicLinks,
		repos.Sessions,
		repos.RateLimitRecords,
		cfg.RetentionInterval,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		audit:      audit,
		retention:  retention,
		cleanupFn: func(ctx context.Context) {
			audit.Close()
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("retention worker started")
	err := r.retention.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
