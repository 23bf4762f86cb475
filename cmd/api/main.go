package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/quickchat/backend/internal/config"
	"github.com/zhouzirui/quickchat/backend/internal/handler"
	"github.com/zhouzirui/quickchat/backend/internal/service/ai"
	"github.com/zhouzirui/quickchat/backend/internal/service/chat"
	"github.com/zhouzirui/quickchat/backend/internal/store"
	"github.com/zhouzirui/quickchat/backend/internal/store/postgres"
	"github.com/zhouzirui/quickchat/backend/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env 文件可选，缺失时只使用系统环境变量
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := newProvider(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}

	chatSvc := chat.NewService(st, provider, logger)
	router := handler.NewRouter(chatSvc, cfg.Server.AllowedOrigins, logger)

	return startServer(ctx, cfg.Server, router, logger)
}

// openStore 根据 STORE_DRIVER 选择持久化后端。
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		logger.Info("using postgres message store")
		return pg, pg.Close, nil
	case config.DriverSQLite:
		lite, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("using sqlite message store", zap.String("path", cfg.SQLitePath))
		return lite, func() {
			if err := lite.Close(); err != nil {
				logger.Warn("failed to close sqlite store", zap.Error(err))
			}
		}, nil
	default:
		logger.Info("using in-memory message store; messages are lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}
}

// newProvider 初始化补全提供方。缺少凭证时直接失败，不降级。
func newProvider(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (ai.Provider, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("completion provider %q is not configured, check the model credentials", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		p, err := ai.NewGeminiProvider(ctx, ai.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini provider: %w", err)
		}
		logger.Info("completion provider ready", zap.String("provider", "gemini"), zap.String("model", cfg.GeminiModel))
		return p, nil
	default:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create ark chat model: %w", err)
		}
		svc, err := ai.NewService(ctx, chatModel, cfg.Timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ark provider: %w", err)
		}
		logger.Info("completion provider ready", zap.String("provider", "ark"), zap.String("model", cfg.Model))
		return svc, nil
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("quickchat backend listening", zap.String("addr", serverCfg.Addr))
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
