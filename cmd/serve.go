package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	config "todo-service.com/todo-service/internal/configs"
	httpapi "todo-service.com/todo-service/internal/http"
	middleware "todo-service.com/todo-service/internal/http/middlewares"
	"todo-service.com/todo-service/internal/profiles"
	repository "todo-service.com/todo-service/internal/repositories"
	"todo-service.com/todo-service/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Migrates the schema and serves the category and task API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}

		database, err := config.NewDatabaseClient(cfg.DatabaseDSN, logger)
		if err != nil {
			return err
		}
		if err := repository.Migrate(database); err != nil {
			return err
		}
		sqlDB, err := database.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		profileStack, err := newDirectory(cfg, logger)
		if err != nil {
			return err
		}
		defer profileStack.close()

		store := repository.NewStore(database)
		categoryRepo := repository.NewCategoryRepository(store)
		taskRepo := repository.NewTaskRepository(store)
		paging := services.Paging{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}

		taskService := services.NewTaskService(store, taskRepo, categoryRepo, profileStack.directory, paging, logger)
		categoryService := services.NewCategoryService(store, categoryRepo, taskRepo, taskService, paging, logger)

		tokens := middleware.NewTokenManager(middleware.TokenConfig{
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
			TTL:    cfg.JWTTTL,
		})

		e := echo.New()
		e.HideBanner = true
		handler := httpapi.NewHandler(categoryService, taskService, sqlDB.PingContext, profileStack.cacheState)
		httpapi.Register(e, handler, tokens, cfg.RateLimit, logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server stopped", "error", err)
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
			return err
		}

		logger.Info("HTTP server shut down gracefully")
		return nil
	},
}

type profileStack struct {
	directory  profiles.Directory
	cacheState func() string
	close      func()
}

// newDirectory loads the profile directory and, when Redis is enabled, puts
// the rueidis name cache in front of it.
func newDirectory(cfg config.Config, logger *slog.Logger) (profileStack, error) {
	var source profiles.Directory = profiles.DefaultDirectory()
	if cfg.ProfilesFile != "" {
		loaded, err := profiles.LoadFile(cfg.ProfilesFile)
		if err != nil {
			return profileStack{}, err
		}
		source = loaded
	}

	if !cfg.RedisEnabled {
		return profileStack{directory: source, close: func() {}}, nil
	}

	redisClient, err := config.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		return profileStack{}, err
	}
	cache := profiles.NewRedisNameCache(redisClient, cfg.ProfileCachePrefix, cfg.ProfileCacheTTL)
	cached := profiles.NewCachedDirectory(source, cache, profiles.DefaultBreakerConfig(), logger)
	logger.Info("profile cache enabled", "addr", cfg.RedisAddr)
	return profileStack{
		directory:  cached,
		cacheState: func() string { return cached.State().String() },
		close:      redisClient.Close,
	}, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
