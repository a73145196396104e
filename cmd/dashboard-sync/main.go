package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-news-dashboard/internal/dashboard/channel"
	"golang-news-dashboard/internal/dashboard/config"
	delivery "golang-news-dashboard/internal/dashboard/delivery/http"
	_ "golang-news-dashboard/internal/dashboard/docs"
	"golang-news-dashboard/internal/dashboard/repository"
	"golang-news-dashboard/internal/dashboard/service"
	"golang-news-dashboard/pkg/logger"
	"golang-news-dashboard/pkg/redis"
	"golang-news-dashboard/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the dashboard sync service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Dashboard Sync Service", logger.Field("name", cfg.App.Name))

	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	transport := channel.NewRedisTransport(redisClient.Client, cfg.Channel.RedisChannel, cfg.Channel.HealthInterval)
	adapter := channel.NewAdapter(transport, appLogger, cfg.Channel.RetryDelay)
	backendRepo := repository.NewBackendRepository(cfg, appLogger)

	var opts []service.Option
	if cfg.Alert.Enabled {
		notifier, err := telegram.NewNotifier(cfg.Telegram)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
		alertSvc := service.NewAlertService(cfg.Alert, notifier, appLogger)
		alertSvc.Start(ctx)
		defer alertSvc.Stop()
		opts = append(opts, service.WithArticleObserver(alertSvc))
	}

	dashboardSvc := service.NewDashboardService(cfg, adapter, backendRepo, appLogger, opts...)
	if err := dashboardSvc.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start dashboard session", logger.ErrorField(err))
	}

	e := echo.New()
	e.HideBanner = true

	dashboardHandler := delivery.NewDashboardHandler(dashboardSvc, appLogger)
	apiV1 := e.Group("/api/v1")
	dashboardHandler.RegisterRoutes(apiV1)
	e.Server.RegisterOnShutdown(dashboardHandler.Shutdown)

	e.GET("/swagger/*", swagger.WrapHandler)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// closes subscriber channels so open streams end before Shutdown waits on them
	dashboardSvc.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title News Dashboard Sync API
// @version 1.0
// @description Reconciled view of the financial news dashboard session.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "dashboard-sync"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-dashboard.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing dashboard-sync CLI: %s\n", err)
		os.Exit(1)
	}
}
