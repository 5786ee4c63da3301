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

	"github.com/gin-gonic/gin"

	"cookie-api/internal/config"
	"cookie-api/internal/domain"
	"cookie-api/internal/handler"
	"cookie-api/internal/logger"
	"cookie-api/internal/pool"
	"cookie-api/internal/ratelimit"
	"cookie-api/internal/service"
	"cookie-api/internal/storage"
	"cookie-api/internal/token"
)

func main() {
	// Carregar configurações
	configLoader := config.NewConfigLoader()
	cfg, err := configLoader.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Inicializar logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	appLogger.Info("Starting Cookie Catcher API", map[string]interface{}{
		"version":   "1.0.0",
		"log_level": cfg.LogLevel,
		"port":      cfg.ServerPort,
	})

	// Inicializar storage das janelas de rate limit (memory por padrão)
	storageFactory := storage.NewStorageFactory()
	windowStorage, err := storageFactory.CreateStorage(&storage.StorageConfig{
		Type: storage.StorageType(cfg.RateStorage),
		RedisConfig: &storage.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			Database: cfg.RedisDB,
		},
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to create window storage", err, nil)
		os.Exit(1)
	}
	defer windowStorage.Close()

	// Limitadores: resgate de cookies e tentativas de login
	claimLimiter := ratelimit.NewLimiter(windowStorage, claimWindowConfig(cfg), appLogger)
	loginLimiter := ratelimit.NewLimiter(windowStorage, loginWindowConfig(cfg), appLogger)

	// Token store com a política de identidade configurada
	matcher := token.NewMatcher(token.MatchMode(cfg.IdentityMatchMode))
	tokenStore := token.NewStore(
		time.Duration(cfg.TokenTTLSeconds)*time.Second,
		cfg.TokenLength,
		time.Duration(cfg.TokenSweepSeconds)*time.Second,
		matcher,
		appLogger,
	)
	defer tokenStore.Stop()

	// Pool de cookies no filesystem
	cookiePool, err := pool.NewFilePool(cfg.CookiesDir, cfg.BackupDir, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize cookie pool", err, nil)
		os.Exit(1)
	}

	// Backups automáticos do pool
	stopBackups := cookiePool.StartBackupScheduler(
		time.Duration(cfg.BackupIntervalHours)*time.Hour,
		cfg.BackupKeep,
	)
	defer stopBackups()

	// Serviços
	sessions := token.NewSessionStore(time.Duration(cfg.AdminSessionTTLSeconds) * time.Second)
	claimService := service.NewClaimService(tokenStore, claimLimiter, cookiePool, cfg.ScoreThreshold, appLogger)
	adminService := service.NewAdminService(cookiePool, loginLimiter, sessions, cfg.AdminUsername, cfg.AdminPassword, appLogger)

	// Inicializar handlers
	handlers := handler.NewHandlers(claimService, adminService, appLogger)

	// Configurar Gin
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Criar router
	router := gin.New()

	// Middlewares globais
	router.Use(gin.Recovery())

	// Middleware de logging customizado
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	// Configurar rotas
	handlers.SetupRoutes(router)

	// Configurar servidor HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Iniciar servidor em goroutine
	go func() {
		appLogger.Info("Starting HTTP server", map[string]interface{}{
			"port": cfg.ServerPort,
			"addr": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", err, nil)
			os.Exit(1)
		}
	}()

	// Aguardar sinais de interrupção
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	appLogger.Info("🍪 Cookie Catcher API is running!", map[string]interface{}{
		"port":        cfg.ServerPort,
		"cookies_dir": cfg.CookiesDir,
		"endpoints": []string{
			"POST /api/game-win",
			"GET  /api/claim-cookie",
			"GET  /api/check-cookies",
			"POST /api/admin/login",
			"GET  /api/admin/status",
			"POST /api/admin/upload-cookies-zip",
			"POST /api/admin/upload-cookie-file",
			"POST /api/admin/clear-cookies",
			"POST /api/admin/backup",
		},
		"claim_limit": map[string]interface{}{
			"window":       cfg.ClaimWindowSeconds,
			"max_requests": cfg.ClaimMaxRequests,
		},
		"score_threshold": cfg.ScoreThreshold,
	})

	// Bloquear até receber sinal
	<-quit
	appLogger.Info("Shutting down server...", nil)

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err, nil)
		os.Exit(1)
	}

	appLogger.Info("Server stopped gracefully", nil)
}

// claimWindowConfig monta os parâmetros da janela de resgate
func claimWindowConfig(cfg *config.Config) domain.WindowConfig {
	return domain.WindowConfig{
		Prefix:      "claim",
		Window:      time.Duration(cfg.ClaimWindowSeconds) * time.Second,
		MaxRequests: cfg.ClaimMaxRequests,
	}
}

// loginWindowConfig monta os parâmetros da janela de login administrativo
func loginWindowConfig(cfg *config.Config) domain.WindowConfig {
	return domain.WindowConfig{
		Prefix:      "login",
		Window:      time.Duration(cfg.LoginWindowSeconds) * time.Second,
		MaxRequests: cfg.LoginMaxAttempts,
	}
}
