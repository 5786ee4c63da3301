package handler

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"cookie-api/internal/domain"
	"cookie-api/internal/logger"
	"cookie-api/internal/middleware"
)

// Handlers contém os handlers da API
type Handlers struct {
	claims    domain.ClaimService
	admin     domain.AdminService
	logger    domain.Logger
	startTime time.Time
}

// NewHandlers cria uma nova instância dos handlers
func NewHandlers(claims domain.ClaimService, admin domain.AdminService, log domain.Logger) *Handlers {
	return &Handlers{
		claims:    claims,
		admin:     admin,
		logger:    log,
		startTime: time.Now(),
	}
}

// SetupRoutes configura as rotas da API
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.Use(middleware.RequestContext())

	api := router.Group("/api")
	api.Use(middleware.NoCache())
	api.Use(middleware.CORS())
	{
		// Fluxo público de jogo e resgate
		api.POST("/game-win", h.GameWinHandler)
		api.GET("/claim-cookie", h.ClaimCookieHandler)
		api.GET("/check-cookies", h.CheckCookiesHandler)

		// Painel administrativo
		admin := api.Group("/admin")
		{
			admin.POST("/login", h.AdminLoginHandler)
			admin.GET("/status", h.AdminStatusHandler)

			// Mutações exigem sessão administrativa válida
			protected := admin.Group("")
			protected.Use(middleware.AdminAuth(h.admin, h.logger))
			{
				protected.POST("/upload-cookies-zip", h.UploadZipHandler)
				protected.POST("/upload-cookie-file", h.UploadFileHandler)
				protected.POST("/clear-cookies", h.ClearCookiesHandler)
				protected.POST("/backup", h.BackupHandler)
			}
		}
	}

	router.GET("/health", h.HealthHandler)
}

// GameWinRequest representa o corpo da submissão de vitória
type GameWinRequest struct {
	Score int `json:"score"`
}

// GameWinHandler valida a pontuação e emite um token de resgate
func (h *Handlers) GameWinHandler(c *gin.Context) {
	ctx := c.Request.Context()
	clientIP := middleware.GetClientIP(c)

	var req GameWinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid game data",
			"message": "You need to win the game with a valid score to claim a cookie.",
		})
		return
	}

	tok, err := h.claims.SubmitWin(ctx, clientIP, req.Score)
	if err != nil {
		if errors.Is(err, domain.ErrScoreTooLow) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid game data",
				"message": "You need to win the game with a valid score to claim a cookie.",
			})
			return
		}

		h.logger.WithContext(ctx).Error("Failed to process win submission", err, map[string]interface{}{
			"client_ip": clientIP,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Server error",
			"message": "An unexpected error occurred. Please try again later.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   tok,
		"message": "Congratulations on winning! Use this token to claim your cookie.",
	})
}

// ClaimCookieHandler troca um token válido por um cookie do pool.
// As respostas de erro seguem a ordem das verificações do serviço:
// 401 sem token, 403 token inválido, 429 rate limit, 404 pool vazio.
func (h *Handlers) ClaimCookieHandler(c *gin.Context) {
	ctx := c.Request.Context()
	clientIP := middleware.GetClientIP(c)
	tok := c.Query("token")

	log := h.logger.WithContext(ctx)
	log.Debug("Claim cookie request received", map[string]interface{}{
		"client_ip": clientIP,
		"token":     logger.MaskToken(tok),
	})

	result, err := h.claims.Claim(ctx, clientIP, tok)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenMissing):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "You need to win the game first to claim a cookie.",
			})

		case errors.Is(err, domain.ErrTokenInvalid):
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Invalid or expired token. Please win the game again to claim a cookie.",
			})

		case errors.Is(err, domain.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Already claimed",
				"message": "You already claimed a cookie. Please wait a moment before claiming another one.",
			})

		case errors.Is(err, domain.ErrPoolEmpty):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "No cookies available",
				"message": "We've run out of cookies for now. Please try again later!",
			})

		default:
			log.Error("Failed to process claim", err, map[string]interface{}{
				"client_ip": clientIP,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "File processing error",
				"message": "Error processing the cookie file. Please try again.",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":         result.Filename,
		"content":          result.Content,
		"remainingCookies": result.RemainingCookies,
	})
}

// CheckCookiesHandler informa a disponibilidade atual do pool
func (h *Handlers) CheckCookiesHandler(c *gin.Context) {
	availability, err := h.claims.Availability()
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("Failed to check cookies", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Server error",
			"message": "An unexpected error occurred while checking available cookies.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"available": availability.Available,
		"count":     availability.Count,
	})
}

// HealthHandler implementa health check básico
func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "Cookie Catcher API",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// systemInfo monta as estatísticas de runtime para o status administrativo
func (h *Handlers) systemInfo() gin.H {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return gin.H{
		"go_version":   runtime.Version(),
		"goroutines":   runtime.NumGoroutine(),
		"memory_alloc": m.Alloc,
		"memory_sys":   m.Sys,
		"gc_runs":      m.NumGC,
		"uptime":       time.Since(h.startTime).String(),
	}
}
