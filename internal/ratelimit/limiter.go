package ratelimit

import (
	"context"
	"fmt"

	"cookie-api/internal/domain"
)

// Limiter implementa domain.RateLimiter com janela fixa sobre um
// domain.WindowStorage. Cada instância tem seus próprios parâmetros,
// o que permite janelas distintas para resgate e login administrativo.
type Limiter struct {
	storage domain.WindowStorage
	config  domain.WindowConfig
	logger  domain.Logger
}

// NewLimiter cria uma nova instância do Limiter
func NewLimiter(storage domain.WindowStorage, config domain.WindowConfig, logger domain.Logger) domain.RateLimiter {
	return &Limiter{
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// IsLimited verifica se o cliente excedeu o limite da janela atual.
// Quando ainda há cota, a requisição é contabilizada na mesma operação.
func (l *Limiter) IsLimited(ctx context.Context, clientID string) (bool, error) {
	key := l.buildStorageKey(clientID)

	allowed, count, resetTime, err := l.storage.Take(ctx, key, l.config.MaxRequests, l.config.Window)
	if err != nil {
		l.logger.Error("Failed to take from rate limit window", err, map[string]interface{}{
			"storage_key": key,
			"limit":       l.config.MaxRequests,
		})
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if !allowed {
		l.logger.Info("Rate limit exceeded", map[string]interface{}{
			"storage_key": key,
			"count":       count,
			"limit":       l.config.MaxRequests,
			"reset_time":  resetTime,
		})
		return true, nil
	}

	l.logger.Debug("Rate limit check passed", map[string]interface{}{
		"storage_key": key,
		"count":       count,
		"limit":       l.config.MaxRequests,
		"reset_time":  resetTime,
	})
	return false, nil
}

// Status retorna o estado atual da janela de um cliente, ou nil se inexistente
func (l *Limiter) Status(ctx context.Context, clientID string) (*domain.RateLimitWindow, error) {
	w, err := l.storage.Get(ctx, l.buildStorageKey(clientID))
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit status: %w", err)
	}
	return w, nil
}

// Reset limpa o estado de rate limit de um cliente
func (l *Limiter) Reset(ctx context.Context, clientID string) error {
	key := l.buildStorageKey(clientID)

	if err := l.storage.Reset(ctx, key); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}

	l.logger.Info("Rate limit reset", map[string]interface{}{
		"storage_key": key,
	})
	return nil
}

// buildStorageKey constrói a chave de storage no formato padrão
func (l *Limiter) buildStorageKey(clientID string) string {
	return fmt.Sprintf("rate_limit:%s:%s", l.config.Prefix, clientID)
}
