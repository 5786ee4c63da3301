package service

import (
	"context"
	"fmt"
	"strings"

	"cookie-api/internal/domain"
	"cookie-api/internal/logger"
)

// ClaimService implementa o protocolo público de resgate: vitória no
// jogo gera um token de uso único; o resgate troca o token por um
// cookie do pool, sujeito a rate limit por cliente.
type ClaimService struct {
	tokens         domain.TokenStore
	limiter        domain.RateLimiter
	pool           domain.CookiePool
	scoreThreshold int
	logger         domain.Logger
}

// NewClaimService cria uma nova instância do serviço de resgate
func NewClaimService(
	tokens domain.TokenStore,
	limiter domain.RateLimiter,
	pool domain.CookiePool,
	scoreThreshold int,
	log domain.Logger,
) domain.ClaimService {
	return &ClaimService{
		tokens:         tokens,
		limiter:        limiter,
		pool:           pool,
		scoreThreshold: scoreThreshold,
		logger:         log,
	}
}

// SubmitWin valida a pontuação e emite um token de resgate.
// O serviço não verifica se a pontuação veio de gameplay legítimo:
// anti-cheat está fora de escopo.
func (s *ClaimService) SubmitWin(ctx context.Context, clientID string, score int) (string, error) {
	if score < s.scoreThreshold {
		s.logger.Info("Win submission rejected", map[string]interface{}{
			"client_ip": clientID,
			"score":     score,
			"threshold": s.scoreThreshold,
		})
		return "", domain.ErrScoreTooLow
	}

	tok := s.tokens.Issue(clientID)

	s.logger.Info("Win submission accepted", map[string]interface{}{
		"client_ip": clientID,
		"score":     score,
		"token":     logger.MaskToken(tok),
	})

	return tok, nil
}

// Claim troca um token válido por um cookie do pool.
// As verificações são ordenadas e interrompem no primeiro erro:
// token presente, token válido, rate limit, pool com estoque.
//
// O token é consumido antes da retirada do pool: com o pool vazio o
// token já foi gasto e o cliente precisa vencer o jogo novamente.
func (s *ClaimService) Claim(ctx context.Context, clientID, tok string) (*domain.ClaimResult, error) {
	if strings.TrimSpace(tok) == "" {
		return nil, domain.ErrTokenMissing
	}

	if !s.tokens.ValidateAndConsume(tok, clientID) {
		return nil, domain.ErrTokenInvalid
	}

	limited, err := s.limiter.IsLimited(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if limited {
		return nil, domain.ErrRateLimited
	}

	cookie, remaining, err := s.pool.ClaimOne()
	if err != nil {
		if err == domain.ErrPoolEmpty {
			s.logger.Info("Claim rejected, pool empty", map[string]interface{}{
				"client_ip": clientID,
			})
			return nil, domain.ErrPoolEmpty
		}
		return nil, fmt.Errorf("failed to claim cookie: %w", err)
	}

	s.logger.Info("Cookie claimed", map[string]interface{}{
		"client_ip": clientID,
		"filename":  cookie.Filename,
		"remaining": remaining,
	})

	return &domain.ClaimResult{
		Filename:         cookie.Filename,
		Content:          cookie.Content,
		RemainingCookies: remaining,
	}, nil
}

// Availability retorna a disponibilidade atual do pool
func (s *ClaimService) Availability() (*domain.Availability, error) {
	count, err := s.pool.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count cookies: %w", err)
	}

	return &domain.Availability{
		Available: count > 0,
		Count:     count,
	}, nil
}
