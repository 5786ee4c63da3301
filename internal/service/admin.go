package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"cookie-api/internal/domain"
	"cookie-api/internal/token"
)

// lowCookiesThreshold marca o pool como baixo no painel administrativo
const lowCookiesThreshold = 10

// AdminService implementa as operações administrativas sobre o pool.
// O login é uma checagem simples de credenciais configuradas por
// ambiente, com rate limit próprio contra força bruta.
type AdminService struct {
	pool     domain.CookiePool
	limiter  domain.RateLimiter
	sessions *token.SessionStore
	username string
	password string
	logger   domain.Logger
}

// NewAdminService cria uma nova instância do serviço administrativo
func NewAdminService(
	pool domain.CookiePool,
	loginLimiter domain.RateLimiter,
	sessions *token.SessionStore,
	username, password string,
	log domain.Logger,
) domain.AdminService {
	return &AdminService{
		pool:     pool,
		limiter:  loginLimiter,
		sessions: sessions,
		username: username,
		password: password,
		logger:   log,
	}
}

// Login autentica o administrador e retorna um token de sessão.
// Sem credenciais configuradas o login fica desabilitado.
func (s *AdminService) Login(ctx context.Context, clientID, username, password string) (string, error) {
	if s.username == "" || s.password == "" {
		return "", domain.ErrLoginDisabled
	}

	limited, err := s.limiter.IsLimited(ctx, clientID)
	if err != nil {
		return "", fmt.Errorf("failed to check login rate limit: %w", err)
	}
	if limited {
		s.logger.Warn("Admin login rate limited", map[string]interface{}{
			"client_ip": clientID,
		})
		return "", domain.ErrRateLimited
	}

	// Comparação em tempo constante; as credenciais vêm do ambiente
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		s.logger.Warn("Failed admin login attempt", map[string]interface{}{
			"client_ip": clientID,
			"username":  username,
		})
		return "", domain.ErrInvalidCredentials
	}

	sessionToken := s.sessions.Create()

	s.logger.Info("Admin login successful", map[string]interface{}{
		"client_ip": clientID,
	})

	return sessionToken, nil
}

// ValidSession verifica se um token de sessão administrativo é válido
func (s *AdminService) ValidSession(tok string) bool {
	return s.sessions.Valid(tok)
}

// Status retorna o status do pool para o painel administrativo
func (s *AdminService) Status() (*domain.PoolStatus, error) {
	count, err := s.pool.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count cookies: %w", err)
	}

	return &domain.PoolStatus{
		CookieCount: count,
		LowCookies:  count < lowCookiesThreshold,
	}, nil
}

// UploadArchive carrega os cookies de um arquivo ZIP no pool
func (s *AdminService) UploadArchive(filename string, data []byte) (int, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".zip") {
		return 0, domain.ErrNotZipFile
	}

	loaded, err := s.pool.LoadFromArchive(data)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Cookie archive uploaded", map[string]interface{}{
		"filename": filename,
		"loaded":   loaded,
	})

	return loaded, nil
}

// UploadFile carrega um único arquivo de cookie no pool
func (s *AdminService) UploadFile(filename string, content []byte) (string, error) {
	saved, err := s.pool.SaveOne(filename, content)
	if err != nil {
		return "", err
	}

	s.logger.Info("Cookie file uploaded", map[string]interface{}{
		"original": filename,
		"saved_as": saved,
	})

	return saved, nil
}

// ClearCookies remove todos os cookies do pool
func (s *AdminService) ClearCookies() (int, error) {
	deleted, err := s.pool.ClearAll()
	if err != nil {
		return 0, err
	}

	s.logger.Info("Cookie pool cleared by admin", map[string]interface{}{
		"deleted": deleted,
	})

	return deleted, nil
}

// Backup dispara um backup manual do pool
func (s *AdminService) Backup() (*domain.BackupResult, error) {
	return s.pool.Backup()
}
