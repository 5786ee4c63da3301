package token

import (
	"sync"
	"time"

	"cookie-api/internal/domain"
	"cookie-api/internal/logger"
)

// Store implementa a interface domain.TokenStore em memória.
// Tokens são de uso único, vinculados à identidade do cliente e
// expiram por TTL; uma rotina periódica remove entradas abandonadas.
type Store struct {
	tokens  map[string]*domain.TokenEntry
	mutex   sync.Mutex
	ttl     time.Duration
	length  int
	matcher domain.IdentityMatcher
	logger  domain.Logger
	stop    chan struct{}
	once    sync.Once
}

// NewStore cria uma nova instância do Store e inicia a rotina de limpeza
func NewStore(ttl time.Duration, length int, sweepInterval time.Duration, matcher domain.IdentityMatcher, log domain.Logger) *Store {
	store := &Store{
		tokens:  make(map[string]*domain.TokenEntry),
		ttl:     ttl,
		length:  length,
		matcher: matcher,
		logger:  log,
		stop:    make(chan struct{}),
	}

	go store.sweep(sweepInterval)

	if log != nil {
		log.Info("Token store initialized", map[string]interface{}{
			"ttl":          ttl.String(),
			"token_length": length,
		})
	}

	return store
}

// Issue gera um novo token vinculado à identidade do cliente
func (s *Store) Issue(clientID string) string {
	now := time.Now()
	tok := Generate(s.length)

	s.mutex.Lock()
	s.tokens[tok] = &domain.TokenEntry{
		ClientID:   clientID,
		CreatedAt:  now,
		ExpiryTime: now.Add(s.ttl),
	}
	s.mutex.Unlock()

	if s.logger != nil {
		s.logger.Debug("Token issued", map[string]interface{}{
			"token":     logger.MaskToken(tok),
			"client_ip": clientID,
			"ttl":       s.ttl.String(),
		})
	}

	return tok
}

// ValidateAndConsume valida e consome um token em uma única operação atômica.
// A verificação e a remoção acontecem sob o mesmo lock: no máximo um chamador
// concorrente observa true para o mesmo token.
//
// Expiração remove a entrada; divergência de identidade não remove, para que
// o cliente correto ainda possa resgatar antes do TTL.
func (s *Store) ValidateAndConsume(tok, clientID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.tokens[tok]
	if !exists {
		s.logValidation(tok, clientID, false, "not_found")
		return false
	}

	if time.Now().After(entry.ExpiryTime) {
		delete(s.tokens, tok)
		s.logValidation(tok, clientID, false, "expired")
		return false
	}

	if !s.matcher.Match(entry.ClientID, clientID) {
		s.logValidation(tok, clientID, false, "identity_mismatch")
		return false
	}

	delete(s.tokens, tok)
	s.logValidation(tok, clientID, true, "consumed")
	return true
}

// Len retorna a quantidade de tokens ativos
func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.tokens)
}

// Stop encerra a rotina de limpeza periódica
func (s *Store) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
}

// sweep remove tokens expirados em intervalos fixos
func (s *Store) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stop:
			return
		}
	}
}

// removeExpired remove todas as entradas cujo TTL já passou
func (s *Store) removeExpired() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	removed := 0

	for tok, entry := range s.tokens {
		if now.After(entry.ExpiryTime) {
			delete(s.tokens, tok)
			removed++
		}
	}

	if removed > 0 && s.logger != nil {
		s.logger.Debug("Expired tokens removed", map[string]interface{}{
			"removed":   removed,
			"remaining": len(s.tokens),
		})
	}
}

// logValidation registra o resultado de uma validação de token
func (s *Store) logValidation(tok, clientID string, valid bool, reason string) {
	if s.logger == nil {
		return
	}

	fields := map[string]interface{}{
		"token":     logger.MaskToken(tok),
		"client_ip": clientID,
		"reason":    reason,
	}

	if valid {
		s.logger.Debug("Token validated and consumed", fields)
	} else {
		s.logger.Info("Token validation failed", fields)
	}
}
