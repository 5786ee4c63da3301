package token

import (
	"sync"
	"time"
)

// SessionStore guarda tokens de sessão administrativa em memória.
// Diferente do Store de resgate, sessões podem ser usadas múltiplas
// vezes até expirarem.
type SessionStore struct {
	sessions map[string]time.Time
	mutex    sync.Mutex
	ttl      time.Duration
}

// NewSessionStore cria uma nova instância do SessionStore
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]time.Time),
		ttl:      ttl,
	}
}

// Create gera um novo token de sessão com o TTL configurado
func (s *SessionStore) Create() string {
	tok := Generate(32)

	s.mutex.Lock()
	s.sessions[tok] = time.Now().Add(s.ttl)
	s.mutex.Unlock()

	return tok
}

// Valid verifica se um token de sessão existe e ainda não expirou.
// Sessões expiradas são removidas na própria consulta.
func (s *SessionStore) Valid(tok string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	expiry, exists := s.sessions[tok]
	if !exists {
		return false
	}

	if time.Now().After(expiry) {
		delete(s.sessions, tok)
		return false
	}

	return true
}

// Revoke remove um token de sessão
func (s *SessionStore) Revoke(tok string) {
	s.mutex.Lock()
	delete(s.sessions, tok)
	s.mutex.Unlock()
}
