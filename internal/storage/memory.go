package storage

import (
	"context"
	"sync"
	"time"

	"cookie-api/internal/domain"
)

// MemoryStorage implementa a interface domain.WindowStorage usando memória
type MemoryStorage struct {
	windows map[string]*domain.RateLimitWindow
	mutex   sync.Mutex
	logger  domain.Logger
}

// NewMemoryStorage cria uma nova instância do MemoryStorage
func NewMemoryStorage(logger domain.Logger) *MemoryStorage {
	storage := &MemoryStorage{
		windows: make(map[string]*domain.RateLimitWindow),
		logger:  logger,
	}

	// Inicia goroutine de limpeza
	go storage.cleanup()

	if logger != nil {
		logger.Info("Memory window storage initialized", nil)
	}

	return storage
}

// Take verifica e registra uma requisição de forma atômica.
// Se a janela expirou, a contagem volta a zero e o reset avança.
// Contagem no limite retorna allowed=false sem incrementar.
func (m *MemoryStorage) Take(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Time, error) {
	start := time.Now()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()

	// Busca ou cria a janela do cliente
	w, exists := m.windows[key]
	if !exists {
		w = &domain.RateLimitWindow{
			Key:       key,
			Count:     0,
			ResetTime: now.Add(window),
		}
		m.windows[key] = w
	}

	// Janela expirada: zera contagem e rola o reset para frente
	if now.After(w.ResetTime) {
		w.Count = 0
		w.ResetTime = now.Add(window)
	}

	if w.Count >= limit {
		m.logStorageOperation("TAKE", key, true, time.Since(start).Seconds()*1000, nil)
		return false, w.Count, w.ResetTime, nil
	}

	w.Count++
	m.logStorageOperation("TAKE", key, true, time.Since(start).Seconds()*1000, nil)
	return true, w.Count, w.ResetTime, nil
}

// Get recupera o estado atual de uma janela, ou nil se inexistente
func (m *MemoryStorage) Get(ctx context.Context, key string) (*domain.RateLimitWindow, error) {
	start := time.Now()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	w, exists := m.windows[key]
	if !exists {
		m.logStorageOperation("GET", key, true, time.Since(start).Seconds()*1000, nil)
		return nil, nil
	}

	// Cria cópia para evitar modificações concorrentes
	result := *w

	m.logStorageOperation("GET", key, true, time.Since(start).Seconds()*1000, nil)
	return &result, nil
}

// Reset limpa o estado de uma chave
func (m *MemoryStorage) Reset(ctx context.Context, key string) error {
	start := time.Now()

	m.mutex.Lock()
	delete(m.windows, key)
	m.mutex.Unlock()

	m.logStorageOperation("RESET", key, true, time.Since(start).Seconds()*1000, nil)
	return nil
}

// Health verifica se o storage está saudável
func (m *MemoryStorage) Health(ctx context.Context) error {
	m.mutex.Lock()
	size := len(m.windows)
	m.mutex.Unlock()

	if m.logger != nil {
		m.logger.Debug("Memory window storage health check", map[string]interface{}{
			"window_entries": size,
		})
	}

	return nil
}

// Close fecha a conexão com o storage (limpa os dados para memory)
func (m *MemoryStorage) Close() error {
	m.mutex.Lock()
	m.windows = make(map[string]*domain.RateLimitWindow)
	m.mutex.Unlock()

	if m.logger != nil {
		m.logger.Info("Memory window storage closed", nil)
	}
	return nil
}

// cleanup remove janelas expiradas periodicamente
func (m *MemoryStorage) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanupExpiredWindows()
	}
}

// cleanupExpiredWindows remove janelas cujo reset já passou
func (m *MemoryStorage) cleanupExpiredWindows() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	removed := 0

	for key, w := range m.windows {
		if now.After(w.ResetTime) {
			delete(m.windows, key)
			removed++
		}
	}

	if removed > 0 && m.logger != nil {
		m.logger.Debug("Window storage cleanup completed", map[string]interface{}{
			"removed_windows": removed,
		})
	}
}

// logStorageOperation registra operações de storage
func (m *MemoryStorage) logStorageOperation(operation, key string, success bool, latency float64, err error) {
	if m.logger == nil {
		return
	}

	if success {
		m.logger.Debug("Storage operation completed", map[string]interface{}{
			"operation": operation,
			"key":       key,
			"latency":   latency,
		})
	} else {
		m.logger.Error("Storage operation failed", err, map[string]interface{}{
			"operation": operation,
			"key":       key,
			"latency":   latency,
		})
	}
}
