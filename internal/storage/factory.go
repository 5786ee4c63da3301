package storage

import (
	"fmt"
	"strings"

	"cookie-api/internal/domain"
)

// StorageType define os tipos de storage disponíveis
type StorageType string

const (
	RedisStorageType  StorageType = "redis"
	MemoryStorageType StorageType = "memory"
)

// StorageConfig contém configurações para criação de storage
type StorageConfig struct {
	Type        StorageType
	RedisConfig *RedisConfig
}

// RedisConfig contém configurações específicas do Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	Database int
}

// StorageFactory cria instâncias de storage seguindo Strategy Pattern
type StorageFactory struct{}

// NewStorageFactory cria uma nova instância da factory
func NewStorageFactory() *StorageFactory {
	return &StorageFactory{}
}

// CreateStorage cria uma instância de storage baseada na configuração
func (f *StorageFactory) CreateStorage(config *StorageConfig, logger domain.Logger) (domain.WindowStorage, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config cannot be nil")
	}

	switch strings.ToLower(string(config.Type)) {
	case string(RedisStorageType):
		return f.createRedisStorage(config.RedisConfig, logger)
	case string(MemoryStorageType):
		return f.createMemoryStorage(logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// createRedisStorage cria uma instância de Redis storage
func (f *StorageFactory) createRedisStorage(config *RedisConfig, logger domain.Logger) (domain.WindowStorage, error) {
	if config == nil {
		return nil, fmt.Errorf("Redis config cannot be nil")
	}

	// Validações básicas
	if config.Host == "" {
		return nil, fmt.Errorf("Redis host cannot be empty")
	}
	if config.Port == "" {
		return nil, fmt.Errorf("Redis port cannot be empty")
	}
	if config.Database < 0 || config.Database > 15 {
		return nil, fmt.Errorf("Redis database must be between 0 and 15")
	}

	storage, err := NewRedisStorage(config.Host, config.Port, config.Password, config.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis storage: %w", err)
	}

	if logger != nil {
		logger.Info("Redis window storage created", map[string]interface{}{
			"host": config.Host,
			"port": config.Port,
			"db":   config.Database,
		})
	}

	return storage, nil
}

// createMemoryStorage cria uma instância de memory storage
func (f *StorageFactory) createMemoryStorage(logger domain.Logger) (domain.WindowStorage, error) {
	return NewMemoryStorage(logger), nil
}
