package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config representa todas as configurações da aplicação
type Config struct {
	// Server Configuration
	ServerPort string
	GinMode    string

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Pool Configuration
	CookiesDir          string
	BackupDir           string
	BackupIntervalHours int
	BackupKeep          int

	// Game Configuration
	ScoreThreshold int

	// Token Configuration
	TokenTTLSeconds   int
	TokenLength       int
	TokenSweepSeconds int
	IdentityMatchMode string

	// Rate Limiting Configuration
	ClaimWindowSeconds int
	ClaimMaxRequests   int
	LoginWindowSeconds int
	LoginMaxAttempts   int

	// Admin Configuration
	AdminUsername          string
	AdminPassword          string
	AdminSessionTTLSeconds int

	// Storage Configuration (janelas de rate limit)
	RateStorage   string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// ConfigLoader carrega e valida as configurações da aplicação
type ConfigLoader struct {
	config *Config
}

// NewConfigLoader cria uma nova instância do ConfigLoader
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// LoadConfig carrega as configurações do .env e das variáveis de ambiente
func (c *ConfigLoader) LoadConfig() (*Config, error) {
	// Carrega o arquivo .env se existir
	if err := godotenv.Load(); err != nil {
		// Se não encontrar .env, continua com variáveis do sistema
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	config, err := c.loadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	c.config = config
	return config, nil
}

// GetConfig retorna a configuração atual
func (c *ConfigLoader) GetConfig() *Config {
	return c.config
}

// Reload recarrega todas as configurações
func (c *ConfigLoader) Reload() error {
	_, err := c.LoadConfig()
	return err
}

// loadFromEnv carrega configurações das variáveis de ambiente
func (c *ConfigLoader) loadFromEnv() (*Config, error) {
	config := &Config{
		// Server defaults
		ServerPort: getEnvWithDefault("SERVER_PORT", "8080"),
		GinMode:    getEnvWithDefault("GIN_MODE", "debug"),

		// Logging defaults
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "json"),

		// Pool defaults
		CookiesDir: getEnvWithDefault("COOKIES_DIR", "valid-cookies"),
		BackupDir:  getEnvWithDefault("BACKUP_DIR", "cookie-backups"),

		// Token defaults
		IdentityMatchMode: getEnvWithDefault("IDENTITY_MATCH_MODE", "network"),

		// Admin defaults (login desabilitado quando credenciais vazias)
		AdminUsername: getEnvWithDefault("ADMIN_USERNAME", ""),
		AdminPassword: getEnvWithDefault("ADMIN_PASSWORD", ""),

		// Storage defaults
		RateStorage:   getEnvWithDefault("RATE_STORAGE", "memory"),
		RedisHost:     getEnvWithDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvWithDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvWithDefault("REDIS_PASSWORD", ""),
	}

	// Parse dos valores inteiros
	intFields := []struct {
		name string
		def  string
		dst  *int
	}{
		{"BACKUP_INTERVAL_HOURS", "24", &config.BackupIntervalHours},
		{"BACKUP_KEEP", "5", &config.BackupKeep},
		{"SCORE_THRESHOLD", "100", &config.ScoreThreshold},
		{"TOKEN_TTL_SECONDS", "300", &config.TokenTTLSeconds},
		{"TOKEN_LENGTH", "32", &config.TokenLength},
		{"TOKEN_SWEEP_SECONDS", "60", &config.TokenSweepSeconds},
		{"CLAIM_WINDOW_SECONDS", "10", &config.ClaimWindowSeconds},
		{"CLAIM_MAX_REQUESTS", "1", &config.ClaimMaxRequests},
		{"LOGIN_WINDOW_SECONDS", "900", &config.LoginWindowSeconds},
		{"LOGIN_MAX_ATTEMPTS", "5", &config.LoginMaxAttempts},
		{"ADMIN_SESSION_TTL_SECONDS", "3600", &config.AdminSessionTTLSeconds},
		{"REDIS_DB", "0", &config.RedisDB},
	}

	for _, f := range intFields {
		value, err := strconv.Atoi(getEnvWithDefault(f.name, f.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", f.name, err)
		}
		*f.dst = value
	}

	// Valida configurações obrigatórias
	if err := c.validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateConfig valida se as configurações são válidas
func (c *ConfigLoader) validateConfig(config *Config) error {
	if config.ScoreThreshold <= 0 {
		return fmt.Errorf("SCORE_THRESHOLD must be greater than 0")
	}

	if config.TokenTTLSeconds <= 0 {
		return fmt.Errorf("TOKEN_TTL_SECONDS must be greater than 0")
	}

	if config.TokenLength < 16 || config.TokenLength > 64 {
		return fmt.Errorf("TOKEN_LENGTH must be between 16 and 64")
	}

	if config.TokenSweepSeconds <= 0 {
		return fmt.Errorf("TOKEN_SWEEP_SECONDS must be greater than 0")
	}

	if config.ClaimWindowSeconds <= 0 {
		return fmt.Errorf("CLAIM_WINDOW_SECONDS must be greater than 0")
	}

	if config.ClaimMaxRequests <= 0 {
		return fmt.Errorf("CLAIM_MAX_REQUESTS must be greater than 0")
	}

	if config.LoginWindowSeconds <= 0 {
		return fmt.Errorf("LOGIN_WINDOW_SECONDS must be greater than 0")
	}

	if config.LoginMaxAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be greater than 0")
	}

	if config.BackupKeep <= 0 {
		return fmt.Errorf("BACKUP_KEEP must be greater than 0")
	}

	if config.CookiesDir == "" {
		return fmt.Errorf("COOKIES_DIR cannot be empty")
	}

	switch config.IdentityMatchMode {
	case "strict", "network", "lenient":
	default:
		return fmt.Errorf("IDENTITY_MATCH_MODE must be 'strict', 'network' or 'lenient'")
	}

	switch config.RateStorage {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_STORAGE must be 'memory' or 'redis'")
	}

	if config.RedisDB < 0 || config.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15")
	}

	return nil
}

// getEnvWithDefault retorna o valor da variável de ambiente ou um valor padrão
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
