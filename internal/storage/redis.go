package storage

import (
	"context"
	"fmt"
	"time"

	"cookie-api/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisStorage implementa a interface domain.WindowStorage usando Redis.
// Útil quando o estado de rate limit precisa sobreviver a restarts ou
// ser compartilhado; o restante do sistema permanece single-process.
type RedisStorage struct {
	client redis.Cmdable
	closer func() error
	logger domain.Logger
}

// takeScript implementa a janela fixa de forma atômica no Redis.
// Contagem no limite não incrementa; primeira requisição define o TTL.
var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	if current >= limit then
		local ttl = redis.call('PTTL', key)
		if ttl < 0 then
			redis.call('SET', key, 1, 'PX', window_ms)
			return {1, 1, window_ms}
		end
		return {0, current, ttl}
	end

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('PEXPIRE', key, window_ms)
	end
	local ttl = redis.call('PTTL', key)
	return {1, count, ttl}
`)

// NewRedisStorage cria uma nova instância do RedisStorage
func NewRedisStorage(host, port, password string, db int, logger domain.Logger) (*RedisStorage, error) {
	// Configura cliente Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,

		// Configurações de performance
		PoolSize:     20,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
	})

	// Testa a conexão
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", map[string]interface{}{
		"host": host,
		"port": port,
		"db":   db,
	})

	return &RedisStorage{
		client: rdb,
		closer: rdb.Close,
		logger: logger,
	}, nil
}

// Take verifica e registra uma requisição de forma atômica via script Lua
func (r *RedisStorage) Take(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Time, error) {
	start := time.Now()

	result, err := takeScript.Run(ctx, r.client, []string{key}, limit, window.Milliseconds()).Result()
	if err != nil {
		r.logStorageOperation("TAKE", key, false, time.Since(start).Seconds()*1000, err)
		return false, 0, time.Time{}, fmt.Errorf("failed to take from window %s: %w", key, err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		err := fmt.Errorf("unexpected script result for key %s: %v", key, result)
		r.logStorageOperation("TAKE", key, false, time.Since(start).Seconds()*1000, err)
		return false, 0, time.Time{}, err
	}

	allowed := values[0].(int64) == 1
	count := int(values[1].(int64))
	ttlMs := values[2].(int64)
	resetTime := time.Now().Add(time.Duration(ttlMs) * time.Millisecond)

	r.logStorageOperation("TAKE", key, true, time.Since(start).Seconds()*1000, nil)
	return allowed, count, resetTime, nil
}

// Get recupera o estado atual de uma janela, ou nil se inexistente
func (r *RedisStorage) Get(ctx context.Context, key string) (*domain.RateLimitWindow, error) {
	start := time.Now()

	count, err := r.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			r.logStorageOperation("GET", key, true, time.Since(start).Seconds()*1000, nil)
			return nil, nil
		}
		r.logStorageOperation("GET", key, false, time.Since(start).Seconds()*1000, err)
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		r.logStorageOperation("GET", key, false, time.Since(start).Seconds()*1000, err)
		return nil, fmt.Errorf("failed to get ttl for key %s: %w", key, err)
	}

	r.logStorageOperation("GET", key, true, time.Since(start).Seconds()*1000, nil)
	return &domain.RateLimitWindow{
		Key:       key,
		Count:     count,
		ResetTime: time.Now().Add(ttl),
	}, nil
}

// Reset limpa o estado de uma chave
func (r *RedisStorage) Reset(ctx context.Context, key string) error {
	start := time.Now()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logStorageOperation("RESET", key, false, time.Since(start).Seconds()*1000, err)
		return fmt.Errorf("failed to reset key %s: %w", key, err)
	}

	r.logStorageOperation("RESET", key, true, time.Since(start).Seconds()*1000, nil)
	return nil
}

// Health verifica se o Redis está respondendo
func (r *RedisStorage) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close fecha a conexão com o Redis
func (r *RedisStorage) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}

// logStorageOperation registra operações de storage
func (r *RedisStorage) logStorageOperation(operation, key string, success bool, latency float64, err error) {
	if r.logger == nil {
		return
	}

	if success {
		r.logger.Debug("Storage operation completed", map[string]interface{}{
			"operation": operation,
			"key":       key,
			"latency":   latency,
		})
	} else {
		r.logger.Error("Storage operation failed", err, map[string]interface{}{
			"operation": operation,
			"key":       key,
			"latency":   latency,
		})
	}
}
