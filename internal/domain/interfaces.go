package domain

import (
	"context"
	"time"
)

// TokenStore define a interface de emissão e validação de tokens de resgate.
// Tokens são de uso único, vinculados à identidade do cliente e expiram por TTL.
type TokenStore interface {
	// Issue gera um novo token vinculado à identidade do cliente
	Issue(clientID string) string

	// ValidateAndConsume valida e consome um token em uma única operação atômica.
	// Retorna true no máximo uma vez por token, mesmo sob chamadas concorrentes.
	ValidateAndConsume(token, clientID string) bool

	// Len retorna a quantidade de tokens ativos
	Len() int

	// Stop encerra a rotina de limpeza periódica
	Stop()
}

// IdentityMatcher define a política de comparação entre a identidade que
// recebeu o token e a identidade que o apresenta no resgate
type IdentityMatcher interface {
	Match(stored, presented string) bool
}

// WindowStorage define a interface de armazenamento de janelas fixas de
// rate limit. Implementa o Strategy Pattern: memória ou Redis.
type WindowStorage interface {
	// Take verifica e registra uma requisição de forma atômica.
	// Se a contagem já atingiu o limite, retorna allowed=false sem incrementar.
	Take(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, count int, resetTime time.Time, err error)

	// Get recupera o estado atual de uma janela, ou nil se inexistente
	Get(ctx context.Context, key string) (*RateLimitWindow, error)

	// Reset limpa o estado de uma chave
	Reset(ctx context.Context, key string) error

	// Health verifica se o storage está saudável
	Health(ctx context.Context) error

	// Close fecha a conexão com o storage
	Close() error
}

// RateLimiter define a interface do limitador de requisições por cliente
type RateLimiter interface {
	// IsLimited verifica se o cliente excedeu o limite da janela atual.
	// Quando não excedeu, a requisição é contabilizada.
	IsLimited(ctx context.Context, clientID string) (bool, error)

	// Status retorna o estado atual da janela do cliente, ou nil se inexistente
	Status(ctx context.Context, clientID string) (*RateLimitWindow, error)

	// Reset limpa o estado de rate limit de um cliente
	Reset(ctx context.Context, clientID string) error
}

// CookiePool define a interface do pool de cookies baseado em diretório.
// O próprio diretório é a fonte de verdade; escritores externos (bot)
// podem adicionar arquivos a qualquer momento.
type CookiePool interface {
	// Count retorna a quantidade de arquivos elegíveis no pool
	Count() (int, error)

	// ClaimOne retira um cookie aleatório do pool de forma atômica.
	// Retorna o cookie e a quantidade restante, ou ErrPoolEmpty.
	ClaimOne() (*Cookie, int, error)

	// BulkLoad grava arquivos no pool sob nomes únicos.
	// Entradas inválidas (extensão errada, conteúdo vazio) são ignoradas.
	BulkLoad(files []CookieFile) (int, error)

	// LoadFromArchive extrai os .txt de um ZIP para o pool.
	// ZIP sem nenhuma entrada elegível retorna ErrNoEligibleFiles.
	LoadFromArchive(data []byte) (int, error)

	// SaveOne grava um único arquivo no pool e retorna o nome gerado
	SaveOne(name string, content []byte) (string, error)

	// ClearAll remove todos os arquivos elegíveis; falhas parciais são
	// toleradas e o retorno informa quantos foram removidos
	ClearAll() (int, error)

	// Backup gera um ZIP com todos os cookies atuais no diretório de backup
	Backup() (*BackupResult, error)

	// CleanupBackups mantém apenas os N backups mais recentes
	CleanupBackups(keep int) (int, error)
}

// ClaimService define a interface do protocolo público de resgate
type ClaimService interface {
	// SubmitWin valida a pontuação e emite um token de resgate
	SubmitWin(ctx context.Context, clientID string, score int) (string, error)

	// Claim troca um token válido por um cookie do pool
	Claim(ctx context.Context, clientID, token string) (*ClaimResult, error)

	// Availability retorna a disponibilidade atual do pool
	Availability() (*Availability, error)
}

// AdminService define a interface das operações administrativas
type AdminService interface {
	// Login autentica o administrador e retorna um token de sessão
	Login(ctx context.Context, clientID, username, password string) (string, error)

	// ValidSession verifica se um token de sessão administrativo é válido
	ValidSession(token string) bool

	// Status retorna o status do pool para o painel
	Status() (*PoolStatus, error)

	// UploadArchive carrega os cookies de um arquivo ZIP no pool
	UploadArchive(filename string, data []byte) (int, error)

	// UploadFile carrega um único arquivo de cookie no pool
	UploadFile(filename string, content []byte) (string, error)

	// ClearCookies remove todos os cookies do pool
	ClearCookies() (int, error)

	// Backup dispara um backup manual do pool
	Backup() (*BackupResult, error)
}

// Logger define a interface para logging estruturado
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
	WithContext(ctx context.Context) Logger
}
