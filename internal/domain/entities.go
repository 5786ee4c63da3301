package domain

import "time"

// Cookie representa um artefato resgatável armazenado no pool
type Cookie struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// CookieFile representa um arquivo recebido para carga em lote no pool
type CookieFile struct {
	Name    string
	Content []byte
}

// ClaimResult representa o resultado de um resgate bem-sucedido
type ClaimResult struct {
	Filename         string `json:"filename"`
	Content          string `json:"content"`
	RemainingCookies int    `json:"remainingCookies"`
}

// Availability representa a disponibilidade atual do pool
type Availability struct {
	Available bool `json:"available"`
	Count     int  `json:"count"`
}

// RateLimitWindow representa o estado de uma janela fixa de rate limit
type RateLimitWindow struct {
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	ResetTime time.Time `json:"resetTime"`
}

// WindowConfig define os parâmetros de uma janela fixa de rate limit
type WindowConfig struct {
	Prefix      string        // prefixo da chave de storage (ex: "claim", "login")
	Window      time.Duration // duração da janela
	MaxRequests int           // máximo de requisições permitidas por janela
}

// TokenEntry representa um token de resgate ativo, vinculado à
// identidade do cliente que o recebeu
type TokenEntry struct {
	ClientID   string
	CreatedAt  time.Time
	ExpiryTime time.Time
}

// PoolStatus representa o status do pool para o painel administrativo
type PoolStatus struct {
	CookieCount int  `json:"cookieCount"`
	LowCookies  bool `json:"lowCookies"`
}

// BackupResult representa o resultado de um backup do pool
type BackupResult struct {
	Filename string `json:"filename"`
	Count    int    `json:"count"`
}
