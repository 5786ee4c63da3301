package token

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

// tokenAlphabet é o alfabeto alfanumérico usado na geração de tokens
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generate gera um token aleatório alfanumérico de tamanho fixo.
// A entropia é suficiente para deter abuso casual dentro da janela de TTL;
// não é uma garantia criptográfica.
func Generate(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand indisponível é praticamente impossível; como a emissão
		// de tokens nunca falha, cai para UUIDs concatenados
		s := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
		return s[:length]
	}

	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}
