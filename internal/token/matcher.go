package token

import (
	"strings"

	"cookie-api/internal/domain"
)

// MatchMode define as políticas de comparação de identidade disponíveis
type MatchMode string

const (
	// MatchStrict aceita apenas igualdade exata de endereços
	MatchStrict MatchMode = "strict"

	// MatchNetwork aceita igualdade exata, variações de loopback e
	// proximidade de rede (IPv4 /16, IPv6 primeiros quatro grupos)
	MatchNetwork MatchMode = "network"

	// MatchLenient estende MatchNetwork tolerando pares de endereços
	// privados e o cenário de túnel (um endereço local, outro externo)
	MatchLenient MatchMode = "lenient"
)

// loopbackAddrs são as variações de loopback tratadas como equivalentes
var loopbackAddrs = map[string]bool{
	"127.0.0.1":        true,
	"::1":              true,
	"localhost":        true,
	"::ffff:127.0.0.1": true,
}

// matcher implementa domain.IdentityMatcher com uma das políticas acima
type matcher struct {
	mode MatchMode
}

// NewMatcher cria um matcher para a política informada.
// Modos desconhecidos recebem a política padrão (network).
func NewMatcher(mode MatchMode) domain.IdentityMatcher {
	switch mode {
	case MatchStrict, MatchNetwork, MatchLenient:
		return &matcher{mode: mode}
	default:
		return &matcher{mode: MatchNetwork}
	}
}

// Match compara a identidade que recebeu o token com a que o apresenta.
// A tolerância além da igualdade exata existe para clientes atrás de
// proxies/túneis cujo endereço aparente muda entre requisições.
func (m *matcher) Match(stored, presented string) bool {
	// Igualdade exata sempre vale, em qualquer modo
	if stored == presented {
		return true
	}

	if m.mode == MatchStrict {
		return false
	}

	// Variações de loopback são mutuamente equivalentes
	if loopbackAddrs[stored] && loopbackAddrs[presented] {
		return true
	}

	// IPv4: mesmos dois primeiros octetos
	if strings.Contains(stored, ".") && strings.Contains(presented, ".") {
		if sameIPv4Network(stored, presented) {
			return true
		}
	}

	// IPv6: mesmos quatro primeiros grupos
	if strings.Contains(stored, ":") && strings.Contains(presented, ":") {
		if sameIPv6Network(stored, presented) {
			return true
		}
	}

	if m.mode == MatchNetwork {
		return false
	}

	// Modo lenient: tolera pares de endereços locais/privados e o cenário
	// de túnel onde um lado enxerga loopback e o outro o endereço real
	storedLocal := isLocalAddr(stored)
	presentedLocal := isLocalAddr(presented)

	if storedLocal && presentedLocal {
		return true
	}

	if storedLocal != presentedLocal {
		return true
	}

	return false
}

// sameIPv4Network verifica se dois endereços IPv4 compartilham os dois
// primeiros octetos
func sameIPv4Network(a, b string) bool {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	if len(aParts) < 2 || len(bParts) < 2 {
		return false
	}

	return aParts[0] == bParts[0] && aParts[1] == bParts[1]
}

// sameIPv6Network verifica se dois endereços IPv6 compartilham os quatro
// primeiros grupos
func sameIPv6Network(a, b string) bool {
	aParts := strings.Split(a, ":")
	bParts := strings.Split(b, ":")

	if len(aParts) < 4 || len(bParts) < 4 {
		return false
	}

	for i := 0; i < 4; i++ {
		if aParts[i] != bParts[i] {
			return false
		}
	}
	return true
}

// isLocalAddr verifica se o endereço é loopback ou pertence a faixa privada
func isLocalAddr(addr string) bool {
	for loopback := range loopbackAddrs {
		if strings.Contains(addr, loopback) {
			return true
		}
	}

	return strings.HasPrefix(addr, "192.168.") ||
		strings.HasPrefix(addr, "10.") ||
		strings.HasPrefix(addr, "172.")
}
