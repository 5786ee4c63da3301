package domain

import "errors"

// Erros sentinela do fluxo de resgate. Os handlers mapeiam cada um
// para o status HTTP correspondente.
var (
	// ErrScoreTooLow indica pontuação abaixo do mínimo para gerar token
	ErrScoreTooLow = errors.New("score below winning threshold")

	// ErrTokenMissing indica requisição de resgate sem token
	ErrTokenMissing = errors.New("no token provided")

	// ErrTokenInvalid indica token desconhecido, expirado ou já consumido
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrRateLimited indica cliente dentro do período de espera entre resgates
	ErrRateLimited = errors.New("rate limited")

	// ErrPoolEmpty indica que não há cookies disponíveis no pool
	ErrPoolEmpty = errors.New("no cookies available")

	// ErrNoEligibleFiles indica arquivo ZIP sem nenhum .txt aproveitável
	ErrNoEligibleFiles = errors.New("archive contains no eligible files")

	// ErrNotZipFile indica upload que não é um arquivo ZIP
	ErrNotZipFile = errors.New("uploaded file is not a zip file")

	// ErrNotTxtFile indica upload que não é um arquivo TXT
	ErrNotTxtFile = errors.New("uploaded file is not a txt file")

	// ErrInvalidCredentials indica falha de autenticação administrativa
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrLoginDisabled indica painel administrativo sem credenciais configuradas
	ErrLoginDisabled = errors.New("admin login is not configured")
)
