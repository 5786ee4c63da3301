package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookie-api/internal/domain"
	"cookie-api/internal/handler"
	"cookie-api/internal/logger"
	"cookie-api/internal/pool"
	"cookie-api/internal/ratelimit"
	"cookie-api/internal/service"
	"cookie-api/internal/storage"
	"cookie-api/internal/token"
)

// E2ETestSuite contém os componentes necessários para os testes E2E
type E2ETestSuite struct {
	server     *httptest.Server
	cookiesDir string
}

// suiteOptions permite ajustar os parâmetros do ambiente de teste
type suiteOptions struct {
	claimWindow   time.Duration
	claimRequests int
	adminUser     string
	adminPass     string
}

func defaultOptions() suiteOptions {
	return suiteOptions{
		// Janela curta para que testes sequenciais não colidam
		claimWindow:   200 * time.Millisecond,
		claimRequests: 1,
		adminUser:     "admin",
		adminPass:     "e2e-secret",
	}
}

// setupE2ETest configura um ambiente completo para testes E2E
func setupE2ETest(t *testing.T, opts suiteOptions) *E2ETestSuite {
	gin.SetMode(gin.TestMode)

	appLogger := logger.NewLogger("error", "text")

	cookiesDir := t.TempDir()
	backupDir := t.TempDir()

	filePool, err := pool.NewFilePool(cookiesDir, backupDir, appLogger)
	require.NoError(t, err)

	windowStorage := storage.NewMemoryStorage(appLogger)
	t.Cleanup(func() { windowStorage.Close() })

	claimLimiter := ratelimit.NewLimiter(windowStorage, domain.WindowConfig{
		Prefix:      "claim",
		Window:      opts.claimWindow,
		MaxRequests: opts.claimRequests,
	}, appLogger)

	loginLimiter := ratelimit.NewLimiter(windowStorage, domain.WindowConfig{
		Prefix:      "login",
		Window:      15 * time.Minute,
		MaxRequests: 5,
	}, appLogger)

	matcher := token.NewMatcher(token.MatchNetwork)
	tokens := token.NewStore(5*time.Minute, 32, time.Minute, matcher, appLogger)
	t.Cleanup(tokens.Stop)

	sessions := token.NewSessionStore(time.Hour)

	claims := service.NewClaimService(tokens, claimLimiter, filePool, 100, appLogger)
	admin := service.NewAdminService(filePool, loginLimiter, sessions, opts.adminUser, opts.adminPass, appLogger)

	handlers := handler.NewHandlers(claims, admin, appLogger)

	router := gin.New()
	router.Use(gin.Recovery())
	handlers.SetupRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &E2ETestSuite{
		server:     server,
		cookiesDir: cookiesDir,
	}
}

// seedCookies grava cookies diretamente no diretório do pool
func (suite *E2ETestSuite) seedCookies(t *testing.T, contents ...string) {
	t.Helper()
	for i, content := range contents {
		name := fmt.Sprintf("cookie_%03d.txt", i)
		require.NoError(t, os.WriteFile(filepath.Join(suite.cookiesDir, name), []byte(content), 0o644))
	}
}

func (suite *E2ETestSuite) postJSON(t *testing.T, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(suite.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)

	return resp, decodeJSON(t, resp)
}

func (suite *E2ETestSuite) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(suite.server.URL + path)
	require.NoError(t, err)
	return resp, decodeJSON(t, resp)
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

// winToken vence o jogo e retorna um token de resgate válido
func (suite *E2ETestSuite) winToken(t *testing.T) string {
	t.Helper()
	resp, body := suite.postJSON(t, "/api/game-win", map[string]int{"score": 150})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tok, ok := body["token"].(string)
	require.True(t, ok)
	require.Len(t, tok, 32)
	return tok
}

// adminSession autentica e retorna um token de sessão administrativa
func (suite *E2ETestSuite) adminSession(t *testing.T) string {
	t.Helper()
	resp, body := suite.postJSON(t, "/api/admin/login", map[string]string{
		"username": "admin",
		"password": "e2e-secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tok, ok := body["token"].(string)
	require.True(t, ok)
	return tok
}

// TestE2E_GameWinFlow testa a emissão de tokens pelo fluxo de vitória
func TestE2E_GameWinFlow(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())

	// Pontuação abaixo do limiar é rejeitada
	resp, body := suite.postJSON(t, "/api/game-win", map[string]int{"score": 50})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid game data", body["error"])

	// Pontuação válida emite um token de 32 caracteres
	resp, body = suite.postJSON(t, "/api/game-win", map[string]int{"score": 150})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	tok, ok := body["token"].(string)
	require.True(t, ok)
	assert.Len(t, tok, 32)
}

// TestE2E_ClaimFlow testa o resgate completo com consumo do token
func TestE2E_ClaimFlow(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())
	suite.seedCookies(t, "id=1;flavor=choc", "id=2;flavor=mint", "id=3;flavor=plain")

	tok := suite.winToken(t)

	// Resgate bem-sucedido retira um cookie do pool
	resp, body := suite.get(t, "/api/claim-cookie?token="+tok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["filename"])
	assert.NotEmpty(t, body["content"])
	assert.Equal(t, float64(2), body["remainingCookies"])

	// O arquivo foi removido do diretório
	entries, err := os.ReadDir(suite.cookiesDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// O mesmo token não vale duas vezes
	resp, body = suite.get(t, "/api/claim-cookie?token="+tok)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", body["error"])
}

// TestE2E_ClaimWithoutToken testa o resgate sem token
func TestE2E_ClaimWithoutToken(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())
	suite.seedCookies(t, "id=1")

	resp, body := suite.get(t, "/api/claim-cookie")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", body["error"])
}

// TestE2E_ClaimRateLimited testa o rate limit entre resgates sucessivos
func TestE2E_ClaimRateLimited(t *testing.T) {
	opts := defaultOptions()
	opts.claimWindow = time.Hour
	suite := setupE2ETest(t, opts)
	suite.seedCookies(t, "id=1", "id=2")

	// Primeiro resgate consome a quota da janela
	resp, _ := suite.get(t, "/api/claim-cookie?token="+suite.winToken(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Segundo resgate com token novo na mesma janela é bloqueado
	resp, body := suite.get(t, "/api/claim-cookie?token="+suite.winToken(t))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Already claimed", body["error"])
}

// TestE2E_ClaimWindowRollover testa que a janela expira e libera novo resgate
func TestE2E_ClaimWindowRollover(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())
	suite.seedCookies(t, "id=1", "id=2")

	resp, _ := suite.get(t, "/api/claim-cookie?token="+suite.winToken(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Espera a janela curta do suite expirar
	time.Sleep(300 * time.Millisecond)

	resp, _ = suite.get(t, "/api/claim-cookie?token="+suite.winToken(t))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestE2E_EmptyPoolConsumesToken testa que o pool vazio ainda gasta o token
func TestE2E_EmptyPoolConsumesToken(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())

	tok := suite.winToken(t)

	resp, body := suite.get(t, "/api/claim-cookie?token="+tok)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No cookies available", body["error"])

	// O token já foi gasto: reutilizar retorna 403
	time.Sleep(300 * time.Millisecond)
	resp, body = suite.get(t, "/api/claim-cookie?token="+tok)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", body["error"])
}

// TestE2E_CheckCookies testa a consulta pública de disponibilidade
func TestE2E_CheckCookies(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())

	resp, body := suite.get(t, "/api/check-cookies")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["available"])
	assert.Equal(t, float64(0), body["count"])

	suite.seedCookies(t, "id=1", "id=2", "id=3", "id=4")

	resp, body = suite.get(t, "/api/check-cookies")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["available"])
	assert.Equal(t, float64(4), body["count"])
}

// TestE2E_AdminUploadZip testa o upload de ZIP autenticado
func TestE2E_AdminUploadZip(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())
	session := suite.adminSession(t)

	// Monta um ZIP com três .txt válidos e um .json ignorado
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	for i := 1; i <= 3; i++ {
		f, err := zw.Create(fmt.Sprintf("cookie%d.txt", i))
		require.NoError(t, err)
		_, err = f.Write([]byte(fmt.Sprintf("id=%d", i)))
		require.NoError(t, err)
	}
	f, err := zw.Create("metadata.json")
	require.NoError(t, err)
	_, err = f.Write([]byte(`{"batch":1}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var reqBody bytes.Buffer
	mw := multipart.NewWriter(&reqBody)
	part, err := mw.CreateFormFile("cookieZip", "cookies.zip")
	require.NoError(t, err)
	_, err = part.Write(zipBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, suite.server.URL+"/api/admin/upload-cookies-zip", &reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+session)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decodeJSON(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["count"])

	// O pool reflete apenas os .txt extraídos
	_, check := suite.get(t, "/api/check-cookies")
	assert.Equal(t, float64(3), check["count"])
}

// TestE2E_AdminAuthRequired testa que mutações exigem sessão válida
func TestE2E_AdminAuthRequired(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())
	suite.seedCookies(t, "id=1")

	req, err := http.NewRequest(http.MethodPost, suite.server.URL+"/api/admin/clear-cookies", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decodeJSON(t, resp)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	// O pool permanece intacto
	_, check := suite.get(t, "/api/check-cookies")
	assert.Equal(t, float64(1), check["count"])
}

// TestE2E_AdminClearCookies testa a limpeza autenticada do pool
func TestE2E_AdminClearCookies(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())
	suite.seedCookies(t, "id=1", "id=2", "id=3")
	session := suite.adminSession(t)

	req, err := http.NewRequest(http.MethodPost, suite.server.URL+"/api/admin/clear-cookies", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decodeJSON(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Successfully deleted 3 cookie files.", body["message"])

	_, check := suite.get(t, "/api/check-cookies")
	assert.Equal(t, float64(0), check["count"])
}

// TestE2E_AdminLoginInvalidCredentials testa credenciais inválidas
func TestE2E_AdminLoginInvalidCredentials(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())

	resp, body := suite.postJSON(t, "/api/admin/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

// TestE2E_HealthCheck testa o endpoint de health
func TestE2E_HealthCheck(t *testing.T) {
	suite := setupE2ETest(t, defaultOptions())

	resp, body := suite.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
