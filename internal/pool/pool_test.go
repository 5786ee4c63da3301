package pool

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookie-api/internal/domain"
)

// newTestPool cria um pool sobre diretórios temporários
func newTestPool(t *testing.T) *FilePool {
	t.Helper()

	p, err := NewFilePool(t.TempDir(), t.TempDir(), nil)
	require.NoError(t, err)
	return p
}

// seedPool grava N cookies diretamente no diretório, simulando também
// escritores externos (bot) que não passam pelo BulkLoad
func seedPool(t *testing.T, p *FilePool, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("cookie_seed_%d.txt", i)
		content := fmt.Sprintf("id=%d;category=premium;expiry=2027-01-01;value=%d", i, i*10)
		require.NoError(t, os.WriteFile(filepath.Join(p.dir, name), []byte(content), 0o644))
	}
}

// buildZip monta um ZIP em memória com as entradas informadas
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// TestFilePool_CountEmpty testa o pool recém-criado
func TestFilePool_CountEmpty(t *testing.T) {
	p := newTestPool(t)

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// TestFilePool_CountIgnoresIneligible testa que apenas .txt contam
func TestFilePool_CountIgnoresIneligible(t *testing.T) {
	p := newTestPool(t)
	seedPool(t, p, 3)

	require.NoError(t, os.WriteFile(filepath.Join(p.dir, "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(p.dir, "subdir.txt"), 0o755))

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// TestFilePool_ClaimOne testa a retirada básica: conteúdo capturado,
// arquivo removido, contagem decrementada
func TestFilePool_ClaimOne(t *testing.T) {
	p := newTestPool(t)
	seedPool(t, p, 2)

	cookie, remaining, err := p.ClaimOne()
	require.NoError(t, err)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Filename)
	assert.NotEmpty(t, cookie.Content)
	assert.Equal(t, 1, remaining)

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// O arquivo resgatado saiu do diretório
	_, statErr := os.Stat(filepath.Join(p.dir, cookie.Filename))
	assert.True(t, os.IsNotExist(statErr))
}

// TestFilePool_ClaimOneEmpty testa o pool vazio
func TestFilePool_ClaimOneEmpty(t *testing.T) {
	p := newTestPool(t)

	cookie, _, err := p.ClaimOne()
	assert.Nil(t, cookie)
	assert.True(t, errors.Is(err, domain.ErrPoolEmpty))
}

// TestFilePool_ConcurrentClaims testa a invariante central: com M
// cookies e N > M resgates concorrentes, exatamente M têm sucesso com
// arquivos distintos e N-M observam pool vazio
func TestFilePool_ConcurrentClaims(t *testing.T) {
	const cookies = 8
	const claimers = 20

	p := newTestPool(t)
	seedPool(t, p, cookies)

	type claimOutcome struct {
		cookie *domain.Cookie
		err    error
	}

	var wg sync.WaitGroup
	outcomes := make(chan claimOutcome, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _, err := p.ClaimOne()
			outcomes <- claimOutcome{cookie: c, err: err}
		}()
	}

	wg.Wait()
	close(outcomes)

	claimed := make(map[string]bool)
	empty := 0
	for o := range outcomes {
		if o.err != nil {
			assert.True(t, errors.Is(o.err, domain.ErrPoolEmpty))
			empty++
			continue
		}
		assert.False(t, claimed[o.cookie.Filename], "cookie %s claimed twice", o.cookie.Filename)
		claimed[o.cookie.Filename] = true
	}

	assert.Len(t, claimed, cookies)
	assert.Equal(t, claimers-cookies, empty)

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// TestFilePool_BulkLoad testa a carga em lote com entradas inválidas
func TestFilePool_BulkLoad(t *testing.T) {
	p := newTestPool(t)

	loaded, err := p.BulkLoad([]domain.CookieFile{
		{Name: "a.txt", Content: []byte("cookie a")},
		{Name: "b.txt", Content: []byte("cookie b")},
		{Name: "evil.exe", Content: []byte("nope")},
		{Name: "empty.txt", Content: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Nomes gerados seguem o padrão único do pool
	entries, err := os.ReadDir(p.dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Regexp(t, `^cookie_[0-9a-f-]+\.txt$`, e.Name())
	}
}

// TestFilePool_LoadFromArchive testa a extração de um ZIP com
// três entradas elegíveis e uma inelegível
func TestFilePool_LoadFromArchive(t *testing.T) {
	p := newTestPool(t)

	data := buildZip(t, map[string]string{
		"one.txt":       "cookie one",
		"two.txt":       "cookie two",
		"sub/three.TXT": "cookie three",
		"readme.md":     "ignored",
	})

	loaded, err := p.LoadFromArchive(data)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded)

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// TestFilePool_LoadFromArchiveNoEligible testa ZIP sem nenhum .txt
func TestFilePool_LoadFromArchiveNoEligible(t *testing.T) {
	p := newTestPool(t)

	data := buildZip(t, map[string]string{
		"readme.md": "x",
		"data.json": "{}",
	})

	_, err := p.LoadFromArchive(data)
	assert.True(t, errors.Is(err, domain.ErrNoEligibleFiles))
}

// TestFilePool_LoadFromArchiveInvalid testa bytes que não são um ZIP
func TestFilePool_LoadFromArchiveInvalid(t *testing.T) {
	p := newTestPool(t)

	_, err := p.LoadFromArchive([]byte("definitely not a zip"))
	assert.True(t, errors.Is(err, domain.ErrNotZipFile))
}

// TestFilePool_SaveOne testa o upload de arquivo único
func TestFilePool_SaveOne(t *testing.T) {
	p := newTestPool(t)

	saved, err := p.SaveOne("upload.txt", []byte("cookie content"))
	require.NoError(t, err)
	assert.Regexp(t, `^cookie_[0-9a-f-]+\.txt$`, saved)

	content, err := os.ReadFile(filepath.Join(p.dir, saved))
	require.NoError(t, err)
	assert.Equal(t, "cookie content", string(content))

	// Extensão errada é rejeitada
	_, err = p.SaveOne("upload.pdf", []byte("x"))
	assert.True(t, errors.Is(err, domain.ErrNotTxtFile))

	// Conteúdo vazio é rejeitado
	_, err = p.SaveOne("empty.txt", nil)
	assert.Error(t, err)
}

// TestFilePool_ClearAll testa a limpeza completa do pool
func TestFilePool_ClearAll(t *testing.T) {
	p := newTestPool(t)
	seedPool(t, p, 5)

	deleted, err := p.ClearAll()
	require.NoError(t, err)
	assert.Equal(t, 5, deleted)

	count, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Limpeza de pool vazio é inócua
	deleted, err = p.ClearAll()
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

// TestFilePool_CountStableAfterFailedClaims testa que resgates em pool
// vazio não alteram a contagem
func TestFilePool_CountStableAfterFailedClaims(t *testing.T) {
	p := newTestPool(t)
	seedPool(t, p, 1)

	before, err := p.Count()
	require.NoError(t, err)

	_, _, err = p.ClaimOne()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := p.ClaimOne()
		require.True(t, errors.Is(err, domain.ErrPoolEmpty))
	}

	after, err := p.Count()
	require.NoError(t, err)
	assert.Equal(t, before-1, after)
}
