package pool

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cookie-api/internal/domain"

	"github.com/google/uuid"
)

// cookieExtension é a extensão dos arquivos elegíveis do pool
const cookieExtension = ".txt"

// FilePool implementa a interface domain.CookiePool sobre um diretório.
// O diretório é a fonte de verdade: toda operação relista o conteúdo,
// então arquivos gravados por escritores externos (bot do Telegram)
// entram no pool automaticamente.
//
// A sequência selecionar-ler-remover de um resgate é serializada por um
// mutex do pool, garantindo que dois resgates concorrentes nunca
// recebam o mesmo arquivo.
type FilePool struct {
	dir       string
	backupDir string
	mutex     sync.Mutex
	logger    domain.Logger
}

// NewFilePool cria uma nova instância do FilePool, garantindo que os
// diretórios de cookies e backups existam
func NewFilePool(dir, backupDir string, logger domain.Logger) (*FilePool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cookies directory %s: %w", dir, err)
	}

	if backupDir != "" {
		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create backup directory %s: %w", backupDir, err)
		}
	}

	if logger != nil {
		logger.Info("Cookie pool initialized", map[string]interface{}{
			"cookies_dir": dir,
			"backup_dir":  backupDir,
		})
	}

	return &FilePool{
		dir:       dir,
		backupDir: backupDir,
		logger:    logger,
	}, nil
}

// Count retorna a quantidade de arquivos elegíveis no pool
func (p *FilePool) Count() (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	files, err := p.listCookieFiles()
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// ClaimOne retira um cookie aleatório do pool.
// A seleção, leitura e remoção acontecem sob o mesmo lock. Se a remoção
// falhar depois de uma leitura bem-sucedida, o resgate ainda é
// considerado concluído: o conteúdo já foi capturado e o arquivo
// remanescente é apenas registrado em log.
func (p *FilePool) ClaimOne() (*domain.Cookie, int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	files, err := p.listCookieFiles()
	if err != nil {
		return nil, 0, err
	}

	if len(files) == 0 {
		return nil, 0, domain.ErrPoolEmpty
	}

	// Seleção uniforme entre os arquivos disponíveis
	selected := files[rand.Intn(len(files))]
	path := filepath.Join(p.dir, selected)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read cookie file %s: %w", selected, err)
	}

	if err := os.Remove(path); err != nil {
		// Conteúdo já capturado; o arquivo pode permanecer no pool
		if p.logger != nil {
			p.logger.Error("Failed to delete claimed cookie file", err, map[string]interface{}{
				"filename": selected,
			})
		}
	} else if p.logger != nil {
		p.logger.Debug("Cookie file claimed and deleted", map[string]interface{}{
			"filename":  selected,
			"remaining": len(files) - 1,
		})
	}

	return &domain.Cookie{
		Filename: selected,
		Content:  string(content),
	}, len(files) - 1, nil
}

// BulkLoad grava arquivos no pool sob nomes únicos.
// Entradas com extensão errada ou conteúdo vazio são ignoradas.
func (p *FilePool) BulkLoad(files []domain.CookieFile) (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	loaded := 0
	for _, f := range files {
		if !strings.HasSuffix(strings.ToLower(f.Name), cookieExtension) || len(f.Content) == 0 {
			if p.logger != nil {
				p.logger.Warn("Skipping ineligible cookie file", map[string]interface{}{
					"filename": f.Name,
					"size":     len(f.Content),
				})
			}
			continue
		}

		name := p.uniqueFilename()
		if err := os.WriteFile(filepath.Join(p.dir, name), f.Content, 0o644); err != nil {
			if p.logger != nil {
				p.logger.Error("Failed to write cookie file", err, map[string]interface{}{
					"filename": name,
					"original": f.Name,
				})
			}
			continue
		}
		loaded++
	}

	if p.logger != nil {
		p.logger.Info("Bulk load completed", map[string]interface{}{
			"received": len(files),
			"loaded":   loaded,
		})
	}

	return loaded, nil
}

// LoadFromArchive extrai os .txt de um arquivo ZIP para o pool.
// ZIP sem nenhuma entrada elegível é um erro visível ao chamador.
func (p *FilePool) LoadFromArchive(data []byte) (int, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrNotZipFile, err)
	}

	var files []domain.CookieFile
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name), cookieExtension) {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			if p.logger != nil {
				p.logger.Error("Failed to open zip entry", err, map[string]interface{}{
					"entry": entry.Name,
				})
			}
			continue
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			if p.logger != nil {
				p.logger.Error("Failed to read zip entry", err, map[string]interface{}{
					"entry": entry.Name,
				})
			}
			continue
		}

		// Apenas o nome base importa; o pool gera nomes únicos
		files = append(files, domain.CookieFile{
			Name:    filepath.Base(entry.Name),
			Content: content,
		})
	}

	if len(files) == 0 {
		return 0, domain.ErrNoEligibleFiles
	}

	return p.BulkLoad(files)
}

// SaveOne grava um único arquivo no pool e retorna o nome gerado
func (p *FilePool) SaveOne(name string, content []byte) (string, error) {
	if !strings.HasSuffix(strings.ToLower(name), cookieExtension) {
		return "", domain.ErrNotTxtFile
	}
	if len(content) == 0 {
		return "", fmt.Errorf("cookie file %s is empty", name)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	generated := p.uniqueFilename()
	if err := os.WriteFile(filepath.Join(p.dir, generated), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write cookie file: %w", err)
	}

	if p.logger != nil {
		p.logger.Info("Cookie file saved", map[string]interface{}{
			"filename": generated,
			"original": name,
		})
	}

	return generated, nil
}

// ClearAll remove todos os arquivos elegíveis do pool.
// Falhas parciais são toleradas; o retorno informa quantos foram removidos.
func (p *FilePool) ClearAll() (int, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	files, err := p.listCookieFiles()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, f := range files {
		if err := os.Remove(filepath.Join(p.dir, f)); err != nil {
			if p.logger != nil {
				p.logger.Error("Failed to delete cookie file", err, map[string]interface{}{
					"filename": f,
				})
			}
			continue
		}
		deleted++
	}

	if p.logger != nil {
		p.logger.Info("Cookie pool cleared", map[string]interface{}{
			"deleted": deleted,
			"total":   len(files),
		})
	}

	return deleted, nil
}

// listCookieFiles lista os arquivos elegíveis do diretório do pool.
// Deve ser chamado com o mutex do pool já adquirido.
func (p *FilePool) listCookieFiles() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), cookieExtension) {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// uniqueFilename gera um nome único para um novo arquivo do pool,
// evitando colisão com arquivos existentes ou chegando em paralelo
func (p *FilePool) uniqueFilename() string {
	return fmt.Sprintf("cookie_%s%s", uuid.NewString(), cookieExtension)
}
