package pool

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cookie-api/internal/domain"
)

const (
	backupPrefix = "cookies-backup-"
	backupSuffix = ".zip"
)

// Backup gera um ZIP com todos os cookies atuais no diretório de backup.
// Pool vazio retorna ErrPoolEmpty sem criar arquivo.
func (p *FilePool) Backup() (*domain.BackupResult, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	files, err := p.listCookieFiles()
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, domain.ErrPoolEmpty
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	backupName := fmt.Sprintf("%s%s%s", backupPrefix, timestamp, backupSuffix)
	backupPath := filepath.Join(p.backupDir, backupName)

	out, err := os.Create(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}

	writer := zip.NewWriter(out)
	archived := 0

	for _, f := range files {
		content, err := os.ReadFile(filepath.Join(p.dir, f))
		if err != nil {
			if p.logger != nil {
				p.logger.Error("Failed to read cookie file for backup", err, map[string]interface{}{
					"filename": f,
				})
			}
			continue
		}

		entry, err := writer.Create(f)
		if err != nil {
			writer.Close()
			out.Close()
			return nil, fmt.Errorf("failed to add %s to backup: %w", f, err)
		}
		if _, err := entry.Write(content); err != nil {
			writer.Close()
			out.Close()
			return nil, fmt.Errorf("failed to write %s to backup: %w", f, err)
		}
		archived++
	}

	if err := writer.Close(); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to finalize backup: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to close backup file: %w", err)
	}

	if p.logger != nil {
		p.logger.Info("Backup created", map[string]interface{}{
			"backup": backupName,
			"count":  archived,
		})
	}

	return &domain.BackupResult{
		Filename: backupName,
		Count:    archived,
	}, nil
}

// CleanupBackups mantém apenas os N backups mais recentes
func (p *FilePool) CleanupBackups(keep int) (int, error) {
	entries, err := os.ReadDir(p.backupDir)
	if err != nil {
		return 0, fmt.Errorf("failed to list backup directory: %w", err)
	}

	type backupFile struct {
		name    string
		modTime time.Time
	}

	var backups []backupFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{name: name, modTime: info.ModTime()})
	}

	// Mais recentes primeiro
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	if len(backups) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keep:] {
		if err := os.Remove(filepath.Join(p.backupDir, b.name)); err != nil {
			if p.logger != nil {
				p.logger.Error("Failed to delete old backup", err, map[string]interface{}{
					"backup": b.name,
				})
			}
			continue
		}
		deleted++
	}

	if deleted > 0 && p.logger != nil {
		p.logger.Info("Old backups removed", map[string]interface{}{
			"deleted": deleted,
			"kept":    keep,
		})
	}

	return deleted, nil
}

// StartBackupScheduler agenda backups automáticos no intervalo informado.
// Um backup inicial roda na partida; o retorno interrompe o agendamento.
func (p *FilePool) StartBackupScheduler(interval time.Duration, keep int) func() {
	stop := make(chan struct{})

	runBackup := func() {
		if _, err := p.Backup(); err != nil && err != domain.ErrPoolEmpty {
			if p.logger != nil {
				p.logger.Error("Scheduled backup failed", err, nil)
			}
		}
		if _, err := p.CleanupBackups(keep); err != nil && p.logger != nil {
			p.logger.Error("Backup cleanup failed", err, nil)
		}
	}

	go func() {
		runBackup()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runBackup()
			case <-stop:
				return
			}
		}
	}()

	if p.logger != nil {
		p.logger.Info("Backup scheduler started", map[string]interface{}{
			"interval": interval.String(),
			"keep":     keep,
		})
	}

	return func() { close(stop) }
}
