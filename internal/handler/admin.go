package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cookie-api/internal/domain"
	"cookie-api/internal/middleware"
)

// AdminLoginRequest representa o corpo da requisição de login
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginHandler autentica o administrador e retorna um token de sessão
func (h *Handlers) AdminLoginHandler(c *gin.Context) {
	ctx := c.Request.Context()
	clientIP := middleware.GetClientIP(c)

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Username and password are required",
		})
		return
	}

	tok, err := h.admin.Login(ctx, clientIP, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many login attempts, please try again later",
			})

		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrLoginDisabled):
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid username or password",
			})

		default:
			h.logger.WithContext(ctx).Error("Error during admin login", err, map[string]interface{}{
				"client_ip": clientIP,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "An unexpected error occurred during login",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   tok,
		"message": "Login successful",
	})
}

// AdminStatusHandler retorna o status do pool e estatísticas do sistema
func (h *Handlers) AdminStatusHandler(c *gin.Context) {
	status, err := h.admin.Status()
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("Failed to get admin status", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Server error",
			"message": "An unexpected error occurred while getting system status.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"cookieCount": status.CookieCount,
		"lowCookies":  status.LowCookies,
		"system":      h.systemInfo(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// UploadZipHandler carrega os cookies de um arquivo ZIP no pool
func (h *Handlers) UploadZipHandler(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("cookieZip")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "No file uploaded",
		})
		return
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		h.logger.WithContext(ctx).Error("Failed to read uploaded zip", err, map[string]interface{}{
			"filename": fileHeader.Filename,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Error processing ZIP file",
		})
		return
	}

	count, err := h.admin.UploadArchive(fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotZipFile):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Uploaded file is not a ZIP file",
			})

		case errors.Is(err, domain.ErrNoEligibleFiles):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "ZIP file does not contain any .txt files",
			})

		default:
			h.logger.WithContext(ctx).Error("Error processing zip upload", err, map[string]interface{}{
				"filename": fileHeader.Filename,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Error processing ZIP file",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully extracted %d cookie files", count),
		"count":   count,
	})
}

// UploadFileHandler carrega um único arquivo de cookie no pool
func (h *Handlers) UploadFileHandler(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("cookieFile")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "No file uploaded",
		})
		return
	}

	content, err := readUpload(fileHeader)
	if err != nil {
		h.logger.WithContext(ctx).Error("Failed to read uploaded file", err, map[string]interface{}{
			"filename": fileHeader.Filename,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Error processing cookie file",
		})
		return
	}

	saved, err := h.admin.UploadFile(fileHeader.Filename, content)
	if err != nil {
		if errors.Is(err, domain.ErrNotTxtFile) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Uploaded file is not a TXT file",
			})
			return
		}

		h.logger.WithContext(ctx).Error("Error processing file upload", err, map[string]interface{}{
			"filename": fileHeader.Filename,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Error processing cookie file",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Successfully uploaded cookie file",
		"filename": saved,
	})
}

// ClearCookiesHandler remove todos os cookies do pool
func (h *Handlers) ClearCookiesHandler(c *gin.Context) {
	deleted, err := h.admin.ClearCookies()
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("Error clearing cookies", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Server error",
			"message": "An unexpected error occurred while clearing cookies.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully deleted %d cookie files.", deleted),
	})
}

// BackupHandler dispara um backup manual do pool
func (h *Handlers) BackupHandler(c *gin.Context) {
	result, err := h.admin.Backup()
	if err != nil {
		if errors.Is(err, domain.ErrPoolEmpty) {
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"message": "No cookies to backup or backup failed",
			})
			return
		}

		h.logger.WithContext(c.Request.Context()).Error("Error creating backup", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "An unexpected error occurred while creating backup",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Backup created successfully",
		"backupPath": result.Filename,
		"count":      result.Count,
	})
}

// readUpload abre e lê o conteúdo completo de um upload multipart
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
