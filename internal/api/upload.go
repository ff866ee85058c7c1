package api

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// checkUpload 校验上传文件的扩展名与大小
func (h *Handler) checkUpload(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("不支持的文件格式 %q, 仅支持 .csv / .xlsx", ext)
	}

	maxBytes := int64(h.cfg.Limits.MaxUploadMB) << 20
	if maxBytes > 0 && file.Size > maxBytes {
		return fmt.Errorf("文件超过 %d MB 上限", h.cfg.Limits.MaxUploadMB)
	}
	return nil
}

// saveUpload 校验并落盘上传文件，返回保存路径
func (h *Handler) saveUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("缺少上传文件 %q", field)
	}

	if err := h.checkUpload(file); err != nil {
		return "", err
	}

	path := filepath.Join(h.dataDir, "uploads",
		fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	return path, nil
}
