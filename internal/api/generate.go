package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Youssefghazawy13/Stock/internal/model"
	"github.com/Youssefghazawy13/Stock/internal/pipeline"
)

// downloadTTL 打包下载链接的有效期
const downloadTTL = 10 * time.Minute

// GenerateReports 生成盘点报表（SSE 进度 + 完成后提供下载地址）
// POST /api/reports/generate
// 表单字段: schedule（排期文件）、products（商品目录文件）、date（可选 DD-MM-YYYY）
func (h *Handler) GenerateReports(c *gin.Context) {
	schedulePath, err := h.saveUpload(c, "schedule")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer os.Remove(schedulePath)

	productsPath, err := h.saveUpload(c, "products")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer os.Remove(productsPath)

	dateOverride := c.PostForm("date")

	// 每次运行独立输出目录，下载完成后整体清理
	runDir := filepath.Join(h.dataDir, "exports", uuid.New().String())
	if err := os.MkdirAll(runDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建输出目录失败"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	send := func(event pipeline.ProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	coordinator := pipeline.NewCoordinator(h.cfg)
	progressChan := coordinator.Generate(pipeline.GenerateOptions{
		SchedulePath: schedulePath,
		ProductsPath: productsPath,
		Date:         dateOverride,
		OutputDir:    runDir,
	})

	succeeded := false
	for event := range progressChan {
		if event.Type == "done" {
			if report, ok := event.Data.(*model.RunReport); ok && report.ZipPath != "" {
				token := h.downloads.put(report.ZipPath, runDir, report.ReportDate, downloadTTL)
				event.Data = gin.H{
					"report":      report,
					"downloadUrl": fmt.Sprintf("/api/reports/download/%s", token),
				}
				succeeded = true
			}
		}
		send(event)
	}

	// 没有可下载产物时（出错或当日无排期）不留垃圾目录
	if !succeeded {
		_ = os.RemoveAll(runDir)
	}
}

// DownloadReports 下载打包的报表（一次性）
// GET /api/reports/download/:token
func (h *Handler) DownloadReports(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.zipPath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "报表文件不存在"})
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(item.zipPath)))
	c.Header("Content-Type", "application/zip")
	c.Header("X-Report-Date", item.date)
	c.File(item.zipPath)

	h.downloads.delete(token)
	_ = os.RemoveAll(item.runDir)
}
