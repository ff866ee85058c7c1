package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Youssefghazawy13/Stock/internal/config"
)

// Handler API 处理器
type Handler struct {
	cfg       *config.AppConfig
	dataDir   string
	downloads *downloadStore
}

// NewHandler 创建 API 处理器
func NewHandler(cfg *config.AppConfig, dataDir string) *Handler {
	return &Handler{
		cfg:       cfg,
		dataDir:   dataDir,
		downloads: newDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 上传预检：识别表头并回显样例行
	router.POST("/preview/schedule", h.PreviewSchedule)
	router.POST("/preview/products", h.PreviewProducts)

	// 报表生成（SSE）与打包下载
	router.POST("/reports/generate", h.GenerateReports)
	router.GET("/reports/download/:token", h.DownloadReports)
}
