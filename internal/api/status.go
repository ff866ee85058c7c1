package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Timezone    string `json:"timezone"`    // 报表参考时区
	Today       string `json:"today"`       // 该时区的今天（DD-MM-YYYY）
	MaxUploadMB int    `json:"maxUploadMB"` // 上传大小上限
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	loc, err := time.LoadLocation(h.cfg.Business.Timezone)
	if err != nil {
		loc = time.UTC
	}

	c.JSON(http.StatusOK, StatusResponse{
		Timezone:    h.cfg.Business.Timezone,
		Today:       time.Now().In(loc).Format("02-01-2006"),
		MaxUploadMB: h.cfg.Limits.MaxUploadMB,
	})
}
