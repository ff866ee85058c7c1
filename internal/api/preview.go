package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Youssefghazawy13/Stock/internal/model"
	"github.com/Youssefghazawy13/Stock/internal/parser"
	"github.com/Youssefghazawy13/Stock/internal/table"
)

// previewSampleRows 预览回显的最大行数
const previewSampleRows = 20

// PreviewResponse 上传预检响应
type PreviewResponse struct {
	Headers     []string   `json:"headers"`     // 源文件表头
	Rows        [][]string `json:"rows"`        // 样例行（最多 20 行）
	ValidRows   int        `json:"validRows"`   // 样例中解析成功的行数
	SkippedRows int        `json:"skippedRows"` // 样例中跳过的行数
}

// PreviewSchedule 排期文件预检
// POST /api/preview/schedule
func (h *Handler) PreviewSchedule(c *gin.Context) {
	batch, ok := h.previewBatch(c, parser.LooksLikeSchedule)
	if !ok {
		return
	}

	_, stats, err := parser.NewScheduleParser(time.Now()).Parse(model.NewSliceSource(batch))
	if err != nil {
		h.writeSchemaError(c, err)
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{
		Headers:     batch.Headers,
		Rows:        batch.Rows,
		ValidRows:   stats.Rows - stats.Skipped,
		SkippedRows: stats.Skipped,
	})
}

// PreviewProducts 商品目录文件预检
// POST /api/preview/products
func (h *Handler) PreviewProducts(c *gin.Context) {
	batch, ok := h.previewBatch(c, parser.LooksLikeProducts)
	if !ok {
		return
	}

	records, err := parser.NewProductParser().ParseBatch(batch)
	if err != nil {
		h.writeSchemaError(c, err)
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{
		Headers:   batch.Headers,
		Rows:      batch.Rows,
		ValidRows: len(records),
	})
}

// previewBatch 保存上传、打开表格源并截取首批样例行
func (h *Handler) previewBatch(c *gin.Context, accept func(headers []string) bool) (*model.RawTable, bool) {
	path, err := h.saveUpload(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return nil, false
	}
	defer f.Close()

	src, err := table.OpenSource(path, f, previewSampleRows, accept)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	batch, err := src.Next()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if batch == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "文件没有数据行"})
		return nil, false
	}
	if len(batch.Rows) > previewSampleRows {
		batch.Rows = batch.Rows[:previewSampleRows]
	}
	return batch, true
}

// writeSchemaError 把表头缺列错误转成带修复信息的 422 响应
func (h *Handler) writeSchemaError(c *gin.Context, err error) {
	var schemaErr *parser.SchemaError
	if errors.As(err, &schemaErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    schemaErr.Error(),
			"missing":  schemaErr.Missing,
			"detected": schemaErr.Detected,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
