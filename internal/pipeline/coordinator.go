package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Youssefghazawy13/Stock/internal/archiver"
	"github.com/Youssefghazawy13/Stock/internal/config"
	"github.com/Youssefghazawy13/Stock/internal/generator"
	"github.com/Youssefghazawy13/Stock/internal/matcher"
	"github.com/Youssefghazawy13/Stock/internal/model"
	"github.com/Youssefghazawy13/Stock/internal/parser"
	"github.com/Youssefghazawy13/Stock/internal/store"
	"github.com/Youssefghazawy13/Stock/internal/table"
)

// Coordinator 报表生成协调器：排期解析 → 商品索引 → 匹配分组 → 工作簿生成 → 打包
type Coordinator struct {
	cfg *config.AppConfig
}

// NewCoordinator 创建生成协调器
func NewCoordinator(cfg *config.AppConfig) *Coordinator {
	return &Coordinator{cfg: cfg}
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	SchedulePath string // 已落盘的排期文件路径
	ProductsPath string // 已落盘的商品目录文件路径
	Date         string // 报表日期覆盖（DD-MM-YYYY），空表示配置时区的今天
	OutputDir    string // 本次运行的输出目录（.xlsx 与 .zip 都写到这里）
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/warning/group_done/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// Generate 执行生成，返回进度通道
func (c *Coordinator) Generate(opts GenerateOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doGenerate(opts, progressChan)
	}()

	return progressChan
}

// doGenerate 执行生成逻辑
func (c *Coordinator) doGenerate(opts GenerateOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()
	runID := uuid.New().String()

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: "开始生成盘点报表",
		Data: map[string]string{
			"run_id":   runID,
			"schedule": filepath.Base(opts.SchedulePath),
			"products": filepath.Base(opts.ProductsPath),
		},
		Timestamp: time.Now(),
	})

	// 报表日期：配置时区的今天，或表单给定的 DD-MM-YYYY 覆盖
	ref, err := c.resolveReferenceDay(opts.Date, progressChan)
	if err != nil {
		c.fail(progressChan, fmt.Sprintf("报表日期无效: %v", err))
		return
	}
	day := parser.DateOnly(ref)

	// 解析排期
	entries, stats, err := c.parseSchedule(opts.SchedulePath, ref)
	if err != nil {
		c.fail(progressChan, fmt.Sprintf("排期解析失败: %v", err))
		return
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("排期解析完成: 共 %d 行, 跳过 %d 行", stats.Rows, stats.Skipped),
		Data: map[string]int{
			"rows":    stats.Rows,
			"skipped": stats.Skipped,
		},
		Timestamp: time.Now(),
	})

	// 建商品索引（超过阈值时落盘 SQLite）
	idx, productRows, err := c.buildIndex(opts, progressChan)
	if err != nil {
		c.fail(progressChan, fmt.Sprintf("商品目录解析失败: %v", err))
		return
	}
	defer idx.Close()

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("商品索引完成: %d 行", productRows),
		Data: map[string]int{
			"product_rows": productRows,
		},
		Timestamp: time.Now(),
	})

	// 匹配并分组
	res := matcher.NewResolver(idx)
	groups, unmatchedBranches := matcher.BuildScheduleGroups(entries, day, res)

	for _, name := range unmatchedBranches {
		c.sendProgress(progressChan, ProgressEvent{
			Type:      "warning",
			Message:   fmt.Sprintf("排期分店未在商品目录中命中: %s", name),
			Timestamp: time.Now(),
		})
	}

	dayLabel := day.Format("02-01-2006")
	c.sendProgress(progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("%s 共 %d 个排期组", dayLabel, len(groups)),
		Data: map[string]interface{}{
			"date":   dayLabel,
			"groups": len(groups),
		},
		Timestamp: time.Now(),
	})

	// 逐组生成工作簿
	gen := generator.NewGenerator(opts.OutputDir)
	report := &model.RunReport{
		RunID:               runID,
		ReportDate:          dayLabel,
		ScheduleRows:        stats.Rows,
		ScheduleRowsSkipped: stats.Skipped,
		ProductRows:         productRows,
		GroupsToday:         len(groups),
		UnmatchedBranches:   unmatchedBranches,
	}

	var paths []string
	for _, group := range groups {
		file, unmatchedBrands, err := gen.Generate(group, res)
		if err != nil {
			c.fail(progressChan, fmt.Sprintf("生成 %s 的报表失败: %v", group.DisplayName, err))
			return
		}

		for _, brand := range unmatchedBrands {
			label := fmt.Sprintf("%s: %s", group.DisplayName, brand)
			report.UnmatchedBrands = append(report.UnmatchedBrands, label)
			c.sendProgress(progressChan, ProgressEvent{
				Type:      "warning",
				Message:   fmt.Sprintf("品牌未命中任何商品: %s", label),
				Timestamp: time.Now(),
			})
		}

		report.Files = append(report.Files, file)
		paths = append(paths, file.Path)

		c.sendProgress(progressChan, ProgressEvent{
			Type:      "group_done",
			Message:   fmt.Sprintf("已生成 %s (%d 个品牌页, %d 行)", filepath.Base(file.Path), file.Sheets, file.Rows),
			Data:      file,
			Timestamp: time.Now(),
		})
	}

	// 打包
	if len(paths) > 0 {
		zipPath := filepath.Join(opts.OutputDir, fmt.Sprintf("Stock_Reports_%s.zip", dayLabel))
		if err := archiver.CreateZip(paths, zipPath); err != nil {
			c.fail(progressChan, fmt.Sprintf("打包失败: %v", err))
			return
		}
		report.ZipPath = zipPath
	}

	report.Duration = time.Since(startTime)

	c.sendProgress(progressChan, ProgressEvent{
		Type:      "done",
		Message:   "生成完成",
		Data:      report,
		Timestamp: time.Now(),
	})
}

// resolveReferenceDay 计算报表参考时刻：有覆盖日期用覆盖，否则取配置时区的当前时刻
func (c *Coordinator) resolveReferenceDay(override string, progressChan chan ProgressEvent) (time.Time, error) {
	loc, err := time.LoadLocation(c.cfg.Business.Timezone)
	if err != nil {
		c.sendProgress(progressChan, ProgressEvent{
			Type:      "warning",
			Message:   fmt.Sprintf("时区 %q 加载失败，回退 UTC", c.cfg.Business.Timezone),
			Timestamp: time.Now(),
		})
		loc = time.UTC
	}

	if override == "" {
		return time.Now().In(loc), nil
	}

	t, err := time.ParseInLocation("02-01-2006", override, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("期望 DD-MM-YYYY, 收到 %q", override)
	}
	return t, nil
}

// parseSchedule 打开并解析排期文件
func (c *Coordinator) parseSchedule(path string, ref time.Time) ([]model.ScheduleEntry, *parser.ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	src, err := table.OpenSource(filepath.Base(path), f, c.cfg.Business.ProductBatchSize, parser.LooksLikeSchedule)
	if err != nil {
		return nil, nil, err
	}

	return parser.NewScheduleParser(ref).Parse(src)
}

// buildIndex 流式解析商品目录并建索引
// 行数超过 spill_threshold 时把已积累的内存索引迁移到 SQLite 落盘索引，
// 迁移按分店/品牌首见顺序重放，查询侧观察到的顺序不变。
func (c *Coordinator) buildIndex(opts GenerateOptions, progressChan chan ProgressEvent) (matcher.Index, int, error) {
	f, err := os.Open(opts.ProductsPath)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	src, err := table.OpenSource(filepath.Base(opts.ProductsPath), f, c.cfg.Business.ProductBatchSize, parser.LooksLikeProducts)
	if err != nil {
		return nil, 0, err
	}

	pp := parser.NewProductParser()
	threshold := c.cfg.Business.SpillThreshold

	var idx matcher.Index = matcher.NewMemoryIndex()
	spilled := false
	total := 0

	for {
		batch, err := src.Next()
		if err != nil {
			idx.Close()
			return nil, 0, err
		}
		if batch == nil {
			break
		}

		records, err := pp.ParseBatch(batch)
		if err != nil {
			idx.Close()
			return nil, 0, err
		}
		total += len(records)

		if !spilled && threshold > 0 && total > threshold {
			dbPath := filepath.Join(opts.OutputDir, "products_index.db")
			disk, err := store.NewProductIndex(dbPath)
			if err != nil {
				idx.Close()
				return nil, 0, fmt.Errorf("创建落盘索引失败: %w", err)
			}
			if err := migrateIndex(idx, disk); err != nil {
				disk.Close()
				idx.Close()
				return nil, 0, err
			}
			idx.Close()
			idx = disk
			spilled = true

			c.sendProgress(progressChan, ProgressEvent{
				Type:      "info",
				Message:   fmt.Sprintf("商品行数超过 %d，索引落盘 SQLite", threshold),
				Timestamp: time.Now(),
			})
		}

		if err := idx.Add(records); err != nil {
			idx.Close()
			return nil, 0, err
		}
	}

	return idx, total, nil
}

// migrateIndex 把内存索引的内容按键的首见顺序重放到目标索引
func migrateIndex(from, to matcher.Index) error {
	for _, branchKey := range from.BranchKeys() {
		for _, brandKey := range from.BrandKeys(branchKey) {
			rows, err := from.Rows(branchKey, brandKey)
			if err != nil {
				return err
			}
			if err := to.Add(rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// fail 发送错误事件
func (c *Coordinator) fail(ch chan ProgressEvent, msg string) {
	c.sendProgress(ch, ProgressEvent{
		Type:      "error",
		Message:   msg,
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
