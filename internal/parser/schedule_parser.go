package parser

import (
	"strings"
	"time"

	"github.com/Youssefghazawy13/Stock/internal/model"
)

// ScheduleParser 排期规范化器
// 把表头可变、日期编码混杂的排期表解析为规范的 ScheduleEntry 序列。
type ScheduleParser struct {
	ref time.Time // 参考时刻：裸日号按该时刻所在月份解释
}

// NewScheduleParser 创建排期规范化器
// ref 应取固定参考时区下的“现在”（由调用方负责时区换算）。
func NewScheduleParser(ref time.Time) *ScheduleParser {
	return &ScheduleParser{ref: ref}
}

// Parse 消费全部批次并产出规范排期行
//
// 行为约定：
//   - 三个角色列任一无法从表头解析 → *SchemaError（整个输入作废）
//   - 单行的日期解析失败、或分店/品牌为空 → 跳过该行（RowSkip，计入统计）
//   - 多品牌单元格按 SplitBrandCell 拆分，每个 token 生成一条记录
//   - 输出顺序即输入顺序，不做排序
func (p *ScheduleParser) Parse(src model.TableSource) ([]model.ScheduleEntry, *ParseStats, error) {
	stats := &ParseStats{}
	var entries []model.ScheduleEntry
	resolved := false
	var branchIdx, dateIdx, brandIdx int

	for {
		batch, err := src.Next()
		if err != nil {
			return nil, stats, err
		}
		if batch == nil {
			break
		}

		if !resolved {
			branchIdx = findColumn(batch.Headers, branchAliases)
			dateIdx = findColumn(batch.Headers, dateAliases)
			brandIdx = findColumn(batch.Headers, brandAliases)
			if branchIdx < 0 || dateIdx < 0 || brandIdx < 0 {
				var missing []string
				if branchIdx < 0 {
					missing = append(missing, "branch")
				}
				if dateIdx < 0 {
					missing = append(missing, "date")
				}
				if brandIdx < 0 {
					missing = append(missing, "brand")
				}
				return nil, stats, &SchemaError{
					Source:   "schedule",
					Missing:  missing,
					Detected: batch.Headers,
				}
			}
			resolved = true
		}

		for _, row := range batch.Rows {
			stats.Rows++

			branch := strings.TrimSpace(batch.Cell(row, branchIdx))
			rawDate := batch.Cell(row, dateIdx)
			brandCell := batch.Cell(row, brandIdx)
			if branch == "" || brandCell == "" {
				stats.Skipped++
				continue
			}

			date, ok := ParseFlexibleDate(rawDate, p.ref)
			if !ok {
				stats.Skipped++
				continue
			}

			brands := SplitBrandCell(brandCell)
			if len(brands) == 0 {
				stats.Skipped++
				continue
			}
			for _, b := range brands {
				entries = append(entries, model.ScheduleEntry{
					Branch: branch,
					Date:   date,
					Brand:  b,
				})
			}
		}
	}

	return entries, stats, nil
}
