package matcher

import (
	"strings"
	"time"

	"github.com/Youssefghazawy13/Stock/internal/model"
	"github.com/Youssefghazawy13/Stock/internal/parser"
)

// BuildScheduleGroups 把排期行聚合成输出分组
//
// 只保留 date 等于 day 的行；每行的分店经 Resolver 对账，未命中时退回
// 排期原文的分组键（仍然成组，产出占位文件）。组内品牌按首见顺序去重。
// 返回值 unmatched 为对账失败的排期分店原文（去重，供运行报告）。
func BuildScheduleGroups(entries []model.ScheduleEntry, day time.Time, res *Resolver) (groups []*model.ScheduleGroup, unmatched []string) {
	day = parser.DateOnly(day)

	byKey := make(map[model.GroupKey]*model.ScheduleGroup)
	unmatchedSeen := make(map[string]struct{})

	for _, e := range entries {
		if !e.Date.Equal(day) {
			continue
		}

		branchKey, ok := res.ResolveBranch(e.Branch)
		if !ok {
			branchKey = parser.GroupKey(e.Branch)
			raw := strings.TrimSpace(e.Branch)
			if _, seen := unmatchedSeen[raw]; !seen {
				unmatchedSeen[raw] = struct{}{}
				unmatched = append(unmatched, raw)
			}
		}

		key := model.GroupKey{BranchKey: branchKey, Date: day}
		g, exists := byKey[key]
		if !exists {
			display := res.DisplayBranch(branchKey)
			if display == "" {
				display = strings.TrimSpace(e.Branch)
			}
			g = &model.ScheduleGroup{
				Key:           key,
				DisplayName:   display,
				BranchInIndex: ok,
			}
			byKey[key] = g
			groups = append(groups, g)
		}

		if !containsString(g.Brands, e.Brand) {
			g.Brands = append(g.Brands, e.Brand)
		}
	}

	return groups, unmatched
}
