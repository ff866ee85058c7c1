package matcher

import (
	"strings"

	"github.com/Youssefghazawy13/Stock/internal/model"
	"github.com/Youssefghazawy13/Stock/internal/parser"
)

// Resolver 排期名称到商品名称的对账器
// 排期侧与商品侧的分店/品牌写法经常不一致（多余空格、后缀 "branch"、
// 大小写混用），这里用严格匹配键做精确→子串的两级回退。
type Resolver struct {
	index Index

	// matchKey(商品分店名) → 分店分组键，首见顺序固定，保证可复现
	branchByMatch map[string]string
	branchMatch   []string
}

// NewResolver 基于已建好的索引创建对账器
func NewResolver(idx Index) *Resolver {
	r := &Resolver{
		index:         idx,
		branchByMatch: make(map[string]string),
	}
	for _, branchKey := range idx.BranchKeys() {
		mk := parser.MatchKey(idx.DisplayBranch(branchKey))
		if mk == "" {
			continue
		}
		if _, seen := r.branchByMatch[mk]; !seen {
			r.branchByMatch[mk] = branchKey
			r.branchMatch = append(r.branchMatch, mk)
		}
	}
	return r
}

// ResolveBranch 解析排期分店名，返回商品索引中的分店分组键
//
//  1. 严格键精确命中
//  2. 按首见顺序扫描候选键，任一方向的子串关系即命中
//  3. 都未命中返回 ok=false，调用方退回排期原文的分组键，
//     保证该排期组仍产出（大概率为空的）文件而不是被丢弃
func (r *Resolver) ResolveBranch(scheduleBranch string) (branchKey string, ok bool) {
	key := parser.MatchKey(scheduleBranch)
	if key == "" {
		return "", false
	}

	if bk, found := r.branchByMatch[key]; found {
		return bk, true
	}

	for _, cand := range r.branchMatch {
		if strings.Contains(key, cand) || strings.Contains(cand, key) {
			return r.branchByMatch[cand], true
		}
	}

	return "", false
}

// BrandRows 在已解析的分店下取某品牌的商品行
// 先按分组键精确取；为空时在该分店的品牌键上做严格键子串回退，
// 命中的多个品牌键按首见顺序合并行。
func (r *Resolver) BrandRows(branchKey, scheduleBrand string) ([]model.ProductRecord, error) {
	rows, err := r.index.Rows(branchKey, parser.GroupKey(scheduleBrand))
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	want := parser.MatchKey(scheduleBrand)
	if want == "" {
		return nil, nil
	}

	var merged []model.ProductRecord
	for _, brandKey := range r.index.BrandKeys(branchKey) {
		cand := parser.MatchKey(brandKey)
		if cand == "" {
			continue
		}
		if strings.Contains(want, cand) || strings.Contains(cand, want) {
			got, err := r.index.Rows(branchKey, brandKey)
			if err != nil {
				return nil, err
			}
			merged = append(merged, got...)
		}
	}
	return merged, nil
}

// DisplayBranch 分店键对应的显示名（索引中不存在时返回空串）
func (r *Resolver) DisplayBranch(branchKey string) string {
	return r.index.DisplayBranch(branchKey)
}
