package matcher

import (
	"github.com/Youssefghazawy13/Stock/internal/model"
	"github.com/Youssefghazawy13/Stock/internal/parser"
)

// Key 索引键：分组口径（小写、去首尾空白）的分店键 + 品牌键
type Key struct {
	Branch string
	Brand  string
}

// Index 商品索引：按 (分店键, 品牌键) 分组的只读查询结构
//
// 约定：Add 全部完成后才允许查询（两阶段：先建后查）；
// 所有枚举方法都按首见插入顺序返回，保证跨次运行产出一致。
type Index interface {
	// Add 追加一批商品行（建索引阶段调用）
	Add(records []model.ProductRecord) error
	// BranchKeys 全部分店键，首见顺序
	BranchKeys() []string
	// BrandKeys 某分店下的品牌键，首见顺序
	BrandKeys(branchKey string) []string
	// Rows 某 (分店, 品牌) 键下的商品行，插入顺序
	Rows(branchKey, brandKey string) ([]model.ProductRecord, error)
	// DisplayBranch 分店键对应的原始显示名（取首次出现的原文）
	DisplayBranch(branchKey string) string
	// Len 已索引的商品行总数
	Len() int
	// Close 释放底层资源（内存实现为空操作）
	Close() error
}

// MemoryIndex 全内存商品索引（默认实现）
// 匹配需要全局视图，且同一商品行可能服务多个排期组，故整个商品集
// 在建索引阶段全部物化；超大目录场景见 store.ProductIndex 的落盘变体。
type MemoryIndex struct {
	rows        map[Key][]model.ProductRecord
	branchOrder []string
	brandOrder  map[string][]string
	display     map[string]string
	total       int
}

// NewMemoryIndex 创建内存索引
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		rows:       make(map[Key][]model.ProductRecord),
		brandOrder: make(map[string][]string),
		display:    make(map[string]string),
	}
}

// Add 实现 Index
func (m *MemoryIndex) Add(records []model.ProductRecord) error {
	for _, rec := range records {
		branchKey := parser.GroupKey(rec.BranchName)
		brandKey := parser.GroupKey(rec.Brand)
		key := Key{Branch: branchKey, Brand: brandKey}

		if _, seen := m.display[branchKey]; !seen {
			m.display[branchKey] = rec.BranchName
			m.branchOrder = append(m.branchOrder, branchKey)
		}
		if !containsString(m.brandOrder[branchKey], brandKey) {
			m.brandOrder[branchKey] = append(m.brandOrder[branchKey], brandKey)
		}

		m.rows[key] = append(m.rows[key], rec)
		m.total++
	}
	return nil
}

// BranchKeys 实现 Index
func (m *MemoryIndex) BranchKeys() []string {
	return m.branchOrder
}

// BrandKeys 实现 Index
func (m *MemoryIndex) BrandKeys(branchKey string) []string {
	return m.brandOrder[branchKey]
}

// Rows 实现 Index
func (m *MemoryIndex) Rows(branchKey, brandKey string) ([]model.ProductRecord, error) {
	return m.rows[Key{Branch: branchKey, Brand: brandKey}], nil
}

// DisplayBranch 实现 Index
func (m *MemoryIndex) DisplayBranch(branchKey string) string {
	return m.display[branchKey]
}

// Len 实现 Index
func (m *MemoryIndex) Len() int {
	return m.total
}

// Close 实现 Index
func (m *MemoryIndex) Close() error {
	return nil
}

func containsString(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}
