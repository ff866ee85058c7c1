package matcher

import (
	"testing"
	"time"

	"github.com/Youssefghazawy13/Stock/internal/model"
)

func newTestIndex(t *testing.T, records []model.ProductRecord) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex()
	if err := idx.Add(records); err != nil {
		t.Fatalf("add: %v", err)
	}
	return idx
}

func TestResolveBranch_ExactAndSubstring(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t, []model.ProductRecord{
		{Name: "p1", BranchName: "Maadi", Brand: "Nike"},
		{Name: "p2", BranchName: "Nasr City", Brand: "Nike"},
	})
	res := NewResolver(idx)

	// 精确（大小写/空白差异被匹配键抹平）
	if key, ok := res.ResolveBranch("  MAADI "); !ok || key != "maadi" {
		t.Fatalf("exact: want maadi got %q ok=%v", key, ok)
	}

	// 排期侧带后缀：排期名包含商品名
	if key, ok := res.ResolveBranch("Maadi Branch"); !ok || key != "maadi" {
		t.Fatalf("schedule superset: want maadi got %q ok=%v", key, ok)
	}

	// 商品侧更长：商品名包含排期名
	if key, ok := res.ResolveBranch("Nasr"); !ok || key != "nasr city" {
		t.Fatalf("product superset: want nasr city got %q ok=%v", key, ok)
	}

	if _, ok := res.ResolveBranch("Alexandria"); ok {
		t.Fatalf("unknown branch should not resolve")
	}
	if _, ok := res.ResolveBranch("***"); ok {
		t.Fatalf("empty match key should not resolve")
	}
}

func TestBrandRows_ExactThenFallbackMerge(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t, []model.ProductRecord{
		{Name: "p1", BranchName: "Maadi", Brand: "Nike"},
		{Name: "p2", BranchName: "Maadi", Brand: "Nike Air"},
		{Name: "p3", BranchName: "Maadi", Brand: "Adidas"},
	})
	res := NewResolver(idx)

	// 分组键精确命中时不做回退合并
	rows, err := res.BrandRows("maadi", "NIKE")
	if err != nil {
		t.Fatalf("brand rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "p1" {
		t.Fatalf("exact brand: want [p1] got %v", rows)
	}

	// 精确未命中 → 子串回退，合并所有命中的品牌键（首见顺序）
	rows, err = res.BrandRows("maadi", "Nike Air Max")
	if err != nil {
		t.Fatalf("brand rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "p1" || rows[1].Name != "p2" {
		t.Fatalf("fallback merge: want [p1 p2] got %v", rows)
	}

	rows, err = res.BrandRows("maadi", "Reebok")
	if err != nil {
		t.Fatalf("brand rows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("unmatched brand: want empty got %v", rows)
	}
}

func TestBuildScheduleGroups(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t, []model.ProductRecord{
		{Name: "p1", BranchName: "Maadi", Brand: "Nike"},
	})
	res := NewResolver(idx)

	day := time.Date(2025, time.September, 20, 0, 0, 0, 0, time.UTC)
	other := day.AddDate(0, 0, 1)

	entries := []model.ScheduleEntry{
		{Branch: "maadi branch", Date: day, Brand: "Nike"},
		{Branch: "Maadi", Date: day, Brand: "Adidas"},
		{Branch: "Maadi", Date: day, Brand: "Nike"}, // 品牌重复 → 去重
		{Branch: "Maadi", Date: other, Brand: "Puma"}, // 其他日期 → 过滤
		{Branch: "Ghost", Date: day, Brand: "Nike"},   // 对账失败 → 回退键
	}

	groups, unmatched := BuildScheduleGroups(entries, day, res)

	if len(groups) != 2 {
		t.Fatalf("want 2 groups got %d", len(groups))
	}

	g := groups[0]
	if g.Key.BranchKey != "maadi" || g.DisplayName != "Maadi" || !g.BranchInIndex {
		t.Fatalf("unexpected first group: %+v", g)
	}
	if len(g.Brands) != 2 || g.Brands[0] != "Nike" || g.Brands[1] != "Adidas" {
		t.Fatalf("brand dedup/order: %v", g.Brands)
	}

	ghost := groups[1]
	if ghost.Key.BranchKey != "ghost" || ghost.BranchInIndex || ghost.DisplayName != "Ghost" {
		t.Fatalf("unexpected fallback group: %+v", ghost)
	}

	if len(unmatched) != 1 || unmatched[0] != "Ghost" {
		t.Fatalf("unmatched: want [Ghost] got %v", unmatched)
	}
}

func TestMemoryIndex_Order(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t, []model.ProductRecord{
		{Name: "p1", BranchName: "B", Brand: "Y"},
		{Name: "p2", BranchName: "A", Brand: "X"},
		{Name: "p3", BranchName: "B", Brand: "X"},
		{Name: "p4", BranchName: "B", Brand: "Y"},
	})

	branches := idx.BranchKeys()
	if len(branches) != 2 || branches[0] != "b" || branches[1] != "a" {
		t.Fatalf("branch order: %v", branches)
	}
	brands := idx.BrandKeys("b")
	if len(brands) != 2 || brands[0] != "y" || brands[1] != "x" {
		t.Fatalf("brand order: %v", brands)
	}
	rows, _ := idx.Rows("b", "y")
	if len(rows) != 2 || rows[0].Name != "p1" || rows[1].Name != "p4" {
		t.Fatalf("row order: %v", rows)
	}
	if idx.Len() != 4 {
		t.Fatalf("len: want 4 got %d", idx.Len())
	}
	if idx.DisplayBranch("b") != "B" {
		t.Fatalf("display: %q", idx.DisplayBranch("b"))
	}
}
