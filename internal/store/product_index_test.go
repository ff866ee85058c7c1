package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Youssefghazawy13/Stock/internal/model"
)

func newTestProductIndex(t *testing.T) *ProductIndex {
	t.Helper()
	idx, err := NewProductIndex(filepath.Join(t.TempDir(), "products_index.db"))
	if err != nil {
		t.Fatalf("init index: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestProductIndex_RoundTrip(t *testing.T) {
	five := 5.0
	idx := newTestProductIndex(t)

	err := idx.Add([]model.ProductRecord{
		{Name: "p1", Category: "Cat", BranchName: "Maadi", Barcode: "123", Brand: "Nike", AvailableQuantity: 10.5},
		{Name: "p2", BranchName: "Maadi", Barcode: "456", Brand: "Nike", AvailableQuantity: 2, ActualQuantity: &five},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	rows, err := idx.Rows("maadi", "nike")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows got %d", len(rows))
	}

	r0 := rows[0]
	if r0.Name != "p1" || r0.Category != "Cat" || r0.Barcode != "123" || r0.AvailableQuantity != 10.5 {
		t.Fatalf("row 0 mismatch: %+v", r0)
	}
	// 空白 actual 必须以 nil 往返，不得变 0
	if r0.ActualQuantity != nil {
		t.Fatalf("blank actual: want nil got %v", *r0.ActualQuantity)
	}
	if rows[1].ActualQuantity == nil || *rows[1].ActualQuantity != 5 {
		t.Fatalf("actual round trip: %v", rows[1].ActualQuantity)
	}
}

func TestProductIndex_KeyOrder(t *testing.T) {
	idx := newTestProductIndex(t)

	err := idx.Add([]model.ProductRecord{
		{Name: "p1", BranchName: "B", Brand: "Y"},
		{Name: "p2", BranchName: "A", Brand: "X"},
		{Name: "p3", BranchName: "B", Brand: "X"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// 第二批不打乱首见顺序
	if err := idx.Add([]model.ProductRecord{{Name: "p4", BranchName: "B", Brand: "Y"}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	branches := idx.BranchKeys()
	if len(branches) != 2 || branches[0] != "b" || branches[1] != "a" {
		t.Fatalf("branch order: %v", branches)
	}
	brands := idx.BrandKeys("b")
	if len(brands) != 2 || brands[0] != "y" || brands[1] != "x" {
		t.Fatalf("brand order: %v", brands)
	}

	rows, err := idx.Rows("b", "y")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "p1" || rows[1].Name != "p4" {
		t.Fatalf("insert order not preserved: %v", rows)
	}

	if idx.Len() != 4 {
		t.Fatalf("len: want 4 got %d", idx.Len())
	}
	if idx.DisplayBranch("b") != "B" {
		t.Fatalf("display: %q", idx.DisplayBranch("b"))
	}
}

func TestProductIndex_CloseRemovesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "products_index.db")
	idx, err := NewProductIndex(dbPath)
	if err != nil {
		t.Fatalf("init index: %v", err)
	}

	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("temp db should be removed, stat err=%v", err)
	}
}
