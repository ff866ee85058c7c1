package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Youssefghazawy13/Stock/internal/model"
	"github.com/Youssefghazawy13/Stock/internal/parser"
)

//go:embed schema.sql
var schemaFS embed.FS

// ProductIndex 落盘商品索引
//
// 超大商品目录下全内存物化会顶爆峰值内存，这个变体把行数据写进
// 单次运行的临时 SQLite 库（插入顺序由 rowid 保持），只有很小的
// 分店/品牌键目录驻留内存。查询语义与内存索引完全一致。
type ProductIndex struct {
	db   *sql.DB
	path string

	branchOrder []string
	brandOrder  map[string][]string
	display     map[string]string
	total       int
}

// NewProductIndex 创建落盘索引，dbPath 为临时库文件路径
func NewProductIndex(dbPath string) (*ProductIndex, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开索引库失败: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("连接索引库失败: %w", err)
	}

	// SQLite 单连接即可，避免写锁竞争
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("读取 schema.sql 失败: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化索引库结构失败: %w", err)
	}

	return &ProductIndex{
		db:         db,
		path:       dbPath,
		brandOrder: make(map[string][]string),
		display:    make(map[string]string),
	}, nil
}

// Add 批量写入一批商品行
func (p *ProductIndex) Add(records []model.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO products (
			branch_key, brand_key,
			name, category, branch_name, barcode, brand,
			available_quantity, actual_quantity, has_actual
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("预编译插入语句失败: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		branchKey := parser.GroupKey(rec.BranchName)
		brandKey := parser.GroupKey(rec.Brand)

		if _, seen := p.display[branchKey]; !seen {
			p.display[branchKey] = rec.BranchName
			p.branchOrder = append(p.branchOrder, branchKey)
		}
		if !containsKey(p.brandOrder[branchKey], brandKey) {
			p.brandOrder[branchKey] = append(p.brandOrder[branchKey], brandKey)
		}

		var actual sql.NullFloat64
		hasActual := 0
		if rec.ActualQuantity != nil {
			actual = sql.NullFloat64{Float64: *rec.ActualQuantity, Valid: true}
			hasActual = 1
		}

		if _, err := stmt.Exec(
			branchKey, brandKey,
			rec.Name, rec.Category, rec.BranchName, rec.Barcode, rec.Brand,
			rec.AvailableQuantity, actual, hasActual,
		); err != nil {
			return fmt.Errorf("写入商品行失败: %w", err)
		}
		p.total++
	}

	return tx.Commit()
}

// BranchKeys 全部分店键，首见顺序
func (p *ProductIndex) BranchKeys() []string {
	return p.branchOrder
}

// BrandKeys 某分店下的品牌键，首见顺序
func (p *ProductIndex) BrandKeys(branchKey string) []string {
	return p.brandOrder[branchKey]
}

// Rows 某 (分店, 品牌) 键下的商品行，按写入顺序返回
func (p *ProductIndex) Rows(branchKey, brandKey string) ([]model.ProductRecord, error) {
	rows, err := p.db.Query(`
		SELECT name, category, branch_name, barcode, brand,
		       available_quantity, actual_quantity, has_actual
		FROM products
		WHERE branch_key = ? AND brand_key = ?
		ORDER BY id
	`, branchKey, brandKey)
	if err != nil {
		return nil, fmt.Errorf("查询商品行失败: %w", err)
	}
	defer rows.Close()

	var out []model.ProductRecord
	for rows.Next() {
		var rec model.ProductRecord
		var actual sql.NullFloat64
		var hasActual int
		if err := rows.Scan(
			&rec.Name, &rec.Category, &rec.BranchName, &rec.Barcode, &rec.Brand,
			&rec.AvailableQuantity, &actual, &hasActual,
		); err != nil {
			return nil, fmt.Errorf("读取商品行失败: %w", err)
		}
		if hasActual == 1 && actual.Valid {
			v := actual.Float64
			rec.ActualQuantity = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DisplayBranch 分店键对应的原始显示名
func (p *ProductIndex) DisplayBranch(branchKey string) string {
	return p.display[branchKey]
}

// Len 已索引的商品行总数
func (p *ProductIndex) Len() int {
	return p.total
}

// Close 关闭并删除临时库文件
func (p *ProductIndex) Close() error {
	err := p.db.Close()
	if rmErr := os.Remove(p.path); err == nil {
		err = rmErr
	}
	return err
}

func containsKey(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}
