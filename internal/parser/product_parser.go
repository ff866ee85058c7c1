package parser

import (
	"strings"

	"github.com/Youssefghazawy13/Stock/internal/model"
)

// productColumns 商品表头解析结果（-1 表示该列不存在）
type productColumns struct {
	name      int
	category  int
	branch    int
	barcode   int
	brand     int
	available int
	actual    int
}

// ProductParser 商品规范化器
// 逐批消费商品源，产出带派生类目的 ProductRecord。批次大小由读取层控制，
// 解析层自身不要求整表驻留内存。
type ProductParser struct{}

// NewProductParser 创建商品规范化器
func NewProductParser() *ProductParser {
	return &ProductParser{}
}

// resolveColumns 解析商品表头
// 五个必需角色缺一即报 *SchemaError；category / actual_quantity 可缺省。
func (p *ProductParser) resolveColumns(headers []string) (productColumns, error) {
	cols := productColumns{
		name:      findColumn(headers, productNameAliases),
		category:  findColumn(headers, productCategoryAliases),
		branch:    findColumn(headers, productBranchAliases),
		barcode:   findColumn(headers, productBarcodeAliases),
		brand:     findColumn(headers, productBrandAliases),
		available: findColumn(headers, productAvailableAliases),
		actual:    findColumn(headers, productActualAliases),
	}

	var missing []string
	if cols.name < 0 {
		missing = append(missing, "name")
	}
	if cols.branch < 0 {
		missing = append(missing, "branch_name")
	}
	if cols.barcode < 0 {
		missing = append(missing, "barcode")
	}
	if cols.brand < 0 {
		missing = append(missing, "brand")
	}
	if cols.available < 0 {
		missing = append(missing, "available_quantity")
	}
	if len(missing) > 0 {
		return cols, &SchemaError{
			Source:   "products",
			Missing:  missing,
			Detected: headers,
		}
	}
	return cols, nil
}

// ParseBatch 解析单个批次
func (p *ProductParser) ParseBatch(batch *model.RawTable) ([]model.ProductRecord, error) {
	cols, err := p.resolveColumns(batch.Headers)
	if err != nil {
		return nil, err
	}

	records := make([]model.ProductRecord, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		rec := model.ProductRecord{
			Name:              strings.TrimSpace(batch.Cell(row, cols.name)),
			BranchName:        strings.TrimSpace(batch.Cell(row, cols.branch)),
			Barcode:           strings.TrimSpace(batch.Cell(row, cols.barcode)),
			Brand:             strings.TrimSpace(batch.Cell(row, cols.brand)),
			AvailableQuantity: CoerceQuantity(batch.Cell(row, cols.available)),
		}

		// 类目：输入缺省或为空时从名称推导
		if cols.category >= 0 {
			rec.Category = strings.TrimSpace(batch.Cell(row, cols.category))
		}
		if rec.Category == "" {
			rec.Category = DeriveCategory(rec.Name)
		}

		// actual_quantity 是留给人工盘点后填写的值，缺省/空白保持 nil，不得落 0
		if cols.actual >= 0 {
			raw := strings.TrimSpace(batch.Cell(row, cols.actual))
			if raw != "" {
				v := CoerceQuantity(raw)
				rec.ActualQuantity = &v
			}
		}

		records = append(records, rec)
	}
	return records, nil
}
