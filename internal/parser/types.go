package parser

import (
	"fmt"
	"strings"
)

// SchemaError 必需列角色无法从表头解析
// 携带检测到的表头，供上层把修复建议直接呈现给用户。
type SchemaError struct {
	Source   string   // "schedule" 或 "products"
	Missing  []string // 未能解析的角色
	Detected []string // 源文件实际表头
}

// Error 实现 error
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s 缺少必需列 [%s]，检测到的表头: [%s]",
		e.Source, strings.Join(e.Missing, ", "), strings.Join(e.Detected, ", "))
}

// 排期表头角色别名（全部与小写、去空白后的列名比较）
var (
	branchAliases = []string{"branch", "branch_name", "store", "location"}
	dateAliases   = []string{"date", "day", "day_number", "daynum", "day_no", "day_of_month"}
	brandAliases  = []string{"brand", "brands", "brand_name", "vendor", "vendors"}
)

// 商品表头角色别名
var (
	productNameAliases      = []string{"name", "name_en", "product_name"}
	productBranchAliases    = []string{"branch_name", "branch", "store"}
	productBarcodeAliases   = []string{"barcode", "barcodes"}
	productBrandAliases     = []string{"brand", "vendor"}
	productAvailableAliases = []string{"available_quantity", "available_qty"}
	productActualAliases    = []string{"actual_quantity", "actual_qty"}
	productCategoryAliases  = []string{"category"}
)

// findColumn 在表头中按别名表定位列，返回列下标；未命中返回 -1
func findColumn(headers []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range headers {
			if NormalizeColumnName(h) == alias {
				return i
			}
		}
	}
	return -1
}

// ParseStats 解析统计：RowSkip 只计数，不中断
type ParseStats struct {
	Rows    int
	Skipped int
}

// LooksLikeSchedule 表头是否像排期表：三个角色中至少命中两个
// 用于工作簿的 sheet 甄别，宽于正式解析时的三列齐备要求。
func LooksLikeSchedule(headers []string) bool {
	hits := 0
	for _, aliases := range [][]string{branchAliases, dateAliases, brandAliases} {
		if findColumn(headers, aliases) >= 0 {
			hits++
		}
	}
	return hits >= 2
}

// LooksLikeProducts 表头是否像商品表：五个必需角色全部命中
func LooksLikeProducts(headers []string) bool {
	for _, aliases := range [][]string{
		productNameAliases,
		productBranchAliases,
		productBarcodeAliases,
		productBrandAliases,
		productAvailableAliases,
	} {
		if findColumn(headers, aliases) < 0 {
			return false
		}
	}
	return true
}
