package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/Youssefghazawy13/Stock/internal/matcher"
	"github.com/Youssefghazawy13/Stock/internal/model"
)

// 品牌表的固定列序；actual_quantity 永远存在（上游缺省时留白待人工填写），
// difference 固定追加为最后一列。
var brandColumns = []string{
	"name",
	"category",
	"branch_name",
	"barcode",
	"brand",
	"available_quantity",
	"actual_quantity",
}

// summaryHeaders 汇总表列
var summaryHeaders = []string{"Product Name", "Barcode", "Difference"}

const (
	summarySheet = "Summary"
	dateLayout   = "02-01-2006" // 文件名中的 DD-MM-YYYY
)

// summaryEntry 汇总表一行所引用的品牌表单元格地址
type summaryEntry struct {
	nameRef    string
	barcodeRef string
	diffRef    string
}

// Generator 报表工作簿生成器
//
// 每个 (分店, 日期) 排期组产出一个 xlsx：每个命中品牌一张表，
// difference 列写活公式 =actual-available（而非静态差值），汇总表
// 用跨表公式引用各品牌表，人工在 Excel 里补填 actual 后全表联动。
type Generator struct {
	outputDir string
}

// NewGenerator 创建生成器，outputDir 不存在时由 Generate 负责创建
func NewGenerator(outputDir string) *Generator {
	return &Generator{outputDir: outputDir}
}

// Generate 为单个排期组生成工作簿
//
// 零命中品牌不产生工作表；整组零命中时产出只含诊断汇总表的占位文件
// （固定策略，保证每个排期组都有产出且跨次运行结果一致）。
// 写盘失败原样上抛：残缺文件比没有文件更糟，必须中止本次运行。
// 返回值 unmatched 为该组内零命中的品牌原文。
func (g *Generator) Generate(group *model.ScheduleGroup, res *matcher.Resolver) (model.GeneratedFile, []string, error) {
	f := excelize.NewFile()
	defer f.Close()

	var (
		entries   []summaryEntry
		unmatched []string
		sheets    int
		totalRows int
	)

	for _, brand := range group.Brands {
		rows, err := res.BrandRows(group.Key.BranchKey, brand)
		if err != nil {
			return model.GeneratedFile{}, nil, fmt.Errorf("查询品牌 %q 商品行失败: %w", brand, err)
		}
		if len(rows) == 0 {
			unmatched = append(unmatched, brand)
			continue
		}

		sheetName := TruncateSheetName(brand)
		if sheets == 0 {
			// 复用 excelize 的默认首表
			if err := f.SetSheetName("Sheet1", sheetName); err != nil {
				return model.GeneratedFile{}, nil, fmt.Errorf("创建工作表 %q 失败: %w", sheetName, err)
			}
		} else {
			if _, err := f.NewSheet(sheetName); err != nil {
				return model.GeneratedFile{}, nil, fmt.Errorf("创建工作表 %q 失败: %w", sheetName, err)
			}
		}
		sheets++

		sheetEntries, err := writeBrandSheet(f, sheetName, rows)
		if err != nil {
			return model.GeneratedFile{}, nil, err
		}
		entries = append(entries, sheetEntries...)
		totalRows += len(rows)
	}

	if err := g.writeSummary(f, sheets, entries); err != nil {
		return model.GeneratedFile{}, nil, err
	}

	dateStr := group.Key.Date.Format(dateLayout)
	filename := fmt.Sprintf("%s_%s.xlsx", SanitizeFileName(group.DisplayName), dateStr)
	outPath := filepath.Join(g.outputDir, filename)
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return model.GeneratedFile{}, nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := f.SaveAs(outPath); err != nil {
		return model.GeneratedFile{}, nil, fmt.Errorf("写入报表文件 %s 失败: %w", outPath, err)
	}

	return model.GeneratedFile{
		Path:          outPath,
		BranchName:    group.DisplayName,
		Date:          dateStr,
		Sheets:        sheets,
		Rows:          totalRows,
		BranchMatched: group.BranchInIndex,
	}, unmatched, nil
}

// writeBrandSheet 写入单个品牌表，返回供汇总表引用的单元格地址
func writeBrandSheet(f *excelize.File, sheet string, rows []model.ProductRecord) ([]summaryEntry, error) {
	for i, h := range brandColumns {
		cell := fmt.Sprintf("%s1", ColumnLetter(i))
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("写入表头失败: %w", err)
		}
	}
	diffCol := ColumnLetter(len(brandColumns))
	if err := f.SetCellValue(sheet, diffCol+"1", "difference"); err != nil {
		return nil, fmt.Errorf("写入表头失败: %w", err)
	}

	nameCol := ColumnLetter(0)
	barcodeCol := ColumnLetter(3)
	availableCol := ColumnLetter(5)
	actualCol := ColumnLetter(6)

	entries := make([]summaryEntry, 0, len(rows))
	for i, rec := range rows {
		row := i + 2 // 数据紧跟表头

		set := func(col string, v interface{}) error {
			return f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
		if err := set(nameCol, rec.Name); err != nil {
			return nil, err
		}
		if err := set(ColumnLetter(1), rec.Category); err != nil {
			return nil, err
		}
		if err := set(ColumnLetter(2), rec.BranchName); err != nil {
			return nil, err
		}
		if err := set(barcodeCol, rec.Barcode); err != nil {
			return nil, err
		}
		if err := set(ColumnLetter(4), rec.Brand); err != nil {
			return nil, err
		}
		if err := set(availableCol, rec.AvailableQuantity); err != nil {
			return nil, err
		}
		// actual_quantity：空白单元格留给盘点人员，非 0
		if rec.ActualQuantity != nil {
			if err := set(actualCol, *rec.ActualQuantity); err != nil {
				return nil, err
			}
		}

		// difference 必须是活公式，引用同行的 actual/available 两列
		formula := fmt.Sprintf("=%s%d-%s%d", actualCol, row, availableCol, row)
		diffCell := fmt.Sprintf("%s%d", diffCol, row)
		if err := f.SetCellFormula(sheet, diffCell, formula); err != nil {
			return nil, fmt.Errorf("写入 difference 公式失败: %w", err)
		}

		entries = append(entries, summaryEntry{
			nameRef:    sheetRef(sheet, fmt.Sprintf("%s%d", nameCol, row)),
			barcodeRef: sheetRef(sheet, fmt.Sprintf("%s%d", barcodeCol, row)),
			diffRef:    sheetRef(sheet, diffCell),
		})
	}

	return entries, nil
}

// writeSummary 写入汇总表
// 行序 = 品牌表写入顺序 × 表内行序；全部是跨表公式，改动品牌表即联动。
// brandSheets 为 0 时退化为诊断占位表。
func (g *Generator) writeSummary(f *excelize.File, brandSheets int, entries []summaryEntry) error {
	if brandSheets == 0 {
		// 整组零命中：占位文件固定只有一张 Summary
		if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
			return fmt.Errorf("创建汇总表失败: %w", err)
		}
	} else {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return fmt.Errorf("创建汇总表失败: %w", err)
		}
	}

	for i, h := range summaryHeaders {
		cell := fmt.Sprintf("%s1", ColumnLetter(i))
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return fmt.Errorf("写入汇总表头失败: %w", err)
		}
	}

	if brandSheets == 0 {
		return f.SetCellValue(summarySheet, "A2", "No matching products were found for this schedule")
	}

	for i, ent := range entries {
		row := i + 2
		if err := f.SetCellFormula(summarySheet, fmt.Sprintf("A%d", row), "="+ent.nameRef); err != nil {
			return fmt.Errorf("写入汇总公式失败: %w", err)
		}
		if err := f.SetCellFormula(summarySheet, fmt.Sprintf("B%d", row), "="+ent.barcodeRef); err != nil {
			return fmt.Errorf("写入汇总公式失败: %w", err)
		}
		if err := f.SetCellFormula(summarySheet, fmt.Sprintf("C%d", row), "="+ent.diffRef); err != nil {
			return fmt.Errorf("写入汇总公式失败: %w", err)
		}
	}

	return nil
}
