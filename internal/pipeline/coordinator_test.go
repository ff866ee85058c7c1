package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Youssefghazawy13/Stock/internal/config"
	"github.com/Youssefghazawy13/Stock/internal/model"
)

const testScheduleCSV = `branch,date,brand
Maadi Branch,20-09-2025,X; Y
Nasr City,20-09-2025,Z
Maadi Branch,21-09-2025,X
,20-09-2025,X
`

const testProductsCSV = `name,category,branch_name,barcode,brand,available_quantity,actual_quantity
P1,Cat,Maadi,111,X,10,
P2,,Maadi,222,Y,5,
P3,,Nasr City,333,Z,7,2
`

func writeTestInputs(t *testing.T) (schedulePath, productsPath, outDir string) {
	t.Helper()
	dir := t.TempDir()
	schedulePath = filepath.Join(dir, "schedule.csv")
	productsPath = filepath.Join(dir, "products.csv")
	outDir = filepath.Join(dir, "out")

	if err := os.WriteFile(schedulePath, []byte(testScheduleCSV), 0644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	if err := os.WriteFile(productsPath, []byte(testProductsCSV), 0644); err != nil {
		t.Fatalf("write products: %v", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatalf("mkdir out: %v", err)
	}
	return schedulePath, productsPath, outDir
}

// runToReport 消费进度通道直到结束，返回 done 事件携带的运行报告
func runToReport(t *testing.T, cfg *config.AppConfig, opts GenerateOptions) *model.RunReport {
	t.Helper()

	var report *model.RunReport
	for event := range NewCoordinator(cfg).Generate(opts) {
		switch event.Type {
		case "error":
			t.Fatalf("pipeline error: %s", event.Message)
		case "done":
			r, ok := event.Data.(*model.RunReport)
			if !ok {
				t.Fatalf("done event data: %T", event.Data)
			}
			report = r
		}
	}
	if report == nil {
		t.Fatalf("no done event received")
	}
	return report
}

func TestCoordinator_EndToEnd(t *testing.T) {
	schedulePath, productsPath, outDir := writeTestInputs(t)

	cfg := config.DefaultConfig()
	report := runToReport(t, cfg, GenerateOptions{
		SchedulePath: schedulePath,
		ProductsPath: productsPath,
		Date:         "20-09-2025",
		OutputDir:    outDir,
	})

	if report.ReportDate != "20-09-2025" {
		t.Fatalf("report date: %s", report.ReportDate)
	}
	if report.ScheduleRows != 4 || report.ScheduleRowsSkipped != 1 {
		t.Fatalf("schedule stats: rows=%d skipped=%d", report.ScheduleRows, report.ScheduleRowsSkipped)
	}
	if report.ProductRows != 3 {
		t.Fatalf("product rows: %d", report.ProductRows)
	}
	if report.GroupsToday != 2 {
		t.Fatalf("groups: %d", report.GroupsToday)
	}
	if len(report.UnmatchedBranches) != 0 || len(report.UnmatchedBrands) != 0 {
		t.Fatalf("unexpected unmatched: %v %v", report.UnmatchedBranches, report.UnmatchedBrands)
	}

	// 分组顺序与排期首见顺序一致；"Maadi Branch" 对账到商品侧显示名 "Maadi"
	if len(report.Files) != 2 {
		t.Fatalf("files: %v", report.Files)
	}
	if filepath.Base(report.Files[0].Path) != "Maadi_20-09-2025.xlsx" {
		t.Fatalf("file 0: %s", report.Files[0].Path)
	}
	if filepath.Base(report.Files[1].Path) != "Nasr_City_20-09-2025.xlsx" {
		t.Fatalf("file 1: %s", report.Files[1].Path)
	}
	if !report.Files[0].BranchMatched || !report.Files[1].BranchMatched {
		t.Fatalf("branch matched flags: %+v", report.Files)
	}

	// Maadi 工作簿：两个品牌页 X、Y + Summary
	f, err := excelize.OpenFile(report.Files[0].Path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != "X" || sheets[1] != "Y" || sheets[2] != "Summary" {
		t.Fatalf("sheets: %v", sheets)
	}
	formula, err := f.GetCellFormula("Summary", "C2")
	if err != nil || formula != "='X'!H2" {
		t.Fatalf("summary formula: %q err=%v", formula, err)
	}

	// 打包产物
	if filepath.Base(report.ZipPath) != "Stock_Reports_20-09-2025.zip" {
		t.Fatalf("zip name: %s", report.ZipPath)
	}
	if _, err := os.Stat(report.ZipPath); err != nil {
		t.Fatalf("zip missing: %v", err)
	}
}

func TestCoordinator_SpillToDisk(t *testing.T) {
	schedulePath, productsPath, outDir := writeTestInputs(t)

	cfg := config.DefaultConfig()
	cfg.Business.SpillThreshold = 1 // 强制走落盘索引

	report := runToReport(t, cfg, GenerateOptions{
		SchedulePath: schedulePath,
		ProductsPath: productsPath,
		Date:         "20-09-2025",
		OutputDir:    outDir,
	})

	if report.GroupsToday != 2 || len(report.Files) != 2 {
		t.Fatalf("spill run diverged: groups=%d files=%d", report.GroupsToday, len(report.Files))
	}

	// 临时索引库随运行结束删除
	if _, err := os.Stat(filepath.Join(outDir, "products_index.db")); !os.IsNotExist(err) {
		t.Fatalf("spill db should be cleaned up, stat err=%v", err)
	}
}

func TestCoordinator_UnmatchedBranchStillProducesFile(t *testing.T) {
	dir := t.TempDir()
	schedulePath := filepath.Join(dir, "schedule.csv")
	productsPath := filepath.Join(dir, "products.csv")
	outDir := filepath.Join(dir, "out")

	if err := os.WriteFile(schedulePath, []byte("branch,date,brand\nGhost Town,20-09-2025,Nike\n"), 0644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	if err := os.WriteFile(productsPath, []byte(testProductsCSV), 0644); err != nil {
		t.Fatalf("write products: %v", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatalf("mkdir out: %v", err)
	}

	report := runToReport(t, config.DefaultConfig(), GenerateOptions{
		SchedulePath: schedulePath,
		ProductsPath: productsPath,
		Date:         "20-09-2025",
		OutputDir:    outDir,
	})

	if len(report.UnmatchedBranches) != 1 || report.UnmatchedBranches[0] != "Ghost Town" {
		t.Fatalf("unmatched branches: %v", report.UnmatchedBranches)
	}
	if len(report.Files) != 1 {
		t.Fatalf("files: %v", report.Files)
	}
	// 对账失败的分店仍产出占位文件，运行报告里标记为未命中
	if filepath.Base(report.Files[0].Path) != "Ghost_Town_20-09-2025.xlsx" {
		t.Fatalf("placeholder file name: %s", report.Files[0].Path)
	}
	if report.Files[0].BranchMatched {
		t.Fatalf("placeholder file must report unmatched branch: %+v", report.Files[0])
	}

	f, err := excelize.OpenFile(report.Files[0].Path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if got, _ := f.GetCellValue("Summary", "A2"); got != "No matching products were found for this schedule" {
		t.Fatalf("diagnostic text: %q", got)
	}
}

func TestCoordinator_BadDateOverride(t *testing.T) {
	schedulePath, productsPath, outDir := writeTestInputs(t)

	var gotError bool
	for event := range NewCoordinator(config.DefaultConfig()).Generate(GenerateOptions{
		SchedulePath: schedulePath,
		ProductsPath: productsPath,
		Date:         "2025/09/20",
		OutputDir:    outDir,
	}) {
		if event.Type == "error" {
			gotError = true
		}
		if event.Type == "done" {
			t.Fatalf("bad date override must abort the run")
		}
	}
	if !gotError {
		t.Fatalf("expected error event")
	}
}
