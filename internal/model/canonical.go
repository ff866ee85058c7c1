package model

import "time"

// ScheduleEntry 规范化后的盘点排期行（分店 × 日期 × 品牌）
// 由排期解析器在拆分多品牌单元格后生成，创建后不再修改。
type ScheduleEntry struct {
	Branch string    `json:"branch"`
	Date   time.Time `json:"date"`
	Brand  string    `json:"brand"`
}

// ProductRecord 规范化后的商品行
// ActualQuantity 为指针：nil 表示“待人工填写”的空白，区别于 0。
type ProductRecord struct {
	Name              string   `json:"name"`
	Category          string   `json:"category"`
	BranchName        string   `json:"branchName"`
	Barcode           string   `json:"barcode"`
	Brand             string   `json:"brand"`
	AvailableQuantity float64  `json:"availableQuantity"`
	ActualQuantity    *float64 `json:"actualQuantity"`
}

// GroupKey 输出分组键：分组用分店键（小写去空格）+ 报表日期
type GroupKey struct {
	BranchKey string
	Date      time.Time
}

// ScheduleGroup 单个输出文件对应的排期组
// Brands 按首次出现顺序去重，保证生成结果可复现。
type ScheduleGroup struct {
	Key           GroupKey
	DisplayName   string   // 文件名使用的分店显示名（优先取商品侧原始名称）
	Brands        []string // 排期中请求的品牌（原始文本，首见顺序）
	BranchInIndex bool     // 分店是否在商品索引中命中（未命中时仍产出占位文件）
}

// GeneratedFile 单次运行产出的报表文件
// BranchMatched 为 false 表示排期分店未在商品目录命中，文件是占位产出。
type GeneratedFile struct {
	Path          string `json:"path"`
	BranchName    string `json:"branchName"`
	Date          string `json:"date"` // DD-MM-YYYY
	Sheets        int    `json:"sheets"`
	Rows          int    `json:"rows"`
	BranchMatched bool   `json:"branchMatched"`
}

// RunReport 运行统计（RowSkip 等仅记录不报错的事件在这里汇总）
type RunReport struct {
	RunID               string          `json:"runId"`
	ReportDate          string          `json:"reportDate"` // DD-MM-YYYY
	ScheduleRows        int             `json:"scheduleRows"`
	ScheduleRowsSkipped int             `json:"scheduleRowsSkipped"`
	ProductRows         int             `json:"productRows"`
	GroupsToday         int             `json:"groupsToday"`
	UnmatchedBranches   []string        `json:"unmatchedBranches"`
	UnmatchedBrands     []string        `json:"unmatchedBrands"`
	Files               []GeneratedFile `json:"files"`
	ZipPath             string          `json:"zipPath"`
	Duration            time.Duration   `json:"duration"`
}
