package model

// RawTable 未解释的表格数据：表头 + 字符串单元格
// 读取层不做任何字段语义判断，语义解释全部在 parser 中完成。
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Cell 按列下标取单元格，越界视为空单元格（Excel 尾部空列常被裁掉）。
func (t *RawTable) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// TableSource 分批提供 RawTable 的数据源。
// 单张整表是“长度为一的批次序列”这一退化情形，下游始终按批次消费。
type TableSource interface {
	// Next 返回下一批；数据耗尽时返回 nil, nil。
	Next() (*RawTable, error)
}

// SliceSource 将内存中的若干批次包装为 TableSource（测试与 Excel 整表读取使用）。
type SliceSource struct {
	batches []*RawTable
	pos     int
}

// NewSliceSource 创建内存批次源
func NewSliceSource(batches ...*RawTable) *SliceSource {
	return &SliceSource{batches: batches}
}

// Next 实现 TableSource
func (s *SliceSource) Next() (*RawTable, error) {
	if s.pos >= len(s.batches) {
		return nil, nil
	}
	b := s.batches[s.pos]
	s.pos++
	return b, nil
}
