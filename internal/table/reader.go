package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Youssefghazawy13/Stock/internal/model"
)

// ErrUnsupportedFormat 文件扩展名不在支持范围内
var ErrUnsupportedFormat = errors.New("不支持的文件格式，仅支持 CSV 与 XLSX")

// OpenSource 按扩展名打开表格源
// accept 用于 Excel 工作簿的 sheet 甄别（见 PickSheet）；CSV 源忽略该参数。
// batchSize 仅对 CSV 生效：CSV 按批流式读取，Excel 整表作为单批返回。
func OpenSource(filename string, r io.Reader, batchSize int, accept func(headers []string) bool) (model.TableSource, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return NewCSVSource(r, batchSize)
	case ".xlsx":
		return NewWorkbookSource(r, accept)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// csvSource CSV 批次源
type csvSource struct {
	reader    *csv.Reader
	headers   []string
	batchSize int
	done      bool
}

// NewCSVSource 创建 CSV 批次源
// 只消费表头行做分隔符探测，数据行留在底层 reader 里随 Next 逐批读取，
// 峰值内存与文件大小无关。
// 分隔符探测：先按逗号解析表头；若整行坍缩成包含 ";" 的单列，改用分号。
// 这是为适配部分分店用分号导出的历史习惯。
func NewCSVSource(r io.Reader, batchSize int) (model.TableSource, error) {
	if batchSize <= 0 {
		batchSize = 100000
	}

	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	for err == nil && strings.TrimSpace(line) == "" {
		// 表头前的空行跳过，与 encoding/csv 的空行语义一致
		line, err = br.ReadString('\n')
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("读取 CSV 失败: %w", err)
	}
	if strings.TrimSpace(line) == "" {
		return nil, errors.New("CSV 文件为空")
	}

	sep := ','
	headers, err := csvHeader(line, sep)
	if err != nil {
		return nil, err
	}
	if len(headers) == 1 && strings.Contains(headers[0], ";") {
		sep = ';'
		headers, err = csvHeader(line, sep)
		if err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.Comma = sep
	reader.FieldsPerRecord = -1

	return &csvSource{
		reader:    reader,
		headers:   headers,
		batchSize: batchSize,
	}, nil
}

func csvHeader(line string, sep rune) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = sep
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("解析 CSV 表头失败: %w", err)
	}
	return headers, nil
}

// Next 实现 model.TableSource
func (s *csvSource) Next() (*model.RawTable, error) {
	if s.done {
		return nil, nil
	}

	rows := make([][]string, 0, s.batchSize)
	for len(rows) < s.batchSize {
		row, err := s.reader.Read()
		if err == io.EOF {
			s.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 行失败: %w", err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return &model.RawTable{Headers: s.headers, Rows: rows}, nil
}
