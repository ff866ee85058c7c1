package table

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Youssefghazawy13/Stock/internal/model"
)

// NewWorkbookSource 从 XLSX 工作簿创建表格源
// sheet 选择见 PickSheet；选中 sheet 整表读出，作为单批返回。
func NewWorkbookSource(r io.Reader, accept func(headers []string) bool) (model.TableSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败: %w", err)
	}
	defer f.Close()

	sheet := PickSheet(f, accept)
	if sheet == "" {
		return nil, errors.New("工作簿中没有可用的 sheet")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取 sheet %q 失败: %w", sheet, err)
	}
	if len(rows) == 0 {
		return model.NewSliceSource(), nil
	}

	return model.NewSliceSource(&model.RawTable{
		Headers: rows[0],
		Rows:    rows[1:],
	}), nil
}

// PickSheet 在工作簿中选择数据 sheet
// 优先名为 "data"（忽略大小写与空白）的 sheet；否则按顺序找第一个表头
// 通过 accept 校验的 sheet；都没有时退回第一个 sheet。
func PickSheet(f *excelize.File, accept func(headers []string) bool) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}

	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), "data") {
			return s
		}
	}

	if accept != nil {
		for _, s := range sheets {
			headers := headerRow(f, s)
			if len(headers) > 0 && accept(headers) {
				return s
			}
		}
	}

	return sheets[0]
}

func headerRow(f *excelize.File, sheet string) []string {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil
	}
	defer rows.Close()

	if !rows.Next() {
		return nil
	}
	headers, err := rows.Columns()
	if err != nil {
		return nil
	}
	return headers
}
