package generator

import "strings"

// maxSheetNameLen Excel 工作表名上限
const maxSheetNameLen = 31

// ColumnLetter 0 基列下标转 Excel 列字母（0→A, 25→Z, 26→AA）
func ColumnLetter(idx int) string {
	letters := ""
	n := idx + 1
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}
	return letters
}

// TruncateSheetName 工作表名超长时截断到 31 字符
// 截断后的同名冲突不做去重，属已知可接受的限制。
func TruncateSheetName(name string) string {
	r := []rune(name)
	if len(r) <= maxSheetNameLen {
		return name
	}
	return string(r[:maxSheetNameLen])
}

// SanitizeFileName 分店显示名转安全文件名：空格换下划线，剔除路径敏感字符
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			continue
		}
		if r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "branch"
	}
	return b.String()
}

// sheetRef 跨表单元格引用：'表名'!A2（表名内的单引号按 Excel 规则翻倍转义）
func sheetRef(sheet, cell string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cell
}
