package parser

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// excelEpoch Excel 序列日 0 对应 1899-12-30（沿用 Excel 的 1900 闰年兼容口径）
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts 日期解析尝试顺序（首个成功者生效）
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
}

// NormalizeColumnName 规范化列名：去首尾空白并转小写
func NormalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GroupKey 分组键：小写 + 去首尾空白（用于索引分组与回退键）
func GroupKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchKey 跨源匹配键：小写、去空白、剔除所有非字母数字字符
// 比 GroupKey 更严格，专用于排期侧与商品侧的分店/品牌对账。
func MatchKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SplitBrandCell 拆分多品牌单元格
// 分隔符按 ";" → "," → "/" 的优先级，命中第一个就停止，不做多分隔符混拆。
// 返回去空白后的非空 token；单元格本身为空时返回空切片。
func SplitBrandCell(cell string) []string {
	for _, sep := range []string{";", ",", "/"} {
		if strings.Contains(cell, sep) {
			parts := strings.Split(cell, sep)
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	if v := strings.TrimSpace(cell); v != "" {
		return []string{v}
	}
	return nil
}

// DeriveCategory 从商品名称推导类目
// 规则：按 "-" 拆分、去空白、丢弃空段后看段数：
//
//	6 段 → 取下标 3；5 段 → 取下标 2；4 段 → 取下标 2；其余 → 空串。
//
// 5 段与 6 段取位不同是历史口径，下游报表依赖该行为，不得“修正”。
func DeriveCategory(name string) string {
	parts := strings.Split(name, "-")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	switch len(tokens) {
	case 6:
		return tokens[3]
	case 5:
		return tokens[2]
	case 4:
		return tokens[2]
	default:
		return ""
	}
}

// ParseFlexibleDate 解析排期日期单元格，按固定优先级尝试：
//  1. 常规日历日期（多种常见格式）
//  2. Excel 序列日（仅接受大于 31 的整数，保证第 3 步可达）
//  3. 1..N 的日号，解释为 ref 所在月份的某一天（N 为该月天数）
//
// 全部失败返回 ok=false，调用方按 RowSkip 处理。
// 返回值统一为 UTC 零点的日历日，便于比较。
func ParseFlexibleDate(raw string, ref time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return DateOnly(t), true
		}
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return time.Time{}, false
	}
	n := int(f)

	if n > 31 {
		return DateOnly(excelEpoch.AddDate(0, 0, n)), true
	}

	if n >= 1 && n <= DaysInMonth(ref) {
		return time.Date(ref.Year(), ref.Month(), n, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// DateOnly 截断为 UTC 零点的日历日
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInMonth t 所在月份的天数
func DaysInMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// CoerceQuantity 数量列容错转换：剔除千分位并解析，失败回落为 0
// 各分店录入口径不一致属于常态，这里按跳错不报错处理。
func CoerceQuantity(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}
