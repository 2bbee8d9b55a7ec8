package importer

import (
	"strconv"
	"strings"
)

// cell 取行中第 idx 列（越界返回空串）
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// normalizeNumber 去掉千分位、货币符号
func normalizeNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimPrefix(raw, "$")
	return raw
}

// parseInt 解析整数单元格；小数按截断处理
func parseInt(raw string) (int64, bool) {
	raw = normalizeNumber(raw)
	if raw == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// parseFloat 解析数值单元格；空单元格返回 nil
func parseFloat(raw string) *float64 {
	raw = normalizeNumber(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// countAt 解析计数单元格，缺失或非法时为 0
func countAt(row []string, idx int) int {
	v, ok := parseInt(cell(row, idx))
	if !ok {
		return 0
	}
	return int(v)
}
