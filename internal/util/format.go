package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatPercent 格式化百分比（输入已是百分数，如 12.34 -> "12.3%"）
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// FormatCurrency 格式化货币（千分位，取整）
func FormatCurrency(value float64) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	return sign + "$" + groupThousands(strconv.FormatFloat(math.Round(value), 'f', 0, 64))
}

// FormatCount 格式化计数；非整数保留一位小数
func FormatCount(value float64) string {
	if value == math.Trunc(value) {
		return groupThousands(strconv.FormatFloat(value, 'f', 0, 64))
	}
	return fmt.Sprintf("%.1f", value)
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	if len(digits) <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
