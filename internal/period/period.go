package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPeriodSelector 自定义年月超出允许范围或时间段类型未知
var ErrInvalidPeriodSelector = errors.New("invalid period selector")

// 自定义年份允许范围
const (
	MinYear = 1900
	MaxYear = 2100
)

// Kind 时间段类型
type Kind string

const (
	CurrentMonth  Kind = "current_month"
	LastMonth     Kind = "last_month"
	QuarterToDate Kind = "qtd"
	YearToDate    Kind = "ytd"
	Custom        Kind = "custom"
)

// ParseKind 解析时间段类型，空字符串返回 fallback
func ParseKind(s string, fallback Kind) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback, nil
	}
	switch k := Kind(s); k {
	case CurrentMonth, LastMonth, QuarterToDate, YearToDate, Custom:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown period %q", ErrInvalidPeriodSelector, s)
}

// Range 闭区间年月范围，按月粒度
type Range struct {
	StartYear  int `json:"startYear"`
	StartMonth int `json:"startMonth"`
	EndYear    int `json:"endYear"`
	EndMonth   int `json:"endMonth"`
}

// Single 构造单月范围
func Single(year, month int) Range {
	return Range{StartYear: year, StartMonth: month, EndYear: year, EndMonth: month}
}

// Contains 判断年月是否落在范围内
func (r Range) Contains(year, month int) bool {
	k := year*100 + month
	return k >= r.StartYear*100+r.StartMonth && k <= r.EndYear*100+r.EndMonth
}

// IsSingleMonth 是否为单月
func (r Range) IsSingleMonth() bool {
	return r.StartYear == r.EndYear && r.StartMonth == r.EndMonth
}

// Months 范围内的月份数
func (r Range) Months() int {
	n := (r.EndYear-r.StartYear)*12 + (r.EndMonth - r.StartMonth) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Selector 一次请求的时间段选择（仅 Custom 使用 Year/Month）
type Selector struct {
	Kind  Kind `json:"kind"`
	Year  int  `json:"year,omitempty"`
	Month int  `json:"month,omitempty"`
}

// Resolution 解析结果
type Resolution struct {
	Kind  Kind   `json:"kind"`
	Range Range  `json:"range"`
	Label string `json:"label"`
}

// Resolve 将时间段选择解析为具体年月范围与展示标签
func Resolve(sel Selector, now time.Time) (Resolution, error) {
	year, month := now.Year(), int(now.Month())

	var r Range
	switch sel.Kind {
	case CurrentMonth:
		r = Single(year, month)
	case LastMonth:
		if month == 1 {
			r = Single(year-1, 12)
		} else {
			r = Single(year, month-1)
		}
	case QuarterToDate:
		quarter := (month + 2) / 3
		r = Range{StartYear: year, StartMonth: (quarter-1)*3 + 1, EndYear: year, EndMonth: month}
	case YearToDate:
		r = Range{StartYear: year, StartMonth: 1, EndYear: year, EndMonth: month}
	case Custom:
		if sel.Month < 1 || sel.Month > 12 {
			return Resolution{}, fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidPeriodSelector, sel.Month)
		}
		if sel.Year < MinYear || sel.Year > MaxYear {
			return Resolution{}, fmt.Errorf("%w: year %d out of range %d-%d", ErrInvalidPeriodSelector, sel.Year, MinYear, MaxYear)
		}
		r = Single(sel.Year, sel.Month)
	default:
		return Resolution{}, fmt.Errorf("%w: unknown period %q", ErrInvalidPeriodSelector, sel.Kind)
	}

	return Resolution{Kind: sel.Kind, Range: r, Label: Label(sel.Kind, r)}, nil
}

// Label 由时间段类型与范围生成展示标签
func Label(kind Kind, r Range) string {
	switch kind {
	case QuarterToDate:
		quarter := (r.StartMonth + 2) / 3
		return fmt.Sprintf("Q%d %d (%s - %s)", quarter, r.StartYear, shortMonth(r.StartMonth), shortMonth(r.EndMonth))
	case YearToDate:
		return fmt.Sprintf("YTD %d (%s - %s)", r.StartYear, shortMonth(r.StartMonth), shortMonth(r.EndMonth))
	}
	if r.IsSingleMonth() {
		return fmt.Sprintf("%s %d", longMonth(r.StartMonth), r.StartYear)
	}
	return fmt.Sprintf("%s %d - %s %d", shortMonth(r.StartMonth), r.StartYear, shortMonth(r.EndMonth), r.EndYear)
}

func shortMonth(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("M%d", m)
	}
	return time.Month(m).String()[:3]
}

func longMonth(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("M%d", m)
	}
	return time.Month(m).String()
}
