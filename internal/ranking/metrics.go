package ranking

import (
	"errors"
	"fmt"

	"labpulse/internal/util"
)

// Direction 排序方向
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// Format 指标展示格式
type Format string

const (
	FormatCurrency Format = "currency"
	FormatPercent  Format = "percent"
	FormatCount    Format = "count"
)

// Metric 可排名指标
type Metric struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Direction Direction `json:"direction"`
	Format    Format    `json:"format"`
}

// 可排名指标键
const (
	MetricRevenue          = "revenue"
	MetricLabExpense       = "lab_expense_percent"
	MetricPersonnelExpense = "personnel_expense_percent"
	MetricWeeklyUnits      = "total_weekly_units"
	MetricBacklogInLab     = "backlog_in_lab"
	MetricBacklogInClinic  = "backlog_in_clinic"
	MetricDataCompleteness = "data_completeness"
	MetricCurrentStreak    = "current_streak"
	MetricComplianceRate   = "compliance_rate"
)

// Metrics 指标方向与格式表（按展示顺序）
var Metrics = []Metric{
	{Key: MetricRevenue, Label: "Revenue", Direction: HigherIsBetter, Format: FormatCurrency},
	{Key: MetricLabExpense, Label: "Lab Expense %", Direction: LowerIsBetter, Format: FormatPercent},
	{Key: MetricPersonnelExpense, Label: "Personnel Expense %", Direction: LowerIsBetter, Format: FormatPercent},
	{Key: MetricWeeklyUnits, Label: "Total Weekly Units", Direction: HigherIsBetter, Format: FormatCount},
	{Key: MetricBacklogInLab, Label: "Backlog in Lab", Direction: LowerIsBetter, Format: FormatCount},
	{Key: MetricBacklogInClinic, Label: "Backlog in Clinic", Direction: LowerIsBetter, Format: FormatCount},
	{Key: MetricDataCompleteness, Label: "Data Completeness", Direction: HigherIsBetter, Format: FormatPercent},
	{Key: MetricCurrentStreak, Label: "Current Streak", Direction: HigherIsBetter, Format: FormatCount},
	{Key: MetricComplianceRate, Label: "Compliance Rate", Direction: HigherIsBetter, Format: FormatPercent},
}

// ErrUnknownMetric 不支持的排名指标
var ErrUnknownMetric = errors.New("unknown ranking metric")

// Lookup 按键查找指标
func Lookup(key string) (Metric, error) {
	for _, m := range Metrics {
		if m.Key == key {
			return m, nil
		}
	}
	return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
}

// FormatValue 按指标展示约定格式化数值
func (m Metric) FormatValue(v float64) string {
	switch m.Format {
	case FormatCurrency:
		return util.FormatCurrency(v)
	case FormatPercent:
		return util.FormatPercent(v)
	default:
		return util.FormatCount(v)
	}
}
