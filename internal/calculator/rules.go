package calculator

import (
	"fmt"

	"labpulse/internal/model"
)

// NoDataMessage 三个数据域均无数据时的提示
const NoDataMessage = "No data entered for this period"

// Unit 告警指标单位
type Unit string

const (
	UnitPercent Unit = "percent"
	UnitCases   Unit = "cases"
)

// ThresholdRule 阈值告警规则（越高越差）
type ThresholdRule struct {
	Metric   string
	Label    string
	Unit     Unit
	Warning  float64
	Critical float64
	Value    func(model.OfficeSummary) (float64, bool)
}

// AlertRules 按固定顺序评估的告警规则表；新增指标只需追加一行
var AlertRules = []ThresholdRule{
	{
		Metric:   "lab_expense_percent",
		Label:    "Lab expenses",
		Unit:     UnitPercent,
		Warning:  20,
		Critical: 25,
		Value:    func(s model.OfficeSummary) (float64, bool) { return deref(s.LabExpPercent) },
	},
	{
		Metric:   "personnel_expense_percent",
		Label:    "Personnel expenses",
		Unit:     UnitPercent,
		Warning:  15,
		Critical: 20,
		Value:    func(s model.OfficeSummary) (float64, bool) { return deref(s.PersonnelPercent) },
	},
	{
		Metric:   "backlog_case_count",
		Label:    "Backlog",
		Unit:     UnitCases,
		Warning:  50,
		Critical: 100,
		Value: func(s model.OfficeSummary) (float64, bool) {
			if s.BacklogCount == nil {
				return 0, false
			}
			return float64(*s.BacklogCount), true
		},
	},
}

// EvaluateAlerts 按规则表顺序生成告警，每条规则至多一条（critical 优先于 warning）
func EvaluateAlerts(s model.OfficeSummary) []model.Alert {
	if !s.HasFinancial && !s.HasOperations && !s.HasVolume {
		return []model.Alert{{Severity: model.SeverityInfo, Message: NoDataMessage}}
	}

	alerts := make([]model.Alert, 0, len(AlertRules))
	for _, rule := range AlertRules {
		v, ok := rule.Value(s)
		if !ok {
			continue
		}
		switch {
		case v > rule.Critical:
			alerts = append(alerts, rule.alert(v, rule.Critical, model.SeverityCritical))
		case v > rule.Warning:
			alerts = append(alerts, rule.alert(v, rule.Warning, model.SeverityWarning))
		}
	}
	return alerts
}

func (r ThresholdRule) alert(v, threshold float64, sev model.Severity) model.Alert {
	var msg string
	switch r.Unit {
	case UnitPercent:
		msg = fmt.Sprintf("%s at %.1f%% (>%g%% %s)", r.Label, v, threshold, sev)
	default:
		msg = fmt.Sprintf("%s at %.0f %s (>%g %s)", r.Label, v, r.Unit, threshold, sev)
	}
	return model.Alert{Metric: r.Metric, Severity: sev, Message: msg}
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
