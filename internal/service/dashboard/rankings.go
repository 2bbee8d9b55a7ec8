package dashboard

import (
	"context"

	"labpulse/internal/compliance"
	"labpulse/internal/model"
	"labpulse/internal/period"
	"labpulse/internal/ranking"
)

// RankingView 排名视图
type RankingView struct {
	Period *period.Resolution `json:"period,omitempty"` // 合规类指标与时间段无关
	ranking.Result
	Warning string `json:"warning,omitempty"`
}

// summaryValue 各汇总类指标的取值
var summaryValue = map[string]func(model.OfficeSummary) *float64{
	ranking.MetricRevenue:          func(s model.OfficeSummary) *float64 { return s.Revenue },
	ranking.MetricLabExpense:       func(s model.OfficeSummary) *float64 { return s.LabExpPercent },
	ranking.MetricPersonnelExpense: func(s model.OfficeSummary) *float64 { return s.PersonnelPercent },
	ranking.MetricWeeklyUnits:      func(s model.OfficeSummary) *float64 { return s.TotalWeeklyUnits },
	ranking.MetricBacklogInLab:     func(s model.OfficeSummary) *float64 { return s.BacklogInLab },
	ranking.MetricBacklogInClinic:  func(s model.OfficeSummary) *float64 { return s.BacklogInClinic },
	ranking.MetricDataCompleteness: func(s model.OfficeSummary) *float64 { return s.DataCompleteness },
}

// complianceValue 合规类指标的取值
var complianceValue = map[string]func(compliance.Record) float64{
	ranking.MetricCurrentStreak:  func(r compliance.Record) float64 { return float64(r.CurrentStreak) },
	ranking.MetricComplianceRate: func(r compliance.Record) float64 { return r.ComplianceRate },
}

// Rankings 按指标对筛选后的诊所排名
func (s *Service) Rankings(ctx context.Context, metricKey string, req Request) (*RankingView, error) {
	metric, err := ranking.Lookup(metricKey)
	if err != nil {
		return nil, err
	}

	if _, ok := complianceValue[metric.Key]; ok {
		cv, err := s.Compliance(ctx, metric.Key, req.Filter)
		if err != nil {
			return nil, err
		}
		return &RankingView{Result: cv.Ranking, Warning: cv.Warning}, nil
	}

	res, err := s.ResolvePeriod(req.Selector)
	if err != nil {
		return nil, err
	}
	offices, err := s.offices(ctx, req.Filter)
	if err != nil {
		return nil, err
	}
	summaries, _, warning := s.summarize(ctx, res.Range, offices)

	value := summaryValue[metric.Key]
	inputs := make([]ranking.Input, 0, len(summaries))
	for _, sum := range summaries {
		inputs = append(inputs, ranking.Input{
			OfficeID:   sum.OfficeID,
			OfficeName: sum.OfficeName,
			DFO:        sum.DFO,
			State:      sum.State,
			Value:      value(sum),
		})
	}

	return &RankingView{
		Period:  &res,
		Result:  ranking.Rank(metric, inputs),
		Warning: warning,
	}, nil
}
