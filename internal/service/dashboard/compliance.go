package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"labpulse/internal/compliance"
	"labpulse/internal/model"
	"labpulse/internal/ranking"
)

// ComplianceView 周提交合规视图
type ComplianceView struct {
	SortBy  string              `json:"sortBy"`
	Window  int                 `json:"window"`
	Records []compliance.Record `json:"records"` // 按 SortBy 排名顺序
	Ranking ranking.Result      `json:"ranking"`

	FailedOffices []int64 `json:"failedOffices,omitempty"`
	Warning       string  `json:"warning,omitempty"`
}

// Compliance 统计筛选后诊所的周提交合规情况
//
// 没有任何提交记录的诊所不出现在结果中。sortBy 为 current_streak 或 compliance_rate。
func (s *Service) Compliance(ctx context.Context, sortBy string, filter model.OfficeFilter) (*ComplianceView, error) {
	if sortBy == "" {
		sortBy = ranking.MetricCurrentStreak
	}
	value, ok := complianceValue[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a compliance metric", ranking.ErrUnknownMetric, sortBy)
	}
	metric, err := ranking.Lookup(sortBy)
	if err != nil {
		return nil, err
	}

	offices, err := s.offices(ctx, filter)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]compliance.Record, len(offices))
	inputs := make([]ranking.Input, 0, len(offices))
	var failed []int64
	var errs []error
	for _, o := range offices {
		history, err := s.history.FetchSubmissionHistory(ctx, o.ID)
		if err != nil {
			failed = append(failed, o.ID)
			errs = append(errs, fmt.Errorf("office %d: %w", o.ID, err))
			continue
		}
		if len(history) == 0 {
			continue
		}

		rec := compliance.Track(history, s.window)
		rec.OfficeID = o.ID
		rec.OfficeName = o.Name
		rec.DFO = o.DFO
		byID[o.ID] = rec

		v := value(rec)
		inputs = append(inputs, ranking.Input{
			OfficeID:   o.ID,
			OfficeName: o.Name,
			DFO:        o.DFO,
			State:      o.State(),
			Value:      &v,
		})
	}

	if len(failed) > 0 {
		log.Printf("submission history partially failed: %v", errors.Join(errs...))
	}

	result := ranking.Rank(metric, inputs)
	view := &ComplianceView{
		SortBy:  sortBy,
		Window:  s.window,
		Records: make([]compliance.Record, 0, len(result.Entries)),
		Ranking: result,
	}
	for _, e := range result.Entries {
		view.Records = append(view.Records, byID[e.OfficeID])
	}
	if len(failed) > 0 {
		view.FailedOffices = failed
		view.Warning = fmt.Sprintf("submission history unavailable for %d office(s); results are partial", len(failed))
	}
	return view, nil
}
