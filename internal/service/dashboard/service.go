package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/samber/lo"

	"labpulse/internal/calculator"
	"labpulse/internal/compliance"
	"labpulse/internal/model"
	"labpulse/internal/period"
)

// Directory 诊所目录
type Directory interface {
	ListOffices(ctx context.Context) ([]model.Office, error)
}

// Repository 汇总与合规统计所需的数据源
type Repository interface {
	calculator.Repository
	compliance.HistorySource
}

// Options 服务选项
type Options struct {
	MaxParallel      int
	ComplianceWindow int
	DefaultPeriod    period.Kind
	Recorder         calculator.Recorder
	Now              func() time.Time
}

// Service 看板编排：目录 → 筛选 → 汇总 → 完整度/告警；排名与提交合规视图
type Service struct {
	dir           Directory
	history       compliance.HistorySource
	calc          *calculator.Calculator
	window        int
	defaultPeriod period.Kind
	now           func() time.Time
}

// New 创建看板服务
func New(dir Directory, repo Repository, opts Options) *Service {
	calc := calculator.NewCalculator(repo, opts.MaxParallel)
	if opts.Recorder != nil {
		calc.WithRecorder(opts.Recorder)
	}
	if opts.ComplianceWindow <= 0 {
		opts.ComplianceWindow = compliance.DefaultWindow
	}
	if opts.DefaultPeriod == "" {
		opts.DefaultPeriod = period.CurrentMonth
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		dir:           dir,
		history:       repo,
		calc:          calc,
		window:        opts.ComplianceWindow,
		defaultPeriod: opts.DefaultPeriod,
		now:           opts.Now,
	}
}

// DefaultPeriod 未指定时间段时使用的类型
func (s *Service) DefaultPeriod() period.Kind {
	return s.defaultPeriod
}

// Request 一次看板请求（筛选条件显式传入，不依赖全局状态）
type Request struct {
	Selector     period.Selector
	Filter       model.OfficeFilter
	Completeness model.Completeness // 为空表示不过滤
}

// OfficeView 单个诊所的看板行
type OfficeView struct {
	model.OfficeSummary
	Completeness model.Completeness `json:"completeness"`
	Alerts       []model.Alert      `json:"alerts"`
}

// CompletenessCounts 各完整度分类的诊所数
type CompletenessCounts struct {
	Complete int `json:"complete"`
	Partial  int `json:"partial"`
	None     int `json:"none"`
}

// Dashboard 看板结果
type Dashboard struct {
	Period        period.Resolution  `json:"period"`
	Offices       []OfficeView       `json:"offices"`
	Counts        CompletenessCounts `json:"counts"`
	AlertCounts   map[string]int     `json:"alertCounts"`
	FailedOffices []int64            `json:"failedOffices,omitempty"`
	Warning       string             `json:"warning,omitempty"`
}

// ResolvePeriod 解析时间段（空类型使用默认值）
func (s *Service) ResolvePeriod(sel period.Selector) (period.Resolution, error) {
	if sel.Kind == "" {
		sel.Kind = s.defaultPeriod
	}
	return period.Resolve(sel, s.now())
}

// Dashboard 计算看板
//
// 部分诊所读取失败时返回其余诊所的结果，并在 Warning 中说明。
func (s *Service) Dashboard(ctx context.Context, req Request) (*Dashboard, error) {
	res, err := s.ResolvePeriod(req.Selector)
	if err != nil {
		return nil, err
	}

	offices, err := s.offices(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	summaries, failed, warning := s.summarize(ctx, res.Range, offices)

	out := &Dashboard{
		Period:        res,
		Offices:       make([]OfficeView, 0, len(summaries)),
		AlertCounts:   map[string]int{},
		FailedOffices: failed,
		Warning:       warning,
	}
	for _, sum := range summaries {
		view := OfficeView{
			OfficeSummary: sum,
			Completeness:  calculator.Classify(sum),
			Alerts:        calculator.EvaluateAlerts(sum),
		}
		// 分类计数覆盖目录筛选后的全部诊所，不受完整度筛选影响
		switch view.Completeness {
		case model.CompletenessComplete:
			out.Counts.Complete++
		case model.CompletenessPartial:
			out.Counts.Partial++
		default:
			out.Counts.None++
		}
		if req.Completeness != "" && view.Completeness != req.Completeness {
			continue
		}
		for _, a := range view.Alerts {
			out.AlertCounts[string(a.Severity)]++
		}
		out.Offices = append(out.Offices, view)
	}
	return out, nil
}

// offices 读取目录并应用筛选
func (s *Service) offices(ctx context.Context, filter model.OfficeFilter) ([]model.Office, error) {
	all, err := s.dir.ListOffices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list offices: %w", err)
	}
	return lo.Filter(all, func(o model.Office, _ int) bool { return filter.Match(o) }), nil
}

// summarize 批量汇总；批量失败只记录一次日志
func (s *Service) summarize(ctx context.Context, rng period.Range, offices []model.Office) ([]model.OfficeSummary, []int64, string) {
	summaries, err := s.calc.SummarizeAll(ctx, rng, offices)
	if err == nil {
		return summaries, nil, ""
	}

	var batchErr *calculator.BatchError
	if errors.As(err, &batchErr) {
		ids := batchErr.OfficeIDs()
		log.Printf("aggregation batch partially failed: %v", err)
		return summaries, ids, fmt.Sprintf("data unavailable for %d office(s); results are partial", len(ids))
	}
	log.Printf("aggregation batch failed: %v", err)
	return summaries, nil, "data unavailable; results are partial"
}

// FilterValues 目录中可选的州、DFO、运营模式
func (s *Service) FilterValues(ctx context.Context) (model.FilterValues, error) {
	offices, err := s.dir.ListOffices(ctx)
	if err != nil {
		return model.FilterValues{}, fmt.Errorf("failed to list offices: %w", err)
	}
	values := model.FilterValues{
		States: sortedNonEmpty(lo.Map(offices, func(o model.Office, _ int) string { return o.State() })),
		DFOs:   sortedNonEmpty(lo.Map(offices, func(o model.Office, _ int) string { return o.DFO })),
		Models: sortedNonEmpty(lo.Map(offices, func(o model.Office, _ int) string { return string(o.Model) })),
	}
	return values, nil
}

func sortedNonEmpty(values []string) []string {
	out := lo.Uniq(lo.Compact(values))
	sort.Strings(out)
	return out
}
