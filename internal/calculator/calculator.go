package calculator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"labpulse/internal/model"
	"labpulse/internal/period"
)

// ErrRepositoryUnavailable 仓储读取失败（连接/存储错误），调用方可整体重试
var ErrRepositoryUnavailable = errors.New("repository unavailable")

// Repository 按诊所读取月度记录
//
// 无数据时返回空切片而不是错误。
type Repository interface {
	FetchRecords(ctx context.Context, officeID int64, domain model.Domain, rng period.Range) ([]model.MonthlyRecord, error)
	LatestDataMonth(ctx context.Context, officeID int64) (year, month int, ok bool, err error)
}

// Recorder 批量汇总的观测钩子
type Recorder interface {
	ObserveBatch(elapsed time.Duration, offices, failures int)
}

// Calculator 时间段指标汇总器
type Calculator struct {
	repo        Repository
	maxParallel int
	recorder    Recorder
}

// NewCalculator 创建汇总器；maxParallel <= 0 时串行执行
func NewCalculator(repo Repository, maxParallel int) *Calculator {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Calculator{
		repo:        repo,
		maxParallel: maxParallel,
	}
}

// WithRecorder 设置观测钩子
func (c *Calculator) WithRecorder(r Recorder) *Calculator {
	c.recorder = r
	return c
}

// BatchError 批量汇总中失败的诊所（其余诊所结果仍然有效）
type BatchError struct {
	Failures map[int64]error
}

// OfficeIDs 失败诊所 ID（升序）
func (e *BatchError) OfficeIDs() []int64 {
	ids := make([]int64, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *BatchError) Error() string {
	ids := e.OfficeIDs()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return fmt.Sprintf("%s for %d office(s): [%s]", ErrRepositoryUnavailable, len(ids), strings.Join(parts, ", "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, id := range e.OfficeIDs() {
		errs = append(errs, e.Failures[id])
	}
	return errs
}

// SummarizeAll 汇总多个诊所，结果顺序与 offices 一致
//
// 单个诊所读取失败不会中断其他诊所，失败统一以 *BatchError 返回。
func (c *Calculator) SummarizeAll(ctx context.Context, rng period.Range, offices []model.Office) ([]model.OfficeSummary, error) {
	start := time.Now()

	results := make([]*model.OfficeSummary, len(offices))
	var (
		mu       sync.Mutex
		failures = map[int64]error{}
	)

	var g errgroup.Group
	g.SetLimit(c.maxParallel)
	for i, office := range offices {
		g.Go(func() error {
			summary, err := c.Summarize(ctx, rng, office)
			if err != nil {
				mu.Lock()
				failures[office.ID] = err
				mu.Unlock()
				return nil
			}
			results[i] = &summary
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.OfficeSummary, 0, len(offices))
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}

	if c.recorder != nil {
		c.recorder.ObserveBatch(time.Since(start), len(offices), len(failures))
	}

	if len(failures) > 0 {
		return out, &BatchError{Failures: failures}
	}
	return out, nil
}

// Summarize 汇总单个诊所在时间段内的指标
//
// 流量类指标（收入、费用、产出单位）按月求和；时点类指标（积压）取范围内最近一个月；
// 百分比由汇总后的分子/分母计算。
func (c *Calculator) Summarize(ctx context.Context, rng period.Range, office model.Office) (model.OfficeSummary, error) {
	s := model.OfficeSummary{
		OfficeID:   office.ID,
		OfficeName: office.Name,
		Model:      office.Model,
		DFO:        office.DFO,
		State:      office.State(),
	}

	fetch := func(domain model.Domain) ([]model.MonthlyRecord, error) {
		recs, err := c.repo.FetchRecords(ctx, office.ID, domain, rng)
		if err != nil {
			return nil, fmt.Errorf("%w: office %d fetch %s: %w", ErrRepositoryUnavailable, office.ID, domain, err)
		}
		return inRange(recs, rng), nil
	}

	financial, err := fetch(model.DomainFinancial)
	if err != nil {
		return s, err
	}
	operations, err := fetch(model.DomainOperations)
	if err != nil {
		return s, err
	}
	volume, err := fetch(model.DomainVolume)
	if err != nil {
		return s, err
	}
	notes, err := fetch(model.DomainNotes)
	if err != nil {
		return s, err
	}

	applyFinancial(&s, financial)
	applyOperations(&s, operations)
	applyVolume(&s, volume)
	s.HasNotes = len(notes) > 0

	if months := rng.Months(); months > 0 {
		covered := distinctMonths(financial) + distinctMonths(volume)
		s.DataCompleteness = floatPtr(float64(covered) / float64(months*2) * 100)
	}

	year, month, ok, err := c.repo.LatestDataMonth(ctx, office.ID)
	if err != nil {
		return s, fmt.Errorf("%w: office %d latest month: %w", ErrRepositoryUnavailable, office.ID, err)
	}
	if ok {
		s.LatestYear = intPtr(year)
		s.LatestMonth = intPtr(month)
	}

	return s, nil
}

func applyFinancial(s *model.OfficeSummary, recs []model.MonthlyRecord) {
	if len(recs) == 0 {
		return
	}
	s.HasFinancial = true

	var revenue, lab, personnel, overtime sum
	for _, r := range recs {
		f := r.Financial
		if f == nil {
			continue
		}
		revenue.add(f.Revenue)
		lab.add(f.LabExpWithOutside)
		personnel.add(f.PersonnelExp)
		overtime.add(f.OvertimeExp)
	}

	s.Revenue = revenue.ptr()
	s.LabExpense = lab.ptr()
	s.PersonnelExpense = personnel.ptr()
	s.OvertimeExpense = overtime.ptr()
	s.LabExpPercent = percentOf(lab, revenue)
	s.PersonnelPercent = percentOf(personnel, revenue)
	s.OvertimePercent = percentOf(overtime, revenue)
}

func applyOperations(s *model.OfficeSummary, recs []model.MonthlyRecord) {
	if len(recs) == 0 {
		return
	}
	s.HasOperations = true

	for i := len(recs) - 1; i >= 0; i-- {
		if ops := recs[i].Operations; ops != nil && ops.BacklogCaseCount != nil {
			s.BacklogCount = intPtr(*ops.BacklogCaseCount)
			return
		}
	}
}

func applyVolume(s *model.OfficeSummary, recs []model.MonthlyRecord) {
	if len(recs) == 0 {
		return
	}
	s.HasVolume = true

	var units sum
	for _, r := range recs {
		if r.Volume == nil {
			continue
		}
		v := float64(r.Volume.TotalWeeklyUnits)
		units.add(&v)
	}
	s.TotalWeeklyUnits = units.ptr()

	for i := len(recs) - 1; i >= 0; i-- {
		if v := recs[i].Volume; v != nil {
			s.BacklogInLab = floatPtr(float64(v.BacklogInLab))
			s.BacklogInClinic = floatPtr(float64(v.BacklogInClinic))
			return
		}
	}
}

// inRange 过滤范围外记录并按年月升序排列
func inRange(recs []model.MonthlyRecord, rng period.Range) []model.MonthlyRecord {
	out := make([]model.MonthlyRecord, 0, len(recs))
	for _, r := range recs {
		if rng.Contains(r.Year, r.Month) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func distinctMonths(recs []model.MonthlyRecord) int {
	seen := make(map[int]struct{}, len(recs))
	for _, r := range recs {
		seen[r.Key()] = struct{}{}
	}
	return len(seen)
}

// sum 可空求和：没有任何非空值时结果为空
type sum struct {
	value float64
	seen  bool
}

func (s *sum) add(v *float64) {
	if v == nil {
		return
	}
	s.value += *v
	s.seen = true
}

func (s sum) ptr() *float64 {
	if !s.seen {
		return nil
	}
	return floatPtr(s.value)
}

func percentOf(numerator, revenue sum) *float64 {
	if !numerator.seen || !revenue.seen || revenue.value <= 0 {
		return nil
	}
	return floatPtr(numerator.value / revenue.value * 100)
}

func floatPtr(v float64) *float64 {
	return &v
}

// intPtr 返回整数指针
func intPtr(i int) *int {
	return &i
}
