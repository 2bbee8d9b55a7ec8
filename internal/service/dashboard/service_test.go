package dashboard

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"labpulse/internal/model"
	"labpulse/internal/period"
	"labpulse/internal/ranking"
	"labpulse/internal/store"
)

var fixedNow = time.Date(2026, time.April, 15, 10, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

// flakyRepo 模拟部分诊所读取失败
type flakyRepo struct {
	*store.Store
	failID int64
}

func (f flakyRepo) FetchRecords(ctx context.Context, officeID int64, domain model.Domain, rng period.Range) ([]model.MonthlyRecord, error) {
	if officeID == f.failID {
		return nil, errors.New("database is locked")
	}
	return f.Store.FetchRecords(ctx, officeID, domain, rng)
}

// flakyHistoryRepo 模拟部分诊所提交记录读取失败
type flakyHistoryRepo struct {
	*store.Store
	failIDs map[int64]bool
}

func (f flakyHistoryRepo) FetchSubmissionHistory(ctx context.Context, officeID int64) ([]bool, error) {
	if f.failIDs[officeID] {
		return nil, errors.New("database is locked")
	}
	return f.Store.FetchSubmissionHistory(ctx, officeID)
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "labpulse.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	must(st.UpsertOffice(ctx, model.Office{ID: 1, Name: "Plano, TX", Model: model.ModelPO, DFO: "Smith"}))
	must(st.UpsertOffice(ctx, model.Office{ID: 2, Name: "Tulsa, OK", Model: model.ModelPLLC, DFO: "Jones"}))
	must(st.UpsertOffice(ctx, model.Office{ID: 3, Name: "Austin, TX", Model: model.ModelPO, DFO: "Smith"}))

	// 诊所 1：三类数据齐全，技工费用 26% 超过严重阈值
	must(st.SaveFinancial(ctx, 1, 2026, 4, model.FinancialFields{Revenue: fp(100000), LabExpWithOutside: fp(26000), PersonnelExp: fp(10000)}))
	backlog := 42
	must(st.SaveOperations(ctx, 1, 2026, 4, model.OperationsFields{BacklogCaseCount: &backlog}))
	must(st.SaveVolume(ctx, 1, 2026, 4, model.VolumeFields{BacklogInLab: 120, BacklogInClinic: 10, TotalWeeklyUnits: 300}))

	// 诊所 2：仅财务，人员费用 17% 触发警告
	must(st.SaveFinancial(ctx, 2, 2026, 4, model.FinancialFields{Revenue: fp(50000), LabExpWithOutside: fp(5000), PersonnelExp: fp(8500)}))

	// 提交记录：诊所 1 连续提交 3 周，诊所 2 第 2 周缺报
	counts := make([]int, len(model.WeeklyVolumeColumns))
	for w := 1; w <= 3; w++ {
		if _, err := st.InsertWeeklyVolume(ctx, model.WeeklyVolume{OfficeID: 1, Year: 2026, Week: w, Counts: counts}); err != nil {
			t.Fatalf("seed weekly: %v", err)
		}
		must(st.MarkSubmitted(ctx, 1, 2026, w))
		if w == 2 {
			must(st.MarkMissed(ctx, 2, 2026, w))
		} else {
			must(st.MarkSubmitted(ctx, 2, 2026, w))
		}
	}
	return st
}

func newService(st *store.Store, repo Repository) *Service {
	return New(st, repo, Options{MaxParallel: 4, Now: func() time.Time { return fixedNow }})
}

func officeIDs(views []OfficeView) []int64 {
	ids := make([]int64, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.OfficeID)
	}
	return ids
}

func TestDashboard_CurrentMonth(t *testing.T) {
	st := seededStore(t)
	svc := newService(st, st)

	d, err := svc.Dashboard(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Period.Label != "April 2026" {
		t.Fatalf("label = %q", d.Period.Label)
	}
	if !reflect.DeepEqual(officeIDs(d.Offices), []int64{1, 2, 3}) {
		t.Fatalf("offices = %v", officeIDs(d.Offices))
	}
	if d.Counts != (CompletenessCounts{Complete: 1, Partial: 1, None: 1}) {
		t.Fatalf("counts = %+v", d.Counts)
	}
	if d.AlertCounts["critical"] != 1 || d.AlertCounts["warning"] != 1 || d.AlertCounts["info"] != 1 {
		t.Fatalf("alert counts = %v", d.AlertCounts)
	}
	if d.Warning != "" || len(d.FailedOffices) != 0 {
		t.Fatalf("unexpected warning: %q %v", d.Warning, d.FailedOffices)
	}

	first := d.Offices[0]
	if first.Completeness != model.CompletenessComplete || len(first.Alerts) != 1 {
		t.Fatalf("office 1 view = %+v", first)
	}
	if first.Alerts[0].Message != "Lab expenses at 26.0% (>25% critical)" {
		t.Fatalf("office 1 alert = %q", first.Alerts[0].Message)
	}
	if first.State != "TX" {
		t.Fatalf("office 1 state = %q", first.State)
	}
}

func TestDashboard_Filters(t *testing.T) {
	st := seededStore(t)
	svc := newService(st, st)
	ctx := context.Background()

	d, err := svc.Dashboard(ctx, Request{Filter: model.OfficeFilter{State: "tx"}})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !reflect.DeepEqual(officeIDs(d.Offices), []int64{1, 3}) {
		t.Fatalf("state filter offices = %v", officeIDs(d.Offices))
	}

	d, err = svc.Dashboard(ctx, Request{Completeness: model.CompletenessPartial})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !reflect.DeepEqual(officeIDs(d.Offices), []int64{2}) {
		t.Fatalf("completeness filter offices = %v", officeIDs(d.Offices))
	}
	if d.Counts != (CompletenessCounts{Complete: 1, Partial: 1, None: 1}) {
		t.Fatalf("counts under completeness filter = %+v", d.Counts)
	}
}

func TestDashboard_PartialFailure(t *testing.T) {
	st := seededStore(t)
	svc := newService(st, flakyRepo{Store: st, failID: 2})

	d, err := svc.Dashboard(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !reflect.DeepEqual(officeIDs(d.Offices), []int64{1, 3}) {
		t.Fatalf("offices = %v", officeIDs(d.Offices))
	}
	if !reflect.DeepEqual(d.FailedOffices, []int64{2}) || d.Warning == "" {
		t.Fatalf("failed = %v warning = %q", d.FailedOffices, d.Warning)
	}
}

func TestDashboard_InvalidSelector(t *testing.T) {
	st := seededStore(t)
	svc := newService(st, st)

	_, err := svc.Dashboard(context.Background(), Request{Selector: period.Selector{Kind: period.Custom, Year: 2026, Month: 13}})
	if !errors.Is(err, period.ErrInvalidPeriodSelector) {
		t.Fatalf("expected ErrInvalidPeriodSelector, got %v", err)
	}
}

func TestRankings(t *testing.T) {
	st := seededStore(t)
	svc := newService(st, st)
	ctx := context.Background()

	rv, err := svc.Rankings(ctx, ranking.MetricRevenue, Request{})
	if err != nil {
		t.Fatalf("Rankings revenue: %v", err)
	}
	if rv.Period == nil || len(rv.Entries) != 2 || rv.Entries[0].OfficeID != 1 || rv.Entries[1].Rank != 2 {
		t.Fatalf("revenue ranking = %+v", rv)
	}
	if rv.Stats.Best != "$100,000" || rv.Stats.Worst != "$50,000" {
		t.Fatalf("revenue stats = %+v", rv.Stats)
	}

	rv, err = svc.Rankings(ctx, ranking.MetricBacklogInLab, Request{})
	if err != nil {
		t.Fatalf("Rankings backlog: %v", err)
	}
	if len(rv.Entries) != 1 || rv.Entries[0].OfficeID != 1 {
		t.Fatalf("backlog ranking = %+v", rv.Entries)
	}

	rv, err = svc.Rankings(ctx, ranking.MetricCurrentStreak, Request{})
	if err != nil {
		t.Fatalf("Rankings streak: %v", err)
	}
	if rv.Period != nil || len(rv.Entries) != 2 || rv.Entries[0].OfficeID != 1 {
		t.Fatalf("streak ranking = %+v", rv)
	}

	if _, err := svc.Rankings(ctx, "profit", Request{}); !errors.Is(err, ranking.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestCompliance(t *testing.T) {
	st := seededStore(t)
	svc := newService(st, st)
	ctx := context.Background()

	cv, err := svc.Compliance(ctx, ranking.MetricComplianceRate, model.OfficeFilter{})
	if err != nil {
		t.Fatalf("Compliance: %v", err)
	}
	if len(cv.Records) != 2 {
		t.Fatalf("records = %+v", cv.Records)
	}
	top, second := cv.Records[0], cv.Records[1]
	if top.OfficeID != 1 || top.ComplianceRate != 100 || top.CurrentStreak != 3 {
		t.Fatalf("top record = %+v", top)
	}
	if second.OfficeID != 2 || second.CurrentStreak != 1 || second.LongestStreak != 1 || second.SubmittedWeeks != 2 {
		t.Fatalf("second record = %+v", second)
	}
	if !reflect.DeepEqual(second.RecentSubmissions, []int{1, 0, 1}) {
		t.Fatalf("recent = %v", second.RecentSubmissions)
	}
	if cv.Window != 10 {
		t.Fatalf("window = %d", cv.Window)
	}

	if _, err := svc.Compliance(ctx, ranking.MetricRevenue, model.OfficeFilter{}); !errors.Is(err, ranking.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestCompliance_PartialHistoryFailure(t *testing.T) {
	st := seededStore(t)
	if err := st.UpsertOffice(context.Background(), model.Office{ID: 4, Name: "Waco, TX", Model: model.ModelPO}); err != nil {
		t.Fatalf("seed office: %v", err)
	}
	svc := newService(st, flakyHistoryRepo{Store: st, failIDs: map[int64]bool{1: true, 4: true}})

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	cv, err := svc.Compliance(context.Background(), ranking.MetricCurrentStreak, model.OfficeFilter{})
	if err != nil {
		t.Fatalf("Compliance: %v", err)
	}
	if len(cv.Records) != 1 || cv.Records[0].OfficeID != 2 {
		t.Fatalf("records = %+v", cv.Records)
	}
	if len(cv.Ranking.Entries) != 1 || cv.Ranking.Entries[0].Rank != 1 {
		t.Fatalf("ranking = %+v", cv.Ranking)
	}
	if !reflect.DeepEqual(cv.FailedOffices, []int64{1, 4}) {
		t.Fatalf("failed = %v", cv.FailedOffices)
	}
	if cv.Warning != "submission history unavailable for 2 office(s); results are partial" {
		t.Fatalf("warning = %q", cv.Warning)
	}
	if n := strings.Count(logs.String(), "submission history partially failed"); n != 1 {
		t.Fatalf("failure logged %d times:\n%s", n, logs.String())
	}
}

func TestFilterValues(t *testing.T) {
	st := seededStore(t)
	svc := newService(st, st)

	values, err := svc.FilterValues(context.Background())
	if err != nil {
		t.Fatalf("FilterValues: %v", err)
	}
	want := model.FilterValues{
		States: []string{"OK", "TX"},
		DFOs:   []string{"Jones", "Smith"},
		Models: []string{"PLLC", "PO"},
	}
	if !reflect.DeepEqual(values, want) {
		t.Fatalf("values = %+v", values)
	}
}
