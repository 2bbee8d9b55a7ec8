package store

import (
	"context"
	"path/filepath"
	"testing"

	"labpulse/internal/model"
	"labpulse/internal/period"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "labpulse.db"))
	if err != nil {
		t.Fatalf("New store failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedOffice(t *testing.T, st *Store, id int64, name string) {
	t.Helper()
	err := st.UpsertOffice(context.Background(), model.Office{ID: id, Name: name, Model: model.ModelPO, DFO: "Smith"})
	if err != nil {
		t.Fatalf("UpsertOffice failed: %v", err)
	}
}

func f64(v float64) *float64 { return &v }

func weekly(officeID int64, year, week, fill int) model.WeeklyVolume {
	counts := make([]int, len(model.WeeklyVolumeColumns))
	for i := range counts {
		counts[i] = fill
	}
	return model.WeeklyVolume{OfficeID: officeID, Year: year, Week: week, Counts: counts}
}

// TestOfficesRoundTrip 测试诊所写入与列表
func TestOfficesRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedOffice(t, st, 20, "Plano, TX")
	seedOffice(t, st, 10, "Tulsa, OK")

	offices, err := st.ListOffices(ctx)
	if err != nil {
		t.Fatalf("ListOffices failed: %v", err)
	}
	if len(offices) != 2 || offices[0].ID != 10 || offices[1].ID != 20 {
		t.Fatalf("unexpected offices: %+v", offices)
	}
	if offices[1].State() != "TX" {
		t.Fatalf("state = %q, want TX", offices[1].State())
	}

	if err := st.UpsertOffice(ctx, model.Office{ID: 10, Name: "Tulsa North, OK", Model: model.ModelPLLC}); err != nil {
		t.Fatalf("UpsertOffice update failed: %v", err)
	}
	o, err := st.GetOffice(ctx, 10)
	if err != nil {
		t.Fatalf("GetOffice failed: %v", err)
	}
	if o.Name != "Tulsa North, OK" || o.Model != model.ModelPLLC {
		t.Fatalf("office not updated: %+v", o)
	}
	if _, err := st.GetOffice(ctx, 99); err == nil {
		t.Fatalf("expected error for missing office")
	}
}

// TestFetchRecordsRange 测试按时间段读取各数据域
func TestFetchRecordsRange(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedOffice(t, st, 1, "Plano, TX")

	for _, m := range []int{1, 2, 3} {
		fin := model.FinancialFields{Revenue: f64(float64(m) * 1000), LabExpWithOutside: f64(100)}
		if err := st.SaveFinancial(ctx, 1, 2026, m, fin); err != nil {
			t.Fatalf("SaveFinancial failed: %v", err)
		}
	}
	backlog := 42
	if err := st.SaveOperations(ctx, 1, 2026, 2, model.OperationsFields{BacklogCaseCount: &backlog}); err != nil {
		t.Fatalf("SaveOperations failed: %v", err)
	}
	if err := st.SaveNote(ctx, 1, 2026, 3, "call lab"); err != nil {
		t.Fatalf("SaveNote failed: %v", err)
	}

	rng := period.Range{StartYear: 2026, StartMonth: 2, EndYear: 2026, EndMonth: 3}
	fin, err := st.FetchRecords(ctx, 1, model.DomainFinancial, rng)
	if err != nil {
		t.Fatalf("FetchRecords financial failed: %v", err)
	}
	if len(fin) != 2 || fin[0].Month != 2 || *fin[1].Financial.Revenue != 3000 {
		t.Fatalf("unexpected financial records: %+v", fin)
	}
	if fin[0].Financial.PersonnelExp != nil {
		t.Fatalf("unset column should be nil")
	}

	ops, err := st.FetchRecords(ctx, 1, model.DomainOperations, rng)
	if err != nil {
		t.Fatalf("FetchRecords operations failed: %v", err)
	}
	if len(ops) != 1 || *ops[0].Operations.BacklogCaseCount != 42 {
		t.Fatalf("unexpected operations records: %+v", ops)
	}

	notes, err := st.FetchRecords(ctx, 1, model.DomainNotes, rng)
	if err != nil {
		t.Fatalf("FetchRecords notes failed: %v", err)
	}
	if len(notes) != 1 || notes[0].Note != "call lab" {
		t.Fatalf("unexpected notes: %+v", notes)
	}

	empty, err := st.FetchRecords(ctx, 1, model.DomainVolume, rng)
	if err != nil {
		t.Fatalf("FetchRecords volume failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no volume records, got %d", len(empty))
	}

	// 跨年区间
	if err := st.SaveFinancial(ctx, 1, 2025, 12, model.FinancialFields{Revenue: f64(5)}); err != nil {
		t.Fatalf("SaveFinancial failed: %v", err)
	}
	cross := period.Range{StartYear: 2025, StartMonth: 12, EndYear: 2026, EndMonth: 1}
	fin, err = st.FetchRecords(ctx, 1, model.DomainFinancial, cross)
	if err != nil {
		t.Fatalf("FetchRecords cross-year failed: %v", err)
	}
	if len(fin) != 2 || fin[0].Year != 2025 || fin[1].Year != 2026 {
		t.Fatalf("unexpected cross-year records: %+v", fin)
	}
}

// TestLatestDataMonth 测试最近数据月份
func TestLatestDataMonth(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedOffice(t, st, 1, "Plano, TX")

	if _, _, ok, err := st.LatestDataMonth(ctx, 1); err != nil || ok {
		t.Fatalf("expected no data, ok=%v err=%v", ok, err)
	}

	if err := st.SaveFinancial(ctx, 1, 2026, 2, model.FinancialFields{Revenue: f64(1)}); err != nil {
		t.Fatalf("SaveFinancial failed: %v", err)
	}
	if err := st.SaveVolume(ctx, 1, 2026, 5, model.VolumeFields{BacklogInLab: 3}); err != nil {
		t.Fatalf("SaveVolume failed: %v", err)
	}
	// 备注不计入
	if err := st.SaveNote(ctx, 1, 2026, 9, "later"); err != nil {
		t.Fatalf("SaveNote failed: %v", err)
	}

	y, m, ok, err := st.LatestDataMonth(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("LatestDataMonth failed: ok=%v err=%v", ok, err)
	}
	if y != 2026 || m != 5 {
		t.Fatalf("latest = %d-%d, want 2026-5", y, m)
	}
}

// TestWeeklyInsertAndRollup 测试周数据去重写入与月度汇总
func TestWeeklyInsertAndRollup(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedOffice(t, st, 1, "Plano, TX")

	for _, w := range []model.WeeklyVolume{weekly(1, 2026, 14, 1), weekly(1, 2026, 15, 2), weekly(1, 2026, 18, 4)} {
		inserted, err := st.InsertWeeklyVolume(ctx, w)
		if err != nil || !inserted {
			t.Fatalf("InsertWeeklyVolume week %d: inserted=%v err=%v", w.Week, inserted, err)
		}
	}
	inserted, err := st.InsertWeeklyVolume(ctx, weekly(1, 2026, 14, 9))
	if err != nil {
		t.Fatalf("InsertWeeklyVolume duplicate failed: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate week should be skipped")
	}

	n, err := st.RollupWeeklyToMonthly(ctx)
	if err != nil {
		t.Fatalf("RollupWeeklyToMonthly failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("rolled up %d months, want 2", n)
	}

	rng := period.Range{StartYear: 2026, StartMonth: 4, EndYear: 2026, EndMonth: 5}
	vol, err := st.FetchRecords(ctx, 1, model.DomainVolume, rng)
	if err != nil {
		t.Fatalf("FetchRecords volume failed: %v", err)
	}
	if len(vol) != 2 {
		t.Fatalf("expected 2 monthly volume rows, got %d", len(vol))
	}
	// 4 月: 周 14、15 平均 1.5 四舍五入为 2
	april := vol[0].Volume
	if april.BacklogInLab != 10 || april.BacklogInClinic != 8 || april.TotalWeeklyUnits != 22 {
		t.Fatalf("unexpected april volume: %+v", april)
	}
	may := vol[1].Volume
	if may.BacklogInLab != 20 || may.BacklogInClinic != 16 || may.TotalWeeklyUnits != 44 {
		t.Fatalf("unexpected may volume: %+v", may)
	}

	weeks, err := st.ListWeeklyVolume(ctx, 1, 2026)
	if err != nil {
		t.Fatalf("ListWeeklyVolume failed: %v", err)
	}
	if len(weeks) != 3 || weeks[0].Counts[0] != 1 {
		t.Fatalf("unexpected weekly rows: %+v", weeks)
	}
}

// TestSubmissionHistoryCutoff 测试提交历史截止到最新业务量周
func TestSubmissionHistoryCutoff(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedOffice(t, st, 1, "Plano, TX")
	seedOffice(t, st, 2, "Tulsa, OK")

	for _, w := range []int{1, 2, 3} {
		if _, err := st.InsertWeeklyVolume(ctx, weekly(1, 2026, w, 1)); err != nil {
			t.Fatalf("InsertWeeklyVolume failed: %v", err)
		}
		if err := st.MarkSubmitted(ctx, 1, 2026, w); err != nil {
			t.Fatalf("MarkSubmitted failed: %v", err)
		}
		if err := st.MarkMissed(ctx, 2, 2026, w); err != nil {
			t.Fatalf("MarkMissed failed: %v", err)
		}
	}
	// 未来周的预置记录不计入
	if err := st.MarkMissed(ctx, 1, 2026, 10); err != nil {
		t.Fatalf("MarkMissed failed: %v", err)
	}
	// 已提交的周不会被降级
	if err := st.MarkMissed(ctx, 1, 2026, 2); err != nil {
		t.Fatalf("MarkMissed failed: %v", err)
	}

	h1, err := st.FetchSubmissionHistory(ctx, 1)
	if err != nil {
		t.Fatalf("FetchSubmissionHistory failed: %v", err)
	}
	if len(h1) != 3 || !h1[0] || !h1[1] || !h1[2] {
		t.Fatalf("unexpected history for office 1: %v", h1)
	}

	// 诊所 2 没有业务量数据，但缺报周仍在全局截止周之前
	h2, err := st.FetchSubmissionHistory(ctx, 2)
	if err != nil {
		t.Fatalf("FetchSubmissionHistory failed: %v", err)
	}
	if len(h2) != 3 || h2[0] || h2[1] || h2[2] {
		t.Fatalf("unexpected history for office 2: %v", h2)
	}
}

// TestImportLogAndSettings 测试导入日志与设置项
func TestImportLogAndSettings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	report := model.ImportReport{
		ImportID:      "imp-1",
		Type:          model.ImportWeeklyVolume,
		Filename:      "weekly.xlsx",
		RowsProcessed: 3,
		RowsInserted:  2,
		Warnings:      []string{"Row 4: Invalid week number 60 (must be 1-53)"},
	}
	if err := st.CreateImportLog(ctx, report); err != nil {
		t.Fatalf("CreateImportLog failed: %v", err)
	}

	logs, err := st.ListImportLogs(ctx, 10)
	if err != nil {
		t.Fatalf("ListImportLogs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].ImportID != "imp-1" || len(logs[0].Warnings) != 1 {
		t.Fatalf("unexpected logs: %+v", logs)
	}

	last, err := st.GetSetting(SettingLastImport)
	if err != nil || last != "imp-1" {
		t.Fatalf("last import = %q err=%v", last, err)
	}
	if _, err := st.GetSetting("missing"); err == nil {
		t.Fatalf("expected error for missing setting")
	}

	counts, err := st.GetTableCounts()
	if err != nil {
		t.Fatalf("GetTableCounts failed: %v", err)
	}
	if counts.Offices != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestBackup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedOffice(t, s, 1, "Plano, TX")

	path, err := s.Backup(ctx, filepath.Join(t.TempDir(), "backups"))
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}

	copied, err := New(path)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer copied.Close()

	offices, err := copied.ListOffices(ctx)
	if err != nil {
		t.Fatalf("ListOffices: %v", err)
	}
	if len(offices) == 0 {
		t.Fatalf("backup has no offices")
	}
}
