package store

import (
	"context"
	"fmt"
	"math"
	"strings"

	"labpulse/internal/model"
)

var weeklyColumnList = strings.Join(model.WeeklyVolumeColumns, ", ")

// InsertWeeklyVolume 写入周业务量；同一诊所同一周已存在时跳过并返回 false
func (s *Store) InsertWeeklyVolume(ctx context.Context, wv model.WeeklyVolume) (bool, error) {
	if len(wv.Counts) != len(model.WeeklyVolumeColumns) {
		return false, fmt.Errorf("weekly volume expects %d counts, got %d", len(model.WeeklyVolumeColumns), len(wv.Counts))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(wv.Counts)+3), ", ")
	args := make([]interface{}, 0, len(wv.Counts)+3)
	args = append(args, wv.OfficeID, wv.Year, wv.Week)
	for _, c := range wv.Counts {
		args = append(args, c)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO weekly_volume (office_id, year, week_number, `+weeklyColumnList+`)
		VALUES (`+placeholders+`)
	`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert weekly volume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// ListWeeklyVolume 读取诊所某年全部周业务量（按周升序）
func (s *Store) ListWeeklyVolume(ctx context.Context, officeID int64, year int) ([]model.WeeklyVolume, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT office_id, year, week_number, `+weeklyColumnList+`
		FROM weekly_volume
		WHERE office_id = ? AND year = ?
		ORDER BY week_number
	`, officeID, year)
	if err != nil {
		return nil, fmt.Errorf("query weekly volume failed: %w", err)
	}
	defer rows.Close()

	var out []model.WeeklyVolume
	for rows.Next() {
		wv, err := scanWeekly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekly volume failed: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWeekly(row scanner) (model.WeeklyVolume, error) {
	wv := model.WeeklyVolume{Counts: make([]int, len(model.WeeklyVolumeColumns))}
	dest := []interface{}{&wv.OfficeID, &wv.Year, &wv.Week}
	for i := range wv.Counts {
		dest = append(dest, &wv.Counts[i])
	}
	if err := row.Scan(dest...); err != nil {
		return wv, fmt.Errorf("scan weekly volume failed: %w", err)
	}
	return wv, nil
}

type monthKey struct {
	officeID int64
	year     int
	month    int
}

// RollupWeeklyToMonthly 按周-月对照表把周业务量平均汇总到月度业务量，返回更新的月份数
func (s *Store) RollupWeeklyToMonthly(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT office_id, year, week_number, `+weeklyColumnList+`
		FROM weekly_volume
		ORDER BY office_id, year, week_number
	`)
	if err != nil {
		return 0, fmt.Errorf("query weekly volume failed: %w", err)
	}

	var order []monthKey
	groups := make(map[monthKey][]model.WeeklyVolume)
	for rows.Next() {
		wv, err := scanWeekly(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		key := monthKey{officeID: wv.OfficeID, year: wv.Year, month: model.MonthOfWeek(wv.Week)}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], wv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate weekly volume failed: %w", err)
	}
	rows.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range order {
		lab, clinic, units := model.Totals(averageCounts(groups[key]))
		v := model.VolumeFields{BacklogInLab: lab, BacklogInClinic: clinic, TotalWeeklyUnits: units}
		if err := saveVolume(ctx, tx, key.officeID, key.year, key.month, v); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rollup: %w", err)
	}
	return len(order), nil
}

// averageCounts 逐列平均后四舍五入
func averageCounts(weeks []model.WeeklyVolume) []int {
	out := make([]int, len(model.WeeklyVolumeColumns))
	if len(weeks) == 0 {
		return out
	}
	for i := range out {
		total := 0
		for _, w := range weeks {
			total += w.Counts[i]
		}
		out[i] = int(math.Round(float64(total) / float64(len(weeks))))
	}
	return out
}
