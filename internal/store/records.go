package store

import (
	"context"
	"database/sql"
	"fmt"

	"labpulse/internal/model"
	"labpulse/internal/period"
)

const rangeClause = `(year * 100 + month) BETWEEN (? * 100 + ?) AND (? * 100 + ?)`

// FetchRecords 读取诊所在时间段内某数据域的月度记录（按年月升序）
func (s *Store) FetchRecords(ctx context.Context, officeID int64, domain model.Domain, rng period.Range) ([]model.MonthlyRecord, error) {
	args := []interface{}{officeID, rng.StartYear, rng.StartMonth, rng.EndYear, rng.EndMonth}

	switch domain {
	case model.DomainFinancial:
		return s.fetchFinancials(ctx, args)
	case model.DomainOperations:
		return s.fetchOperations(ctx, args)
	case model.DomainVolume:
		return s.fetchVolume(ctx, args)
	case model.DomainNotes:
		return s.fetchNotes(ctx, args)
	}
	return nil, fmt.Errorf("unknown domain: %s", domain)
}

func (s *Store) fetchFinancials(ctx context.Context, args []interface{}) ([]model.MonthlyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT office_id, year, month, revenue, lab_exp_no_outside, lab_exp_with_outside,
			outside_lab_spend, personnel_exp, overtime_exp, bonus_exp
		FROM monthly_financials
		WHERE office_id = ? AND `+rangeClause+`
		ORDER BY year, month
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query financials failed: %w", err)
	}
	defer rows.Close()

	var out []model.MonthlyRecord
	for rows.Next() {
		r := model.MonthlyRecord{Domain: model.DomainFinancial}
		var revenue, labNo, labWith, outside, personnel, overtime, bonus sql.NullFloat64
		if err := rows.Scan(&r.OfficeID, &r.Year, &r.Month, &revenue, &labNo, &labWith, &outside, &personnel, &overtime, &bonus); err != nil {
			return nil, fmt.Errorf("scan financials failed: %w", err)
		}
		r.Financial = &model.FinancialFields{
			Revenue:           nullFloat(revenue),
			LabExpNoOutside:   nullFloat(labNo),
			LabExpWithOutside: nullFloat(labWith),
			OutsideLabSpend:   nullFloat(outside),
			PersonnelExp:      nullFloat(personnel),
			OvertimeExp:       nullFloat(overtime),
			BonusExp:          nullFloat(bonus),
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate financials failed: %w", err)
	}
	return out, nil
}

func (s *Store) fetchOperations(ctx context.Context, args []interface{}) ([]model.MonthlyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT office_id, year, month, backlog_case_count, overtime_value, current_staff, required_staff
		FROM monthly_ops
		WHERE office_id = ? AND `+rangeClause+`
		ORDER BY year, month
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations failed: %w", err)
	}
	defer rows.Close()

	var out []model.MonthlyRecord
	for rows.Next() {
		r := model.MonthlyRecord{Domain: model.DomainOperations}
		var backlog sql.NullInt64
		var overtime, current, required sql.NullFloat64
		if err := rows.Scan(&r.OfficeID, &r.Year, &r.Month, &backlog, &overtime, &current, &required); err != nil {
			return nil, fmt.Errorf("scan operations failed: %w", err)
		}
		r.Operations = &model.OperationsFields{
			BacklogCaseCount: nullInt(backlog),
			OvertimeValue:    nullFloat(overtime),
			CurrentStaff:     nullFloat(current),
			RequiredStaff:    nullFloat(required),
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations failed: %w", err)
	}
	return out, nil
}

func (s *Store) fetchVolume(ctx context.Context, args []interface{}) ([]model.MonthlyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT office_id, year, month, backlog_in_lab, backlog_in_clinic, total_weekly_units
		FROM monthly_volume
		WHERE office_id = ? AND `+rangeClause+`
		ORDER BY year, month
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query volume failed: %w", err)
	}
	defer rows.Close()

	var out []model.MonthlyRecord
	for rows.Next() {
		r := model.MonthlyRecord{Domain: model.DomainVolume, Volume: &model.VolumeFields{}}
		if err := rows.Scan(&r.OfficeID, &r.Year, &r.Month, &r.Volume.BacklogInLab, &r.Volume.BacklogInClinic, &r.Volume.TotalWeeklyUnits); err != nil {
			return nil, fmt.Errorf("scan volume failed: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume failed: %w", err)
	}
	return out, nil
}

func (s *Store) fetchNotes(ctx context.Context, args []interface{}) ([]model.MonthlyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT office_id, year, month, COALESCE(note_text, '')
		FROM notes_actions
		WHERE office_id = ? AND `+rangeClause+`
		ORDER BY year, month
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes failed: %w", err)
	}
	defer rows.Close()

	var out []model.MonthlyRecord
	for rows.Next() {
		r := model.MonthlyRecord{Domain: model.DomainNotes}
		if err := rows.Scan(&r.OfficeID, &r.Year, &r.Month, &r.Note); err != nil {
			return nil, fmt.Errorf("scan notes failed: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes failed: %w", err)
	}
	return out, nil
}

// LatestDataMonth 诊所全部历史中最近一个有财务/运营/业务量数据的月份
func (s *Store) LatestDataMonth(ctx context.Context, officeID int64) (year, month int, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT year, month FROM (
			SELECT year, month FROM monthly_financials WHERE office_id = ?1
			UNION
			SELECT year, month FROM monthly_ops WHERE office_id = ?1
			UNION
			SELECT year, month FROM monthly_volume WHERE office_id = ?1
		) ORDER BY year DESC, month DESC LIMIT 1
	`, officeID).Scan(&year, &month)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("query latest month failed: %w", err)
	}
	return year, month, true, nil
}

// SaveFinancial 保存月度财务数据（同月覆盖）
func (s *Store) SaveFinancial(ctx context.Context, officeID int64, year, month int, f model.FinancialFields) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monthly_financials (
			office_id, year, month, revenue, lab_exp_no_outside, lab_exp_with_outside,
			outside_lab_spend, personnel_exp, overtime_exp, bonus_exp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(office_id, year, month) DO UPDATE SET
			revenue = excluded.revenue,
			lab_exp_no_outside = excluded.lab_exp_no_outside,
			lab_exp_with_outside = excluded.lab_exp_with_outside,
			outside_lab_spend = excluded.outside_lab_spend,
			personnel_exp = excluded.personnel_exp,
			overtime_exp = excluded.overtime_exp,
			bonus_exp = excluded.bonus_exp,
			updated_at = CURRENT_TIMESTAMP
	`, officeID, year, month, f.Revenue, f.LabExpNoOutside, f.LabExpWithOutside,
		f.OutsideLabSpend, f.PersonnelExp, f.OvertimeExp, f.BonusExp)
	if err != nil {
		return fmt.Errorf("failed to save financials: %w", err)
	}
	return nil
}

// SaveOperations 保存月度运营数据（同月覆盖）
func (s *Store) SaveOperations(ctx context.Context, officeID int64, year, month int, o model.OperationsFields) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monthly_ops (office_id, year, month, backlog_case_count, overtime_value, current_staff, required_staff)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(office_id, year, month) DO UPDATE SET
			backlog_case_count = excluded.backlog_case_count,
			overtime_value = excluded.overtime_value,
			current_staff = excluded.current_staff,
			required_staff = excluded.required_staff,
			updated_at = CURRENT_TIMESTAMP
	`, officeID, year, month, o.BacklogCaseCount, o.OvertimeValue, o.CurrentStaff, o.RequiredStaff)
	if err != nil {
		return fmt.Errorf("failed to save operations: %w", err)
	}
	return nil
}

// SaveVolume 保存月度业务量（同月覆盖）
func (s *Store) SaveVolume(ctx context.Context, officeID int64, year, month int, v model.VolumeFields) error {
	return saveVolume(ctx, s.db, officeID, year, month, v)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func saveVolume(ctx context.Context, db execer, officeID int64, year, month int, v model.VolumeFields) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO monthly_volume (office_id, year, month, backlog_in_lab, backlog_in_clinic, total_weekly_units)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(office_id, year, month) DO UPDATE SET
			backlog_in_lab = excluded.backlog_in_lab,
			backlog_in_clinic = excluded.backlog_in_clinic,
			total_weekly_units = excluded.total_weekly_units,
			updated_at = CURRENT_TIMESTAMP
	`, officeID, year, month, v.BacklogInLab, v.BacklogInClinic, v.TotalWeeklyUnits)
	if err != nil {
		return fmt.Errorf("failed to save volume: %w", err)
	}
	return nil
}

// SaveNote 保存月度备注
func (s *Store) SaveNote(ctx context.Context, officeID int64, year, month int, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes_actions (office_id, year, month, note_text)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(office_id, year, month) DO UPDATE SET
			note_text = excluded.note_text,
			updated_at = CURRENT_TIMESTAMP
	`, officeID, year, month, text)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return nil
}

// FinancialExists 诊所某月是否已有财务数据
func (s *Store) FinancialExists(ctx context.Context, officeID int64, year, month int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM monthly_financials WHERE office_id = ? AND year = ? AND month = ?
	`, officeID, year, month).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query financials failed: %w", err)
	}
	return n > 0, nil
}
