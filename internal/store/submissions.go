package store

import (
	"context"
	"fmt"
)

// MarkSubmitted 标记诊所某周已提交
func (s *Store) MarkSubmitted(ctx context.Context, officeID int64, year, week int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submission_compliance (office_id, year, week_number, submitted)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(office_id, year, week_number) DO UPDATE SET submitted = 1
	`, officeID, year, week)
	if err != nil {
		return fmt.Errorf("failed to mark submission: %w", err)
	}
	return nil
}

// MarkMissed 标记诊所某周未提交；已提交的周保持不变
func (s *Store) MarkMissed(ctx context.Context, officeID int64, year, week int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO submission_compliance (office_id, year, week_number, submitted)
		VALUES (?, ?, ?, 0)
	`, officeID, year, week)
	if err != nil {
		return fmt.Errorf("failed to mark missed week: %w", err)
	}
	return nil
}

// FetchSubmissionHistory 诊所的周提交历史（从旧到新）
//
// 晚于库中最新一周业务量数据的周视为尚未到来，不计入历史。
func (s *Store) FetchSubmissionHistory(ctx context.Context, officeID int64) ([]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT submitted
		FROM submission_compliance
		WHERE office_id = ?
		  AND (year * 100 + week_number) <= (
			SELECT COALESCE(MAX(year * 100 + week_number), 0) FROM weekly_volume
		  )
		ORDER BY year, week_number
	`, officeID)
	if err != nil {
		return nil, fmt.Errorf("query submission history failed: %w", err)
	}
	defer rows.Close()

	var history []bool
	for rows.Next() {
		var submitted int
		if err := rows.Scan(&submitted); err != nil {
			return nil, fmt.Errorf("scan submission failed: %w", err)
		}
		history = append(history, submitted == 1)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions failed: %w", err)
	}
	return history, nil
}
