package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"labpulse/internal/model"
)

// CreateImportLog 写入导入日志，并记录为最近一次导入
func (s *Store) CreateImportLog(ctx context.Context, r model.ImportReport) error {
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_log (import_id, import_type, filename, rows_processed, rows_inserted, rows_updated, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ImportID, string(r.Type), r.Filename, r.RowsProcessed, r.RowsInserted, r.RowsUpdated, string(warnings))
	if err != nil {
		return fmt.Errorf("failed to create import log: %w", err)
	}
	return s.SetSetting(SettingLastImport, r.ImportID)
}

// ListImportLogs 最近的导入日志（新到旧）
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]model.ImportReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT import_id, import_type, COALESCE(filename, ''), rows_processed, rows_inserted, rows_updated,
			COALESCE(warnings, ''), imported_at
		FROM import_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	var out []model.ImportReport
	for rows.Next() {
		var r model.ImportReport
		var typ, warnings string
		var at sql.NullTime
		if err := rows.Scan(&r.ImportID, &typ, &r.Filename, &r.RowsProcessed, &r.RowsInserted, &r.RowsUpdated, &warnings, &at); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		r.Type = model.ImportType(typ)
		if at.Valid {
			r.ImportedAt = at.Time
		}
		if warnings != "" {
			if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
				return nil, fmt.Errorf("decode warnings failed: %w", err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}
