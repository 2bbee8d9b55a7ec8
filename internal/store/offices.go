package store

import (
	"context"
	"database/sql"
	"fmt"

	"labpulse/internal/model"
)

// ListOffices 列出全部诊所（按 office_id）
func (s *Store) ListOffices(ctx context.Context) ([]model.Office, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT office_id, office_name, model,
			COALESCE(address, ''), COALESCE(phone, ''), COALESCE(managing_dentist, ''),
			COALESCE(dfo, ''), COALESCE(standardization_status, '')
		FROM offices
		ORDER BY office_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query offices failed: %w", err)
	}
	defer rows.Close()

	var out []model.Office
	for rows.Next() {
		var o model.Office
		if err := rows.Scan(&o.ID, &o.Name, &o.Model, &o.Address, &o.Phone, &o.ManagingDentist, &o.DFO, &o.StandardizationStatus); err != nil {
			return nil, fmt.Errorf("scan office failed: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offices failed: %w", err)
	}
	return out, nil
}

// GetOffice 按 ID 获取诊所
func (s *Store) GetOffice(ctx context.Context, id int64) (*model.Office, error) {
	var o model.Office
	err := s.db.QueryRowContext(ctx, `
		SELECT office_id, office_name, model,
			COALESCE(address, ''), COALESCE(phone, ''), COALESCE(managing_dentist, ''),
			COALESCE(dfo, ''), COALESCE(standardization_status, '')
		FROM offices WHERE office_id = ?
	`, id).Scan(&o.ID, &o.Name, &o.Model, &o.Address, &o.Phone, &o.ManagingDentist, &o.DFO, &o.StandardizationStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("office not found: %d", id)
		}
		return nil, fmt.Errorf("query office failed: %w", err)
	}
	return &o, nil
}

// UpsertOffice 新增或更新诊所
func (s *Store) UpsertOffice(ctx context.Context, o model.Office) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offices (office_id, office_name, model, address, phone, managing_dentist, dfo, standardization_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(office_id) DO UPDATE SET
			office_name = excluded.office_name,
			model = excluded.model,
			address = excluded.address,
			phone = excluded.phone,
			managing_dentist = excluded.managing_dentist,
			dfo = excluded.dfo,
			standardization_status = excluded.standardization_status,
			updated_at = CURRENT_TIMESTAMP
	`, o.ID, o.Name, string(o.Model), o.Address, o.Phone, o.ManagingDentist, o.DFO, o.StandardizationStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert office %d: %w", o.ID, err)
	}
	return nil
}
