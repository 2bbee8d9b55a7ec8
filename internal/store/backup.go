package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Backup 将当前数据库快照写入 dir，返回备份文件路径
func (s *Store) Backup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	target := filepath.Join(dir, fmt.Sprintf("labpulse_%s.db", time.Now().Format("20060102_150405")))
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("backup %s already exists", filepath.Base(target))
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	return target, nil
}
