package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store SQLite 数据库存储层，同时实现汇总所需的仓储与目录接口
type Store struct {
	db   *sql.DB
	path string
}

// New 创建新的 Store 实例
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite 建议单连接；PRAGMA foreign_keys 也按连接生效
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, path: dbPath}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema 初始化数据库结构
func (s *Store) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}

	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path 数据库文件路径
func (s *Store) Path() string {
	return s.path
}

// TableCounts 各表行数
type TableCounts struct {
	Offices     int64 `json:"offices"`
	Financials  int64 `json:"financials"`
	Ops         int64 `json:"ops"`
	Volume      int64 `json:"volume"`
	Weekly      int64 `json:"weekly"`
	Notes       int64 `json:"notes"`
	Submissions int64 `json:"submissions"`
}

// GetTableCounts 统计各表行数
func (s *Store) GetTableCounts() (TableCounts, error) {
	var tc TableCounts
	targets := []struct {
		table string
		dst   *int64
	}{
		{"offices", &tc.Offices},
		{"monthly_financials", &tc.Financials},
		{"monthly_ops", &tc.Ops},
		{"monthly_volume", &tc.Volume},
		{"weekly_volume", &tc.Weekly},
		{"notes_actions", &tc.Notes},
		{"submission_compliance", &tc.Submissions},
	}
	for _, t := range targets {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + t.table).Scan(t.dst); err != nil {
			return tc, fmt.Errorf("count %s failed: %w", t.table, err)
		}
	}
	return tc, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
