package model

import (
	"fmt"
	"time"
)

// ImportType 导入类型
type ImportType string

const (
	ImportOffices      ImportType = "offices"
	ImportFinancials   ImportType = "bulk_financials"
	ImportWeeklyVolume ImportType = "weekly_volume"

	// ImportAuto 按表头自动识别，导入报告中记录识别出的实际类型
	ImportAuto ImportType = "auto"
)

// ImportReport 一次导入的汇总结果
type ImportReport struct {
	ImportID      string     `json:"importId"`
	Type          ImportType `json:"importType"`
	Filename      string     `json:"filename"`
	RowsProcessed int        `json:"rowsProcessed"`
	RowsInserted  int        `json:"rowsInserted"`
	RowsUpdated   int        `json:"rowsUpdated"`
	RowsSkipped   int        `json:"rowsSkipped"`
	Warnings      []string   `json:"warnings"`
	ImportedAt    time.Time  `json:"importedAt"`
	Duration      string     `json:"duration,omitempty"`
}

// AddWarning 追加行级警告（行号为表格中的 1 基行号）
func (r *ImportReport) AddWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
