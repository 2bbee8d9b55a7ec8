package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"labpulse/internal/service/dashboard"
	"labpulse/internal/util"
)

// 工作表名称
const (
	SheetDashboard  = "Dashboard"
	SheetRankings   = "Rankings"
	SheetCompliance = "Compliance"
)

// Exporter 看板视图导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportOptions 导出内容；为 nil 的视图不生成对应工作表
type ExportOptions struct {
	Dashboard  *dashboard.Dashboard
	Ranking    *dashboard.RankingView
	Compliance *dashboard.ComplianceView
}

// Export 生成工作簿
func (e *Exporter) Export(opts ExportOptions, progress func(ProgressEvent)) (*excelize.File, error) {
	if opts.Dashboard == nil && opts.Ranking == nil && opts.Compliance == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	w := &workbook{file: f, header: header}
	reportProgress(progress, 5, "prepare")

	if opts.Dashboard != nil {
		if err := w.writeDashboard(opts.Dashboard); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	reportProgress(progress, 40, "dashboard")

	if opts.Ranking != nil {
		if err := w.writeRanking(opts.Ranking); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	reportProgress(progress, 70, "rankings")

	if opts.Compliance != nil {
		if err := w.writeCompliance(opts.Compliance); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	reportProgress(progress, 90, "compliance")

	// 默认 Sheet1 在写入至少一个视图后移除
	if err := f.DeleteSheet("Sheet1"); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(0)
	reportProgress(progress, 100, "done")
	return f, nil
}

type workbook struct {
	file   *excelize.File
	header int
}

// writeTable 新建工作表并写入表头与数据行
func (w *workbook) writeTable(sheet string, title string, headers []string, rows [][]interface{}) error {
	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rowNo := 1
	if title != "" {
		if err := w.file.SetCellValue(sheet, "A1", title); err != nil {
			return fmt.Errorf("failed to write title: %w", err)
		}
		rowNo = 3
	}

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := w.setRow(sheet, rowNo, headerRow); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, rowNo)
	last, _ := excelize.CoordinatesToCellName(len(headers), rowNo)
	if err := w.file.SetCellStyle(sheet, first, last, w.header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		if err := w.setRow(sheet, rowNo+1+i, row); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := w.file.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

func (w *workbook) setRow(sheet string, rowNo int, values []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(sheet, axis, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, rowNo, err)
	}
	return nil
}

func (w *workbook) writeDashboard(d *dashboard.Dashboard) error {
	headers := []string{
		"Office ID", "Office", "State", "DFO", "Model", "Completeness",
		"Revenue", "Lab Exp %", "Personnel %", "Overtime %",
		"Backlog Cases", "Backlog in Lab", "Backlog in Clinic", "Weekly Units", "Data Completeness %", "Alerts",
	}
	rows := make([][]interface{}, 0, len(d.Offices))
	for _, o := range d.Offices {
		messages := make([]string, 0, len(o.Alerts))
		for _, a := range o.Alerts {
			messages = append(messages, a.Message)
		}
		var backlog interface{} = ""
		if o.BacklogCount != nil {
			backlog = *o.BacklogCount
		}
		rows = append(rows, []interface{}{
			o.OfficeID, o.OfficeName, o.State, o.DFO, string(o.Model), string(o.Completeness),
			num(o.Revenue), num(o.LabExpPercent), num(o.PersonnelPercent), num(o.OvertimePercent),
			backlog, num(o.BacklogInLab), num(o.BacklogInClinic), num(o.TotalWeeklyUnits), num(o.DataCompleteness),
			strings.Join(messages, "; "),
		})
	}
	return w.writeTable(SheetDashboard, d.Period.Label, headers, rows)
}

func (w *workbook) writeRanking(r *dashboard.RankingView) error {
	title := r.Metric.Label
	if r.Period != nil {
		title = fmt.Sprintf("%s - %s", r.Metric.Label, r.Period.Label)
	}
	headers := []string{"Rank", "Office ID", "Office", "State", "DFO", r.Metric.Label}
	rows := make([][]interface{}, 0, len(r.Entries)+4)
	for _, e := range r.Entries {
		rows = append(rows, []interface{}{e.Rank, e.OfficeID, e.OfficeName, e.State, e.DFO, r.Metric.FormatValue(e.Value)})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Best", r.Stats.Best},
		[]interface{}{"Average", r.Stats.Average},
		[]interface{}{"Worst", r.Stats.Worst},
	)
	return w.writeTable(SheetRankings, title, headers, rows)
}

func (w *workbook) writeCompliance(c *dashboard.ComplianceView) error {
	headers := []string{
		"Office ID", "Office", "DFO", "Total Weeks", "Submitted Weeks",
		"Compliance Rate", "Current Streak", "Longest Streak", "Recent",
	}
	rows := make([][]interface{}, 0, len(c.Records))
	for _, r := range c.Records {
		recent := make([]string, len(r.RecentSubmissions))
		for i, s := range r.RecentSubmissions {
			recent[i] = "✗"
			if s == 1 {
				recent[i] = "✓"
			}
		}
		rows = append(rows, []interface{}{
			r.OfficeID, r.OfficeName, r.DFO, r.TotalWeeks, r.SubmittedWeeks,
			util.FormatPercent(r.ComplianceRate), r.CurrentStreak, r.LongestStreak, strings.Join(recent, " "),
		})
	}
	return w.writeTable(SheetCompliance, fmt.Sprintf("Last %d weeks", c.Window), headers, rows)
}

// num 空值写为空单元格
func num(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
