package importer

import (
	"fmt"
	"time"

	"labpulse/internal/model"
)

// FinancialsSheet 月度财务批量导入的工作表名
const FinancialsSheet = "monthly_financials"

// 列：office_id, year, month, revenue, lab_exp_no_outside, lab_exp_with_outside,
// 4 列耗材/中心费用（忽略）, personnel_exp, overtime_exp, bonus_exp
const (
	colFinRevenue   = 3
	colFinLabNo     = 4
	colFinLabWith   = 5
	colFinPersonnel = 10
	colFinOvertime  = 11
	colFinBonus     = 12
)

func (c *Coordinator) importFinancials(ic *importContext) error {
	rows, err := ic.rows(FinancialsSheet)
	if err != nil {
		return err
	}

	for idx, row := range rows {
		if idx == 0 {
			continue
		}
		rowNo := idx + 1
		ic.report.RowsProcessed++

		officeID, ok := parseInt(cell(row, 0))
		if !ok {
			c.warn(ic, "Row %d: Missing or invalid office_id", rowNo)
			continue
		}
		year, ok := parseInt(cell(row, 1))
		if !ok {
			c.warn(ic, "Row %d: Missing or invalid year", rowNo)
			continue
		}
		month, ok := parseInt(cell(row, 2))
		if !ok {
			c.warn(ic, "Row %d: Missing or invalid month", rowNo)
			continue
		}
		if month < 1 || month > 12 {
			c.warn(ic, "Row %d: Invalid month %d (must be 1-12)", rowNo, month)
			continue
		}

		fin := model.FinancialFields{
			Revenue:           parseFloat(cell(row, colFinRevenue)),
			LabExpNoOutside:   parseFloat(cell(row, colFinLabNo)),
			LabExpWithOutside: parseFloat(cell(row, colFinLabWith)),
			PersonnelExp:      parseFloat(cell(row, colFinPersonnel)),
			OvertimeExp:       parseFloat(cell(row, colFinOvertime)),
			BonusExp:          parseFloat(cell(row, colFinBonus)),
		}
		// 外部技工费用由含/不含外部两列推算
		if fin.LabExpNoOutside != nil && fin.LabExpWithOutside != nil {
			outside := *fin.LabExpWithOutside - *fin.LabExpNoOutside
			fin.OutsideLabSpend = &outside
		}

		exists, err := c.store.FinancialExists(ic.ctx, officeID, int(year), int(month))
		if err != nil {
			return err
		}
		if err := c.store.SaveFinancial(ic.ctx, officeID, int(year), int(month), fin); err != nil {
			c.warn(ic, "Row %d: Failed to import - %v", rowNo, err)
			continue
		}
		if exists {
			ic.report.RowsUpdated++
		} else {
			ic.report.RowsInserted++
		}
	}

	c.sendProgress(ic.progressChan, ProgressEvent{
		Type:      "info",
		Message:   fmt.Sprintf("financials: %d inserted, %d updated", ic.report.RowsInserted, ic.report.RowsUpdated),
		Timestamp: time.Now(),
	})
	return nil
}
