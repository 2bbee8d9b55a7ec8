package importer

import (
	"fmt"
	"sort"
	"time"

	"labpulse/internal/model"
)

// 周业务量工作表列：A=office_id, B=year, C=month（忽略，由周号推算）, D=week_number，
// 明细计数从 G 列开始
const (
	colWeekOffice = 0
	colWeekYear   = 1
	colWeekNumber = 3
	colWeekCounts = 6
)

type yearWeek struct {
	year int
	week int
}

func (c *Coordinator) importWeeklyVolume(ic *importContext) error {
	rows, err := ic.rows("")
	if err != nil {
		return err
	}

	offices, err := c.store.ListOffices(ic.ctx)
	if err != nil {
		return fmt.Errorf("failed to load offices: %w", err)
	}
	known := make(map[int64]bool, len(offices))
	for _, o := range offices {
		known[o.ID] = true
	}

	submitted := make(map[yearWeek]map[int64]bool)

	for idx, row := range rows {
		if idx == 0 {
			continue
		}
		rowNo := idx + 1
		ic.report.RowsProcessed++

		officeID, ok := parseInt(cell(row, colWeekOffice))
		if !ok {
			c.warn(ic, "Row %d: Missing or invalid office ID", rowNo)
			continue
		}
		if !known[officeID] {
			c.warn(ic, "Row %d: Unknown office ID %d", rowNo, officeID)
			continue
		}
		year, ok := parseInt(cell(row, colWeekYear))
		if !ok {
			c.warn(ic, "Row %d: Missing or invalid year", rowNo)
			continue
		}
		week, ok := parseInt(cell(row, colWeekNumber))
		if !ok {
			c.warn(ic, "Row %d: Missing or invalid week number", rowNo)
			continue
		}
		if week < 1 || week > 53 {
			c.warn(ic, "Row %d: Invalid week number %d (must be 1-53)", rowNo, week)
			continue
		}

		counts := make([]int, len(model.WeeklyVolumeColumns))
		for i := range counts {
			counts[i] = countAt(row, colWeekCounts+i)
		}

		wv := model.WeeklyVolume{OfficeID: officeID, Year: int(year), Week: int(week), Counts: counts}
		inserted, err := c.store.InsertWeeklyVolume(ic.ctx, wv)
		if err != nil {
			c.warn(ic, "Row %d: Failed to insert weekly record - %v", rowNo, err)
			continue
		}
		if !inserted {
			ic.report.RowsSkipped++
			continue
		}
		ic.report.RowsInserted++

		key := yearWeek{year: wv.Year, week: wv.Week}
		if submitted[key] == nil {
			submitted[key] = make(map[int64]bool)
		}
		submitted[key][officeID] = true
	}

	if err := c.markSubmissions(ic, offices, submitted); err != nil {
		return err
	}

	months, err := c.store.RollupWeeklyToMonthly(ic.ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate weekly volume: %w", err)
	}
	ic.report.RowsUpdated = months

	c.sendProgress(ic.progressChan, ProgressEvent{
		Type: "info",
		Message: fmt.Sprintf("weekly volume: %d inserted, %d duplicates skipped, %d months updated",
			ic.report.RowsInserted, ic.report.RowsSkipped, months),
		Timestamp: time.Now(),
	})
	return nil
}

// markSubmissions 导入周内提交的诊所记为已提交，其余诊所记为缺报
func (c *Coordinator) markSubmissions(ic *importContext, offices []model.Office, submitted map[yearWeek]map[int64]bool) error {
	weeks := make([]yearWeek, 0, len(submitted))
	for k := range submitted {
		weeks = append(weeks, k)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].year != weeks[j].year {
			return weeks[i].year < weeks[j].year
		}
		return weeks[i].week < weeks[j].week
	})

	for _, w := range weeks {
		for _, o := range offices {
			var err error
			if submitted[w][o.ID] {
				err = c.store.MarkSubmitted(ic.ctx, o.ID, w.year, w.week)
			} else {
				err = c.store.MarkMissed(ic.ctx, o.ID, w.year, w.week)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
