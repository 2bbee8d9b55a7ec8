package importer

import (
	"fmt"
	"strings"
	"time"

	"labpulse/internal/model"
)

// Office_list.xlsx 列：A=Office ID, B=Office Name, C=Model, D=Address, E=Phone,
// F=Managing Dentist, G=DFO, H=Standardization Status
func (c *Coordinator) importOffices(ic *importContext) error {
	rows, err := ic.rows("")
	if err != nil {
		return err
	}

	existing, err := c.store.ListOffices(ic.ctx)
	if err != nil {
		return fmt.Errorf("failed to load offices: %w", err)
	}
	known := make(map[int64]bool, len(existing))
	for _, o := range existing {
		known[o.ID] = true
	}

	for idx, row := range rows {
		if idx == 0 {
			continue
		}
		rowNo := idx + 1
		ic.report.RowsProcessed++

		if len(row) < 3 {
			c.warn(ic, "Row %d: Insufficient columns", rowNo)
			continue
		}
		id, ok := parseInt(cell(row, 0))
		if !ok {
			c.warn(ic, "Row %d: Invalid office ID", rowNo)
			continue
		}
		m := model.OperatingModel(strings.ToUpper(cell(row, 2)))
		if m != model.ModelPO && m != model.ModelPLLC {
			c.warn(ic, "Row %d: Invalid model '%s', expected PO or PLLC", rowNo, m)
			continue
		}

		office := model.Office{
			ID:                    id,
			Name:                  cell(row, 1),
			Model:                 m,
			Address:               cell(row, 3),
			Phone:                 cell(row, 4),
			ManagingDentist:       cell(row, 5),
			DFO:                   cell(row, 6),
			StandardizationStatus: cell(row, 7),
		}
		if err := c.store.UpsertOffice(ic.ctx, office); err != nil {
			c.warn(ic, "Row %d: Failed to save office - %v", rowNo, err)
			continue
		}
		if known[id] {
			ic.report.RowsUpdated++
		} else {
			known[id] = true
			ic.report.RowsInserted++
		}
	}

	c.sendProgress(ic.progressChan, ProgressEvent{
		Type:      "info",
		Message:   fmt.Sprintf("offices: %d inserted, %d updated", ic.report.RowsInserted, ic.report.RowsUpdated),
		Timestamp: time.Now(),
	})
	return nil
}
