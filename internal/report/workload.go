// Package report renders admin exports.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

const (
	SheetWorkload = "Workload"
	SheetOrders   = "Work orders"
)

// WorkloadXLSX writes the per-technician aggregation and, when orders is
// non-empty, a second sheet listing each order. names resolves assignee ids.
func WorkloadXLSX(loads []workorder.TechnicianLoad, orders []models.WorkOrder, names map[string]string, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetWorkload)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	_ = f.SetCellValue(SheetWorkload, "A1", fmt.Sprintf("Technician workload, %s", now.Format("2006-01-02 15:04")))
	_ = f.MergeCell(SheetWorkload, "A1", "E1")

	writeRow(f, SheetWorkload, 2, "Technician", "Active/Pending", "Review", "Done", "Total")
	_ = f.SetCellStyle(SheetWorkload, "A2", "E2", headerStyle)
	_ = f.SetColWidth(SheetWorkload, "A", "A", 28)
	_ = f.SetColWidth(SheetWorkload, "B", "E", 14)

	row := 3
	var total workorder.Counts
	for _, l := range loads {
		writeRow(f, SheetWorkload, row, l.Name, l.Active, l.Review, l.Done, l.Total)
		total.ActivePending += l.Active
		total.Review += l.Review
		total.Done += l.Done
		row++
	}
	writeRow(f, SheetWorkload, row, "All technicians", total.ActivePending, total.Review, total.Done, total.Total())
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(SheetWorkload, cell("A", row), cell("E", row), boldStyle)

	if len(orders) > 0 {
		if _, err := f.NewSheet(SheetOrders); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}
		writeRow(f, SheetOrders, 1, "Code", "Title", "Status", "Priority", "Due", "Overdue", "Assignee")
		_ = f.SetCellStyle(SheetOrders, "A1", "G1", headerStyle)
		_ = f.SetColWidth(SheetOrders, "B", "B", 40)
		_ = f.SetColWidth(SheetOrders, "G", "G", 28)
		for i, wo := range orders {
			due := ""
			if wo.DueDate != nil {
				due = wo.DueDate.Format("2006-01-02")
			}
			overdue := ""
			if workorder.IsOverdue(wo.DueDate, wo.Status, now) {
				overdue = "yes"
			}
			assignee := workorder.Unassigned
			if wo.AssignedTo != nil {
				assignee = wo.AssignedTo.String()
				if n := names[assignee]; n != "" {
					assignee = n
				}
			}
			writeRow(f, SheetOrders, i+2,
				wo.DisplayCode(), wo.Title,
				workorder.NormalizeStatus(wo.Status).Label(),
				string(workorder.NormalizePriority(wo.Priority)),
				due, overdue, assignee)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		_ = f.SetCellValue(sheet, cell(colName(i), row), v)
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
