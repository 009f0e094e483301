package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

func TestWorkloadXLSX(t *testing.T) {
	now := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	tech := uuid.New()
	yesterday := now.AddDate(0, 0, -1)
	orders := []models.WorkOrder{
		{ID: uuid.New(), WorkOrderID: "WO-1", Title: "Fix pump", Status: "in progress", Priority: "High", DueDate: &yesterday, AssignedTo: &tech},
		{ID: uuid.New(), WorkOrderID: "WO-2", Title: "Paint wall", Status: "done"},
	}
	names := map[string]string{tech.String(): "Tariq"}
	loads := workorder.AggregateByTechnician(orders, names)

	b, err := WorkloadXLSX(loads, orders, names, now)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetWorkload, SheetOrders}, f.GetSheetList())

	header, _ := f.GetCellValue(SheetWorkload, "A2")
	assert.Equal(t, "Technician", header)

	rows, err := f.GetRows(SheetWorkload)
	require.NoError(t, err)
	require.Len(t, rows, 2+len(loads)+1)
	last := rows[len(rows)-1]
	assert.Equal(t, []string{"All technicians", "1", "0", "1", "2"}, last)

	code, _ := f.GetCellValue(SheetOrders, "A2")
	status, _ := f.GetCellValue(SheetOrders, "C2")
	prio, _ := f.GetCellValue(SheetOrders, "D2")
	overdue, _ := f.GetCellValue(SheetOrders, "F2")
	assignee, _ := f.GetCellValue(SheetOrders, "G2")
	assert.Equal(t, "WO-1", code)
	assert.Equal(t, "In Progress", status)
	assert.Equal(t, "high", prio)
	assert.Equal(t, "yes", overdue)
	assert.Equal(t, "Tariq", assignee)

	unassigned, _ := f.GetCellValue(SheetOrders, "G3")
	assert.Equal(t, workorder.Unassigned, unassigned)
}

func TestWorkloadXLSXWithoutOrders(t *testing.T) {
	b, err := WorkloadXLSX(nil, nil, nil, time.Now())
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetWorkload}, f.GetSheetList())
}
