package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"toolroom-console/internal/derive"
	"toolroom-console/internal/model"
	"toolroom-console/internal/views"
)

const (
	historySheet    = "Custody History"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var historyHeaders = []string{"Event", "Worker", "Asset", "Asset Code", "Checked Out", "Returned", "Overdue"}

// ExportHistory handles GET /console/history/export?format=xlsx|csv. On the
// custody page it exports what the history search currently matches.
func (h *Handler) ExportHistory(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	records, err := h.console.HistoryRows(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to load custody history")
		return
	}
	data := historyTable(records, h.console.Location())
	filename := "custody-history-" + time.Now().In(h.console.Location()).Format("20060102-1504")

	h.logger.Infof("exporting %d history rows as %s", len(data), format)
	if format == "xlsx" {
		exportExcel(c, filename+".xlsx", historySheet, historyHeaders, data)
	} else {
		exportCSV(c, filename+".csv", historyHeaders, data)
	}
}

func historyTable(records []model.HistoryRecord, loc *time.Location) [][]string {
	data := make([][]string, 0, len(records))
	for _, r := range records {
		row := views.HistoryRowOf(r, loc)
		returned := row.Returned
		if r.ReturnedAt != nil && !r.ReturnedAt.IsZero() {
			returned = derive.DayAndClock(r.ReturnedAt, loc)
		}
		data = append(data, []string{
			r.EventType,
			row.Worker,
			derive.OrPlaceholder(r.AssetName),
			derive.OrPlaceholder(r.Asset),
			row.CheckedOut,
			returned,
			row.Overdue,
		})
	}
	return data
}

func exportCSV(c *gin.Context, filename string, headers []string, data [][]string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(headers); err != nil {
		return
	}
	_ = writer.WriteAll(data)
}

func exportExcel(c *gin.Context, filename, sheet string, headers []string, data [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create header style"})
		return
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	for r, row := range data {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", last, 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
