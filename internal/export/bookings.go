// Package export renders bookings as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"schedula/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Bookings"

var headers = []string{"Title", "Date", "Start", "End", "Status", "Client", "Email", "Category"}

var statusColors = map[models.BookingStatus]string{
	models.StatusConfirmed: "#E2EFDA",
	models.StatusPending:   "#FFF2CC",
	models.StatusCancelled: "#F8CBAD",
	models.StatusCompleted: "#DDEBF7",
}

// WriteBookings writes one sheet: a period title row, a header row and one
// row per booking. Times are rendered in loc.
func WriteBookings(w io.Writer, bookings []*models.Booking, from, to time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))

	// Заголовок периода
	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("Period: %s - %s",
		from.In(loc).Format("2006-01-02"), to.In(loc).Format("2006-01-02")))
	_ = f.MergeCell(SheetName, "A1", lastCol+"1")
	if style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err == nil {
		_ = f.SetCellStyle(SheetName, "A1", "A1", style)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	}); err == nil {
		_ = f.SetCellStyle(SheetName, "A2", lastCol+"2", style)
	}

	styles := make(map[models.BookingStatus]int)
	for status, color := range statusColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			styles[status] = style
		}
	}

	for i, b := range bookings {
		row := i + 3
		start, end := b.StartTime.In(loc), b.EndTime.In(loc)
		values := []interface{}{
			b.Title,
			start.Format("2006-01-02"),
			start.Format("15:04"),
			end.Format("15:04"),
			string(b.Status),
			deref(b.ClientName),
			deref(b.ClientEmail),
			deref(b.Category),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		if style, ok := styles[b.Status]; ok {
			endCell, _ := excelize.CoordinatesToCellName(len(headers), row)
			_ = f.SetCellStyle(SheetName, cell, endCell, style)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 30)
	_ = f.SetColWidth(SheetName, "B", lastCol, 16)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")
	if index, err := f.GetSheetIndex(SheetName); err == nil {
		f.SetActiveSheet(index)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// FileName is the suggested download name for a period.
func FileName(from, to time.Time) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
