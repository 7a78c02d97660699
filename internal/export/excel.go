// Package export renders bookings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"techbook/internal/models"
)

const sheetName = "Bookings"

var columns = []string{"ID", "Customer", "Technician", "Profession", "Start", "End"}

// sheet tracks the write position on one worksheet.
type sheet struct {
	file *excelize.File
	name string
	row  int
}

func newSheet(name string) *sheet {
	f := excelize.NewFile()
	// The default sheet is renamed rather than added alongside.
	f.SetSheetName("Sheet1", name)
	return &sheet{file: f, name: name, row: 1}
}

func (s *sheet) writeHeader(cols []string) error {
	if err := s.writeRow(toAny(cols)); err != nil {
		return err
	}
	style, err := s.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, 1)
	end, _ := excelize.CoordinatesToCellName(len(cols), 1)
	return s.file.SetCellStyle(s.name, start, end, style)
}

func (s *sheet) writeRow(values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			return err
		}
		if err := s.file.SetCellValue(s.name, cell, v); err != nil {
			return err
		}
	}
	s.row++
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// WriteBookings writes an xlsx workbook with a bold header row and one row
// per booking. Times are written as RFC3339 text in their own location.
func WriteBookings(w io.Writer, bookings []models.Booking) error {
	s := newSheet(sheetName)
	defer s.file.Close()

	if err := s.writeHeader(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range bookings {
		row := []any{
			b.ID,
			b.CustomerName,
			b.TechnicianName,
			string(b.Profession),
			b.StartTime.Format("2006-01-02T15:04:05Z07:00"),
			b.EndTime.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := s.writeRow(row); err != nil {
			return fmt.Errorf("write booking %s: %w", b.ID, err)
		}
	}
	_ = s.file.SetColWidth(s.name, "A", "A", 38)
	_ = s.file.SetColWidth(s.name, "B", "F", 24)

	if err := s.file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteBookingsFile writes the workbook to path.
func WriteBookingsFile(path string, bookings []models.Booking) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteBookings(f, bookings); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
