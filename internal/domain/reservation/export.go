package reservation

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"gymplanner/internal/domain"
)

const rosterSheet = "Roster"

var rosterHeader = []string{"Last name", "First name", "Email", "Phone", "Booked at", "Present"}

// WriteRosterWorkbook renders a session roster as an .xlsx file.
func WriteRosterWorkbook(sess *domain.Session, entries []RosterEntry) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(rosterSheet)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	f.SetColWidth(rosterSheet, "A", "B", 18)
	f.SetColWidth(rosterSheet, "C", "C", 30)
	f.SetColWidth(rosterSheet, "D", "E", 18)
	f.SetColWidth(rosterSheet, "F", "F", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	title := fmt.Sprintf("%s, %s %s-%s, %s (%d/%d)",
		sess.Activity.DisplayName(), sess.Date, sess.Start, sess.End, sess.Room, len(entries), sess.Capacity)
	f.SetCellValue(rosterSheet, "A1", title)
	f.MergeCell(rosterSheet, "A1", cell(len(rosterHeader)-1, 1))
	f.SetCellStyle(rosterSheet, "A1", "A1", headerStyle)

	for i, h := range rosterHeader {
		f.SetCellValue(rosterSheet, cell(i, 2), h)
	}
	f.SetCellStyle(rosterSheet, "A2", cell(len(rosterHeader)-1, 2), headerStyle)

	row := 3
	for _, e := range entries {
		f.SetCellValue(rosterSheet, cell(0, row), e.LastName)
		f.SetCellValue(rosterSheet, cell(1, row), e.FirstName)
		f.SetCellValue(rosterSheet, cell(2, row), e.Email)
		f.SetCellValue(rosterSheet, cell(3, row), e.Phone)
		f.SetCellValue(rosterSheet, cell(4, row), e.BookedAt.UTC().Format("2006-01-02 15:04"))
		f.SetCellValue(rosterSheet, cell(5, row), presence(e.Present))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func presence(p *bool) string {
	switch {
	case p == nil:
		return "-"
	case *p:
		return "yes"
	default:
		return "no"
	}
}

// cell converts a zero-based column and one-based row to "A1" notation.
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
