package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook renders the quiz, assignment and attendance sheets as xlsx bytes.
func Workbook(data Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	quizzes := make([][]any, 0, len(data.Quizzes))
	for _, row := range data.Quizzes {
		quizzes = append(quizzes, []any{row.StudentID, row.StudentName, row.QuizID, row.Grade, row.MaxGrade})
	}
	assignments := make([][]any, 0, len(data.Assignments))
	for _, row := range data.Assignments {
		assignments = append(assignments, []any{row.StudentID, row.StudentName, row.AssignmentID, row.Grade, row.MaxGrade})
	}
	attendance := make([][]any, 0, len(data.Attendance))
	for _, row := range data.Attendance {
		attendance = append(attendance, []any{row.StudentID, row.StudentName, row.LessonID, status(row.Present)})
	}

	sheets := []struct {
		name    string
		columns []any
		rows    [][]any
	}{
		{SheetQuizzes, []any{"Student ID", "Student Name", "Quiz ID", "Grade", "Max Grade"}, quizzes},
		{SheetAssignments, []any{"Student ID", "Student Name", "Assignment ID", "Grade", "Max Grade"}, assignments},
		{SheetAttendance, []any{"Student ID", "Student Name", "Lesson ID", "Status"}, attendance},
	}
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		if err := writeSheet(f, sheet.name, sheet.columns, sheet.rows, header); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, columns []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 16)
}
