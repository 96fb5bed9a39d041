package report

import (
	"bytes"
	"fmt"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pdfFont      = "goregular"
	pdfMargin    = 40.0
	pdfRowHeight = 20.0
	pdfRowsPage  = 32
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Student", 175},
	{"Quiz avg %", 85},
	{"Assignment avg %", 105},
	{"Attendance %", 85},
	{"Completed", 65},
}

// PDF renders the performance rows as a table, pdfRowsPage rows per page.
func PDF(data Data) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFontData(pdfFont, goregular.TTF); err != nil {
		return nil, fmt.Errorf("load pdf font: %w", err)
	}

	rows := data.Performance
	for start := 0; start == 0 || start < len(rows); start += pdfRowsPage {
		end := min(start+pdfRowsPage, len(rows))
		if err := writePage(&pdf, data, rows[start:end], start == 0); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writePage(pdf *gopdf.GoPdf, data Data, rows []PerformanceRow, first bool) error {
	pdf.AddPage()
	y := pdfMargin
	if first {
		if err := pdf.SetFont(pdfFont, "", 16); err != nil {
			return fmt.Errorf("set pdf font: %w", err)
		}
		pdf.SetXY(pdfMargin, y)
		if err := pdf.Cell(&gopdf.Rect{W: tableWidth(), H: pdfRowHeight}, "Performance report: "+data.CourseTitle); err != nil {
			return err
		}
		y += 24
		if err := pdf.SetFont(pdfFont, "", 9); err != nil {
			return fmt.Errorf("set pdf font: %w", err)
		}
		pdf.SetXY(pdfMargin, y)
		if err := pdf.Cell(&gopdf.Rect{W: tableWidth(), H: pdfRowHeight}, "Generated "+data.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")); err != nil {
			return err
		}
		y += 24
	}
	if err := pdf.SetFont(pdfFont, "", 10); err != nil {
		return fmt.Errorf("set pdf font: %w", err)
	}
	header := make([]string, 0, len(pdfColumns))
	for _, column := range pdfColumns {
		header = append(header, column.title)
	}
	if err := writeRow(pdf, y, header); err != nil {
		return err
	}
	y += pdfRowHeight
	pdf.Line(pdfMargin, y-4, pdfMargin+tableWidth(), y-4)
	if len(rows) == 0 && first {
		pdf.SetXY(pdfMargin, y)
		return pdf.Cell(&gopdf.Rect{W: tableWidth(), H: pdfRowHeight}, "No students enrolled.")
	}
	for _, row := range rows {
		if err := writeRow(pdf, y, []string{
			row.StudentName,
			fmt.Sprintf("%.1f", row.QuizAverage),
			fmt.Sprintf("%.1f", row.AssignmentAverage),
			fmt.Sprintf("%.1f", row.AttendancePercentage),
			yesNo(row.CourseCompleted),
		}); err != nil {
			return err
		}
		y += pdfRowHeight
	}
	return nil
}

func writeRow(pdf *gopdf.GoPdf, y float64, cells []string) error {
	x := pdfMargin
	for i, text := range cells {
		pdf.SetXY(x, y)
		if err := pdf.CellWithOption(&gopdf.Rect{W: pdfColumns[i].width, H: pdfRowHeight}, text, gopdf.CellOption{Align: gopdf.Left | gopdf.Top}); err != nil {
			return fmt.Errorf("write pdf cell: %w", err)
		}
		x += pdfColumns[i].width
	}
	return nil
}

func tableWidth() float64 {
	total := 0.0
	for _, column := range pdfColumns {
		total += column.width
	}
	return total
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
