package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook builds a single-sheet xlsx with a bold header row.
func Workbook(sheet string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	if len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", r+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadRows returns the rows of the first sheet, skipping a header row whose
// first cell equals one of headerNames (case-insensitive).
func ReadRows(r io.Reader, headerNames ...string) ([][]string, error) {
	rows, _, err := ReadSheet(r, headerNames...)
	return rows, err
}

// ReadSheet is ReadRows plus the 1-based spreadsheet row number of rows[0].
func ReadSheet(r io.Reader, headerNames ...string) (rows [][]string, firstRow int, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("workbook has no sheets")
	}
	rows, err = f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, err
	}

	firstRow = 1
	if len(rows) > 0 && len(rows[0]) > 0 {
		first := strings.TrimSpace(rows[0][0])
		for _, h := range headerNames {
			if strings.EqualFold(first, h) {
				rows = rows[1:]
				firstRow = 2
				break
			}
		}
	}
	return rows, firstRow, nil
}

// Send writes an xlsx attachment.
func Send(c *fiber.Ctx, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, ContentTypeXLSX)
	c.Attachment(filename)
	return c.Send(data)
}
