package render

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const workbookSheet = "Leaderboard"

type styleKey struct {
	tone Tone
	bold bool
}

// Workbook writes the grid to a single-sheet XLSX with the same fills and
// emphasis as the image. The title sits in row 1, the header in row 2.
func Workbook(g Grid, palette Palette) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), workbookSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	if err := f.SetCellValue(workbookSheet, "A1", g.Title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(workbookSheet, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}

	styles := map[styleKey]int{}
	styleFor := func(cell Cell) (int, error) {
		key := styleKey{tone: cell.Tone, bold: cell.Bold}
		if id, ok := styles[key]; ok {
			return id, nil
		}
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{palette.Hex(cell.Tone)}},
			Font:      &excelize.Font{Bold: cell.Bold},
			Alignment: &excelize.Alignment{Horizontal: "center"},
			Border: []excelize.Border{
				{Type: "left", Color: hex(palette.Border), Style: 1},
				{Type: "right", Color: hex(palette.Border), Style: 1},
				{Type: "top", Color: hex(palette.Border), Style: 1},
				{Type: "bottom", Color: hex(palette.Border), Style: 1},
			},
		})
		if err != nil {
			return 0, err
		}
		styles[key] = id
		return id, nil
	}

	writeRow := func(rowNum int, cells []Cell) error {
		for i, cell := range cells {
			ref, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return err
			}
			var value any = cell.Text
			if g.Columns[i] == ColumnTurnTime && rowNum > 2 {
				if n, err := strconv.ParseFloat(cell.Text, 64); err == nil {
					value = n
				}
			}
			if err := f.SetCellValue(workbookSheet, ref, value); err != nil {
				return err
			}
			id, err := styleFor(cell)
			if err != nil {
				return fmt.Errorf("cell style: %w", err)
			}
			if err := f.SetCellStyle(workbookSheet, ref, ref, id); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(2, g.Header); err != nil {
		return nil, err
	}
	for i, row := range g.Rows {
		if err := writeRow(i+3, row); err != nil {
			return nil, err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(g.Columns))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(workbookSheet, "A", lastCol, 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
