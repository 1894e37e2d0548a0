package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// writeExcel emits every table of the report into a workbook appendix, one
// sheet per table.
func writeExcel(rep *Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	used := map[string]bool{}
	first := true
	for _, sec := range rep.Sections {
		for _, t := range sec.Tables {
			name := sheetName(t.Name, used)
			if first {
				// reuse the default sheet for the first table
				if err := f.SetSheetName("Sheet1", name); err != nil {
					return fmt.Errorf("excel appendix: %w", err)
				}
				first = false
			} else if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("excel appendix: %w", err)
			}
			if err := writeSheet(f, name, t); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("excel appendix: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table) error {
	for j, h := range t.Header {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return fmt.Errorf("excel appendix: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("excel appendix: %w", err)
		}
	}
	for i, row := range t.Rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return fmt.Errorf("excel appendix: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("excel appendix: %w", err)
			}
		}
	}
	return nil
}

// sheetName trims a table name to Excel's 31-character sheet limit and
// deduplicates collisions.
func sheetName(name string, used map[string]bool) string {
	clean := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			r = ' '
		}
		clean = append(clean, r)
	}
	base := string(clean)
	if len(base) > 31 {
		base = base[:31]
	}
	n := base
	for i := 2; used[n]; i++ {
		suffix := fmt.Sprintf(" %d", i)
		if len(base)+len(suffix) > 31 {
			n = base[:31-len(suffix)] + suffix
		} else {
			n = base + suffix
		}
	}
	used[n] = true
	return n
}
