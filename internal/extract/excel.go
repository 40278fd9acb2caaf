package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel extracts cell text sheet by sheet, tab-separated within a row,
// one row per line. The streaming row iterator stops at the budget, so a
// workbook with thousands of rows is read only as far as the snippet needs.
func extractExcel(content []byte, budget int) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		if buf.Len() >= budget {
			break
		}
		rows, err := f.Rows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for rows.Next() && buf.Len() < budget {
			cells, err := rows.Columns()
			if err != nil {
				_ = rows.Close()
				return "", fmt.Errorf("read row in sheet %q: %w", sheet, err)
			}
			buf.WriteString(strings.Join(cells, "\t"))
			buf.WriteByte('\n')
		}
		if err := rows.Close(); err != nil {
			return "", fmt.Errorf("close sheet %q: %w", sheet, err)
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
