// Package export renders a diamond split as a CSV file or as Discord messages.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/susu3304/guildbot/internal/split"
)

const bom = "\uFEFF"

var csvHeader = []string{"名前", "ダイヤ", "出席率"}

// WriteCSV writes one row per member. The BOM keeps spreadsheet apps from guessing a
// legacy encoding for the Japanese header.
func WriteCSV(w io.Writer, sum split.Summary) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, m := range sum.Members {
		record := []string{
			m.Name,
			fmt.Sprintf("%d", m.Diamonds),
			fmt.Sprintf("%.1f%%", m.AttendanceRate*100),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the download name for an export made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("diamond_allocation_%s.csv", t.Format("2006-01-02"))
}
