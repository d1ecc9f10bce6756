package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/susu3304/guildbot/internal/split"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/width"
)

// MessageLimit is Discord's maximum message length.
const MessageLimit = 2000

const codeFence = "```"

var printer = message.NewPrinter(language.Japanese)

// Messages renders the summary as Discord messages of at most limit characters. Rows are
// split across several code blocks when needed; the totals follow the last block.
func Messages(sum split.Summary, limit int) []string {
	if limit <= 0 {
		limit = MessageLimit
	}

	header, rows := tableLines(sum)
	footer := Footer(sum)

	var out []string
	var b strings.Builder
	open := func() {
		b.Reset()
		b.WriteString(codeFence + "\n")
		b.WriteString(header + "\n")
	}
	open()
	inBlock := 0
	for _, row := range rows {
		// +1 for the newline, +len(codeFence) to close the block.
		if inBlock > 0 && len(b.String())+len(row)+1+len(codeFence) > limit {
			b.WriteString(codeFence)
			out = append(out, b.String())
			open()
			inBlock = 0
		}
		b.WriteString(row + "\n")
		inBlock++
	}
	b.WriteString(codeFence)

	if len(b.String())+1+len(footer) > limit {
		out = append(out, b.String(), footer)
	} else {
		out = append(out, b.String()+"\n"+footer)
	}
	return out
}

// Table is the aligned table without code fences or totals, for terminals.
func Table(sum split.Summary) string {
	header, rows := tableLines(sum)
	return strings.Join(append([]string{header}, rows...), "\n") + "\n"
}

// Footer is the distributed/remaining summary with the over-budget warning.
func Footer(sum split.Summary) string {
	var b strings.Builder
	b.WriteString(printer.Sprintf("分配済み: **%d** / %d\n", sum.Total, sum.Budget))
	b.WriteString(printer.Sprintf("残り: **%d**", sum.Remaining))
	if sum.OverBudget {
		b.WriteString("\n⚠️ 警告: 分配総量がダイヤ総数を超えています！")
	}
	return b.String()
}

func tableLines(sum split.Summary) (string, []string) {
	cells := [][]string{{"名前", "出席", "ダイヤ", "割合"}}
	for _, m := range sum.Members {
		cells = append(cells, []string{
			m.Name,
			fmt.Sprintf("%d回 %d%%", m.AttendanceCount, int(math.Round(m.AttendanceRate*100))),
			printer.Sprintf("%d", m.Diamonds),
			fmt.Sprintf("%.1f%%", m.Percent),
		})
	}

	widths := make([]int, len(cells[0]))
	for _, row := range cells {
		for i, c := range row {
			if w := displayWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, len(cells))
	for r, row := range cells {
		parts := make([]string, len(row))
		for i, c := range row {
			if i == 0 {
				parts[i] = padRight(c, widths[i])
			} else {
				parts[i] = padLeft(c, widths[i])
			}
		}
		lines[r] = strings.TrimRight(strings.Join(parts, "  "), " ")
	}
	return lines[0], lines[1:]
}

// displayWidth counts East Asian wide and fullwidth runes as two cells.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func padRight(s string, w int) string {
	if d := w - displayWidth(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

func padLeft(s string, w int) string {
	if d := w - displayWidth(s); d > 0 {
		return strings.Repeat(" ", d) + s
	}
	return s
}
