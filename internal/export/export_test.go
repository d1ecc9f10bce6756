package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/guildbot/internal/split"
)

func sampleSummary() split.Summary {
	return split.Summary{
		Budget:    2000,
		Total:     2000,
		Remaining: 0,
		Members: []split.MemberView{
			{ID: "1", Name: "Aria", AttendanceCount: 8, AttendanceRate: 0.8, Diamonds: 1600, Percent: 80},
			{ID: "2", Name: "ブラム", AttendanceCount: 2, AttendanceRate: 0.2, Diamonds: 400, Percent: 20},
			{ID: "3", Name: "Cato, Jr.", AttendanceCount: 0, AttendanceRate: 0, Diamonds: 0, Percent: 0},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSummary()))

	g := goldie.New(t)
	g.Assert(t, "allocation_csv", buf.Bytes())
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "diamond_allocation_2024-03-09.csv", FileName(ts))
}

func TestMessages(t *testing.T) {
	msgs := Messages(sampleSummary(), MessageLimit)
	require.Len(t, msgs, 1)

	g := goldie.New(t)
	g.Assert(t, "allocation_table", []byte(msgs[0]))
}

func TestMessagesOverBudgetWarning(t *testing.T) {
	sum := sampleSummary()
	sum.Total = 2100
	sum.Remaining = -100
	sum.OverBudget = true

	msgs := Messages(sum, MessageLimit)
	last := msgs[len(msgs)-1]
	assert.Contains(t, last, "分配済み: **2,100** / 2,000")
	assert.Contains(t, last, "残り: **-100**")
	assert.Contains(t, last, "警告")
}

func TestMessagesSplitsLongTables(t *testing.T) {
	sum := split.Summary{Budget: 100000}
	for i := 0; i < 200; i++ {
		sum.Members = append(sum.Members, split.MemberView{
			ID:       strings.Repeat("x", 3),
			Name:     "メンバー" + strings.Repeat("a", i%10),
			Diamonds: 500,
			Percent:  0.5,
		})
	}

	msgs := Messages(sum, 500)
	require.Greater(t, len(msgs), 1)

	rows := 0
	for _, m := range msgs {
		assert.LessOrEqual(t, len(m), 500)
		for _, line := range strings.Split(m, "\n") {
			if strings.HasPrefix(line, "メンバー") {
				rows++
			}
		}
	}
	assert.Equal(t, 200, rows)
	assert.True(t, strings.HasPrefix(msgs[0], "```\n名前"))
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 4, displayWidth("Aria"))
	assert.Equal(t, 6, displayWidth("ブラム"))
	assert.Equal(t, 7, displayWidth("8回 80%"))
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "  名", padLeft("名", 4))
}
