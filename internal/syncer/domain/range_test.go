package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSplitMonthlyPartialEdges(t *testing.T) {
	ranges := SplitMonthly(date(2024, time.January, 15), date(2024, time.March, 10))

	require.Len(t, ranges, 3)
	assert.Equal(t, DateRange{From: date(2024, time.January, 15), To: date(2024, time.February, 1)}, ranges[0])
	assert.Equal(t, DateRange{From: date(2024, time.February, 1), To: date(2024, time.March, 1)}, ranges[1])
	assert.Equal(t, DateRange{From: date(2024, time.March, 1), To: date(2024, time.March, 10)}, ranges[2])
}

func TestSplitMonthlyWholeMonths(t *testing.T) {
	ranges := SplitMonthly(date(2024, time.January, 1), date(2024, time.April, 1))

	require.Len(t, ranges, 3)
	for i, r := range ranges {
		assert.Equal(t, date(2024, time.Month(i+1), 1), r.From)
	}
	// Half-open: the last window ends exactly at the requested boundary.
	assert.Equal(t, date(2024, time.April, 1), ranges[2].To)
}

func TestSplitMonthlyYearBoundary(t *testing.T) {
	ranges := SplitMonthly(date(2023, time.December, 20), date(2024, time.January, 5))

	require.Len(t, ranges, 2)
	assert.Equal(t, "2023-12", ranges[0].Key())
	assert.Equal(t, "2024-01", ranges[1].Key())
}

func TestSplitMonthlySingleWindow(t *testing.T) {
	ranges := SplitMonthly(date(2024, time.June, 3), date(2024, time.June, 20))

	require.Len(t, ranges, 1)
	assert.Equal(t, "2024-06", ranges[0].Key())
}

func TestSplitMonthlyEmptyAndInverted(t *testing.T) {
	assert.Nil(t, SplitMonthly(date(2024, time.June, 1), date(2024, time.June, 1)))
	assert.Nil(t, SplitMonthly(date(2024, time.July, 1), date(2024, time.June, 1)))
}

func TestImportTypeTeamleader(t *testing.T) {
	assert.Equal(t, "teamleader_contacts", ImportTypeTeamleader("contacts"))
}
