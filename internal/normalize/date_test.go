package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	tests := []struct {
		input any
		want  time.Time
		name  string
	}{
		{name: "US full date", input: "12/25/2023", want: day(2023, 12, 25)},
		{name: "month and year", input: "12/2023", want: day(2023, 12, 1)},
		{name: "ISO", input: "2023-01-15", want: day(2023, 1, 15)},
		{name: "EU when US is impossible", input: "25/12/2023", want: day(2023, 12, 25)},
		{name: "long month", input: "March 5, 2021", want: day(2021, 3, 5)},
		{name: "abbreviated month", input: "Mar 5, 2021", want: day(2021, 3, 5)},
		{name: "upper case month", input: "MARCH 5, 2021", want: day(2021, 3, 5)},
		{name: "month name and year", input: "June 2019", want: day(2019, 6, 1)},
		{name: "year only", input: "2018", want: day(2018, 1, 1)},
		{name: "year as number", input: 2018, want: day(2018, 1, 1)},
		{name: "ISO year and month", input: "2020-07", want: day(2020, 7, 1)},
		{name: "RFC3339 keeps its calendar day", input: "2023-06-30T23:30:00-05:00", want: day(2023, 6, 30)},
		{name: "native time truncated", input: time.Date(2022, 2, 3, 15, 4, 5, 0, time.UTC), want: day(2022, 2, 3)},
		{name: "two digit year", input: "1/2/23", want: day(2023, 1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Date(tt.input)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}
}

func TestDate_MonthYearNotMisparsed(t *testing.T) {
	got := Date("12/2023")
	require.NotNil(t, got)
	assert.Equal(t, 2023, got.Year())
	assert.Equal(t, time.December, got.Month())
	assert.Equal(t, 1, got.Day())
}

func TestDate_Null(t *testing.T) {
	var nilTime *time.Time
	inputs := []any{nil, "", "N/A", "invalid", "not a date", "13/13/2023", "2023-02-30", time.Time{}, nilTime, false}
	for _, in := range inputs {
		assert.Nil(t, Date(in), "input %#v", in)
	}
}

func TestDate_Idempotent(t *testing.T) {
	for _, in := range []any{"12/25/2023", "12/2023", "Jan 2, 2006", "2019"} {
		first := Date(in)
		require.NotNil(t, first)

		again := Date(*first)
		require.NotNil(t, again)
		assert.True(t, first.Equal(*again))

		fromString := Date(FormatDate(first))
		require.NotNil(t, fromString)
		assert.True(t, first.Equal(*fromString))
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
