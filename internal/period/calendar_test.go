package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func spanish(t *testing.T) *Calendar {
	t.Helper()
	cal, err := NewCalendar("es", time.UTC)
	require.NoError(t, err)
	return cal
}

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestParseLapse(t *testing.T) {
	l, err := ParseLapse("")
	require.NoError(t, err)
	require.Equal(t, Week, l)

	l, err = ParseLapse("year")
	require.NoError(t, err)
	require.Equal(t, Year, l)

	_, err = ParseLapse("decade")
	require.ErrorIs(t, err, ErrUnknownLapse)
}

func TestNewCalendarLocales(t *testing.T) {
	cal, err := NewCalendar("es-AR", nil)
	require.NoError(t, err)
	require.Equal(t, time.Monday, cal.weekStart)
	require.Equal(t, time.Local, cal.Location())

	cal, err = NewCalendar("en-US", time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Sunday, cal.weekStart)

	_, err = NewCalendar("!!", time.UTC)
	require.ErrorIs(t, err, ErrUnsupportedLocale)

	_, err = NewCalendar("fr", time.UTC)
	require.ErrorIs(t, err, ErrUnsupportedLocale)
}

func TestMinTimestamp(t *testing.T) {
	cal := spanish(t)
	now := at(2024, time.March, 15, 10)

	require.Equal(t, at(2024, time.March, 8, 10), cal.MinTimestamp(Week, now))
	require.Equal(t, at(2024, time.March, 1, 0), cal.MinTimestamp(Month, now))
	require.Equal(t, at(2024, time.January, 1, 0), cal.MinTimestamp(Year, now))
}

func TestMinTimestampYearIsLocalMidnight(t *testing.T) {
	zone := time.FixedZone("ART", -3*3600)
	cal, err := NewCalendar("es", zone)
	require.NoError(t, err)

	// 02:00 UTC on Jan 1st is still Dec 31st in the calendar zone.
	now := time.Date(2025, time.January, 1, 2, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, zone), cal.MinTimestamp(Year, now))
}

func TestWeekLabels(t *testing.T) {
	cal := spanish(t)
	labels := cal.BucketLabels(Week, at(2024, time.March, 15, 10))
	require.Len(t, labels, 8)
	require.Equal(t, "08/03/2024", labels[0])
	require.Equal(t, "15/03/2024", labels[7])
	for i := 1; i < len(labels); i++ {
		prev, err := time.Parse(DateLayout, labels[i-1])
		require.NoError(t, err)
		cur, err := time.Parse(DateLayout, labels[i])
		require.NoError(t, err)
		require.True(t, cur.After(prev))
	}
}

func TestMonthLabels(t *testing.T) {
	cal := spanish(t)

	// March 2024 starts on a Friday.
	labels := cal.BucketLabels(Month, at(2024, time.March, 15, 10))
	require.Equal(t, []string{"26/02/2024", "04/03/2024", "11/03/2024", "15/03/2024"}, labels)

	// Today is a week start, so it is not appended twice.
	labels = cal.BucketLabels(Month, at(2024, time.March, 11, 9))
	require.Equal(t, []string{"26/02/2024", "04/03/2024", "11/03/2024"}, labels)
}

func TestYearLabels(t *testing.T) {
	labels := spanish(t).BucketLabels(Year, at(2024, time.March, 15, 10))
	require.Len(t, labels, 12)
	require.Equal(t, "enero", labels[0])
	require.Equal(t, "diciembre", labels[11])
}

func TestWeekOfMonth(t *testing.T) {
	cal := spanish(t)
	cases := map[int]int{1: 1, 3: 1, 4: 2, 10: 2, 11: 3, 15: 3, 31: 5}
	for day, want := range cases {
		require.Equal(t, want, cal.WeekOfMonth(at(2024, time.March, day, 12)), "day %d", day)
	}

	english, err := NewCalendar("en", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, english.WeekOfMonth(at(2024, time.March, 2, 12)))
	require.Equal(t, 2, english.WeekOfMonth(at(2024, time.March, 3, 12)))
}

func TestBucketKey(t *testing.T) {
	cal := spanish(t)
	now := at(2024, time.March, 15, 10)

	week := cal.BucketLabels(Week, now)
	require.Equal(t, "12/03/2024", cal.BucketKey(Week, at(2024, time.March, 12, 23), week))

	month := cal.BucketLabels(Month, now)
	require.Equal(t, "26/02/2024", cal.BucketKey(Month, at(2024, time.March, 2, 8), month))
	require.Equal(t, "11/03/2024", cal.BucketKey(Month, at(2024, time.March, 14, 8), month))
	require.Empty(t, cal.BucketKey(Month, at(2024, time.March, 30, 8), month[:2]))

	year := cal.BucketLabels(Year, now)
	require.Equal(t, "julio", cal.BucketKey(Year, at(2024, time.July, 4, 8), year))
}

func TestCategoryLabels(t *testing.T) {
	labels := spanish(t).CategoryLabels(Totals{"zanahoria": 1, "Árbol": 2, "banana": 3})
	require.Equal(t, []string{"Árbol", "banana", "zanahoria"}, labels)
}
