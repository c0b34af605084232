package kis

import (
	"testing"
	"time"

	"raspbot-backend/lib/telemetry"
	"raspbot-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, timezone.Location)
}

func TestParseHeaderDate(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/kis")
	defer cleanup()

	testCases := []struct {
		header   string
		expected time.Time
		ok       bool
	}{
		{header: "03.11.2025", expected: day(2025, time.November, 3), ok: true},
		{header: "3.1.2025", expected: day(2025, time.January, 3), ok: true},
		{header: "Понедельник, 03.11.2025", expected: day(2025, time.November, 3), ok: true},
		{header: "11 ноября 2025", expected: day(2025, time.November, 11), ok: true},
		{header: "11 Ноября 2025", expected: day(2025, time.November, 11), ok: true},
		{header: "Расписание на 1 сентября 2025 года", expected: day(2025, time.September, 1), ok: true},
		{header: "", ok: false},
		{header: "Понедельник", ok: false},
		{header: "32.13.2025", ok: false},
		{header: "11 нославря 2025", ok: false},
	}

	for _, tc := range testCases {
		got, ok := ParseHeaderDate(tc.header)
		require.Equal(t, tc.ok, ok, "header: %q", tc.header)
		if tc.ok {
			require.True(t, got.Equal(tc.expected), "header: %q got: %s", tc.header, got)
		}
	}
}

func blockFor(date time.Time, header string) DayBlock {
	return DayBlock{Header: header, Date: date}
}

func TestReconcileDay(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/kis")
	defer cleanup()

	requested := day(2025, time.November, 3)

	t.Run("exact date wins regardless of ordering", func(t *testing.T) {
		exact := blockFor(day(2025, time.November, 3), "03.11.2025")
		weekdayOnly := blockFor(day(2025, time.November, 10), "10.11.2025")

		for _, blocks := range [][]DayBlock{
			{exact, weekdayOnly},
			{weekdayOnly, exact},
		} {
			got := ReconcileDay(blocks, requested)
			require.NotNil(t, got)
			require.Equal(t, "03.11.2025", got.Header)
		}
	})

	t.Run("day and month match tolerates a wrong year", func(t *testing.T) {
		blocks := []DayBlock{
			blockFor(day(2024, time.November, 3), "03.11.2024"),
			blockFor(day(2025, time.December, 25), "25.12.2025"),
		}
		got := ReconcileDay(blocks, requested)
		require.NotNil(t, got)
		require.Equal(t, "03.11.2024", got.Header)
	})

	t.Run("weekday match as a last labeled resort", func(t *testing.T) {
		// 2025-11-03 is a Monday, as is 2025-11-10
		blocks := []DayBlock{
			blockFor(day(2025, time.December, 25), "25.12.2025"),
			blockFor(day(2025, time.November, 10), "10.11.2025"),
		}
		got := ReconcileDay(blocks, requested)
		require.NotNil(t, got)
		require.Equal(t, "10.11.2025", got.Header)
	})

	t.Run("lone block is accepted even without a parsed date", func(t *testing.T) {
		blocks := []DayBlock{blockFor(time.Time{}, "Понедельник")}
		got := ReconcileDay(blocks, requested)
		require.NotNil(t, got)
		require.Equal(t, "Понедельник", got.Header)
	})

	t.Run("several candidates and no match yields nothing", func(t *testing.T) {
		blocks := []DayBlock{
			blockFor(day(2025, time.December, 25), "25.12.2025"),
			blockFor(day(2025, time.December, 26), "26.12.2025"),
		}
		require.Nil(t, ReconcileDay(blocks, requested))
	})

	t.Run("no blocks yields nothing", func(t *testing.T) {
		require.Nil(t, ReconcileDay(nil, requested))
	})
}
