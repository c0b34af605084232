package watcher

import (
	"testing"

	"raspbot-backend/lib/scrapers/kis"
	"raspbot-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func sampleDay() *kis.DaySchedule {
	return &kis.DaySchedule{
		Date:   "2025-11-03",
		Header: "03.11.2025",
		Sessions: []kis.ClassSession{
			{
				Time:    "09:00-10:35",
				Ordinal: 1,
				Subject: "Математика",
				Room:    kis.Room{Name: "Ауд. 101"},
				Teacher: "Иванов И.И.",
				Groups:  []string{"ИС1-231-ОТ", "ИС1-232-ОТ"},
			},
			{
				Time:    "10:45-12:20",
				Ordinal: 2,
				Subject: "Физика",
				Room:    kis.Room{Name: "Ауд. 202"},
			},
		},
	}
}

func TestHashPages(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/watcher")
	defer cleanup()

	require.Equal(t, "", HashPages(nil))
	require.Equal(t, "", HashPages([]string{}))

	pages := []string{"страница 1", "страница 2"}
	require.Equal(t, HashPages(pages), HashPages([]string{"страница 1", "страница 2"}))

	// order, casing and page boundaries all matter
	require.NotEqual(t, HashPages(pages), HashPages([]string{"страница 2", "страница 1"}))
	require.NotEqual(t, HashPages(pages), HashPages([]string{"Страница 1", "страница 2"}))
	require.NotEqual(t, HashPages([]string{"a\nb"}), HashPages([]string{"a", "b", ""}))
}

func TestDiffIdenticalDays(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/watcher")
	defer cleanup()

	require.Empty(t, Diff(sampleDay(), sampleDay()))
	require.Empty(t, Diff(nil, nil))
}

func TestDiffNilSides(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/watcher")
	defer cleanup()

	appeared := Diff(nil, sampleDay())
	require.Len(t, appeared, 2)
	for _, change := range appeared {
		require.Equal(t, ChangeAdded, change.Kind)
		require.Nil(t, change.Before)
		require.NotNil(t, change.After)
	}

	vanished := Diff(sampleDay(), nil)
	require.Len(t, vanished, 2)
	for _, change := range vanished {
		require.Equal(t, ChangeRemoved, change.Kind)
		require.NotNil(t, change.Before)
		require.Nil(t, change.After)
	}
}

func TestDiffAddedAndRemovedSlots(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/watcher")
	defer cleanup()

	before := sampleDay()
	after := sampleDay()
	after.Sessions = append(after.Sessions[:1], kis.ClassSession{
		Time:    "13:00-14:35",
		Ordinal: 2,
		Subject: "Химия",
	})

	changes := Diff(before, after)
	require.Len(t, changes, 2)

	byKind := map[ChangeKind]Change{}
	for _, change := range changes {
		byKind[change.Kind] = change
	}
	require.Equal(t, "13:00-14:35", byKind[ChangeAdded].Time)
	require.Equal(t, "10:45-12:20", byKind[ChangeRemoved].Time)
}

func TestDiffModifiedFields(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/watcher")
	defer cleanup()

	before := sampleDay()
	after := sampleDay()
	after.Sessions[0].Subject = "Информатика"
	after.Sessions[0].Room.Name = "Ауд. 303"
	after.Sessions[1].Teacher = "Петров П.П."

	changes := Diff(before, after)
	require.Len(t, changes, 2)

	byTime := map[string]Change{}
	for _, change := range changes {
		require.Equal(t, ChangeModified, change.Kind)
		byTime[change.Time] = change
	}
	require.ElementsMatch(t, []string{"subject", "room"}, byTime["09:00-10:35"].Fields)
	require.ElementsMatch(t, []string{"teacher"}, byTime["10:45-12:20"].Fields)
}

func TestDiffGroupOrderIsIrrelevant(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/watcher")
	defer cleanup()

	before := sampleDay()
	after := sampleDay()
	after.Sessions[0].Groups = []string{"ИС1-232-ОТ", "ИС1-231-ОТ"}
	require.Empty(t, Diff(before, after))

	after.Sessions[0].Groups = []string{"ИС1-232-ОТ", "ЛД2-221-ОБ"}
	changes := Diff(before, after)
	require.Len(t, changes, 1)
	require.ElementsMatch(t, []string{"groups"}, changes[0].Fields)
}

func TestNextBusinessDay(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/watcher")
	defer cleanup()

	testCases := []struct {
		from     string
		expected string
	}{
		{from: "2025-11-03", expected: "2025-11-04"}, // Mon -> Tue
		{from: "2025-11-07", expected: "2025-11-08"}, // Fri -> Sat
		{from: "2025-11-08", expected: "2025-11-10"}, // Sat -> Mon, skipping Sunday
		{from: "2025-11-09", expected: "2025-11-10"}, // Sun -> Mon
	}
	for _, tc := range testCases {
		from := mustDate(t, tc.from)
		require.Equal(t, tc.expected, NextBusinessDay(from).Format("2006-01-02"), "from %s", tc.from)
	}
}
