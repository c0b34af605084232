// Package kis talks to the university's KIS portal: the schedule
// endpoint returns server-rendered HTML with one block per day and no
// stable markup contract, the list endpoint returns a JSON array of
// group/teacher names. Everything here is best-effort parsing of pages
// that were never meant to be consumed by a program.
package kis

import (
	"time"

	"github.com/PuerkitoBio/goquery"
)

type EntityKind string

const (
	EntityGroup   EntityKind = "Group"
	EntityTeacher EntityKind = "Teacher"
)

type ScheduleQuery struct {
	Entity string
	Kind   EntityKind
	Date   time.Time
}

// DayBlock is the raw HTML fragment the portal emits for one calendar
// day, plus whatever could be read off its header. Transient: it only
// lives for the duration of one fetch.
type DayBlock struct {
	// raw header text, e.g. "03.11.2025" or "11 ноября 2025"
	Header string
	// parsed header date, zero when the header could not be parsed
	Date    time.Time
	Weekday string

	sel *goquery.Selection
}

type Room struct {
	Name string
	// link into the campus map when the portal provided one
	Href string
}

// ClassSession is one scheduled slot. Several groups may share it.
type ClassSession struct {
	Time string
	// ordinal of the pair within the day; merged/continuation rows
	// share the ordinal of the row that introduced their time slot
	Ordinal int
	Subject string
	Room    Room
	// only populated for group-mode queries, a teacher asking for
	// their own schedule already knows who they are
	Teacher string
	Groups  []string
}

// DaySchedule is the authoritative structured artifact for one day.
type DaySchedule struct {
	// ISO date, falls back to the requested date when the header
	// could not be parsed
	Date     string
	Header   string
	Weekday  string
	Sessions []ClassSession
}
