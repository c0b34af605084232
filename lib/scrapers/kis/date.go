package kis

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"raspbot-backend/lib/timezone"
)

var numericDateRegex = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
var textDateRegex = regexp.MustCompile(`(\d{1,2})\s+([а-яё]+)\s+(\d{4})`)

var monthsGenitive = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// ParseHeaderDate pulls a calendar date out of a day-block header.
// Accepted shapes: "03.11.2025", "11 ноября 2025", and either of those
// with a leading weekday like "Понедельник, 03.11.2025".
func ParseHeaderDate(header string) (time.Time, bool) {
	if header == "" {
		return time.Time{}, false
	}

	if m := numericDateRegex.FindStringSubmatch(header); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return makeDate(year, time.Month(month), day)
	}

	if m := textDateRegex.FindStringSubmatch(strings.ToLower(header)); m != nil {
		month, ok := monthsGenitive[m[2]]
		if !ok {
			return time.Time{}, false
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		return makeDate(year, month, day)
	}

	return time.Time{}, false
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, timezone.Location), true
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// a matcher inspects all candidates and picks one or none; the tiers
// below are tried in order by ReconcileDay
type matcher func(blocks []DayBlock, requested time.Time) *DayBlock

func matchExactDate(blocks []DayBlock, requested time.Time) *DayBlock {
	for i := range blocks {
		if !blocks[i].Date.IsZero() && sameDate(blocks[i].Date, requested) {
			return &blocks[i]
		}
	}
	return nil
}

// tolerates year typos/drift in the source
func matchDayAndMonth(blocks []DayBlock, requested time.Time) *DayBlock {
	for i := range blocks {
		d := blocks[i].Date
		if !d.IsZero() && d.Day() == requested.Day() && d.Month() == requested.Month() {
			return &blocks[i]
		}
	}
	return nil
}

func matchWeekday(blocks []DayBlock, requested time.Time) *DayBlock {
	for i := range blocks {
		if !blocks[i].Date.IsZero() && blocks[i].Date.Weekday() == requested.Weekday() {
			return &blocks[i]
		}
	}
	return nil
}

// a lone day-block is accepted unconditionally: the portal routinely
// answers a dated request with a single unlabeled day. When the origin
// misbehaves this can attribute the wrong day's sessions to the
// request, a trade-off of availability over strictness kept on purpose.
func matchSingleton(blocks []DayBlock, _ time.Time) *DayBlock {
	if len(blocks) == 1 {
		return &blocks[0]
	}
	return nil
}

var reconcilers = []matcher{
	matchExactDate,
	matchDayAndMonth,
	matchWeekday,
	matchSingleton,
}

// ReconcileDay picks the day-block for the requested date out of the
// unfiltered candidates the portal returned. nil means "no data for
// this date" and is not an error: with several candidates and no match
// it is safer to report nothing than to guess.
func ReconcileDay(blocks []DayBlock, requested time.Time) *DayBlock {
	for _, match := range reconcilers {
		if block := match(blocks, requested); block != nil {
			return block
		}
	}
	return nil
}
