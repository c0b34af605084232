package kis

import (
	"regexp"
	"strings"
	"time"

	"raspbot-backend/lib/htmlutil"
	"raspbot-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// group codes look like "ИС1-231-ОТ"; a content line matching this is a
// group list entry, never a subject or teacher name
var groupNameRegex = regexp.MustCompile(`^[А-ЯЁ0-9]+-[0-9]{1,3}(?:-[А-ЯЁ]+)?$`)

// the portal glues subgroup digits onto words ("лекция1"); put the
// space back for display
var subgroupRegex = regexp.MustCompile(`([а-яА-ЯёЁ])([0-9])`)

// spellings the portal uses for an empty day, matched case-insensitively
// against the concatenated text of a whole row
var noClassMarkers = map[string]bool{
	"нет пар":     true,
	"нет занятий": true,
	"занятий нет": true,
}

// anchor hrefs pointing into the campus auditory map
const auditoryHrefMarker = "map/rasp?auditory="

// PortalBaseURL prefixes relative auditory links in rendered pages.
var PortalBaseURL = "https://vgltu.ru"

type ExtractResult struct {
	Day DaySchedule
	// rows that held content but could not be interpreted; they are
	// skipped individually, the rest of the day still parses
	MalformedRows int
}

// ExtractDay converts a day-block's table rows into ordered sessions.
// requested supplies the ISO date when the block header was unparseable.
func ExtractDay(block DayBlock, kind EntityKind, requested time.Time) ExtractResult {
	sessions, malformed := extractSessions(block, kind)

	dateISO := ""
	switch {
	case !block.Date.IsZero():
		dateISO = block.Date.Format(time.DateOnly)
	case !requested.IsZero():
		dateISO = requested.Format(time.DateOnly)
	}

	return ExtractResult{
		Day: DaySchedule{
			Date:     dateISO,
			Header:   block.Header,
			Weekday:  block.Weekday,
			Sessions: sessions,
		},
		MalformedRows: malformed,
	}
}

func extractSessions(block DayBlock, kind EntityKind) ([]ClassSession, int) {
	if block.sel == nil {
		return nil, 0
	}

	var sessions []ClassSession
	malformed := 0

	// merged rows leave their time cell blank and inherit the last
	// seen value; the ordinal only moves when the effective time does
	lastTime := ""
	lastCountedTime := ""
	ordinal := 0

	block.sel.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		rowText := strings.ToLower(strings.TrimSpace(joinCellText(cells)))
		if noClassMarkers[rowText] {
			return
		}

		timeText := "-"
		var content, extra *goquery.Selection
		if cells.Length() == 1 {
			if lastTime != "" {
				timeText = lastTime
			}
			content = cells.Eq(0)
		} else {
			candidate := textutil.CollapseSpace(cells.Eq(0).Text())
			if candidate != "" {
				lastTime = candidate
			}
			if lastTime != "" {
				timeText = lastTime
			}
			content = cells.Eq(1)
			if cells.Length() > 2 {
				extra = cells.Eq(2)
			}
		}

		lines := contentLines(content)
		subject := "-"
		if len(lines) > 0 {
			subject = subgroupRegex.ReplaceAllString(lines[0], "$1 $2")
		}

		if timeText == "-" && noClassMarkers[strings.ToLower(strings.TrimSpace(subject))] {
			return
		}
		if timeText == "-" && subject == "-" {
			if rowText != "" {
				malformed++
			}
			return
		}

		if timeText != lastCountedTime {
			ordinal++
			lastCountedTime = timeText
		}

		sessions = append(sessions, ClassSession{
			Time:    timeText,
			Ordinal: ordinal,
			Subject: subject,
			Room:    extractRoom(row, extra),
			Teacher: extractTeacher(kind, lines, subject),
			Groups:  extractGroups(content),
		})
	})

	return sessions, malformed
}

// contentLines splits a content cell into its visible lines: <br> tags
// and literal newlines both count as line breaks.
func contentLines(content *goquery.Selection) []string {
	if len(content.Nodes) == 0 {
		return nil
	}
	var lines []string
	for _, segment := range htmlutil.SplitOnBreaks(content.Nodes[0]) {
		for _, line := range strings.Split(segment, "\n") {
			line = textutil.CollapseSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func joinCellText(cells *goquery.Selection) string {
	var b strings.Builder
	cells.Each(func(_ int, cell *goquery.Selection) {
		b.WriteString(strings.TrimSpace(cell.Text()))
	})
	return b.String()
}

// extractRoom prefers an anchor into the auditory map over the raw text
// of the secondary cell.
func extractRoom(row *goquery.Selection, extra *goquery.Selection) Room {
	for _, anchor := range htmlutil.GetAnchors(row.Find("a")) {
		if strings.Contains(anchor.Href, auditoryHrefMarker) {
			return Room{Name: anchor.Name, Href: anchor.Href}
		}
	}
	if extra != nil {
		if text := strings.TrimSpace(extra.Text()); text != "" {
			return Room{Name: text}
		}
	}
	return Room{Name: "-"}
}

// the trailing content line that is neither the subject nor a group
// code is the teacher's name; only group-mode queries keep it
func extractTeacher(kind EntityKind, lines []string, subject string) string {
	if kind != EntityGroup || len(lines) < 2 {
		return ""
	}
	last := lines[len(lines)-1]
	if last != subject && !groupNameRegex.MatchString(last) {
		return last
	}
	return ""
}

func extractGroups(content *goquery.Selection) []string {
	if len(content.Nodes) == 0 {
		return nil
	}
	var groups []string
	for _, segment := range htmlutil.SplitOnBreaks(content.Nodes[0]) {
		segment = strings.TrimSpace(segment)
		if groupNameRegex.MatchString(segment) {
			groups = append(groups, segment)
		}
	}
	return groups
}
