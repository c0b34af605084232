package kis

import (
	"fmt"
	"strings"
	"time"
)

const pageSeparator = "——————————————————————"

// RenderPages renders one human-readable text page per day-block that
// carries real sessions. The pages are what subscribers read and what
// the change-detection hash is computed over; they are never the
// authority for diffing, the structured DaySchedule is.
func RenderPages(blocks []DayBlock, kind EntityKind) []string {
	var pages []string
	for _, block := range blocks {
		res := ExtractDay(block, kind, time.Time{})
		if len(res.Day.Sessions) == 0 && res.MalformedRows == 0 {
			continue
		}
		pages = append(pages, RenderDay(res))
	}
	return pages
}

func RenderDay(res ExtractResult) string {
	var b strings.Builder

	header := res.Day.Header
	if header == "" {
		header = "Неизвестная дата"
	}
	if res.Day.Weekday != "" {
		fmt.Fprintf(&b, "%s (%s):\n\n", header, res.Day.Weekday)
	} else {
		fmt.Fprintf(&b, "%s:\n\n", header)
	}

	for _, s := range res.Day.Sessions {
		fmt.Fprintf(&b, "%d. %s\n", s.Ordinal, s.Time)
		fmt.Fprintf(&b, "  📖 %s\n", s.Subject)
		fmt.Fprintf(&b, "  📍 %s\n", renderRoom(s.Room))
		if s.Teacher != "" {
			fmt.Fprintf(&b, "  👤 %s\n", s.Teacher)
		}
		if len(s.Groups) > 0 {
			fmt.Fprintf(&b, "  👥 %s\n", strings.Join(s.Groups, ", "))
		}
		b.WriteString(pageSeparator + "\n")
	}

	if res.MalformedRows > 0 {
		fmt.Fprintf(&b, "⚠️ не удалось разобрать строк: %d\n", res.MalformedRows)
	}

	page := strings.TrimSpace(b.String())
	page = strings.TrimSuffix(page, pageSeparator)
	return strings.TrimSpace(page)
}

func renderRoom(room Room) string {
	if room.Href == "" {
		return room.Name
	}
	href := room.Href
	if strings.HasPrefix(href, "/") {
		href = PortalBaseURL + href
	}
	return fmt.Sprintf("%s (%s)", room.Name, href)
}
