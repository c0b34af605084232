package kis

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// the portal marks day containers with nothing but this inline margin
const dayBlockStyleSignature = "margin-bottom: 25px"

// FindDayBlocks locates the per-day fragments on a schedule page. The
// markup carries no ids or classes to hang on to, so strategies are
// tried in order and the first one that yields anything wins. An empty
// result means the page holds no schedule data.
func FindDayBlocks(doc *goquery.Document) []DayBlock {
	strategies := []func(*goquery.Document) []*goquery.Selection{
		findByStyleSignature,
		findByBoldDateHeader,
	}
	for _, strategy := range strategies {
		sels := strategy(doc)
		if len(sels) == 0 {
			continue
		}
		blocks := make([]DayBlock, len(sels))
		for i, sel := range sels {
			blocks[i] = newDayBlock(sel)
		}
		return blocks
	}
	return nil
}

func findByStyleSignature(doc *goquery.Document) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("div").Each(func(_ int, div *goquery.Selection) {
		if strings.Contains(div.AttrOr("style", ""), dayBlockStyleSignature) {
			out = append(out, div)
		}
	})
	return out
}

// structural fallback: any div whose direct bold child carries a date
func findByBoldDateHeader(doc *goquery.Document) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("div").Each(func(_ int, div *goquery.Selection) {
		header := div.ChildrenFiltered("strong, b").First()
		if header.Length() == 0 {
			return
		}
		if _, ok := ParseHeaderDate(strings.TrimSpace(header.Text())); ok {
			out = append(out, div)
		}
	})
	return out
}

func newDayBlock(sel *goquery.Selection) DayBlock {
	header := strings.TrimSpace(sel.Find("strong, b").First().Text())
	date, _ := ParseHeaderDate(header)

	weekday := ""
	divs := sel.Find("div")
	if divs.Length() > 1 {
		weekday = strings.TrimSpace(divs.Eq(1).Text())
	}

	return DayBlock{
		Header:  header,
		Date:    date,
		Weekday: weekday,
		sel:     sel,
	}
}
