package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, fragment string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)
	return doc
}

func TestSplitOnBreaks(t *testing.T) {
	doc := parse(t, `<td>Математика<br>ИС1-231-ОТ<br/> ИС1-232-ОТ <br><span>Иванов И.И.</span></td>`)
	cell := doc.Find("td")
	require.Len(t, cell.Nodes, 1)

	segments := SplitOnBreaks(cell.Nodes[0])
	require.Empty(t, cmp.Diff(
		[]string{"Математика", "ИС1-231-ОТ", "ИС1-232-ОТ", "Иванов И.И."},
		segments,
	))
}

func TestSplitOnBreaksNoBreaks(t *testing.T) {
	doc := parse(t, `<td>  Физика  </td>`)
	segments := SplitOnBreaks(doc.Find("td").Nodes[0])
	require.Empty(t, cmp.Diff([]string{"Физика"}, segments))
}

func TestGetAnchors(t *testing.T) {
	doc := parse(t, `
		<div>
			<a href="/map/rasp?auditory=101"> Ауд. 101 </a>
			<a href="https://vgltu.ru/">портал</a>
			<a>без ссылки</a>
		</div>`)

	anchors := GetAnchors(doc.Find("a"))
	require.Len(t, anchors, 3)
	require.Equal(t, Anchor{Name: "Ауд. 101", Href: "/map/rasp?auditory=101"}, anchors[0])
	require.Equal(t, Anchor{Name: "портал", Href: "https://vgltu.ru/"}, anchors[1])
	require.Equal(t, Anchor{Name: "без ссылки", Href: ""}, anchors[2])
}
