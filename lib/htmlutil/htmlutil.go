package htmlutil

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors collects the (text, href) pairs of the <a> nodes in a
// selection, skipping anchors whose href does not parse as a url.
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		link, err := url.Parse(href)
		if err != nil {
			continue
		}

		name := GetText(n)
		name = removeNonPrintable(name)
		name = strings.Trim(name, " \t\n")

		anchors = append(anchors, Anchor{
			Name: name,
			Href: link.String(),
		})
	}
	return anchors
}

// SplitOnBreaks returns the trimmed text segments of a node, split at
// its <br> children. A table cell like "Math<br/>IS1-231<br/>IS1-232"
// yields ["Math", "IS1-231", "IS1-232"].
func SplitOnBreaks(node *html.Node) []string {
	var segments []string
	var current bytes.Buffer

	flush := func() {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text != "" {
			segments = append(segments, text)
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			flush()
			return
		}
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}
	flush()

	return segments
}
