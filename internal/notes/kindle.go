// Package notes parses exported reading notes into plain highlight texts.
package notes

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

type BookNotes struct {
	Title   string
	Authors string
	Notes   []string
}

var headerMarkers = map[string]bool{".h1": true, ".h2": true, ".h3": true, ".h4": true, ".h5": true, ".h6": true}

// ParseKindleHTML extracts highlights and notes from a Kindle HTML export.
// A note consisting of a header marker (".h1" .. ".h6") removes itself and
// the highlight right before it. Empty and repeated notes are dropped.
func ParseKindleHTML(raw []byte) (BookNotes, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return BookNotes{}, err
	}
	var out BookNotes
	var notes []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" {
			switch {
			case hasClass(n, "bookTitle") && out.Title == "":
				out.Title = strings.TrimSpace(textOf(n))
			case hasClass(n, "authors") && out.Authors == "":
				out.Authors = strings.TrimSpace(textOf(n))
			case hasClass(n, "noteText"):
				notes = append(notes, firstText(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for i := range notes {
		if i+1 < len(notes) && headerMarkers[notes[i+1]] {
			notes[i] = ""
		}
		if headerMarkers[notes[i]] {
			notes[i] = ""
		}
	}
	seen := map[string]bool{}
	for _, n := range notes {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out.Notes = append(out.Notes, n)
	}
	return out, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// firstText is the leading text node of n, which excludes the nested
// heading Kindle puts inside note divs.
func firstText(n *html.Node) string {
	c := n.FirstChild
	if c == nil {
		return ""
	}
	if c.Type == html.TextNode {
		return strings.TrimSpace(c.Data)
	}
	return strings.TrimSpace(textOf(c))
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
