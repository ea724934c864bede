// Package notify formats and delivers the digest newsletter.
package notify

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/brewfeed/brewfeed/app/digest"
	"github.com/brewfeed/brewfeed/app/store"
)

//go:embed data/newsletter.tmpl
var newsletter string

var newsletterTmpl = template.Must(template.New("newsletter").Parse(newsletter))

// Group is a newsletter section: one category and its articles.
type Group struct {
	Category string
	Articles []store.Article
}

// Titles of the two digest editions.
const (
	TitleDaily  = "Daily Coffee News"
	TitleWeekly = "Weekly Coffee Digest"
)

// GroupByCategory sorts articles into fixed category order. Articles
// with an unknown category land in the first group, so nothing is
// ever dropped.
func GroupByCategory(articles []store.Article) []Group {
	byCat := map[string][]store.Article{}
	for _, a := range articles {
		cat := a.Category
		if !known(cat) {
			cat = digest.Categories[0]
		}
		byCat[cat] = append(byCat[cat], a)
	}

	var groups []Group
	for _, cat := range digest.Categories {
		if len(byCat[cat]) == 0 {
			continue
		}
		groups = append(groups, Group{Category: cat, Articles: byCat[cat]})
	}

	return groups
}

func known(category string) bool {
	for _, c := range digest.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// RenderHTML produces the HTML newsletter body.
func RenderHTML(title string, groups []Group) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := newsletterTmpl.Execute(buf, struct {
		Title  string
		Groups []Group
	}{Title: title, Groups: groups})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderText produces a compact plain-text digest for chat delivery.
func RenderText(title string, groups []Group) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s\n", title)

	if len(groups) == 0 {
		sb.WriteString("\nNo fresh news today.\n")
		return sb.String()
	}

	for _, g := range groups {
		fmt.Fprintf(sb, "\n%s\n", g.Category)
		for _, a := range g.Articles {
			fmt.Fprintf(sb, "- %s\n  %s\n", a.Title, a.Link)
		}
	}

	return sb.String()
}
