package widget

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"github.com/brewfeed/brewfeed/app/market"
	"github.com/brewfeed/brewfeed/app/store"
)

//go:embed data/widget.tmpl
var widgetTmpl string

var pageTmpl = template.Must(template.New("widget").Parse(widgetTmpl))

// ViewModel is everything the page template needs; rendering has no
// other inputs and no side effects.
type ViewModel struct {
	UpdatedAt string
	Weekly    bool
	Demo      bool
	Articles  []ArticleView
	Arabica   QuoteView
	Robusta   QuoteView
}

// ArticleView is a single article block.
type ArticleView struct {
	Category string
	Title    string
	Link     string
	Summary  string
}

// QuoteView is a rendered market quote. When Failed is set, the block
// shows the status string instead of numbers.
type QuoteView struct {
	Label     string
	Price     string
	Change    string
	Pct       string
	Direction string
	Failed    bool
}

// Build derives the view model from a snapshot. It is the only place
// where quote math and display formatting happen.
func Build(s store.Snapshot, demo bool) ViewModel {
	vm := ViewModel{
		UpdatedAt: FormatUpdatedAt(s.UpdatedAt, time.Now()),
		Weekly:    s.IsWeekly,
		Demo:      demo,
		Arabica:   buildQuote("Arabica", quoteOf(s.Market, true)),
		Robusta:   buildQuote("Robusta", quoteOf(s.Market, false)),
	}

	for _, a := range s.Articles {
		vm.Articles = append(vm.Articles, ArticleView{
			Category: a.Category,
			Title:    a.Title,
			Link:     a.Link,
			Summary:  a.Summary,
		})
	}

	return vm
}

func quoteOf(m *store.Market, arabica bool) *store.Quote {
	if m == nil {
		return nil
	}
	if arabica {
		return m.Arabica
	}
	return m.Robusta
}

func buildQuote(label string, q *store.Quote) QuoteView {
	if q == nil {
		return QuoteView{Label: label, Failed: true}
	}

	c := market.Normalize(*q)
	v := QuoteView{
		Label:     label,
		Price:     fmt.Sprintf("%.2f", q.Price),
		Direction: string(c.Direction),
	}

	if c.NoBaseline {
		v.Change, v.Pct = "n/a", "n/a"
		return v
	}

	v.Change = fmt.Sprintf("%+.2f", c.Abs)
	v.Pct = fmt.Sprintf("%+.2f%%", c.Pct)
	return v
}

// Render produces the widget page for the view model.
func Render(vm ViewModel) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pageTmpl.Execute(buf, vm); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatUpdatedAt formats a document timestamp the way the widget
// header shows it, with a relative hint for fresh documents.
func FormatUpdatedAt(t, now time.Time) string {
	if d := now.Sub(t); d >= 0 && d < time.Hour {
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	}
	return t.Local().Format("2006-01-02 15:04")
}
