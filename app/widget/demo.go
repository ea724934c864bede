package widget

import (
	"time"

	"github.com/brewfeed/brewfeed/app/store"
)

// DemoSnapshot returns the static content shown when no real document
// can be resolved.
func DemoSnapshot() store.Snapshot {
	return store.Snapshot{
		UpdatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Articles: []store.Article{
			{
				Category: "Market & Origin",
				Title:    "Arabica futures hold steady ahead of harvest reports",
				Link:     "https://example.com/demo-arabica",
				Summary:  "Demo article. Markets await crop estimates from the main growing regions.",
			},
			{
				Category: "Roasting & Science",
				Title:    "Study revisits the role of drum speed in development time",
				Link:     "https://example.com/demo-roasting",
				Summary:  "Demo article. New measurements suggest airflow matters more than assumed.",
			},
			{
				Category: "Events & Culture",
				Title:    "National barista championship announces finalists",
				Link:     "https://example.com/demo-events",
				Summary:  "Demo article. Six competitors advance to the final round next month.",
			},
		},
	}
}
