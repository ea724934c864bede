package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brewfeed/brewfeed/app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestGroupByCategory(t *testing.T) {
	articles := []store.Article{
		{Title: "event", Category: "Events & Culture"},
		{Title: "crop", Category: "Market & Origin"},
		{Title: "mystery", Category: "Something Else"},
		{Title: "frost", Category: "Market & Origin"},
	}

	groups := GroupByCategory(articles)

	require.Len(t, groups, 3)
	assert.Equal(t, "Top News", groups[0].Category)
	assert.Equal(t, "mystery", groups[0].Articles[0].Title)
	assert.Equal(t, "Market & Origin", groups[1].Category)
	assert.Len(t, groups[1].Articles, 2)
	assert.Equal(t, "Events & Culture", groups[2].Category)
}

func TestRenderHTML(t *testing.T) {
	groups := []Group{{
		Category: "Market & Origin",
		Articles: []store.Article{{
			Source:  "Daily Coffee News",
			Title:   "frost warning",
			Link:    "https://example.com/frost",
			Summary: "cold front incoming",
		}},
	}}

	body, err := RenderHTML(TitleDaily, groups)
	require.NoError(t, err)
	html := string(body)

	assert.Contains(t, html, "<h1>Daily Coffee News</h1>")
	assert.Contains(t, html, "<h2>Market &amp; Origin</h2>")
	assert.Contains(t, html, `href="https://example.com/frost"`)
	assert.Contains(t, html, "cold front incoming")
	assert.NotContains(t, html, "No fresh news")
}

func TestRenderHTML_Empty(t *testing.T) {
	body, err := RenderHTML(TitleWeekly, nil)
	require.NoError(t, err)

	assert.Contains(t, string(body), "No fresh news today.")
}

func TestRenderText(t *testing.T) {
	groups := []Group{{
		Category: "Top News",
		Articles: []store.Article{
			{Title: "one", Link: "https://example.com/1"},
			{Title: "two", Link: "https://example.com/2"},
		},
	}}

	text := RenderText(TitleDaily, groups)

	assert.True(t, strings.HasPrefix(text, "Daily Coffee News\n"))
	assert.Contains(t, text, "- one\n  https://example.com/1")
	assert.Contains(t, text, "- two\n  https://example.com/2")
}

type messengerMock struct {
	sent []string
	fail map[string]bool
}

func (m *messengerMock) Send(_ context.Context, chatID, _ string) error {
	if m.fail[chatID] {
		return errors.New("blocked by user")
	}
	m.sent = append(m.sent, chatID)
	return nil
}

func TestService_Deliver_SkipsFailedRecipient(t *testing.T) {
	m := &messengerMock{fail: map[string]bool{"2": true}}
	svc := NewService(slog.Default(), m, []string{"1", "2", "3"})

	svc.Deliver(context.Background(), "digest text")

	assert.Equal(t, []string{"1", "3"}, m.sent)
}
