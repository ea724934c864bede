package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brewfeed/brewfeed/app/digest"
	"github.com/brewfeed/brewfeed/app/feed"
	"github.com/brewfeed/brewfeed/app/market"
	"github.com/brewfeed/brewfeed/app/notify"
	"github.com/brewfeed/brewfeed/app/store"
	"golang.org/x/exp/slog"
)

// Digest is a command to run the aggregation pipeline once: fetch,
// summarize, export the widget document and deliver the newsletter.
type Digest struct {
	DryRun bool `long:"dry-run" env:"DRY_RUN" description:"render the newsletter to a file instead of sending"`
	Weekly bool `long:"weekly" env:"WEEKLY" description:"cover the last 7 days instead of 24 hours"`

	StorePath  string `long:"store-path" env:"STORE_PATH" default:"./var" description:"parent dir for bolt files"`
	ExportPath string `long:"export-path" env:"EXPORT_PATH" default:"./public/news.json" description:"path of the exported widget document"`
	DryRunPath string `long:"dry-run-path" env:"DRY_RUN_PATH" default:"./dry_run_output.html" description:"where --dry-run writes the newsletter"`

	Feeds []string `long:"feed" env:"FEEDS" env-delim:"," description:"RSS feed URLs to aggregate"`

	OpenAI struct {
		Token     string        `long:"token" env:"TOKEN" description:"OpenAI token"`
		MaxTokens int           `long:"max-tokens" env:"MAX_TOKENS" default:"1000" description:"max tokens for OpenAI"`
		Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"5m" description:"timeout for OpenAI calls"`
	} `group:"openai" namespace:"openai" env-namespace:"OPENAI"`

	Telegram struct {
		Token   string   `long:"token" env:"TOKEN" description:"telegram token"`
		ChatIDs []string `long:"chat-ids" env:"CHAT_IDS" env-delim:"," description:"digest recipient chat IDs"`
	} `group:"telegram" namespace:"telegram" env-namespace:"TELEGRAM"`

	Market struct {
		Relay   string        `long:"relay" env:"RELAY" description:"CORS relay prefix for the quotes API"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"timeout for quote calls"`
	} `group:"market" namespace:"market" env-namespace:"MARKET"`
}

// Execute runs the command.
func (d Digest) Execute(_ []string) error {
	lg := slog.Default()
	ctx := context.Background()

	if d.OpenAI.Token == "" {
		return fmt.Errorf("openai token is not set")
	}

	st, err := store.NewBolt(d.StorePath)
	if err != nil {
		return fmt.Errorf("make store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			lg.Error("close bolt store", slog.Any("err", err))
		}
	}()

	cl := httpClient(lg, d.Market.Timeout)

	window := 24 * time.Hour
	title := notify.TitleDaily
	if d.Weekly {
		window = 7 * 24 * time.Hour
		title = notify.TitleWeekly
	}

	feeds := d.Feeds
	if len(feeds) == 0 {
		feeds = feed.DefaultFeeds
	}

	enricher := feed.NewEnricher(lg.With(slog.String("prefix", "enricher")), cl)
	rss := feed.NewRSS(lg.With(slog.String("prefix", "rss")), cl, feeds, enricher)

	lg.Info("fetching articles", slog.Duration("window", window))
	articles := rss.FetchRecent(ctx, window)

	fresh := articles[:0]
	for _, a := range articles {
		seen, err := st.Seen(ctx, a.Link)
		if err != nil {
			return fmt.Errorf("check seen link: %w", err)
		}
		if !seen {
			fresh = append(fresh, a)
		}
	}
	lg.Info("articles fetched",
		slog.Int("total", len(articles)), slog.Int("fresh", len(fresh)))

	if len(fresh) == 0 {
		lg.Info("no fresh articles, nothing to do")
		return nil
	}

	svc := digest.NewService(
		lg.With(slog.String("prefix", "digest")),
		digest.NewChatGPT(
			lg.With(slog.String("prefix", "chatgpt")),
			&http.Client{Timeout: d.OpenAI.Timeout},
			d.OpenAI.Token,
			d.OpenAI.MaxTokens,
		),
	)

	lg.Info("processing articles", slog.Int("count", len(fresh)))
	processed := svc.Process(ctx, fresh)

	quotes := market.NewYahoo(lg.With(slog.String("prefix", "yahoo")), cl, d.Market.Relay)
	m := quotes.Snapshot(ctx)

	snapshot := store.Snapshot{
		UpdatedAt: time.Now(),
		IsWeekly:  d.Weekly,
		Market:    &m,
		Articles:  processed,
	}

	if err := st.PutSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	if err := store.Export(snapshot, d.ExportPath); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	lg.Info("widget document exported", slog.String("path", d.ExportPath))

	links := make([]string, 0, len(processed))
	for _, a := range processed {
		links = append(links, a.Link)
	}
	if err := st.MarkSeen(ctx, links); err != nil {
		return fmt.Errorf("mark links seen: %w", err)
	}

	groups := notify.GroupByCategory(processed)

	if d.DryRun {
		body, err := notify.RenderHTML(title, groups)
		if err != nil {
			return fmt.Errorf("render newsletter: %w", err)
		}
		if err := os.WriteFile(d.DryRunPath, body, 0644); err != nil {
			return fmt.Errorf("write dry-run output: %w", err)
		}
		lg.Info("dry run, newsletter written to file", slog.String("path", d.DryRunPath))
		return nil
	}

	if d.Telegram.Token == "" || len(d.Telegram.ChatIDs) == 0 {
		lg.Warn("telegram is not configured, skipping delivery")
		return nil
	}

	tg, err := notify.NewTelegram(lg.With(slog.String("prefix", "telegram")), d.Telegram.Token)
	if err != nil {
		return fmt.Errorf("make telegram sender: %w", err)
	}

	notify.NewService(
		lg.With(slog.String("prefix", "notify")),
		tg,
		d.Telegram.ChatIDs,
	).Deliver(ctx, notify.RenderText(title, groups))

	return nil
}
