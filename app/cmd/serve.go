// Package cmd contains commands for the application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brewfeed/brewfeed/app/feed"
	"github.com/brewfeed/brewfeed/app/market"
	"github.com/brewfeed/brewfeed/app/server"
	"github.com/brewfeed/brewfeed/app/store"
	"github.com/brewfeed/brewfeed/app/webcache"
	"github.com/brewfeed/brewfeed/app/widget"
	"github.com/brewfeed/brewfeed/pkg/logx"
	"github.com/go-pkgz/requester"
	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Serve is a command to run the widget service.
type Serve struct {
	Addr    string        `long:"addr" env:"ADDR" default:":8080" description:"address to listen on"`
	Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"timeout for requests"`

	StorePath  string `long:"store-path" env:"STORE_PATH" default:"./var" description:"parent dir for bolt files"`
	ExportPath string `long:"export-path" env:"EXPORT_PATH" default:"./public/news.json" description:"path of the exported widget document"`
	RemoteURL  string `long:"remote-url" env:"REMOTE_URL" description:"optional remote widget document URL"`

	Feeds   []string      `long:"feed" env:"FEEDS" env-delim:"," description:"RSS feed URLs to aggregate"`
	Refresh string        `long:"refresh" env:"REFRESH" default:"@every 5m" description:"refresh schedule"`
	Window  time.Duration `long:"window" env:"WINDOW" default:"24h" description:"article freshness window"`

	Cache struct {
		Dir     string `long:"dir" env:"DIR" default:"./var" description:"parent dir for the response cache"`
		Version string `long:"version" env:"VERSION" default:"static-v3" description:"cache version string"`
	} `group:"cache" namespace:"cache" env-namespace:"CACHE"`

	Market struct {
		Relay   string        `long:"relay" env:"RELAY" description:"CORS relay prefix for the quotes API"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"timeout for quote calls"`
	} `group:"market" namespace:"market" env-namespace:"MARKET"`
}

// Execute runs the command.
func (s Serve) Execute(_ []string) error {
	lg := slog.Default()

	st, err := store.NewBolt(s.StorePath)
	if err != nil {
		return fmt.Errorf("make store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			lg.Error("close bolt store", slog.Any("err", err))
		}
	}()

	cl := httpClient(lg, s.Market.Timeout)

	quotes := market.NewYahoo(lg.With(slog.String("prefix", "yahoo")), cl, s.Market.Relay)

	feeds := s.Feeds
	if len(feeds) == 0 {
		feeds = feed.DefaultFeeds
	}
	rss := feed.NewRSS(lg.With(slog.String("prefix", "rss")), cl, feeds, nil)

	sources := []widget.Source{
		widget.FileSource{Path: s.ExportPath},
		widget.StoreSource{Store: st},
	}
	if s.RemoteURL != "" {
		sources = append(sources, widget.HTTPSource{Client: cl, URL: s.RemoteURL})
	}
	resolver := widget.NewResolver(lg.With(slog.String("prefix", "resolver")), sources...)

	cache, err := webcache.New(s.Cache.Dir, s.Cache.Version)
	if err != nil {
		return fmt.Errorf("make response cache: %w", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			lg.Error("close response cache", slog.Any("err", err))
		}
	}()

	if err := cache.Activate(); err != nil {
		return fmt.Errorf("activate cache version %s: %w", s.Cache.Version, err)
	}

	policy := webcache.NewPolicy(lg.With(slog.String("prefix", "webcache")), cache, "/api/")

	ctrl := &server.Ctrl{
		Logger:   lg.With(slog.String("prefix", "server")),
		Resolver: resolver,
		Quotes:   quotes,
		Policy:   policy,
		Timeout:  s.Timeout,
	}
	h := ctrl.Routes()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	refresh := func() {
		if err := s.refresh(ctx, lg, st, rss, quotes); err != nil {
			lg.Error("refresh cycle failed", slog.Any("err", err))
		}
	}
	refresh()

	if err := policy.Install(ctx, h, "/", "/index.html"); err != nil {
		lg.Warn("failed to precache widget pages", slog.Any("err", err))
	}

	sched := cron.New()
	if _, err := sched.AddFunc(s.Refresh, refresh); err != nil {
		return fmt.Errorf("bad refresh schedule %q: %w", s.Refresh, err)
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{Addr: s.Addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case sig := <-sig:
			slog.Warn("caught signal, stopping", slog.String("signal", sig.String()))
			stop()
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	ewg.Go(func() error {
		lg.Info("starting server", slog.String("addr", s.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	ewg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		lg.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// refresh rebuilds the current snapshot: articles come from the last
// stored snapshot, or straight from the feeds on a cold start, and
// quotes are always re-fetched.
func (s Serve) refresh(ctx context.Context, lg *slog.Logger, st store.Interface,
	rss *feed.RSS, quotes *market.Yahoo) error {

	prev, err := st.LatestSnapshot(ctx)
	articles := prev.Articles
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("get latest snapshot: %w", err)
		}
		lg.Info("no stored snapshot, fetching feeds")
		articles = rss.FetchRecent(ctx, s.Window)
	}

	m := quotes.Snapshot(ctx)
	next := store.Snapshot{
		UpdatedAt: time.Now(),
		IsWeekly:  prev.IsWeekly,
		Market:    &m,
		Articles:  articles,
	}

	if err := st.PutSnapshot(ctx, next); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}

	if err := store.Export(next, s.ExportPath); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	lg.Info("snapshot refreshed",
		slog.Int("articles", len(next.Articles)),
		slog.Bool("arabica", next.Market.Arabica != nil),
		slog.Bool("robusta", next.Market.Robusta != nil))

	return nil
}

func httpClient(lg *slog.Logger, timeout time.Duration) *http.Client {
	rq := requester.New(http.Client{Timeout: timeout},
		logx.LoggingRoundTripper(lg.With(slog.String("prefix", "http")), logx.RoundTripperOpts{
			Level:         slog.LevelDebug,
			SecretHeaders: []string{"Authorization"},
		}),
	)
	return rq.Client()
}
