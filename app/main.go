package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/leolaporte/beatcheck/app/ai"
	"github.com/leolaporte/beatcheck/app/cfg"
	"github.com/leolaporte/beatcheck/app/content"
	"github.com/leolaporte/beatcheck/app/database"
	"github.com/leolaporte/beatcheck/app/feed"
	"github.com/leolaporte/beatcheck/app/opml"
	"github.com/leolaporte/beatcheck/app/ops"
	"github.com/leolaporte/beatcheck/app/services"
	"github.com/leolaporte/beatcheck/app/shell"
)

func main() {
	appCfg, rest, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}
	if len(rest) > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n", rest)
		os.Exit(1)
	}

	headless := appCfg.ImportPath != "" || appCfg.Refresh
	logFile := setupLogging(appCfg, headless)
	if logFile != nil {
		defer logFile.Close()
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database %s: %v\n", appCfg.DBPath, err)
		os.Exit(1)
	}
	defer db.Close()

	schemaVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate database: %v\n", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", schemaVersion, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	summaryRepo := database.NewSummaryRepository(db)
	bookmarkRepo := database.NewBookmarkRepository(db)

	// Retention runs at startup, not on a timer; a session rarely lives a day.
	if appCfg.RetentionDays > 0 {
		if _, err := articleRepo.CompactDatabase(appCfg.RetentionDays); err != nil {
			slog.Warn("Startup compaction failed", "error", err)
		}
	}

	if appCfg.ImportPath != "" {
		if err := runImport(appCfg.ImportPath, feedRepo); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	parser := feed.NewParser()
	fetcher := feed.NewFetcher(parser, appCfg.UserAgent,
		time.Duration(appCfg.ConnectTimeout)*time.Second,
		time.Duration(appCfg.FetchTimeout)*time.Second,
		appCfg.MaxConcurrentFetches)

	filter, err := feed.NewFilterFromFile(appCfg.BlocklistPath)
	if err != nil {
		slog.Warn("Failed to load blocklist, continuing without it", "path", appCfg.BlocklistPath, "error", err)
		filter = feed.NewFilter(nil)
	}

	summarizer := ai.NewSummarizer(appCfg.AIBaseURL, appCfg.AIAPIKey, appCfg.AIModel)
	extractor := content.NewExtractor(appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second)
	orchestrator := ops.NewOrchestrator(fetcher, filter, summarizer, extractor,
		feedRepo, articleRepo, summaryRepo)

	if appCfg.Refresh {
		if err := runRefresh(orchestrator, feedRepo); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	var bookmarker shell.Bookmarker
	if appCfg.RaindropToken != "" {
		bookmarker = services.NewRaindropClient(appCfg.RaindropToken)
	}

	app := shell.NewApp(feedRepo, articleRepo, summaryRepo, bookmarkRepo, orchestrator, bookmarker)
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging routes logs away from the screen in interactive mode. Returns
// the log file, if one was opened.
func setupLogging(appCfg *cfg.Cfg, headless bool) *os.File {
	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}

	if headless {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}

	logFile, err := os.OpenFile(appCfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// No log destination; discard rather than corrupt the screen
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})))
		return nil
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))
	return logFile
}

// runImport subscribes to every feed in an OPML file, skipping feeds already
// present.
func runImport(path string, feeds *database.FeedRepository) error {
	entries, err := opml.ParseFile(path)
	if err != nil {
		return err
	}

	added, skipped := 0, 0
	for _, entry := range entries {
		existing, err := feeds.GetFeedByURL(entry.URL)
		if err != nil {
			return err
		}
		if existing != nil {
			skipped++
			continue
		}
		title := entry.Title
		if title == "" {
			title = entry.URL
		}
		_, err = feeds.InsertFeed(database.NewFeed{
			Title:       title,
			URL:         entry.URL,
			SiteURL:     entry.SiteURL,
			Description: entry.Description,
		})
		if err != nil {
			return err
		}
		added++
	}

	fmt.Printf("Imported %d feeds from %s (%d already subscribed)\n", added, path, skipped)
	return nil
}

// runRefresh performs one refresh of all feeds and waits for it to finish.
func runRefresh(orchestrator *ops.Orchestrator, feeds *database.FeedRepository) error {
	all, err := feeds.GetAllFeeds()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No feeds to refresh; import some with --import")
		return nil
	}

	sources := make([]feed.Source, 0, len(all))
	for _, f := range all {
		sources = append(sources, feed.Source{ID: f.ID, Title: f.Title, URL: f.URL})
	}
	if !orchestrator.StartRefresh(sources) {
		return fmt.Errorf("refresh already running")
	}

	for {
		if result := orchestrator.PollRefresh(); result != nil {
			if result.Err != nil {
				return fmt.Errorf("refresh failed: %w", result.Err)
			}
			fmt.Printf("Refreshed %d/%d feeds: %d new, %d suppressed\n",
				result.Fetched, len(sources), result.Added, result.Suppressed)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}
