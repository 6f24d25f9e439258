package shell

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leolaporte/beatcheck/app/database"
	"github.com/leolaporte/beatcheck/app/feed"
	"github.com/leolaporte/beatcheck/app/opml"
	"github.com/leolaporte/beatcheck/app/ops"
)

type stubFetcher struct {
	results []feed.Result
}

func (f *stubFetcher) RefreshAll(ctx context.Context, sources []feed.Source) []feed.Result {
	return f.results
}

func (f *stubFetcher) Discover(ctx context.Context, siteURL string) ([]feed.Discovered, error) {
	return nil, nil
}

type stubSummarizer struct{}

func (s *stubSummarizer) GenerateSummary(ctx context.Context, title, content string) (string, error) {
	return "stub summary", nil
}

func (s *stubSummarizer) ModelVersion() string { return "stub-model" }

type stubBookmarker struct {
	lastTags []string
}

func (b *stubBookmarker) SaveBookmark(ctx context.Context, url, title, excerpt string, tags []string) (int64, error) {
	b.lastTags = tags
	return 42, nil
}

type testEnv struct {
	app       *App
	feeds     *database.FeedRepository
	articles  *database.ArticleRepository
	bookmarks *database.BookmarkRepository
}

func newTestApp(t *testing.T, fetcher *stubFetcher, bookmarker Bookmarker) *testEnv {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	feeds := database.NewFeedRepository(db)
	articles := database.NewArticleRepository(db)
	summaries := database.NewSummaryRepository(db)
	bookmarks := database.NewBookmarkRepository(db)

	if fetcher == nil {
		fetcher = &stubFetcher{}
	}
	orchestrator := ops.NewOrchestrator(fetcher, feed.NewFilter(nil), &stubSummarizer{}, nil,
		feeds, articles, summaries)

	return &testEnv{
		app:       NewApp(feeds, articles, summaries, bookmarks, orchestrator, bookmarker),
		feeds:     feeds,
		articles:  articles,
		bookmarks: bookmarks,
	}
}

func (e *testEnv) insertArticle(t *testing.T, guid, title string) int64 {
	t.Helper()
	feedID, err := e.feeds.InsertFeed(database.NewFeed{Title: "F", URL: "https://example.com/" + guid})
	if err != nil {
		t.Fatalf("Failed to insert feed: %v", err)
	}
	id, ok, err := e.articles.UpsertArticle(database.NewArticle{
		FeedID: feedID, GUID: guid, Title: title, URL: "https://example.com/" + guid,
	})
	if err != nil || !ok {
		t.Fatalf("Failed to insert article: ok=%v err=%v", ok, err)
	}
	return id
}

// typeText drives text entry through the key map, the way a user would.
func typeText(a *App, text string) {
	for _, r := range text {
		a.apply(MapKey(a.mode, Key{Kind: KeyRune, Rune: r}))
	}
	a.apply(MapKey(a.mode, Key{Kind: KeyEnter}))
}

// tickUntil runs ticks until cond holds or the deadline passes.
func tickUntil(t *testing.T, a *App, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a.tick()
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for condition")
}

func TestSelectionStaysInBounds(t *testing.T) {
	env := newTestApp(t, nil, nil)
	app := env.app

	// Empty list: navigation is a no-op
	app.apply(Command{Action: ActionMoveDown})
	app.apply(Command{Action: ActionMoveUp})
	if app.selected != 0 {
		t.Errorf("Expected selection pinned at 0, got %d", app.selected)
	}

	env.insertArticle(t, "g1", "One")
	env.insertArticle(t, "g2", "Two")
	app.reload()

	app.apply(Command{Action: ActionMoveToBottom})
	if app.selected != 1 {
		t.Errorf("Expected selection at bottom, got %d", app.selected)
	}
	app.apply(Command{Action: ActionMoveDown})
	if app.selected != 1 {
		t.Errorf("Expected selection clamped at bottom, got %d", app.selected)
	}
	app.apply(Command{Action: ActionMoveToTop})
	if app.selected != 0 {
		t.Errorf("Expected selection at top, got %d", app.selected)
	}
}

func TestDeleteAndUndeleteFlow(t *testing.T) {
	env := newTestApp(t, nil, nil)
	app := env.app

	env.insertArticle(t, "g1", "Doomed")
	app.reload()

	app.apply(Command{Action: ActionDeleteArticle})
	if len(app.list) != 0 {
		t.Fatalf("Expected empty list after delete, got %d entries", len(app.list))
	}
	if app.lastDeleted == nil || app.lastDeleted.guid != "g1" {
		t.Fatalf("Expected last-deleted tracking, got %+v", app.lastDeleted)
	}

	// Re-ingestion is suppressed while the tombstone stands
	_, ok, err := env.articles.UpsertArticle(database.NewArticle{
		FeedID: app.lastDeleted.feedID, GUID: "g1", Title: "Doomed",
	})
	if err != nil || ok {
		t.Fatalf("Expected tombstone suppression, got ok=%v err=%v", ok, err)
	}

	app.apply(Command{Action: ActionUndeleteArticle})
	if app.lastDeleted != nil {
		t.Error("Expected last-deleted cleared after restore")
	}

	_, ok, err = env.articles.UpsertArticle(database.NewArticle{
		FeedID: 1, GUID: "g1", Title: "Doomed",
	})
	if err != nil || !ok {
		t.Fatalf("Expected re-ingestion after restore, got ok=%v err=%v", ok, err)
	}

	// A second undelete has nothing to do
	app.apply(Command{Action: ActionUndeleteArticle})
	if !strings.Contains(app.statusText, "Nothing to restore") {
		t.Errorf("Unexpected status: %q", app.statusText)
	}
}

func TestRefreshReloadsList(t *testing.T) {
	env := newTestApp(t, nil, nil)
	feedID, err := env.feeds.InsertFeed(database.NewFeed{Title: "F", URL: "https://example.com/feed"})
	if err != nil {
		t.Fatalf("Failed to insert feed: %v", err)
	}

	fetcher := &stubFetcher{results: []feed.Result{
		{FeedID: feedID, Candidates: []feed.Candidate{
			{FeedID: feedID, GUID: "a", Title: "Fresh"},
		}},
	}}
	env = newTestAppSharingStore(t, env, fetcher)
	app := env.app

	app.apply(Command{Action: ActionRefresh})
	tickUntil(t, app, func() bool { return len(app.list) == 1 })

	if app.list[0].Title != "Fresh" {
		t.Errorf("Expected refreshed article in list, got %+v", app.list[0])
	}
	if !strings.Contains(app.statusText, "1 new") {
		t.Errorf("Expected refresh status, got %q", app.statusText)
	}
}

// newTestAppSharingStore rebuilds the app over the same repositories with a
// different fetcher.
func newTestAppSharingStore(t *testing.T, env *testEnv, fetcher *stubFetcher) *testEnv {
	t.Helper()
	orchestrator := ops.NewOrchestrator(fetcher, feed.NewFilter(nil), &stubSummarizer{}, nil,
		env.feeds, env.articles, env.app.summaries)
	return &testEnv{
		app:       NewApp(env.feeds, env.articles, env.app.summaries, env.bookmarks, orchestrator, nil),
		feeds:     env.feeds,
		articles:  env.articles,
		bookmarks: env.bookmarks,
	}
}

func TestSummarizeAttachesResult(t *testing.T) {
	env := newTestApp(t, nil, nil)
	app := env.app

	id := env.insertArticle(t, "g1", "Long read")
	app.reload()

	app.apply(Command{Action: ActionRegenerateSummary})
	tickUntil(t, app, func() bool { _, ok := app.summaryCache[id]; return ok })

	if app.summaryCache[id] != "stub summary" {
		t.Errorf("Expected summary cached, got %q", app.summaryCache[id])
	}
}

func TestBookmarkFlowThroughTagEntry(t *testing.T) {
	bookmarker := &stubBookmarker{}
	env := newTestApp(t, nil, bookmarker)
	app := env.app

	id := env.insertArticle(t, "g1", "Keeper")
	app.reload()

	app.apply(Command{Action: ActionBookmark})
	if app.mode != ModeTagEntry {
		t.Fatalf("Expected tag entry mode, got %d", app.mode)
	}
	typeText(app, "twit, ai")

	tickUntil(t, app, func() bool { return app.bookmarked[id] })

	if len(bookmarker.lastTags) != 2 || bookmarker.lastTags[0] != "twit" || bookmarker.lastTags[1] != "ai" {
		t.Errorf("Unexpected tags sent: %v", bookmarker.lastTags)
	}
	saved, err := env.bookmarks.IsBookmarked(id)
	if err != nil || !saved {
		t.Errorf("Expected bookmark persisted, got saved=%v err=%v", saved, err)
	}
}

func TestBookmarkMarkersComeFromStore(t *testing.T) {
	env := newTestApp(t, nil, nil)

	id := env.insertArticle(t, "g1", "Saved last week")
	if err := env.bookmarks.MarkBookmarked(id, 42, []string{"twit"}); err != nil {
		t.Fatalf("MarkBookmarked failed: %v", err)
	}

	// A new session over the same store must show the bookmark marker
	restarted := newTestAppSharingStore(t, env, &stubFetcher{})
	restarted.app.reload()

	if !restarted.app.bookmarked[id] {
		t.Errorf("Expected article %d marked bookmarked after reload", id)
	}
}

func TestQuickBookmarkWithoutServiceConfigured(t *testing.T) {
	env := newTestApp(t, nil, nil)
	app := env.app

	env.insertArticle(t, "g1", "Keeper")
	app.reload()

	app.apply(Command{Action: ActionQuickBookmark, Tag: "twit"})
	if !strings.Contains(app.statusText, "not configured") {
		t.Errorf("Expected configuration hint, got %q", app.statusText)
	}
}

func TestOpmlImportAndExportRoundTrip(t *testing.T) {
	env := newTestApp(t, nil, nil)
	app := env.app

	source := filepath.Join(t.TempDir(), "subs.opml")
	entries := []opml.Entry{
		{Title: "Blog A", URL: "https://a.example/feed"},
		{Title: "Blog B", URL: "https://b.example/feed"},
	}
	if err := opml.WriteFile(source, "subs", entries); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	app.apply(Command{Action: ActionImportOpml})
	if app.mode != ModeOpmlImportEntry {
		t.Fatalf("Expected OPML import entry mode, got %d", app.mode)
	}
	typeText(app, source)

	feeds, err := env.feeds.GetAllFeeds()
	if err != nil {
		t.Fatalf("Failed to list feeds: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 imported feeds, got %d", len(feeds))
	}

	// Importing again skips everything
	app.apply(Command{Action: ActionImportOpml})
	typeText(app, source)
	if !strings.Contains(app.statusText, "0 feeds (2 already subscribed)") {
		t.Errorf("Expected skip status, got %q", app.statusText)
	}

	target := filepath.Join(t.TempDir(), "export.opml")
	app.apply(Command{Action: ActionExportOpml})
	typeText(app, target)

	exported, err := opml.ParseFile(target)
	if err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}
	if len(exported) != 2 {
		t.Errorf("Expected 2 exported feeds, got %d", len(exported))
	}
}
