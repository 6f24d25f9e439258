// Package shell implements the interactive terminal mode: a keyboard-driven
// article list over the store, with all slow work delegated to background
// operations and polled once per tick.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leolaporte/beatcheck/app/database"
	"github.com/leolaporte/beatcheck/app/feed"
	"github.com/leolaporte/beatcheck/app/opml"
	"github.com/leolaporte/beatcheck/app/ops"
)

const statusDuration = 5 * time.Second

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Bookmarker saves an article to a remote bookmark service.
type Bookmarker interface {
	SaveBookmark(ctx context.Context, url, title, excerpt string, tags []string) (int64, error)
}

type bookmarkOutcome struct {
	articleID  int64
	raindropID int64
	tags       []string
	err        error
}

type deletedRef struct {
	feedID int64
	guid   string
	title  string
}

// App holds the whole interactive-mode state. All mutation happens on the
// event loop goroutine; background work communicates through the
// orchestrator's poll methods and the bookmark result channel.
type App struct {
	feeds        *database.FeedRepository
	articles     *database.ArticleRepository
	summaries    *database.SummaryRepository
	bookmarks    *database.BookmarkRepository
	orchestrator *ops.Orchestrator
	bookmarker   Bookmarker

	mode     InputMode
	inputBuf []rune

	list       []database.Article
	selected   int
	showDetail bool

	summaryCache map[int64]string
	bookmarked   map[int64]bool

	spinner      int
	statusText   string
	statusExpiry time.Time

	lastDeleted    *deletedRef
	pendingFeedURL string // the URL typed into add-feed, while discovery runs
	bookmarkBusy   bool
	bookmarkDone   chan bookmarkOutcome

	quit bool
}

func NewApp(feeds *database.FeedRepository, articles *database.ArticleRepository,
	summaries *database.SummaryRepository, bookmarks *database.BookmarkRepository,
	orchestrator *ops.Orchestrator, bookmarker Bookmarker) *App {
	return &App{
		feeds:        feeds,
		articles:     articles,
		summaries:    summaries,
		bookmarks:    bookmarks,
		orchestrator: orchestrator,
		bookmarker:   bookmarker,
		summaryCache: make(map[int64]string),
		bookmarked:   make(map[int64]bool),
		bookmarkDone: make(chan bookmarkOutcome, 1),
	}
}

// reload refreshes the article list and bookmark state from the store,
// clamping the selection.
func (a *App) reload() {
	list, err := a.articles.GetAllArticles()
	if err != nil {
		a.setStatus(fmt.Sprintf("Failed to load articles: %v", err))
		return
	}
	a.list = list

	// The store is the source of truth for bookmark markers, not this
	// session's saves
	bookmarked, err := a.bookmarks.GetBookmarkedArticleIDs()
	if err != nil {
		slog.Warn("Failed to load bookmark state", "error", err)
	} else {
		a.bookmarked = bookmarked
	}
	if a.selected >= len(a.list) {
		a.selected = len(a.list) - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}

func (a *App) setStatus(text string) {
	a.statusText = text
	a.statusExpiry = time.Now().Add(statusDuration)
}

func (a *App) selectedArticle() *database.Article {
	if a.selected < 0 || a.selected >= len(a.list) {
		return nil
	}
	return &a.list[a.selected]
}

// tick advances the spinner, collects finished background work and expires
// the status line. Called once per render interval.
func (a *App) tick() {
	a.spinner = (a.spinner + 1) % len(spinnerFrames)

	if result := a.orchestrator.PollRefresh(); result != nil {
		if result.Err != nil {
			a.setStatus(fmt.Sprintf("Refresh failed: %v", result.Err))
		} else {
			a.setStatus(fmt.Sprintf("Refreshed %d feeds: %d new, %d suppressed",
				result.Fetched, result.Added, result.Suppressed))
			a.reload()
		}
	}

	if result := a.orchestrator.PollSummarize(); result != nil {
		if result.Err != nil {
			a.setStatus(fmt.Sprintf("Summary failed: %v", result.Err))
		} else {
			a.summaryCache[result.ArticleID] = result.Summary
			a.setStatus("Summary ready")
		}
	}

	if result := a.orchestrator.PollDiscover(); result != nil {
		a.finishDiscover(result)
	}

	select {
	case outcome := <-a.bookmarkDone:
		a.bookmarkBusy = false
		if outcome.err != nil {
			a.setStatus(fmt.Sprintf("Bookmark failed: %v", outcome.err))
		} else {
			a.bookmarked[outcome.articleID] = true
			a.setStatus(fmt.Sprintf("Bookmarked (tags: %s)", strings.Join(outcome.tags, ", ")))
		}
	default:
	}

	if a.statusText != "" && time.Now().After(a.statusExpiry) {
		a.statusText = ""
	}
}

// finishDiscover resolves an add-feed entry: subscribe to every feed the site
// advertises, or fall back to treating the typed URL as the feed itself.
func (a *App) finishDiscover(result *ops.DiscoverResult) {
	typed := a.pendingFeedURL
	a.pendingFeedURL = ""

	if result.Err != nil {
		a.setStatus(fmt.Sprintf("Feed lookup failed: %v", result.Err))
		return
	}

	if len(result.Feeds) == 0 {
		if typed == "" {
			a.setStatus("No feeds found")
			return
		}
		if _, err := a.feeds.InsertFeed(database.NewFeed{Title: typed, URL: typed}); err != nil {
			a.setStatus(fmt.Sprintf("Failed to add feed: %v", err))
			return
		}
		a.setStatus(fmt.Sprintf("Added feed %s (refresh to load)", typed))
		return
	}

	added := 0
	for _, discovered := range result.Feeds {
		existing, err := a.feeds.GetFeedByURL(discovered.URL)
		if err != nil {
			a.setStatus(fmt.Sprintf("Failed to add feed: %v", err))
			return
		}
		if existing != nil {
			continue
		}
		title := discovered.Title
		if title == "" {
			title = discovered.URL
		}
		if _, err := a.feeds.InsertFeed(database.NewFeed{Title: title, URL: discovered.URL, SiteURL: result.SiteURL}); err != nil {
			a.setStatus(fmt.Sprintf("Failed to add feed: %v", err))
			return
		}
		added++
	}
	a.setStatus(fmt.Sprintf("Added %d feeds from %s (refresh to load)", added, result.SiteURL))
}

// apply executes one Command. Returns false when the shell should exit.
func (a *App) apply(cmd Command) bool {
	switch cmd.Action {
	case ActionQuit:
		a.quit = true
		return false

	case ActionMoveDown:
		if a.selected < len(a.list)-1 {
			a.selected++
		}
	case ActionMoveUp:
		if a.selected > 0 {
			a.selected--
		}
	case ActionMoveToTop:
		a.selected = 0
	case ActionMoveToBottom:
		if len(a.list) > 0 {
			a.selected = len(a.list) - 1
		}
	case ActionToggleDetail:
		a.showDetail = !a.showDetail
		if a.showDetail {
			a.loadSummary()
		}

	case ActionRefresh:
		a.startRefresh()
	case ActionRegenerateSummary:
		a.startSummarize()
	case ActionDeleteArticle:
		a.deleteSelected()
	case ActionUndeleteArticle:
		a.undeleteLast()
	case ActionDeleteFeed:
		a.deleteSelectedFeed()
	case ActionOpenInBrowser:
		a.openSelected()
	case ActionEmailArticle:
		a.emailSelected()

	case ActionBookmark:
		if a.selectedArticle() != nil {
			a.mode = ModeTagEntry
			a.inputBuf = nil
		}
	case ActionBookmarkPrefix:
		if a.selectedArticle() != nil {
			a.mode = ModeBookmarkPrefix
		}
	case ActionQuickBookmark:
		a.mode = ModeNormal
		a.startBookmark([]string{cmd.Tag})
	case ActionCancelPrefix:
		a.mode = ModeNormal

	case ActionAddFeed:
		a.mode = ModeFeedEntry
		a.inputBuf = nil
	case ActionImportOpml:
		a.mode = ModeOpmlImportEntry
		a.inputBuf = nil
	case ActionExportOpml:
		a.mode = ModeOpmlExportEntry
		a.inputBuf = nil

	case ActionShowHelp:
		a.mode = ModeHelp
	case ActionHideHelp:
		a.mode = ModeNormal

	case ActionInputChar:
		a.inputBuf = append(a.inputBuf, cmd.Char)
	case ActionInputBackspace:
		if len(a.inputBuf) > 0 {
			a.inputBuf = a.inputBuf[:len(a.inputBuf)-1]
		}
	case ActionInputCancel:
		a.mode = ModeNormal
		a.inputBuf = nil
	case ActionInputConfirm:
		a.confirmInput()
	}
	return true
}

// confirmInput resolves the pending text entry according to the mode that
// opened it.
func (a *App) confirmInput() {
	text := strings.TrimSpace(string(a.inputBuf))
	mode := a.mode
	a.mode = ModeNormal
	a.inputBuf = nil

	switch mode {
	case ModeTagEntry:
		a.startBookmark(splitTags(text))
	case ModeFeedEntry:
		if text == "" {
			return
		}
		if !a.orchestrator.StartDiscover(text) {
			a.setStatus("A feed lookup is already running")
			return
		}
		a.pendingFeedURL = text
		a.setStatus("Looking up feeds...")
	case ModeOpmlImportEntry:
		if text == "" {
			return
		}
		a.importOpml(text)
	case ModeOpmlExportEntry:
		if text == "" {
			return
		}
		a.exportOpml(text)
	}
}

func splitTags(text string) []string {
	var tags []string
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		tags = append(tags, strings.ToLower(part))
	}
	return tags
}

func (a *App) startRefresh() {
	feeds, err := a.feeds.GetAllFeeds()
	if err != nil {
		a.setStatus(fmt.Sprintf("Failed to load feeds: %v", err))
		return
	}
	if len(feeds) == 0 {
		a.setStatus("No feeds to refresh; press a to add one")
		return
	}

	sources := make([]feed.Source, 0, len(feeds))
	for _, f := range feeds {
		sources = append(sources, feed.Source{ID: f.ID, Title: f.Title, URL: f.URL})
	}
	if !a.orchestrator.StartRefresh(sources) {
		a.setStatus("Refresh already running")
		return
	}
	a.setStatus("Refreshing feeds...")
}

func (a *App) startSummarize() {
	article := a.selectedArticle()
	if article == nil {
		return
	}
	if !a.orchestrator.StartSummarize(*article) {
		a.setStatus("Summary already running")
		return
	}
	a.setStatus("Generating summary...")
}

// loadSummary fills the cache for the selected article from the store.
func (a *App) loadSummary() {
	article := a.selectedArticle()
	if article == nil {
		return
	}
	if _, ok := a.summaryCache[article.ID]; ok {
		return
	}
	summary, err := a.summaries.GetSummary(article.ID)
	if err != nil {
		slog.Warn("Failed to load summary", "article_id", article.ID, "error", err)
		return
	}
	if summary != nil {
		a.summaryCache[article.ID] = summary.Content
	}
}

func (a *App) deleteSelected() {
	article := a.selectedArticle()
	if article == nil {
		return
	}
	if err := a.articles.DeleteArticle(article.ID); err != nil {
		a.setStatus(fmt.Sprintf("Delete failed: %v", err))
		return
	}
	a.lastDeleted = &deletedRef{feedID: article.FeedID, guid: article.GUID, title: article.Title}
	delete(a.summaryCache, article.ID)
	delete(a.bookmarked, article.ID)
	a.reload()
	a.setStatus(fmt.Sprintf("Deleted %q (u to restore)", article.Title))
}

func (a *App) undeleteLast() {
	if a.lastDeleted == nil {
		a.setStatus("Nothing to restore")
		return
	}
	if err := a.articles.UndeleteArticle(a.lastDeleted.feedID, a.lastDeleted.guid); err != nil {
		a.setStatus(fmt.Sprintf("Restore failed: %v", err))
		return
	}
	a.setStatus(fmt.Sprintf("Restored %q; it returns on the next refresh", a.lastDeleted.title))
	a.lastDeleted = nil
}

func (a *App) deleteSelectedFeed() {
	article := a.selectedArticle()
	if article == nil {
		return
	}
	if err := a.feeds.DeleteFeed(article.FeedID); err != nil {
		a.setStatus(fmt.Sprintf("Failed to delete feed: %v", err))
		return
	}
	a.reload()
	a.setStatus(fmt.Sprintf("Unsubscribed from %s", article.FeedTitle))
}

// startBookmark saves the selected article remotely on a worker goroutine;
// the outcome is collected by tick.
func (a *App) startBookmark(tags []string) {
	article := a.selectedArticle()
	if article == nil {
		return
	}
	if a.bookmarker == nil {
		a.setStatus("Bookmarking is not configured (set the Raindrop token)")
		return
	}
	if a.bookmarkBusy {
		a.setStatus("A bookmark save is already running")
		return
	}

	a.bookmarkBusy = true
	a.setStatus("Saving bookmark...")

	saved := *article
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		raindropID, err := a.bookmarker.SaveBookmark(ctx, saved.URL, saved.Title, excerpt(saved.ContentText), tags)
		if err == nil {
			err = a.bookmarks.MarkBookmarked(saved.ID, raindropID, tags)
		}
		a.bookmarkDone <- bookmarkOutcome{articleID: saved.ID, raindropID: raindropID, tags: tags, err: err}
	}()
}

func excerpt(text string) string {
	const maxRunes = 300
	r := []rune(text)
	if len(r) <= maxRunes {
		return text
	}
	return string(r[:maxRunes])
}

func (a *App) importOpml(path string) {
	entries, err := opml.ParseFile(path)
	if err != nil {
		a.setStatus(fmt.Sprintf("Import failed: %v", err))
		return
	}

	added, skipped := 0, 0
	for _, entry := range entries {
		existing, err := a.feeds.GetFeedByURL(entry.URL)
		if err != nil {
			a.setStatus(fmt.Sprintf("Import failed: %v", err))
			return
		}
		if existing != nil {
			skipped++
			continue
		}
		title := entry.Title
		if title == "" {
			title = entry.URL
		}
		_, err = a.feeds.InsertFeed(database.NewFeed{
			Title:       title,
			URL:         entry.URL,
			SiteURL:     entry.SiteURL,
			Description: entry.Description,
		})
		if err != nil {
			a.setStatus(fmt.Sprintf("Import failed: %v", err))
			return
		}
		added++
	}
	a.setStatus(fmt.Sprintf("Imported %d feeds (%d already subscribed)", added, skipped))
}

func (a *App) exportOpml(path string) {
	feeds, err := a.feeds.GetAllFeeds()
	if err != nil {
		a.setStatus(fmt.Sprintf("Export failed: %v", err))
		return
	}

	entries := make([]opml.Entry, 0, len(feeds))
	for _, f := range feeds {
		entries = append(entries, opml.Entry{
			Title:       f.Title,
			URL:         f.URL,
			SiteURL:     f.SiteURL,
			Description: f.Description,
		})
	}
	if err := opml.WriteFile(path, "beatcheck subscriptions", entries); err != nil {
		a.setStatus(fmt.Sprintf("Export failed: %v", err))
		return
	}
	a.setStatus(fmt.Sprintf("Exported %d feeds to %s", len(entries), path))
}

func (a *App) openSelected() {
	article := a.selectedArticle()
	if article == nil || article.URL == "" {
		return
	}
	if err := openURL(article.URL); err != nil {
		a.setStatus(fmt.Sprintf("Failed to open browser: %v", err))
		return
	}
	a.setStatus("Opened in browser")
}

func (a *App) emailSelected() {
	article := a.selectedArticle()
	if article == nil {
		return
	}
	body := article.URL
	if summary, ok := a.summaryCache[article.ID]; ok {
		body = summary + "\n\n" + article.URL
	}
	if err := openURL(mailtoURL(article.Title, body)); err != nil {
		a.setStatus(fmt.Sprintf("Failed to open mail client: %v", err))
		return
	}
	a.setStatus("Opened mail client")
}
