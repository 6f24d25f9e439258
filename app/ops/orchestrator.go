package ops

import (
	"context"
	"log/slog"
	"time"

	"github.com/leolaporte/beatcheck/app/database"
	"github.com/leolaporte/beatcheck/app/feed"
)

// If the stored text is shorter than this, summarization first tries a
// readable-text extraction of the article page.
const minSummaryInputBytes = 500

// Operations time out as a whole; individual network calls carry their own
// shorter timeouts.
const operationTimeout = 5 * time.Minute

type FeedStore interface {
	UpdateFeedLastFetched(id int64) error
}

type ArticleStore interface {
	UpsertArticle(article database.NewArticle) (int64, bool, error)
}

type SummaryStore interface {
	SaveSummary(articleID int64, content, modelVersion string) error
}

type Fetcher interface {
	RefreshAll(ctx context.Context, sources []feed.Source) []feed.Result
	Discover(ctx context.Context, siteURL string) ([]feed.Discovered, error)
}

type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, title, content string) (string, error)
	ModelVersion() string
}

type TextExtractor interface {
	ExtractText(ctx context.Context, pageURL string) (string, error)
}

// RefreshResult is the terminal state of one refresh operation.
type RefreshResult struct {
	Fetched    int // feeds that returned a result group
	Added      int // candidates created or updated
	Suppressed int // candidates suppressed by tombstones or the blocklist
	Err        error
}

// SummarizeResult is the terminal state of one summarize operation.
type SummarizeResult struct {
	ArticleID int64
	Summary   string
	Err       error
}

// DiscoverResult is the terminal state of one feed-discovery operation.
type DiscoverResult struct {
	SiteURL string
	Feeds   []feed.Discovered
	Err     error
}

// Orchestrator runs slow network-bound operations off the render thread.
// One slot per operation class; starting a class that is already running is
// a no-op returning false, so concurrent instances of one class can never
// race writes into the store. The render loop discovers outcomes through
// the non-blocking Poll methods.
type Orchestrator struct {
	fetcher    Fetcher
	filter     *feed.Filter
	summarizer SummaryGenerator
	extractor  TextExtractor
	feeds      FeedStore
	articles   ArticleStore
	summaries  SummaryStore

	refresh   *slot[RefreshResult]
	summarize *slot[SummarizeResult]
	discover  *slot[DiscoverResult]
}

func NewOrchestrator(fetcher Fetcher, filter *feed.Filter, summarizer SummaryGenerator,
	extractor TextExtractor, feeds FeedStore, articles ArticleStore, summaries SummaryStore) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		filter:     filter,
		summarizer: summarizer,
		extractor:  extractor,
		feeds:      feeds,
		articles:   articles,
		summaries:  summaries,
		refresh:    newSlot[RefreshResult](),
		summarize:  newSlot[SummarizeResult](),
		discover:   newSlot[DiscoverResult](),
	}
}

// StartRefresh fetches all sources with bounded parallelism and reconciles
// every candidate against the store. Individual feed failures are absorbed
// by the pipeline; only a store failure makes the operation fail. All store
// writes complete before the result becomes observable via PollRefresh.
func (o *Orchestrator) StartRefresh(sources []feed.Source) bool {
	return o.refresh.start(func() RefreshResult {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()

		started := time.Now()
		results := o.fetcher.RefreshAll(ctx, sources)

		var result RefreshResult
		result.Fetched = len(results)

		for _, group := range results {
			kept := o.filter.Run(group.Candidates)
			result.Suppressed += len(group.Candidates) - len(kept)

			for _, candidate := range kept {
				_, ok, err := o.articles.UpsertArticle(database.NewArticle{
					FeedID:      candidate.FeedID,
					GUID:        candidate.GUID,
					Title:       candidate.Title,
					URL:         candidate.URL,
					Author:      candidate.Author,
					Content:     candidate.Content,
					ContentText: candidate.ContentText,
					PublishedAt: candidate.PublishedAt,
				})
				if err != nil {
					result.Err = err
					return result
				}
				if ok {
					result.Added++
				} else {
					result.Suppressed++
				}
			}

			if err := o.feeds.UpdateFeedLastFetched(group.FeedID); err != nil {
				result.Err = err
				return result
			}
		}

		slog.Info("Refresh completed",
			"feeds", len(sources),
			"fetched", result.Fetched,
			"added", result.Added,
			"suppressed", result.Suppressed,
			"duration", time.Since(started))

		return result
	})
}

// PollRefresh returns the refresh outcome once, nil while idle or running.
func (o *Orchestrator) PollRefresh() *RefreshResult {
	if result, ok := o.refresh.poll(); ok {
		return &result
	}
	return nil
}

// RefreshRunning reports whether a refresh is in flight.
func (o *Orchestrator) RefreshRunning() bool {
	return o.refresh.busy()
}

// StartSummarize generates and persists a summary for the article. A
// service error surfaces in the result and writes nothing.
func (o *Orchestrator) StartSummarize(article database.Article) bool {
	return o.summarize.start(func() SummarizeResult {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()

		result := SummarizeResult{ArticleID: article.ID}

		text := o.summaryInput(ctx, article)

		summary, err := o.summarizer.GenerateSummary(ctx, article.Title, text)
		if err != nil {
			result.Err = err
			return result
		}

		if err := o.summaries.SaveSummary(article.ID, summary, o.summarizer.ModelVersion()); err != nil {
			result.Err = err
			return result
		}

		result.Summary = summary
		return result
	})
}

// summaryInput picks the text to summarize: stored plain text, else raw
// content. When the stored text is only a snippet, try extracting the full
// page first; extraction failure falls back silently.
func (o *Orchestrator) summaryInput(ctx context.Context, article database.Article) string {
	text := article.ContentText
	if text == "" {
		text = article.Content
	}

	if o.extractor != nil && len(text) < minSummaryInputBytes && article.URL != "" {
		extracted, err := o.extractor.ExtractText(ctx, article.URL)
		if err != nil {
			slog.Debug("Page extraction failed, using feed content", "url", article.URL, "error", err)
		} else if len(extracted) > len(text) {
			text = extracted
		}
	}

	return text
}

// PollSummarize returns the summarize outcome once, nil while idle or running.
func (o *Orchestrator) PollSummarize() *SummarizeResult {
	if result, ok := o.summarize.poll(); ok {
		return &result
	}
	return nil
}

// SummarizeRunning reports whether a summarize is in flight.
func (o *Orchestrator) SummarizeRunning() bool {
	return o.summarize.busy()
}

// StartDiscover probes a site for feed endpoints.
func (o *Orchestrator) StartDiscover(siteURL string) bool {
	return o.discover.start(func() DiscoverResult {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()

		result := DiscoverResult{SiteURL: siteURL}
		result.Feeds, result.Err = o.fetcher.Discover(ctx, siteURL)
		return result
	})
}

// PollDiscover returns the discovery outcome once, nil while idle or running.
func (o *Orchestrator) PollDiscover() *DiscoverResult {
	if result, ok := o.discover.poll(); ok {
		return &result
	}
	return nil
}

// DiscoverRunning reports whether a discovery is in flight.
func (o *Orchestrator) DiscoverRunning() bool {
	return o.discover.busy()
}
