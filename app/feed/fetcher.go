package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

type Fetcher struct {
	httpClient    *http.Client
	parser        *Parser
	userAgent     string
	maxConcurrent int
}

// NewFetcher builds a fetcher with a connect timeout, an overall request
// timeout, and a cap on simultaneous in-flight fetches during a refresh.
func NewFetcher(parser *Parser, userAgent string, connectTimeout, fetchTimeout time.Duration, maxConcurrent int) *Fetcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		},
		parser:        parser,
		userAgent:     userAgent,
		maxConcurrent: maxConcurrent,
	}
}

// Fetch retrieves and parses one feed document. A non-2xx status or a
// malformed document is this feed's failure only.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Metadata, []Candidate, error) {
	data, err := f.get(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	metadata, candidates, err := f.parser.Run(data)
	if err != nil {
		return nil, nil, err
	}

	return metadata, candidates, nil
}

// RefreshAll fetches every source with bounded parallelism and returns one
// result group per feed that succeeded. Failed feeds are logged and omitted;
// refresh of N feeds with K failures is not an error for the caller.
func (f *Fetcher) RefreshAll(ctx context.Context, sources []Source) []Result {
	sem := make(chan struct{}, f.maxConcurrent)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Result
	)

	for _, source := range sources {
		wg.Add(1)
		go func(source Source) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			_, candidates, err := f.Fetch(ctx, source.URL)
			if err != nil {
				slog.Warn("Feed fetch failed", "feed", source.Title, "url", source.URL, "error", err)
				return
			}

			for i := range candidates {
				candidates[i].FeedID = source.ID
			}

			slog.Debug("Feed fetched", "feed", source.Title, "candidates", len(candidates))

			mu.Lock()
			results = append(results, Result{FeedID: source.ID, Candidates: candidates})
			mu.Unlock()
		}(source)
	}

	wg.Wait()
	return results
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
