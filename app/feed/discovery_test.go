package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscoverAdvertisedFeed(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><head>
			<link rel="alternate" type="application/rss+xml" href="/custom/feed.xml">
			<link rel="alternate" type="text/html" href="/about">
		</head><body></body></html>`)
	})
	mux.HandleFunc("/custom/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Advertised Feed</title></channel></rss>`)
	})

	fetcher := newTestFetcher(2)
	discovered, err := fetcher.Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(discovered) != 1 {
		t.Fatalf("Expected 1 discovered feed, got %d: %+v", len(discovered), discovered)
	}
	if discovered[0].Title != "Advertised Feed" {
		t.Errorf("Expected title from the feed document, got %q", discovered[0].Title)
	}
	if discovered[0].URL != server.URL+"/custom/feed.xml" {
		t.Errorf("Expected resolved feed URL, got %q", discovered[0].URL)
	}
}

func TestDiscoverWellKnownPath(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			fmt.Fprint(w, "<html><head></head><body>no links here</body></html>")
			return
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/atom.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Conventional Feed</title><updated>2023-07-03T12:00:00Z</updated></feed>`)
	})

	fetcher := newTestFetcher(2)
	discovered, err := fetcher.Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(discovered) != 1 {
		t.Fatalf("Expected 1 discovered feed, got %d: %+v", len(discovered), discovered)
	}
	if discovered[0].Title != "Conventional Feed" {
		t.Errorf("Expected 'Conventional Feed', got %q", discovered[0].Title)
	}
}

func TestDiscoverNothingFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := newTestFetcher(2)
	discovered, err := fetcher.Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(discovered) != 0 {
		t.Errorf("Expected no feeds, got %+v", discovered)
	}
}
