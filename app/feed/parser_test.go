package feed

import (
	"testing"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>&lt;p&gt;Hello &lt;b&gt;world&lt;/b&gt;&lt;/p&gt;</description>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <author>test@example.com (Test Author)</author>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
      <guid>item-2</guid>
      <pubDate>Mon, 03 Jul 2023 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	metadata, candidates, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", metadata.Title)
	}
	if metadata.SiteURL != "https://example.com" {
		t.Errorf("Expected site URL 'https://example.com', got: %s", metadata.SiteURL)
	}

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got: %d", len(candidates))
	}

	item1 := candidates[0]
	if item1.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got: %s", item1.GUID)
	}
	if item1.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %s", item1.Title)
	}
	if item1.ContentText != "Hello world" {
		t.Errorf("Expected stripped text 'Hello world', got: %q", item1.ContentText)
	}
	if item1.PublishedAt == nil {
		t.Error("Expected published time to be set")
	}
}

func TestParseAtomContentPreferredOverSummary(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <entry>
    <title>Entry</title>
    <id>entry-1</id>
    <link href="https://example.com/entry1"/>
    <updated>2023-07-03T11:00:00Z</updated>
    <summary>Short summary</summary>
    <content type="html">&lt;p&gt;Full content&lt;/p&gt;</content>
  </entry>
</feed>`

	parser := NewParser()
	_, candidates, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got: %d", len(candidates))
	}
	if candidates[0].Content != "<p>Full content</p>" {
		t.Errorf("Expected structured content to win, got: %q", candidates[0].Content)
	}
	if candidates[0].ContentText != "Full content" {
		t.Errorf("Expected plain text 'Full content', got: %q", candidates[0].ContentText)
	}
}

func TestParsePublishedFallsBackToUpdated(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <updated>2023-07-03T12:00:00Z</updated>
  <entry>
    <title>Entry</title>
    <id>entry-1</id>
    <updated>2023-07-03T11:00:00Z</updated>
  </entry>
</feed>`

	parser := NewParser()
	_, candidates, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if candidates[0].PublishedAt == nil {
		t.Fatal("Expected updated timestamp to back-fill published time")
	}
	if got := candidates[0].PublishedAt.UTC().Format("2006-01-02T15:04:05Z"); got != "2023-07-03T11:00:00Z" {
		t.Errorf("Expected 2023-07-03T11:00:00Z, got: %s", got)
	}
}

func TestParseMissingTitleAndGUID(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item>
      <description>No title, no guid, no link</description>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	_, candidates, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if candidates[0].Title != "Untitled" {
		t.Errorf("Expected placeholder title, got: %q", candidates[0].Title)
	}
	if candidates[0].GUID == "" {
		t.Error("Expected a derived dedup key for an entry without identifier")
	}

	// The derived key must be deterministic across parses
	_, again, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if candidates[0].GUID != again[0].GUID {
		t.Errorf("Derived key not deterministic: %q vs %q", candidates[0].GUID, again[0].GUID)
	}
}

func TestParseGUIDFallsBackToLink(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Feed</title>
    <item>
      <title>Item</title>
      <link>https://example.com/item</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	_, candidates, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if candidates[0].GUID != "https://example.com/item" {
		t.Errorf("Expected link as GUID fallback, got: %q", candidates[0].GUID)
	}
}

func TestParseMalformedDocument(t *testing.T) {
	parser := NewParser()
	_, _, err := parser.Run([]byte("this is not a feed"))
	if err == nil {
		t.Error("Expected error for malformed document")
	}
}
