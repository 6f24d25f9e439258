// Package opml reads and writes feed subscription lists in OPML 2.0 format.
package opml

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"
)

// Entry is one subscribed feed in an OPML document.
type Entry struct {
	Title       string
	URL         string
	SiteURL     string
	Description string
}

type document struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    head     `xml:"head"`
	Body    body     `xml:"body"`
}

type head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text        string    `xml:"text,attr"`
	Type        string    `xml:"type,attr,omitempty"`
	XMLURL      string    `xml:"xmlUrl,attr,omitempty"`
	HTMLURL     string    `xml:"htmlUrl,attr,omitempty"`
	Description string    `xml:"description,attr,omitempty"`
	Outlines    []outline `xml:"outline"`
}

// Parse extracts feed entries from an OPML document. Outlines are walked
// recursively so feeds nested under category folders are found too; outlines
// without an xmlUrl attribute are containers, not feeds.
func Parse(data []byte) ([]Entry, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML document: %w", err)
	}

	var entries []Entry
	collectEntries(doc.Body.Outlines, &entries)
	return entries, nil
}

// ParseFile reads and parses the OPML file at path.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OPML file: %w", err)
	}
	return Parse(data)
}

func collectEntries(outlines []outline, entries *[]Entry) {
	for _, o := range outlines {
		if o.XMLURL != "" {
			*entries = append(*entries, Entry{
				Title:       o.Text,
				URL:         o.XMLURL,
				SiteURL:     o.HTMLURL,
				Description: o.Description,
			})
		}
		if len(o.Outlines) > 0 {
			collectEntries(o.Outlines, entries)
		}
	}
}

// Render produces a flat OPML 2.0 document listing the given entries.
func Render(title string, entries []Entry) ([]byte, error) {
	doc := document{
		Version: "2.0",
		Head: head{
			Title:       title,
			DateCreated: time.Now().UTC().Format(time.RFC1123Z),
		},
	}
	for _, e := range entries {
		doc.Body.Outlines = append(doc.Body.Outlines, outline{
			Text:        e.Title,
			Type:        "rss",
			XMLURL:      e.URL,
			HTMLURL:     e.SiteURL,
			Description: e.Description,
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render OPML document: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// WriteFile renders entries and writes the document to path.
func WriteFile(path, title string, entries []Entry) error {
	data, err := Render(title, entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write OPML file: %w", err)
	}
	return nil
}
