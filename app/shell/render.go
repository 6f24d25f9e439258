package shell

import (
	"fmt"
	"io"
	"strings"
)

const (
	ansiClear   = "\x1b[2J\x1b[H"
	ansiReset   = "\x1b[0m"
	ansiBold    = "\x1b[1m"
	ansiDim     = "\x1b[2m"
	ansiReverse = "\x1b[7m"
)

// draw renders the full screen for one tick.
func (a *App) draw(w io.Writer, width, height int) {
	var b strings.Builder
	b.WriteString(ansiClear)

	if a.mode == ModeHelp {
		drawHelp(&b)
		fmt.Fprint(w, b.String())
		return
	}

	a.drawHeader(&b, width)

	listHeight := height - 3
	if a.showDetail {
		listHeight = height/2 - 2
	}
	if listHeight < 1 {
		listHeight = 1
	}
	a.drawList(&b, width, listHeight)

	if a.showDetail {
		a.drawDetail(&b, width, height-listHeight-3)
	}

	a.drawFooter(&b, width)
	fmt.Fprint(w, b.String())
}

func (a *App) drawHeader(b *strings.Builder, width int) {
	busy := ""
	if a.orchestrator.RefreshRunning() || a.orchestrator.SummarizeRunning() ||
		a.orchestrator.DiscoverRunning() || a.bookmarkBusy {
		busy = " " + spinnerFrames[a.spinner]
	}
	header := fmt.Sprintf("beatcheck - %d articles%s", len(a.list), busy)
	b.WriteString(ansiBold + clip(header, width) + ansiReset + "\r\n")
	b.WriteString(ansiDim + clip(strings.Repeat("─", width), width) + ansiReset + "\r\n")
}

func (a *App) drawList(b *strings.Builder, width, listHeight int) {
	if len(a.list) == 0 {
		b.WriteString("  No articles. Press r to refresh or a to add a feed.\r\n")
		return
	}

	// Keep the selection inside the visible window
	first := 0
	if a.selected >= listHeight {
		first = a.selected - listHeight + 1
	}

	for i := first; i < len(a.list) && i < first+listHeight; i++ {
		article := a.list[i]

		marker := " "
		if a.bookmarked[article.ID] {
			marker = "*"
		}
		date := "          "
		if article.PublishedAt != nil {
			date = article.PublishedAt.Format("2006-01-02")
		}
		line := fmt.Sprintf(" %s %s  %-20s  %s", marker, date, clip(article.FeedTitle, 20), article.Title)

		if i == a.selected {
			b.WriteString(ansiReverse + pad(clip(line, width), width) + ansiReset + "\r\n")
		} else {
			b.WriteString(clip(line, width) + "\r\n")
		}
	}
}

func (a *App) drawDetail(b *strings.Builder, width, detailHeight int) {
	article := a.selectedArticle()
	if article == nil || detailHeight < 2 {
		return
	}

	b.WriteString(ansiDim + clip(strings.Repeat("─", width), width) + ansiReset + "\r\n")
	b.WriteString(ansiBold + clip(article.Title, width) + ansiReset + "\r\n")

	body := article.ContentText
	if summary, ok := a.summaryCache[article.ID]; ok {
		body = summary
	}

	lines := wrap(body, width)
	for i := 0; i < len(lines) && i < detailHeight-2; i++ {
		b.WriteString(lines[i] + "\r\n")
	}
}

func (a *App) drawFooter(b *strings.Builder, width int) {
	switch a.mode {
	case ModeTagEntry:
		b.WriteString(clip("Tags: "+string(a.inputBuf), width))
	case ModeFeedEntry:
		b.WriteString(clip("Add feed URL: "+string(a.inputBuf), width))
	case ModeOpmlImportEntry:
		b.WriteString(clip("Import OPML from: "+string(a.inputBuf), width))
	case ModeOpmlExportEntry:
		b.WriteString(clip("Export OPML to: "+string(a.inputBuf), width))
	case ModeBookmarkPrefix:
		b.WriteString(clip("Quick bookmark: t=twit i=im m=mbw (esc cancels)", width))
	default:
		if a.statusText != "" {
			b.WriteString(clip(a.statusText, width))
		} else {
			b.WriteString(ansiDim + clip("j/k move  enter detail  r refresh  g summarize  b bookmark  ? help  q quit", width) + ansiReset)
		}
	}
}

func drawHelp(b *strings.Builder) {
	help := []string{
		"beatcheck keys",
		"",
		"  j/k, arrows   move selection",
		"  < / >         jump to top / bottom",
		"  enter         toggle article detail",
		"  r             refresh all feeds",
		"  g             generate or regenerate summary",
		"  d, backspace  delete article (stays deleted)",
		"  u             restore the last deleted article",
		"  a             add feed (URL or site for discovery)",
		"  D             unsubscribe from the selected article's feed",
		"  b             bookmark with tags",
		"  space t/i/m   quick bookmark with a preset tag",
		"  i             import OPML file",
		"  w             export OPML file",
		"  o             open in browser",
		"  e             email article",
		"  q, ctrl-c     quit",
		"",
		"  press any key to close",
	}
	for _, line := range help {
		b.WriteString(line + "\r\n")
	}
}

// clip truncates to width terminal cells, assuming one cell per rune.
func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width < 1 {
		return ""
	}
	return string(r[:width-1]) + "…"
}

func pad(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// wrap breaks text into lines at word boundaries.
func wrap(text string, width int) []string {
	if width < 10 {
		width = 10
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len([]rune(line))+1+len([]rune(word)) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return lines
}
