package shell

import "unicode/utf8"

// InputMode is the shell's current key-interpretation mode. Exactly one mode
// is active; text entry modes capture all printable keys.
type InputMode int

const (
	ModeNormal InputMode = iota
	ModeTagEntry
	ModeFeedEntry
	ModeOpmlImportEntry
	ModeOpmlExportEntry
	ModeBookmarkPrefix
	ModeHelp
)

type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionMoveUp
	ActionMoveDown
	ActionMoveToTop
	ActionMoveToBottom
	ActionToggleDetail
	ActionRefresh
	ActionOpenInBrowser
	ActionEmailArticle
	ActionBookmark      // prompt for tags, then save
	ActionQuickBookmark // save immediately with a preset tag
	ActionRegenerateSummary
	ActionDeleteArticle
	ActionDeleteFeed
	ActionUndeleteArticle
	ActionAddFeed
	ActionImportOpml
	ActionExportOpml
	ActionShowHelp
	ActionHideHelp
	ActionBookmarkPrefix
	ActionCancelPrefix
	ActionInputChar
	ActionInputBackspace
	ActionInputConfirm
	ActionInputCancel
)

// Command is an Action plus its payload, if any.
type Command struct {
	Action Action
	Char   rune   // ActionInputChar
	Tag    string // ActionQuickBookmark
}

type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyUp
	KeyDown
	KeyCtrlC
)

// Key is one decoded terminal key press.
type Key struct {
	Kind KeyKind
	Rune rune
}

// MapKey translates a key press into a Command under the given mode.
func MapKey(mode InputMode, key Key) Command {
	// Help: any key dismisses it
	if mode == ModeHelp {
		return Command{Action: ActionHideHelp}
	}

	// Space prefix: waiting for the second key of a quick bookmark
	if mode == ModeBookmarkPrefix {
		if key.Kind == KeyRune {
			switch key.Rune {
			case 't':
				return Command{Action: ActionQuickBookmark, Tag: "twit"}
			case 'i':
				return Command{Action: ActionQuickBookmark, Tag: "im"}
			case 'm':
				return Command{Action: ActionQuickBookmark, Tag: "mbw"}
			}
		}
		// Any other key cancels
		return Command{Action: ActionCancelPrefix}
	}

	// Text entry modes share one key map
	if mode == ModeTagEntry || mode == ModeFeedEntry || mode == ModeOpmlImportEntry || mode == ModeOpmlExportEntry {
		switch key.Kind {
		case KeyEnter:
			return Command{Action: ActionInputConfirm}
		case KeyEscape:
			return Command{Action: ActionInputCancel}
		case KeyBackspace:
			return Command{Action: ActionInputBackspace}
		case KeyRune:
			return Command{Action: ActionInputChar, Char: key.Rune}
		}
		return Command{}
	}

	switch key.Kind {
	case KeyCtrlC:
		return Command{Action: ActionQuit}
	case KeyDown:
		return Command{Action: ActionMoveDown}
	case KeyUp:
		return Command{Action: ActionMoveUp}
	case KeyEnter:
		return Command{Action: ActionToggleDetail}
	case KeyBackspace:
		return Command{Action: ActionDeleteArticle}
	case KeyRune:
		switch key.Rune {
		case 'q':
			return Command{Action: ActionQuit}
		case 'j':
			return Command{Action: ActionMoveDown}
		case 'k':
			return Command{Action: ActionMoveUp}
		case '<':
			return Command{Action: ActionMoveToTop}
		case '>':
			return Command{Action: ActionMoveToBottom}
		case 'r':
			return Command{Action: ActionRefresh}
		case 'o':
			return Command{Action: ActionOpenInBrowser}
		case 'e':
			return Command{Action: ActionEmailArticle}
		case 'b':
			return Command{Action: ActionBookmark}
		case ' ':
			return Command{Action: ActionBookmarkPrefix}
		case 'g':
			return Command{Action: ActionRegenerateSummary}
		case 'd':
			return Command{Action: ActionDeleteArticle}
		case 'D':
			return Command{Action: ActionDeleteFeed}
		case 'u':
			return Command{Action: ActionUndeleteArticle}
		case 'a':
			return Command{Action: ActionAddFeed}
		case 'i':
			return Command{Action: ActionImportOpml}
		case 'w':
			return Command{Action: ActionExportOpml}
		case '?':
			return Command{Action: ActionShowHelp}
		}
	}
	return Command{}
}

// decodeKeys decodes every key press in a raw-mode input chunk. Pasted text
// and fast typing arrive many bytes per read, so a chunk can hold many keys.
func decodeKeys(buf []byte) []Key {
	var keys []Key
	for len(buf) > 0 {
		key, consumed, ok := decodeKey(buf)
		if consumed == 0 {
			return keys
		}
		buf = buf[consumed:]
		if ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// decodeKey consumes one key press from the front of the chunk, returning
// the number of bytes consumed. ok is false for bytes that map to no key
// (unknown escape sequences, stray control bytes); they are still consumed
// so the rest of the chunk is not lost.
func decodeKey(buf []byte) (Key, int, bool) {
	if len(buf) == 0 {
		return Key{}, 0, false
	}

	switch buf[0] {
	case 0x03:
		return Key{Kind: KeyCtrlC}, 1, true
	case '\r', '\n':
		return Key{Kind: KeyEnter}, 1, true
	case 0x7f, 0x08:
		return Key{Kind: KeyBackspace}, 1, true
	case 0x1b:
		if len(buf) >= 3 && buf[1] == '[' {
			switch buf[2] {
			case 'A':
				return Key{Kind: KeyUp}, 3, true
			case 'B':
				return Key{Kind: KeyDown}, 3, true
			}
			return Key{}, 3, false
		}
		return Key{Kind: KeyEscape}, 1, true
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		return Key{}, 1, false
	}
	if r < 0x20 {
		return Key{}, size, false
	}
	return Key{Kind: KeyRune, Rune: r}, size, true
}
