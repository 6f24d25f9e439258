package shell

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

const tickInterval = 100 * time.Millisecond

// Run enters raw mode and drives the event loop until quit. The terminal is
// always restored, including on error.
func (a *App) Run() error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	// Alternate screen, hidden cursor
	fmt.Print("\x1b[?1049h\x1b[?25l")
	defer fmt.Print("\x1b[?25h\x1b[?1049l")

	keys := make(chan Key, 8)
	go readKeys(os.Stdin, keys)

	a.reload()
	a.startRefresh()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for !a.quit {
		select {
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			a.apply(MapKey(a.mode, key))
		case <-ticker.C:
		}

		a.tick()

		width, height, err := term.GetSize(fd)
		if err != nil {
			width, height = 80, 24
		}
		a.draw(os.Stdout, width, height)
	}
	return nil
}

// readKeys decodes raw input chunks into key presses. Closes the channel on
// read error (stdin gone).
func readKeys(r io.Reader, keys chan<- Key) {
	defer close(keys)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		for _, key := range decodeKeys(buf[:n]) {
			keys <- key
		}
	}
}
