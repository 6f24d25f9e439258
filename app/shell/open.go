package shell

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// openURL hands a URL to the desktop's default handler without waiting for
// the spawned program.
func openURL(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	go cmd.Wait()
	return nil
}

// mailtoURL composes a mailto link with the given subject and body.
func mailtoURL(subject, body string) string {
	return fmt.Sprintf("mailto:?subject=%s&body=%s", mailtoEscape(subject), mailtoEscape(body))
}

// mailtoEscape percent-encodes for the mailto query part; '+' is not a space
// there, so spaces must be %20.
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
