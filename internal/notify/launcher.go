package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Launcher opens a URL with the desktop's browser.
type Launcher struct {
	// Command overrides the platform default opener.
	Command string
}

// Open starts the opener and returns without waiting for it; the browser
// must outlive the request that asked for it.
func (l Launcher) Open(_ context.Context, target string) error {
	name, args := l.command(target)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s with %s: %w", target, name, err)
	}
	slog.Info("Opened dashboard surface", slog.String("target", target))
	go func() { _ = cmd.Wait() }()
	return nil
}

func (l Launcher) command(target string) (string, []string) {
	if l.Command != "" {
		return l.Command, []string{target}
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}
