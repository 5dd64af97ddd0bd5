package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Launcher opens photo URLs in an external viewer or browser
type Launcher struct {
	command string   // configured viewer command, empty for system default
	args    []string // additional arguments for the viewer
	logger  *slog.Logger

	// Replaced in tests
	goos     string
	lookPath func(file string) (string, error)
	start    func(cmd *exec.Cmd) error
}

// openers lists the system default handlers to try per platform, in order.
// The URL is appended as the final argument. On Windows it must not pass
// through cmd.exe, which splits on & and other metacharacters.
var openers = map[string][][]string{
	"darwin":  {{"open"}},
	"windows": {{"rundll32", "url.dll,FileProtocolHandler"}},
	"linux":   {{"xdg-open"}, {"gio", "open"}, {"sensible-browser"}},
}

// NewLauncher creates a new Launcher
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  command,
		args:     args,
		logger:   logger,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		start:    func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

// Launch opens a URL in the configured viewer or the system default
func (l *Launcher) Launch(url string) error {
	if url == "" {
		return fmt.Errorf("no URL to open")
	}

	// Tier 1: User configured a specific viewer
	if l.command != "" {
		args := append(append([]string{}, l.args...), url)
		l.logger.Info("launching viewer", "command", l.command, "args", args)
		return l.start(exec.Command(l.command, args...))
	}

	// Tier 2: System default handler
	return l.launchDefault(url)
}

// launchDefault opens the URL using the first available system handler
func (l *Launcher) launchDefault(url string) error {
	candidates, ok := openers[l.goos]
	if !ok {
		candidates = openers["linux"] // default
	}

	var lastErr error
	for _, opener := range candidates {
		if _, err := l.lookPath(opener[0]); err != nil {
			l.logger.Debug("opener not available", "opener", opener[0], "error", err)
			lastErr = err
			continue
		}

		args := append(append([]string{}, opener[1:]...), url)
		l.logger.Info("launching with system default", "os", l.goos, "opener", opener[0], "url", url)
		if err := l.start(exec.Command(opener[0], args...)); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("no system opener found: %w", lastErr)
}
