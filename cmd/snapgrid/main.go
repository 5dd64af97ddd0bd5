package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mmcdole/snapgrid/internal/adapter"
	"github.com/mmcdole/snapgrid/internal/adapter/source/unsplash"
	"github.com/mmcdole/snapgrid/internal/domain"
	"github.com/mmcdole/snapgrid/internal/imageload"
	"github.com/mmcdole/snapgrid/internal/metrics"
	"github.com/mmcdole/snapgrid/internal/service"
	"github.com/mmcdole/snapgrid/internal/store"
	"github.com/mmcdole/snapgrid/internal/tui"
	"github.com/mmcdole/snapgrid/internal/tui/styles"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

func main() {
	var showVersion, clearCache bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&clearCache, "clear-cache", false, "delete cached images and search history, then exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("snapgrid %s\n", Version)
		return
	}

	var err error
	if clearCache {
		err = runClearCache()
	} else {
		err = run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting snapgrid", "version", Version)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("snapgrid needs an interactive terminal")
	}

	// Check if configured
	if !cfg.IsConfigured() {
		return runSetupFlow(cfg, logger)
	}

	// Persistent store (memory-only when caching is off)
	cacheDir := ""
	if cfg.Cache.Enabled {
		cacheDir = cfg.Cache.Dir
	}
	st, err := store.Open(cacheDir)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer st.Close()

	m := metrics.New()
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, m, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	client := newSearchClient(cfg, logger, unsplash.WithMetrics(m))
	decoder := unsplash.NewDecoder(logger)
	dispatcher := tui.NewChannelDispatcher(16)

	// Create services
	searchSvc := service.NewSearchService(client, decoder, dispatcher, logger)
	searchSvc.SetMetrics(m)
	historySvc := service.NewHistoryService(st, cfg.History.MaxEntries, logger)

	images := imageload.New(st, logger, imageload.WithMetrics(m))
	launcher := adapter.NewLauncher(cfg.Viewer.Command, cfg.Viewer.Args, logger)

	// Create TUI model
	model := tui.NewModel(searchSvc, historySvc, images, launcher, dispatcher, tui.Options{
		Columns: cfg.UI.GridColumns,
		ShowIDs: cfg.UI.ShowIDs,
	})

	// Run the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func newSearchClient(cfg *adapter.Config, logger *slog.Logger, opts ...unsplash.Option) *unsplash.Client {
	opts = append(opts,
		unsplash.WithPerPage(cfg.Unsplash.PerPage),
		unsplash.WithTimeout(cfg.Unsplash.Timeout),
	)
	return unsplash.NewClient(cfg.Unsplash.URL, cfg.Unsplash.AccessKey, logger, opts...)
}

// serveMetrics exposes /metrics on addr until shut down
func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", "addr", addr, "error", err)
		}
	}()
	return srv
}

// runClearCache reports what is cached, then deletes it
func runClearCache() error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		dir = adapter.GetCachePath()
	}

	if _, err := os.Stat(dir); err == nil {
		st, err := store.Open(dir)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		count, size := st.ImageStats()
		st.Close()
		fmt.Printf("Removing %s cached images (%s) from %s\n", humanize.Comma(int64(count)), humanize.Bytes(uint64(size)), dir)
	}

	if err := adapter.ClearCache(dir); err != nil {
		return err
	}
	fmt.Println("✓ Cache cleared")
	return nil
}

// runSetupFlow handles the initial setup when no access key is configured
func runSetupFlow(cfg *adapter.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to snapgrid!")
	fmt.Println()
	fmt.Println("snapgrid needs an Unsplash access key: https://unsplash.com/developers")
	fmt.Println()

	for {
		key, err := readAccessKey()
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if key == "" {
			fmt.Println("Access key cannot be empty. Please try again.")
			continue
		}

		cfg.Unsplash.AccessKey = key
		fmt.Println()
		if err := verifyKeyWithSpinner(cfg, logger); err != nil {
			fmt.Printf("✗ %v\n", err)
			if errors.Is(err, domain.ErrAuthFailed) {
				fmt.Println("Please check the key and try again.")
				fmt.Println()
				continue
			}
			return err
		}
		break
	}

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run snapgrid again to start the application.")

	return nil
}

// readAccessKey prompts for the key without echoing it when stdin is a terminal
func readAccessKey() (string, error) {
	fmt.Print("Enter your access key: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	input, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// verifyKeyWithSpinner runs one search with the configured key
func verifyKeyWithSpinner(cfg *adapter.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := newSearchClient(cfg, logger)

	resultCh := make(chan error, 1)
	go func() {
		_, err := client.Fetch(ctx, "nature")
		resultCh <- err
	}()

	frame := 0
	fmt.Printf("\r%s Checking access key...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Println("✓ Access key accepted")
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Checking access key...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("access key check timed out")
		}
	}
}
