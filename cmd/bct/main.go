// Package main is the entry point for the bus counter dashboard.
// It loads configuration, starts the services and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/bus-counter-tui/internal/app"
	"github.com/j-veylop/bus-counter-tui/internal/config"
	"github.com/j-veylop/bus-counter-tui/internal/logger"
	"github.com/j-veylop/bus-counter-tui/internal/mapview"
	"github.com/j-veylop/bus-counter-tui/internal/services"
	"github.com/j-veylop/bus-counter-tui/internal/ui/components"
	"github.com/j-veylop/bus-counter-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/bus-counter-tui/internal/ui/tabs/fleetmap"
	"github.com/j-veylop/bus-counter-tui/internal/ui/tabs/info"
	"github.com/j-veylop/bus-counter-tui/internal/ui/tabs/records"
	"github.com/j-veylop/bus-counter-tui/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(cfg.DatabasePath), "bus-counter.log")
	}
	logCloser, err := logger.Init(cfg.LogLevel, logPath, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logCloser.Close()

	logger.Info("starting", "version", version.GetVersion(), "source", cfg.CounterAPIURL, "data_file", cfg.CounterDataFile)

	minimap := components.NewMinimap(mapview.InitialCenter, mapview.InitialZoom)

	svcManager, err := services.NewManager(cfg, services.WithRenderer(minimap))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	// Tab order matches app.TabID.
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state),
		records.New(state),
		fleetmap.New(state, minimap),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`bct - terminal dashboard for bus passenger counters

Usage:
  bct [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-4             Switch tabs (Dashboard, Records, Map, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, h/l        Pick a filter and change its value (Dashboard)
  n/p             Next/previous page (Records)
  e/E, x          Export page/all filtered records, reset export (Records)
  +/-, f          Zoom, fullscreen (Map)
  r               Refetch counters
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  COUNTER_API_URL         Counter API base URL (default: http://localhost:3000/api)
  COUNTER_DATA_FILE       Read counters from a JSON file instead, reloaded on change
  COUNTER_API_TIMEOUT     Request timeout (default: 10s)
  FETCH_RETRY_ATTEMPTS    Attempts per fetch (default: 3)
  FETCH_RETRY_DELAY       Initial retry delay (default: 500ms)
  AUTO_REFRESH_INTERVAL   Background refetch interval, 0 disables (default: 0)
  PAGE_SIZE               Records per table page (default: 10)
  DATABASE_PATH           SQLite cache path
  EXPORT_DIR              Directory for exported workbooks
  LOG_LEVEL               debug, info, warn or error (default: info)
  LOG_FILE                Log file (default: next to the database)
  DESKTOP_NOTIFICATIONS   Desktop alerts for exports and failing fetches (default: true)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/bus-counter-tui/.env
  - ~/.bus-counter/.env`)
}
