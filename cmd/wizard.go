package cmd

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"bus-booking-cli/payment"
	"bus-booking-cli/service"
	"bus-booking-cli/tui"
)

// runWizard starts the full-screen booking wizard. Warnings and errors
// show on the wizard's status line; with a log file every record at
// debug level and above is also written there.
func runWizard(opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	delay, err := cfg.PaymentDelay()
	if err != nil {
		return err
	}

	statusLevel := max(level, slog.LevelWarn)
	tuiHandler := tui.NewLogHandler(statusLevel)
	var handler slog.Handler = tuiHandler
	if cfg.Log.File != "" {
		fileHandler, closeFile, err := openFileLogHandler(cfg.Log.File)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer closeFile()
		handler = fanoutHandler{tuiHandler, fileHandler}
	}
	logger := slog.New(handler)

	catalog, err := newCatalog(cfg, logger.With("component", "catalog"))
	if err != nil {
		return err
	}
	var locator *service.Locator
	if cfg.Location.Enabled {
		locator = service.NewLocator(nil, logger.With("component", "location"))
	}

	model := tui.New(tui.Options{
		Catalog:    catalog,
		Processor:  payment.NewProcessor(delay, logger.With("component", "payment")),
		Locator:    locator,
		Layout:     cfg.LayoutSpec(),
		GSTPercent: cfg.Booking.GSTPercent,
		Logger:     logger,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	tuiHandler.SetProgram(program)

	logger.Debug("wizard started", "catalog", cfg.Catalog.URL, "payment_delay", delay)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}
	return nil
}
