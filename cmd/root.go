package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"bus-booking-cli/config"
	"bus-booking-cli/service"
)

const appName = "busbook"

type rootOptions struct {
	configPath string
	logFile    string
	logLevel   string
}

func newRootCmd(version string, commit string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Book bus tickets from the terminal",
		Long: `Search buses between two stations, pick your berths on the seat map,
add passenger details and pay, all from the terminal.

Run without a command to start the booking wizard.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file (default $"+config.EnvConfig+")")
	flags.StringVar(&opts.logFile, "log-file", "", "write JSON debug logs to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newBusesCmd(opts),
		newSeatsCmd(opts),
		newHistoryCmd(),
		newCancelCmd(),
		newVersionCmd(version, commit),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute(version string, commit string) {
	if err := newRootCmd(version, commit).Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd(version string, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of busbook",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s", appName, version)
			if commit != "none" && commit != "" {
				fmt.Fprintf(out, " (%s)", commit)
			}
			fmt.Fprintln(out)
		},
	}
}

// loadConfig reads the config file and applies the --log-level flag.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if _, err := cfg.LogLevel(); err != nil {
			return nil, err
		}
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	return cfg, nil
}

// newCatalog returns the remote catalog when a URL is configured and the
// built-in sample data otherwise.
func newCatalog(cfg *config.Config, logger *slog.Logger) (service.Catalog, error) {
	if cfg.Catalog.URL == "" {
		return service.NewMockCatalog(cfg.Booking.Layout.Booked), nil
	}
	timeout, err := cfg.CatalogTimeout()
	if err != nil {
		return nil, err
	}
	logger.Debug("using remote catalog", "url", cfg.Catalog.URL, "timeout", timeout)
	return service.NewClient(cfg.Catalog.URL, &http.Client{Timeout: timeout}, logger), nil
}

// newCLILogger logs to w in text form for the non-interactive commands.
func newCLILogger(cfg *config.Config, w io.Writer) (*slog.Logger, func(), error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	var handler slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	closer := func() {}
	if cfg.Log.File != "" {
		fileHandler, closeFile, err := openFileLogHandler(cfg.Log.File)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		handler = fanoutHandler{handler, fileHandler}
		closer = closeFile
	}
	return slog.New(handler), closer, nil
}
