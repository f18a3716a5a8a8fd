package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"bus-booking-cli/model"
	"bus-booking-cli/report"
	"bus-booking-cli/service"
	"bus-booking-cli/store"
)

const requestTimeout = 30 * time.Second

type busesOptions struct {
	from string
	to   string
	date string
}

func newBusesCmd(root *rootOptions) *cobra.Command {
	opts := &busesOptions{}
	cmd := &cobra.Command{
		Use:   "buses",
		Short: "Find buses between two stations",
		Long: `List the buses running between two stations on a date.
Stations left out are picked interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuses(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "boarding station name or code")
	cmd.Flags().StringVar(&opts.to, "to", "", "destination station name or code")
	cmd.Flags().StringVar(&opts.date, "date", "", "travel date as YYYY-MM-DD (default today)")
	return cmd
}

func runBuses(cmd *cobra.Command, root *rootOptions, opts *busesOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newCLILogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	catalog, err := newCatalog(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	stations, err := catalog.Stations(ctx)
	if err != nil {
		logger.Warn("could not load stations", "error", err)
	}

	from, err := resolveStation(stations, opts.from, "From")
	if err != nil {
		return err
	}
	to, err := resolveStation(stations, opts.to, "To")
	if err != nil {
		return err
	}
	date, err := parseTravelDate(opts.date, time.Now())
	if err != nil {
		return err
	}

	query := model.SearchQuery{From: from, To: to, Date: date}
	buses, err := catalog.SearchBuses(ctx, query)
	if err != nil {
		return err
	}
	if err := store.RememberRoute(model.Route{From: from, To: to}); err != nil {
		logger.Warn("could not remember route", "error", err)
	}

	out := cmd.OutOrStdout()
	if len(buses) == 0 {
		fmt.Fprintf(out, "No buses from %s to %s on %s.\n", from, to, date.Format(time.DateOnly))
		return nil
	}
	fmt.Fprintf(out, "%s → %s on %s\n", from, to, date.Format("Mon, 02 Jan 2006"))
	fmt.Fprintln(out, report.Buses(buses))
	return nil
}

// resolveStation turns a flag value into a station name. An empty value
// asks the user to pick one of the known stations.
func resolveStation(stations []model.Station, value string, label string) (string, error) {
	value = strings.TrimSpace(value)
	if value != "" {
		if s, ok := service.FindStation(stations, value); ok {
			return s.Name, nil
		}
		return value, nil
	}
	if len(stations) == 0 {
		return "", fmt.Errorf("--%s is required", strings.ToLower(label))
	}

	byName := make(map[string]model.Station, len(stations))
	for _, s := range stations {
		byName[s.Name] = s
	}
	names := maps.Keys(byName)
	sort.Strings(names)

	prompt := promptui.Select{
		Label: label,
		Items: names,
		Size:  10,
	}
	_, name, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", errors.New("cancelled")
		}
		return "", err
	}
	return name, nil
}

func parseTravelDate(value string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	value = strings.TrimSpace(value)
	if value == "" {
		return today, nil
	}
	date, err := time.ParseInLocation(time.DateOnly, value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must look like %s", time.DateOnly)
	}
	if date.Before(today) {
		return time.Time{}, errors.New("--date is in the past")
	}
	return date, nil
}
