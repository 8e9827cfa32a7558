package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/awaistahir/eterna/internal/config"
	"github.com/awaistahir/eterna/internal/engine"
	"github.com/awaistahir/eterna/internal/report"
	"github.com/awaistahir/eterna/internal/store"
	"github.com/spf13/cobra"
)

// snapshotFlags selects where a one-off reading comes from
type snapshotFlags struct {
	ac, lights, appliances float64
	mock                   bool
	source                 string
	seed                   uint64
	hour                   int
	lang                   string
}

func (f *snapshotFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.ac, "ac", 0, "AC usage in kWh")
	cmd.Flags().Float64Var(&f.lights, "lights", 0, "lighting usage in kWh")
	cmd.Flags().Float64Var(&f.appliances, "appliances", 0, "appliance usage in kWh")
	cmd.Flags().BoolVar(&f.mock, "mock", false, "draw the reading from the configured mock source")
	cmd.Flags().StringVar(&f.source, "source", "", "mock source kind: mock or profile (default from config)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "mock source seed (default from config)")
	cmd.Flags().IntVar(&f.hour, "hour", -1, "hour of day to evaluate at (default: now in the configured timezone)")
	cmd.Flags().StringVar(&f.lang, "lang", "", "advice language, e.g. en or ar (default from config)")
	cmd.MarkFlagsMutuallyExclusive("mock", "ac")
	cmd.MarkFlagsMutuallyExclusive("mock", "lights")
	cmd.MarkFlagsMutuallyExclusive("mock", "appliances")
}

// at resolves the evaluation time from --hour and the configured timezone
func (f *snapshotFlags) at(cfg *config.Config) (time.Time, error) {
	now, err := clockIn(cfg)
	if err != nil {
		return time.Time{}, err
	}
	if f.hour == -1 {
		return now, nil
	}
	if f.hour < 0 || f.hour > 23 {
		return time.Time{}, fmt.Errorf("%w: --hour must be within 0-23", engine.ErrInvalidInput)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), f.hour, 0, 0, 0, now.Location()), nil
}

func (f *snapshotFlags) newSource(cmd *cobra.Command, cfg *config.Config) (engine.UsageSource, error) {
	kind, seed := cfg.Source.Kind, cfg.Source.Seed
	if f.source != "" {
		kind = f.source
	}
	if cmd.Flags().Changed("seed") {
		seed = f.seed
	}
	return engine.NewSource(kind, seed)
}

func (f *snapshotFlags) snapshot(cmd *cobra.Command, cfg *config.Config, at time.Time) (engine.UsageSnapshot, error) {
	if f.mock {
		src, err := f.newSource(cmd, cfg)
		if err != nil {
			return engine.UsageSnapshot{}, err
		}
		return src.Snapshot(at)
	}
	flags := cmd.Flags()
	if !flags.Changed("ac") || !flags.Changed("lights") || !flags.Changed("appliances") {
		return engine.UsageSnapshot{}, fmt.Errorf("%w: give --ac, --lights and --appliances, or --mock", engine.ErrInvalidInput)
	}
	return engine.SnapshotOf(f.ac, f.lights, f.appliances)
}

func (f *snapshotFlags) language(cfg *config.Config) engine.Language {
	if f.lang != "" {
		return engine.ParseLanguage(f.lang)
	}
	return engine.ParseLanguage(cfg.Language)
}

// buildDashboard runs one refresh against the saved preferences and tariff
func buildDashboard(cmd *cobra.Command, f *snapshotFlags) (engine.Dashboard, error) {
	cfg, err := loadConfig()
	if err != nil {
		return engine.Dashboard{}, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return engine.Dashboard{}, err
	}
	defer st.Close()

	prefs, err := st.HouseholdOrDefault(store.DefaultHousehold)
	if err != nil {
		return engine.Dashboard{}, err
	}
	tariff, err := st.TariffOr(store.DefaultHousehold, cfg.EnginePricing())
	if err != nil {
		return engine.Dashboard{}, err
	}

	at, err := f.at(cfg)
	if err != nil {
		return engine.Dashboard{}, err
	}
	usage, err := f.snapshot(cmd, cfg, at)
	if err != nil {
		return engine.Dashboard{}, err
	}

	advisor := engine.NewAdvisor(engine.Options{Rules: cfg.EngineRules(), Pricing: tariff})
	advisor.TimeOfUse = cfg.Pricing.TimeOfUse
	return advisor.Dashboard(usage, prefs, nil, at, f.language(cfg))
}

func adviseCmd() *cobra.Command {
	var f snapshotFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Evaluate one usage reading and print impact and advice",
		Example: `  eterna advise --ac 2.8 --lights 0.6 --appliances 0.8 --hour 9
  eterna advise --mock --seed 42 --lang ar`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDashboard(cmd, &f)
			if err != nil {
				return err
			}

			if asJSON {
				return report.WriteJSON(os.Stdout, d)
			}
			renderDashboard(d)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the dashboard as JSON")

	return cmd
}

func historyCmd() *cobra.Command {
	var f snapshotFlags
	var days int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Generate mock hourly history, learn habits and forecast tomorrow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now, err := clockIn(cfg)
			if err != nil {
				return err
			}
			src, err := f.newSource(cmd, cfg)
			if err != nil {
				return err
			}

			history, err := engine.BuildHistory(src, now, days)
			if err != nil {
				return err
			}
			// Hours after now are not history yet
			for len(history) > 0 && history[len(history)-1].Timestamp.After(now) {
				history = history[:len(history)-1]
			}

			// Replay hour by hour so any three-hour high-AC run is learned
			habits := engine.HabitState{}
			for i := range history {
				habits = engine.UpdateHabits(history[:i+1], habits)
			}

			daily := engine.DailyTotals(history)
			forecast, forecastErr := engine.ForecastTomorrow(history)

			if asJSON {
				out := map[string]interface{}{
					"daily":  daily,
					"habits": habits,
				}
				if forecastErr == nil {
					out["tomorrow_kwh"] = engine.Round2(forecast)
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			renderHistory(daily, habits, forecast, forecastErr)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "full days of history before today")
	cmd.Flags().StringVar(&f.source, "source", "", "mock source kind: mock or profile (default from config)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "mock source seed (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

func reportCmd() *cobra.Command {
	var f snapshotFlags
	var format, outDir, name string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export one evaluated reading as csv, json or pdf",
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			d, err := buildDashboard(cmd, &f)
			if err != nil {
				return err
			}

			path, err := report.Export(d, rf, outDir, name)
			if err != nil {
				return err
			}
			printSuccess("Report written to %s", path)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "csv, json or pdf")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: current directory)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "file name prefix")

	return cmd
}
