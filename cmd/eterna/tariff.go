package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/awaistahir/eterna/internal/prices"
	"github.com/awaistahir/eterna/internal/store"
	"github.com/spf13/cobra"
)

func tariffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tariff",
		Short: "Show, change or fetch the electricity tariff",
	}

	cmd.AddCommand(tariffShowCmd())
	cmd.AddCommand(tariffSetCmd())
	cmd.AddCommand(tariffFetchCmd())

	return cmd
}

func tariffShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current tariff",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			t, err := st.TariffOr(store.DefaultHousehold, cfg.EnginePricing())
			if err != nil {
				return err
			}
			renderTariff(t)
			return nil
		},
	}
}

func tariffSetCmd() *cobra.Command {
	var (
		peakStart, peakEnd          int
		peakRate, offPeak, flatRate float64
		currency                    string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the tariff (only the flags given are changed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			t, err := st.TariffOr(store.DefaultHousehold, cfg.EnginePricing())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("peak-start") {
				t.PeakStartHour = peakStart
			}
			if flags.Changed("peak-end") {
				t.PeakEndHour = peakEnd
			}
			if flags.Changed("peak-rate") {
				t.PeakRate = peakRate
			}
			if flags.Changed("off-peak-rate") {
				t.OffPeakRate = offPeak
			}
			if flags.Changed("flat-rate") {
				t.FlatRate = flatRate
			}
			if flags.Changed("currency") {
				t.Currency = currency
			}

			if err := st.SaveTariff(store.DefaultHousehold, t); err != nil {
				return err
			}

			printSuccess("Saved tariff")
			renderTariff(t)
			return nil
		},
	}

	cmd.Flags().IntVar(&peakStart, "peak-start", 18, "first peak hour (0-23)")
	cmd.Flags().IntVar(&peakEnd, "peak-end", 22, "last peak hour, inclusive (0-23)")
	cmd.Flags().Float64Var(&peakRate, "peak-rate", 0.65, "peak rate per kWh")
	cmd.Flags().Float64Var(&offPeak, "off-peak-rate", 0.30, "off-peak rate per kWh")
	cmd.Flags().Float64Var(&flatRate, "flat-rate", 0.5, "flat rate per kWh")
	cmd.Flags().StringVar(&currency, "currency", "AED", "currency label")

	return cmd
}

func tariffFetchCmd() *cobra.Command {
	var (
		region  string
		date    string
		refresh bool
		save    bool
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch Octopus Agile prices and derive peak/off-peak rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if region == "" {
				region = cfg.Octopus.Region
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			day := time.Now().In(loc)
			if date != "today" {
				day, err = time.ParseInLocation("2006-01-02", date, loc)
				if err != nil {
					return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
				}
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			slots, err := st.GetCachedPrices(region, day)
			if refresh || errors.Is(err, store.ErrNotFound) {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				client := prices.NewOctopusClient(region,
					prices.WithBaseURL(cfg.Octopus.BaseURL),
					prices.WithProduct(cfg.Octopus.Product))
				slots, err = client.HalfHourly(ctx, day)
				if err != nil {
					return err
				}
				if err := st.CachePrices(region, day, slots); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Fetched %d price slots\n", len(slots))
			} else if err != nil {
				return err
			}

			if raw {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(slots)
			}

			current, err := st.TariffOr(store.DefaultHousehold, cfg.EnginePricing())
			if err != nil {
				return err
			}
			derived, err := prices.DeriveTariff(slots, current.PeakWindow(), loc)
			if err != nil {
				return err
			}
			renderTariff(derived)

			if save {
				if err := st.SaveTariff(store.DefaultHousehold, derived); err != nil {
					return err
				}
				printSuccess("Saved derived tariff")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "Octopus region (A-P, default from config)")
	cmd.Flags().StringVarP(&date, "date", "d", "today", "date to fetch (YYYY-MM-DD or 'today')")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached prices")
	cmd.Flags().BoolVar(&save, "save", false, "store the derived tariff")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the half-hourly slots as JSON")

	return cmd
}
