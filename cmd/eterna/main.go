package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awaistahir/eterna/internal/config"
	"github.com/awaistahir/eterna/internal/engine"
	"github.com/awaistahir/eterna/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "eterna",
		Short: "Eterna - home energy advice from your usage",
		Long: `Eterna looks at a household's AC, lighting and appliance usage and suggests
what to change, with the cost, CO2 and water impact of the current reading.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.eterna/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.eterna/eterna.db)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(prefsCmd())
	rootCmd.AddCommand(tariffCmd())
	rootCmd.AddCommand(adviseCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the layered config and applies the --db override
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize Eterna with default household preferences and tariff",
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

			if _, err := st.GetHousehold(store.DefaultHousehold); err == nil && !force {
				return fmt.Errorf("household already initialized (use --force to reset)")
			} else if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}

			if err := st.SaveHousehold(store.DefaultHousehold, engine.DefaultPreferences()); err != nil {
				return err
			}
			if err := st.SaveTariff(store.DefaultHousehold, cfg.EnginePricing()); err != nil {
				return err
			}

			path := cfgFile
			if path == "" {
				path = filepath.Join(config.DefaultDir(), "config.yaml")
			}
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) || force {
				if err := config.Save(path, cfg); err != nil {
					return err
				}
				printSuccess("Wrote config to %s", path)
			}

			printSuccess("Initialized default household")
			fmt.Printf("Database: %s\n", cfg.DBPath)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Describe your home: eterna prefs set --home-size Villa --ac-temp 23")
			fmt.Println("  2. Get advice:         eterna advise --mock")

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing preferences, tariff and config file")

	return cmd
}

// clockIn returns now in the configured timezone
func clockIn(cfg *config.Config) (time.Time, error) {
	loc, err := cfg.Location()
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}
