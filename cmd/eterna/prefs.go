package main

import (
	"github.com/awaistahir/eterna/internal/engine"
	"github.com/awaistahir/eterna/internal/store"
	"github.com/spf13/cobra"
)

func prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change household preferences",
	}

	cmd.AddCommand(prefsShowCmd())
	cmd.AddCommand(prefsSetCmd())

	return cmd
}

func prefsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show household preferences",
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

			prefs, err := st.HouseholdOrDefault(store.DefaultHousehold)
			if err != nil {
				return err
			}
			renderPreferences(prefs)
			return nil
		},
	}
}

func prefsSetCmd() *cobra.Command {
	var (
		name     string
		homeSize string
		hours    int
		acTemp   int
		eco      bool
		comfort  string
		budget   float64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update household preferences (only the flags given are changed)",
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

			prefs, err := st.HouseholdOrDefault(store.DefaultHousehold)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				prefs.Name = name
			}
			if flags.Changed("home-size") {
				prefs.HomeSize = engine.HomeSize(homeSize)
			}
			if flags.Changed("working-hours") {
				prefs.WorkingHours = hours
			}
			if flags.Changed("ac-temp") {
				prefs.ACTempC = acTemp
			}
			if flags.Changed("eco") {
				prefs.EcoMode = eco
			}
			if flags.Changed("comfort") {
				prefs.Comfort = engine.ComfortProfile(comfort)
			}
			if flags.Changed("budget") {
				prefs.MonthlyBudget = budget
			}

			if err := st.SaveHousehold(store.DefaultHousehold, prefs); err != nil {
				return err
			}

			printSuccess("Saved preferences")
			renderPreferences(prefs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "household name")
	cmd.Flags().StringVar(&homeSize, "home-size", "", "Studio, 1BHK, 2BHK, 3BHK or Villa")
	cmd.Flags().IntVar(&hours, "working-hours", 8, "hours away from home per day (0-24)")
	cmd.Flags().IntVar(&acTemp, "ac-temp", 24, "preferred AC temperature in °C (16-30)")
	cmd.Flags().BoolVar(&eco, "eco", true, "eco mode")
	cmd.Flags().StringVar(&comfort, "comfort", "", "Eco, Balanced or Comfort")
	cmd.Flags().Float64Var(&budget, "budget", 300, "monthly budget")

	return cmd
}
