package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/awaistahir/eterna/internal/engine"
)

var (
	brightGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	brightYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	brightCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func printSuccess(format string, a ...interface{}) {
	pterm.Success.Printfln(format, a...)
}

func printWarning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

func renderTable(header []string, rows [][]string) {
	data := pterm.TableData{header}
	data = append(data, rows...)

	table := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data)

	rendered, _ := table.Srender()
	fmt.Println(rendered)
}

func renderPreferences(p engine.UserPreferences) {
	eco := "off"
	if p.EcoMode {
		eco = "on"
	}
	renderTable([]string{"Setting", "Value"}, [][]string{
		{"Name", p.Name},
		{"Home size", string(p.HomeSize)},
		{"Working hours", strconv.Itoa(p.WorkingHours)},
		{"AC temperature", fmt.Sprintf("%d°C", p.ACTempC)},
		{"Eco mode", eco},
		{"Comfort", string(p.Comfort)},
		{"Monthly budget", fmt.Sprintf("%.2f", p.MonthlyBudget)},
	})
}

func renderTariff(t engine.PricingConfig) {
	renderTable([]string{"Setting", "Value"}, [][]string{
		{"Peak window", t.PeakWindow().String()},
		{"Peak rate", fmt.Sprintf("%.4f %s/kWh", t.PeakRate, t.Currency)},
		{"Off-peak rate", fmt.Sprintf("%.4f %s/kWh", t.OffPeakRate, t.Currency)},
		{"Flat rate", fmt.Sprintf("%.4f %s/kWh", t.FlatRate, t.Currency)},
	})
}

// rewardBar draws reward progress as a 20-cell bar
func rewardBar(progress float64) string {
	filled := int(progress * 20)
	return brightGreen(strings.Repeat("█", filled)) + strings.Repeat("░", 20-filled)
}

func renderDashboard(d engine.Dashboard) {
	pterm.DefaultSection.Println(fmt.Sprintf("Energy snapshot %s", d.Time.Format("2006-01-02 15:04")))

	usage := [][]string{}
	for _, c := range engine.Categories() {
		usage = append(usage, []string{string(c), fmt.Sprintf("%.2f kWh", d.Usage.KWh(c))})
	}
	usage = append(usage, []string{brightCyan("Total"), brightCyan(fmt.Sprintf("%.2f kWh", d.Impact.TotalKWh))})
	renderTable([]string{"Category", "Usage"}, usage)

	m := d.Impact
	renderTable([]string{"Impact", "Value"}, [][]string{
		{"Cost", fmt.Sprintf("%.2f %s", m.Cost, m.Currency)},
		{"CO2", fmt.Sprintf("%.2f kg", m.CO2Kg)},
		{"Water", fmt.Sprintf("%.2f L", m.WaterL)},
		{"Trees to offset", fmt.Sprintf("%.2f", m.Trees)},
		{"Estimated savings", brightGreen(fmt.Sprintf("%.2f %s", m.Savings, m.Currency))},
		{"Reward progress", fmt.Sprintf("%s %.0f%%", rewardBar(m.RewardProgress), m.RewardProgress*100)},
	})

	pterm.DefaultSection.Println("Advice")
	for i, msg := range d.Messages {
		fmt.Printf("  %s %s\n", brightYellow(fmt.Sprintf("%d.", i+1)), msg)
	}
	if d.Habits.Has(engine.HabitHighAC) {
		printWarning("High AC usage has become a habit")
	}
}

func renderHistory(days []engine.DailyTotal, habits engine.HabitState, forecast float64, forecastErr error) {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{d.Date.Format("Mon 2006-01-02"), fmt.Sprintf("%.2f kWh", d.TotalKWh)})
	}
	renderTable([]string{"Day", "Total"}, rows)

	if habits.Has(engine.HabitHighAC) {
		printWarning("Recurring high AC usage detected")
	} else {
		printSuccess("No high-usage habits detected")
	}

	if forecastErr != nil {
		printWarning("No forecast: %v", forecastErr)
		return
	}
	fmt.Printf("Forecast for tomorrow: %s\n", brightCyan(fmt.Sprintf("%.2f kWh", forecast)))
}
