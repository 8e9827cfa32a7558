// Package report exports a dashboard snapshot as CSV, JSON or PDF.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/awaistahir/eterna/internal/engine"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts csv, json or pdf in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown report format %q", engine.ErrInvalidInput, s)
}

// Write renders d in the given format
func Write(w io.Writer, d engine.Dashboard, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, d)
	case FormatJSON:
		return WriteJSON(w, d)
	case FormatPDF:
		return WritePDF(w, d)
	}
	return fmt.Errorf("%w: unknown report format %q", engine.ErrInvalidInput, f)
}

// Export writes d to <dir>/<base>_<timestamp>.<format> and returns the absolute path
func Export(d engine.Dashboard, f Format, dir, base string) (string, error) {
	if _, err := ParseFormat(string(f)); err != nil {
		return "", err
	}
	outputFilename, err := generateFilename(base, dir, d, f)
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating %s file: %w", f, err)
	}
	if err := Write(file, d, f); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error closing %s file: %w", f, err)
	}

	return filepath.Abs(outputFilename)
}

func money(v float64, currency string) string {
	return fmt.Sprintf("%.2f %s", v, currency)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// metricRows lists the impact figures in display order
func metricRows(m engine.ImpactMetrics) [][2]string {
	return [][2]string{
		{"Total usage (kWh)", num(m.TotalKWh)},
		{"Cost", money(m.Cost, m.Currency)},
		{"CO2 (kg)", num(m.CO2Kg)},
		{"Water (L)", num(m.WaterL)},
		{"Trees", num(m.Trees)},
		{"Estimated savings", money(m.Savings, m.Currency)},
		{"Reward progress", fmt.Sprintf("%.0f%%", m.RewardProgress*100)},
	}
}

// WriteCSV writes usage, then impact, then advice rows under a section,item,value header
func WriteCSV(w io.Writer, d engine.Dashboard) error {
	writer := csv.NewWriter(w)

	rows := [][]string{{"section", "item", "value"}}
	for _, c := range engine.Categories() {
		rows = append(rows, []string{"usage", string(c), num(d.Usage.KWh(c))})
	}
	for _, m := range metricRows(d.Impact) {
		rows = append(rows, []string{"impact", m[0], m[1]})
	}
	for i, a := range d.Advice {
		msg := a.Message
		if i < len(d.Messages) {
			msg = d.Messages[i]
		}
		rows = append(rows, []string{"advice", strconv.Itoa(int(a.Rule)), msg})
	}

	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, d engine.Dashboard) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return nil
}

// WritePDF renders a one-page A4 summary. The core PDF fonts only cover Latin text,
// so advice is always printed in its canonical English form.
func WritePDF(w io.Writer, d engine.Dashboard) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{20, 90, 60}
	headerTextColor := [3]int{255, 255, 255}
	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	drawTitle := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
	}

	drawTable := func(rows [][2]string) {
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		for _, row := range rows {
			pdf.CellFormat(95, 6, tr(row[0]), "", 0, "L", false, 0, "")
			pdf.CellFormat(95, 6, tr(row[1]), "", 1, "R", false, 0, "")
		}
		pdf.Ln(8)
	}

	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Home Energy Report"), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Snapshot: %s", d.Time.Format("2006-01-02 15:04 MST"))), "", 1, "L", true, 0, "")
	pdf.Ln(10)

	drawTitle("Usage")
	usage := make([][2]string, 0, 3)
	for _, c := range engine.Categories() {
		usage = append(usage, [2]string{string(c), num(d.Usage.KWh(c)) + " kWh"})
	}
	drawTable(usage)

	drawTitle("Impact")
	drawTable(metricRows(d.Impact))

	drawTitle("Advice")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	for i, msg := range engine.Messages(d.Advice) {
		pdf.MultiCell(190, 6, tr(fmt.Sprintf("%d. %s", i+1, msg)), "", "L", false)
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 10, tr("Generated by Eterna"), "", 0, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing PDF: %w", err)
	}
	return nil
}

// generateFilename builds a timestamped file name and makes sure the directory exists
func generateFilename(base, dir string, d engine.Dashboard, f Format) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create output directory %s: %w", dir, err)
	}
	if base == "" {
		base = "eterna_report"
	}
	name := fmt.Sprintf("%s_%s.%s", base, d.Time.Format("20060102_1504"), f)
	return filepath.Join(dir, name), nil
}
