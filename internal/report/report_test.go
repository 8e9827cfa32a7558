package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awaistahir/eterna/internal/engine"
)

func testDashboard(t *testing.T, lang engine.Language) engine.Dashboard {
	t.Helper()
	usage, err := engine.SnapshotOf(2.8, 0.6, 0.8)
	require.NoError(t, err)
	d, err := engine.NewAdvisor(engine.DefaultOptions()).Dashboard(usage, engine.DefaultPreferences(), nil,
		time.Date(2025, 7, 14, 9, 15, 0, 0, time.UTC), lang)
	require.NoError(t, err)
	return d
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{" PDF ", FormatPDF, false},
		{"Json", FormatJSON, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, engine.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testDashboard(t, engine.LangEnglish)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	// header, 3 usage, 7 impact, 4 advice
	require.Len(t, rows, 15)
	assert.Equal(t, []string{"section", "item", "value"}, rows[0])
	assert.Equal(t, []string{"usage", "AC", "2.80"}, rows[1])
	assert.Equal(t, []string{"impact", "Cost", "2.10 AED"}, rows[5])
	assert.Equal(t, []string{"impact", "Reward progress", "3%"}, rows[10])
	assert.Equal(t, []string{"advice", "1", engine.MsgACOff}, rows[11])
	assert.Equal(t, "3", rows[13][1])
}

func TestWriteCSVLocalized(t *testing.T) {
	var buf bytes.Buffer
	d := testDashboard(t, engine.LangArabic)
	require.NoError(t, WriteCSV(&buf, d))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, d.Messages[0], rows[11][2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	d := testDashboard(t, engine.LangEnglish)
	require.NoError(t, WriteJSON(&buf, d))

	var got engine.Dashboard
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, d.Messages, got.Messages)
	assert.Equal(t, d.Impact, got.Impact)
	assert.Equal(t, d.Usage.Values(), got.Usage.Values())
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, testDashboard(t, engine.LangArabic)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	d := testDashboard(t, engine.LangEnglish)

	for _, f := range []Format{FormatCSV, FormatJSON, FormatPDF} {
		path, err := Export(d, f, dir, "")
		require.NoError(t, err)
		assert.Equal(t, "eterna_report_20250714_0915."+string(f), filepath.Base(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err := Export(d, "xml", dir, "x")
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}
