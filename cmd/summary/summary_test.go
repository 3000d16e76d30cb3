package summary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ndjaka/mineral-tax/internal/config"
	"ndjaka/mineral-tax/internal/container"
	"ndjaka/mineral-tax/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entriesCSV = "Date,InvoiceNumber,MachineID,Activity,FuelType,VolumeLiters,Supplier\n" +
	"2025-12-15,A-2025-118,TRAC-01,agriculture_with_direct,diesel,1000,Landi Broye\n" +
	"2026-01-15,B-2026-004,TRAC-01,agriculture_with_direct,diesel,1000,Landi Broye\n" +
	"2026-02-03,C-2026-019,MOW-02,,gasoline,20,Agrola\n"

func setup(t *testing.T) (*container.Container, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	input := filepath.Join(dir, "fuel.csv")
	require.NoError(t, os.WriteFile(input, []byte(entriesCSV), 0600))

	c, err := container.NewContainerWithLogger(config.Default(), logging.NewMockLogger())
	require.NoError(t, err)
	return c, input
}

func outputLines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestRun_ByPeriod(t *testing.T) {
	c, input := setup(t)

	tests := []struct {
		period   string
		expected []string
	}{
		{
			period: "month",
			expected: []string{
				"Period,Start,End,Entries,VolumeLiters,AmountCHF",
				"2025-12,2025-12-01,2025-12-31,1,1000.00,340.60",
				"2026-01,2026-01-01,2026-01-31,1,1000.00,600.50",
				"2026-02,2026-02-01,2026-02-28,1,20.00,6.81",
			},
		},
		{
			period: "quarter",
			expected: []string{
				"Period,Start,End,Entries,VolumeLiters,AmountCHF",
				"2025-Q4,2025-10-01,2025-12-31,1,1000.00,340.60",
				"2026-Q1,2026-01-01,2026-03-31,2,1020.00,607.31",
			},
		},
		{
			period: "year",
			expected: []string{
				"Period,Start,End,Entries,VolumeLiters,AmountCHF",
				"2025,2025-01-01,2025-12-31,1,1000.00,340.60",
				"2026,2026-01-01,2026-12-31,2,1020.00,607.31",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Run(c, Options{Input: input, Period: tt.period}, &buf))
			assert.Equal(t, tt.expected, outputLines(&buf))
		})
	}
}

func TestRun_BySector(t *testing.T) {
	c, input := setup(t)

	var buf bytes.Buffer
	require.NoError(t, Run(c, Options{Input: input, BySector: true}, &buf))
	assert.Equal(t, []string{
		"Sector,Entries,VolumeLiters,AmountCHF",
		"agriculture_with_direct,2,2000.00,941.10",
		"standard,1,20.00,6.81",
	}, outputLines(&buf))
}

func TestRun_ToFile(t *testing.T) {
	c, input := setup(t)
	output := filepath.Join(filepath.Dir(input), "summary.csv")

	var stdout bytes.Buffer
	require.NoError(t, Run(c, Options{Input: input, Output: output, Period: "year"}, &stdout))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2026,2026-01-01,2026-12-31,2,1020.00,607.31")
}

func TestRun_UnknownPeriod(t *testing.T) {
	c, input := setup(t)

	var buf bytes.Buffer
	assert.Error(t, Run(c, Options{Input: input, Period: "fortnight"}, &buf))
	assert.Empty(t, buf.String())
}
