package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"ndjaka/mineral-tax/internal/fuelentry"
	"ndjaka/mineral-tax/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "b.csv", "Date,FuelType,VolumeLiters,InvoiceNumber\n2026-01-15,diesel,1000,B-2026-004\n")
	writeCSV(t, dir, "a.csv", "Date,FuelType,VolumeLiters,InvoiceNumber\n2025-12-15,diesel,1000,A-2025-118\n2025-12-16,diesel,5,A-2025-119\n")
	writeCSV(t, dir, "c.csv", "Account,Amount\nx,1\n")
	writeCSV(t, dir, "notes.txt", "ignored")

	logger := logging.NewMockLogger()
	p := NewProcessor(fuelentry.NewParser(logger, ','), logger, 2)

	results, err := p.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.csv", filepath.Base(results[0].File))
	assert.Len(t, results[0].Entries, 2)
	assert.Equal(t, "b.csv", filepath.Base(results[1].File))
	assert.Len(t, results[1].Entries, 1)
	assert.True(t, results[2].Skipped)
	assert.NoError(t, results[2].Err)

	entries := Entries(results)
	require.Len(t, entries, 3)
	assert.Equal(t, "A-2025-118", entries[0].InvoiceNumber)
	assert.Equal(t, "B-2026-004", entries[2].InvoiceNumber)
	assert.Empty(t, Failed(results))
}

func TestProcessDirectory_FailedFileDoesNotStopBatch(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "bad.csv", "Date,FuelType,VolumeLiters\nnot-a-date,diesel,1\n")
	writeCSV(t, dir, "good.csv", "Date,FuelType,VolumeLiters\n2026-01-15,diesel,1\n")

	logger := logging.NewMockLogger()
	p := NewProcessor(fuelentry.NewParser(logger, ',', fuelentry.WithStrict(true)), logger, 0)

	results, err := p.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "bad.csv", filepath.Base(failed[0].File))
	assert.Len(t, results[1].Entries, 1)
	assert.True(t, logger.HasEntry("ERROR", "Failed to parse file"))
}

func TestProcessFiles_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 0; i < 20; i++ {
		files = append(files, writeCSV(t, dir, fmt.Sprintf("f%02d.csv", i),
			fmt.Sprintf("Date,FuelType,VolumeLiters,InvoiceNumber\n2026-01-15,diesel,1,INV-%02d\n", i)))
	}

	logger := logging.NewMockLogger()
	results, err := NewProcessor(fuelentry.NewParser(logger, ','), logger, 4).ProcessFiles(context.Background(), files)
	require.NoError(t, err)

	for i, r := range results {
		require.Len(t, r.Entries, 1)
		assert.Equal(t, fmt.Sprintf("INV-%02d", i), r.Entries[0].InvoiceNumber)
	}
}

func TestProcessFiles_Cancelled(t *testing.T) {
	dir := t.TempDir()
	file := writeCSV(t, dir, "a.csv", "Date,FuelType,VolumeLiters\n2026-01-15,diesel,1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger := logging.NewMockLogger()
	_, err := NewProcessor(fuelentry.NewParser(logger, ','), logger, 1).ProcessFiles(ctx, []string{file})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessDirectory_MissingDir(t *testing.T) {
	logger := logging.NewMockLogger()
	_, err := NewProcessor(fuelentry.NewParser(logger, ','), logger, 1).ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
