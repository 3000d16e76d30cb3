package batch

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"
	"time"

	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cryptoRandIntn returns a random int in [0, n) using crypto/rand
func cryptoRandIntn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(result.Int64())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func line(date time.Time, activity, volume, amount string) models.ReimbursementLine {
	return models.ReimbursementLine{
		Entry:    models.FuelEntry{Date: date, FuelType: "diesel", VolumeLiters: decimal.RequireFromString(volume)},
		Activity: activity,
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestDateRange(t *testing.T) {
	a := DateRange{Start: day(2025, 12, 1), End: day(2025, 12, 31)}
	b := DateRange{Start: day(2026, 1, 1), End: day(2026, 1, 31)}

	assert.Equal(t, "2025-12-01_2025-12-31", a.String())
	assert.Equal(t, DateRange{Start: day(2025, 12, 1), End: day(2026, 1, 31)}, a.Merge(b))
	assert.Equal(t, a.Merge(b), b.Merge(a))
	assert.Equal(t, a, DateRange{}.Merge(a))
	assert.Equal(t, a, a.Merge(DateRange{}))
	assert.True(t, DateRange{}.IsZero())
}

func TestSummarize_Quarter(t *testing.T) {
	agg := NewAggregator(logging.NewMockLogger())
	lines := []models.ReimbursementLine{
		line(day(2026, 1, 15), "agriculture_with_direct", "1000", "600.50"),
		line(day(2025, 12, 15), "agriculture_with_direct", "1000", "340.60"),
		line(day(2026, 3, 31), "construction", "10", "3.41"),
		line(day(2026, 4, 1), "construction", "-10", "-3.41"),
	}

	totals, err := agg.Summarize(lines, models.PeriodQuarter)
	require.NoError(t, err)
	require.Len(t, totals, 3)

	assert.Equal(t, "2025-Q4", totals[0].Label)
	assert.Equal(t, "340.6", totals[0].Amount.String())

	assert.Equal(t, "2026-Q1", totals[1].Label)
	assert.Equal(t, day(2026, 1, 1), totals[1].Start)
	assert.Equal(t, day(2026, 4, 1), totals[1].End)
	assert.Equal(t, 2, totals[1].Entries)
	assert.Equal(t, "1010", totals[1].Volume.String())
	assert.Equal(t, "603.91", totals[1].Amount.String())

	assert.Equal(t, "2026-Q2", totals[2].Label)
	assert.True(t, totals[2].Amount.IsNegative())
}

func TestSummarize_UnknownPeriod(t *testing.T) {
	agg := NewAggregator(logging.NewMockLogger())
	_, err := agg.Summarize([]models.ReimbursementLine{line(day(2026, 1, 1), "", "1", "0.34")}, "week")
	assert.Error(t, err)

	totals, err := agg.Summarize(nil, "week")
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestSummarize_MixedOffsetsShareUTCBuckets(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	agg := NewAggregator(logging.NewMockLogger())
	lines := []models.ReimbursementLine{
		line(time.Date(2026, 3, 10, 8, 0, 0, 0, cet), "agriculture_with_direct", "100", "60.05"),
		line(time.Date(2026, 3, 20, 17, 45, 0, 0, cet), "agriculture_with_direct", "200", "120.10"),
		line(day(2026, 3, 25), "agriculture_with_direct", "300", "180.15"),
	}

	totals, err := agg.Summarize(lines, "month")
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "2026-03", totals[0].Label)
	assert.Equal(t, day(2026, 3, 1), totals[0].Start)
	assert.Equal(t, 3, totals[0].Entries)
	assert.Equal(t, "360.3", totals[0].Amount.String())
}

func TestSummarize_BucketFollowsPivotClock(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	agg := NewAggregator(logging.NewMockLogger())

	// 00:30 CET on 1 January is still 2025 in UTC, hence pre-reform.
	totals, err := agg.Summarize([]models.ReimbursementLine{
		line(time.Date(2026, 1, 1, 0, 30, 0, 0, cet), "agriculture_with_direct", "1000", "340.60"),
	}, "month")
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "2025-12", totals[0].Label)
	assert.Equal(t, day(2025, 12, 1), totals[0].Start)
	assert.Equal(t, day(2026, 1, 1), totals[0].End)
}

// Property: the period totals always add up to the sum of the lines,
// whatever the period granularity.
func TestProperty_SummarizePreservesTotals(t *testing.T) {
	agg := NewAggregator(logging.NewMockLogger())

	for i := 0; i < 50; i++ {
		t.Run(fmt.Sprintf("iteration_%d", i), func(t *testing.T) {
			n := cryptoRandIntn(30) + 1
			lines := make([]models.ReimbursementLine, n)
			wantAmount := decimal.Zero
			for k := range lines {
				date := day(2025, time.January, 1).AddDate(0, 0, cryptoRandIntn(730))
				amount := decimal.New(int64(cryptoRandIntn(200000)-50000), -2)
				lines[k] = line(date, "", "1", amount.String())
				wantAmount = wantAmount.Add(amount)
			}

			for _, period := range []string{models.PeriodMonth, models.PeriodQuarter, models.PeriodYear} {
				totals, err := agg.Summarize(lines, period)
				require.NoError(t, err)

				gotAmount := decimal.Zero
				entries := 0
				for k, total := range totals {
					gotAmount = gotAmount.Add(total.Amount)
					entries += total.Entries
					if k > 0 {
						assert.True(t, totals[k-1].End.Equal(total.Start) || totals[k-1].End.Before(total.Start))
					}
				}
				assert.True(t, wantAmount.Equal(gotAmount), "period %s: want %s got %s", period, wantAmount, gotAmount)
				assert.Equal(t, n, entries)
			}
		})
	}
}

func TestSummarizeBySector(t *testing.T) {
	agg := NewAggregator(logging.NewMockLogger())
	totals := agg.SummarizeBySector([]models.ReimbursementLine{
		line(day(2026, 1, 15), "agriculture_with_direct", "1000", "600.50"),
		line(day(2026, 1, 16), "Agriculture_With_Direct", "10", "6.01"),
		line(day(2026, 1, 17), "", "10", "3.41"),
		line(day(2026, 1, 18), "bakery", "10", "3.41"),
	})

	require.Len(t, totals, 2)
	assert.Equal(t, "agriculture_with_direct", totals[0].Sector)
	assert.Equal(t, "606.51", totals[0].Amount.String())
	assert.Equal(t, 2, totals[0].Entries)
	assert.Equal(t, StandardSectorLabel, totals[1].Sector)
	assert.Equal(t, "6.82", totals[1].Amount.String())
}

func TestSortLines(t *testing.T) {
	agg := NewAggregator(logging.NewMockLogger())
	lines := []models.ReimbursementLine{
		line(day(2026, 2, 1), "", "5", "0"),
		line(day(2026, 1, 1), "", "9", "0"),
		line(day(2026, 1, 1), "", "3", "0"),
	}
	lines[1].Entry.InvoiceNumber = "B"
	lines[2].Entry.InvoiceNumber = "A"

	agg.SortLines(lines)
	assert.Equal(t, "A", lines[0].Entry.InvoiceNumber)
	assert.Equal(t, "B", lines[1].Entry.InvoiceNumber)
	assert.Equal(t, day(2026, 2, 1), lines[2].Entry.Date)
}

func TestDetectDuplicates(t *testing.T) {
	logger := logging.NewMockLogger()
	agg := NewAggregator(logger)

	base := models.FuelEntry{Date: day(2026, 1, 15), InvoiceNumber: "B-2026-004", FuelType: "diesel", VolumeLiters: decimal.NewFromInt(1000)}
	other := base
	other.InvoiceNumber = "B-2026-005"
	machineOnly := models.FuelEntry{Date: day(2026, 1, 20), MachineID: "TRAC-01", FuelType: "diesel", VolumeLiters: decimal.NewFromInt(50)}

	count := agg.DetectDuplicates([]models.FuelEntry{base, other, base, machineOnly, machineOnly})
	assert.Equal(t, 2, count)
	assert.True(t, logger.HasEntry("WARN", "Found potential duplicate fuel entries"))

	logger.Clear()
	assert.Equal(t, 0, agg.DetectDuplicates([]models.FuelEntry{base, other}))
	assert.Empty(t, logger.GetEntriesByLevel("WARN"))
}

func TestCalculateDateRange(t *testing.T) {
	assert.True(t, CalculateDateRange(nil).IsZero())

	dr := CalculateDateRange([]models.FuelEntry{
		{Date: day(2026, 1, 15)},
		{Date: day(2025, 12, 15)},
		{Date: day(2026, 3, 1)},
	})
	assert.Equal(t, DateRange{Start: day(2025, 12, 15), End: day(2026, 3, 1)}, dr)

	cet := time.FixedZone("CET", 3600)
	dr = CalculateDateRange([]models.FuelEntry{
		{Date: time.Date(2026, 1, 1, 0, 30, 0, 0, cet)},
		{Date: day(2026, 1, 15)},
	})
	assert.Equal(t, "2025-12-31_2026-01-15", dr.String())
	assert.Equal(t, time.UTC, dr.Start.Location())
}

func TestGenerateOutputFilename(t *testing.T) {
	dr := DateRange{Start: day(2025, 12, 15), End: day(2026, 1, 15)}
	assert.Equal(t, "reimbursements_2025-12-15_2026-01-15.csv", GenerateOutputFilename("", dr, ""))
	assert.Equal(t, "farm_2025-12-15_2026-01-15.json", GenerateOutputFilename("farm", dr, ".json"))
	assert.Equal(t, "farm.xml", GenerateOutputFilename("farm", DateRange{}, "xml"))
}
