package taxrate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateReimbursement(t *testing.T) {
	calc := NewCalculator(NewResolver(DefaultTable()))

	tests := []struct {
		name     string
		volume   string
		date     string
		sector   string
		fuel     string
		expected string
	}{
		{"last second before pivot", "1000", "2025-12-31T23:59:59Z", "agriculture_with_direct", "diesel", "340.60"},
		{"pivot instant", "1000", "2026-01-01T00:00:00Z", "agriculture_with_direct", "diesel", "600.50"},
		{"post-reform agriculture", "1000", "2026-06-01", "agriculture_with_direct", "diesel", "600.50"},
		{"post-reform construction", "1000", "2026-06-01", "construction", "diesel", "340.60"},
		{"post-reform agriculture gasoline", "1000", "2026-06-01", "agriculture_with_direct", "gasoline", "592.40"},
		{"raw product rounds up", "333", "2025-06-01", "construction", "diesel", "113.42"},
		{"half cent rounds up", "25", "2025-06-01", "construction", "diesel", "8.52"},
		{"fractional volume", "12.5", "2026-06-01", "agriculture_with_direct", "diesel", "7.51"},
		{"zero volume", "0", "2026-06-01", "agriculture_with_direct", "diesel", "0.00"},
		{"correction entry is negative", "-100", "2026-06-01", "construction", "diesel", "-34.06"},
		{"negative half cent rounds away from zero", "-25", "2025-06-01", "construction", "diesel", "-8.52"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := calc.CalculateReimbursement(decimal.RequireFromString(tt.volume), mustDate(t, tt.date), tt.sector, tt.fuel)
			assert.Equal(t, tt.expected, amount.StringFixed(2))
		})
	}
}

func TestCalculateReimbursement_FactureScenario(t *testing.T) {
	calc := NewCalculator(nil)
	volume := decimal.NewFromInt(1000)

	factureA := calc.Calculate(volume, mustDate(t, "2025-12-15"), "agriculture_with_direct", "diesel")
	factureB := calc.Calculate(volume, mustDate(t, "2026-01-05"), "agriculture_with_direct", "diesel")

	assert.Equal(t, "340.60", factureA.Amount.StringFixed(2))
	assert.Equal(t, "600.50", factureB.Amount.StringFixed(2))
	assert.Equal(t, PreReform, factureA.Era)
	assert.Equal(t, PostReform, factureB.Era)
	assert.True(t, factureA.Volume.Equal(volume))
}

func TestCalculateReimbursement_Idempotent(t *testing.T) {
	calc := NewCalculator(nil)
	date := mustDate(t, "2026-02-10T10:00:00Z")
	volume := decimal.RequireFromString("487.33")

	first := calc.CalculateReimbursement(volume, date, "agriculture_with_direct", "gasoline")
	second := calc.CalculateReimbursement(volume, date, "agriculture_with_direct", "gasoline")
	assert.True(t, first.Equal(second))
}

func TestCalculateReimbursement_Monotonic(t *testing.T) {
	calc := NewCalculator(nil)
	cent := decimal.RequireFromString("0.01")

	for _, v := range []string{"1", "333", "487.33", "1234.567", "0.05"} {
		for _, date := range []string{"2025-05-01", "2026-05-01"} {
			for _, sector := range []string{"agriculture_with_direct", "construction", ""} {
				for _, fuel := range FuelTypes() {
					volume := decimal.RequireFromString(v)
					d := mustDate(t, date)
					single := calc.CalculateReimbursement(volume, d, sector, string(fuel))
					double := calc.CalculateReimbursement(volume.Mul(decimal.NewFromInt(2)), d, sector, string(fuel))

					diff := double.Sub(single.Mul(decimal.NewFromInt(2))).Abs()
					assert.True(t, diff.LessThanOrEqual(cent),
						"volume %s %s %s %s: 2x=%s, x=%s", v, date, sector, fuel, double, single)
				}
			}
		}
	}
}

func TestCalculateFloat(t *testing.T) {
	calc := NewCalculator(nil)
	assert.InDelta(t, 600.50, calc.CalculateFloat(1000, mustDate(t, "2026-01-01"), "agriculture_with_direct", "diesel"), 1e-9)
	assert.InDelta(t, 113.42, calc.CalculateFloat(333, mustDate(t, "2025-01-01"), "", "diesel"), 1e-9)
}

func TestLegacyFlatReimbursement(t *testing.T) {
	assert.Equal(t, "340.60", LegacyFlatReimbursement(decimal.NewFromInt(1000)).StringFixed(2))
	assert.Equal(t, "113.42", LegacyFlatReimbursement(decimal.NewFromInt(333)).StringFixed(2))

	// The flat estimate and the table's standard rule share one constant.
	calc := NewCalculator(nil)
	standard := calc.CalculateReimbursement(decimal.NewFromInt(1000), mustDate(t, "2025-03-01"), "", "diesel")
	assert.True(t, standard.Equal(LegacyFlatReimbursement(decimal.NewFromInt(1000))))
}

func TestRoundCHF(t *testing.T) {
	tests := map[string]string{
		"113.4198": "113.42",
		"113.4149": "113.41",
		"0.005":    "0.01",
		"-0.005":   "-0.01",
		"340.6":    "340.60",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, RoundCHF(decimal.RequireFromString(in)).StringFixed(2), in)
	}
}
