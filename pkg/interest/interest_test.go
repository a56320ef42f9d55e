package interest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		days      int
		want      string
	}{
		{"full year", "10000", "12", 365, "1200.00"},
		{"quarter", "10000", "12", 90, "295.89"},
		{"single day", "10000", "12", 1, "3.29"},
		{"rounds half up", "15000", "12", 73, "360.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(dec(tt.principal), dec(tt.rate), tt.days)
			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestComputeDefensiveZero(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		days      int
	}{
		{"zero principal", "0", "12", 90},
		{"negative principal", "-5000", "12", 90},
		{"zero rate", "10000", "0", 90},
		{"negative rate", "10000", "-1", 90},
		{"zero days", "10000", "12", 0},
		{"negative days", "10000", "12", -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(dec(tt.principal), dec(tt.rate), tt.days)
			assert.True(t, got.IsZero(), "want zero, got %s", got)
		})
	}
}

func TestSplitTDS(t *testing.T) {
	tds, net := SplitTDS(dec("1000.00"), true, dec("10"))
	assert.True(t, dec("100.00").Equal(tds), "tds = %s", tds)
	assert.True(t, dec("900.00").Equal(net), "net = %s", net)
}

func TestSplitTDSNotApplicable(t *testing.T) {
	tds, net := SplitTDS(dec("500.00"), false, dec("10"))
	assert.True(t, tds.IsZero())
	assert.True(t, dec("500.00").Equal(net))

	tds, net = SplitTDS(dec("500.00"), true, decimal.Zero)
	assert.True(t, tds.IsZero())
	assert.True(t, dec("500.00").Equal(net))
}

func TestSplitTDSZeroInterest(t *testing.T) {
	tds, net := SplitTDS(decimal.Zero, true, dec("10"))
	assert.True(t, tds.IsZero())
	assert.True(t, net.IsZero())
}
