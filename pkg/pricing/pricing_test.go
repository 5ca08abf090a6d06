package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedEstimator(t *testing.T) (*Estimator, time.Time) {
	t.Helper()
	est, err := NewEstimator(30, 5)
	require.NoError(t, err)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	est.Now = func() time.Time { return now }
	return est, now
}

func TestComputeTotalsBasicCart(t *testing.T) {
	est, _ := fixedEstimator(t)

	// Two items: 100.00 x1 and 50.00 x2 at 5% tax with a 20.00 delivery fee.
	totals, err := est.ComputeTotals([]LineInput{
		{UnitPriceCents: 10000, Qty: 1},
		{UnitPriceCents: 5000, Qty: 2},
	}, 2000, decimal.NewFromFloat(0.05))
	require.NoError(t, err)

	assert.Equal(t, 20000, totals.SubtotalCents)
	assert.Equal(t, 1000, totals.TaxCents)
	assert.Equal(t, 2000, totals.DeliveryFeeCents)
	assert.Equal(t, 23000, totals.TotalCents)
	assert.Equal(t, totals.TotalCents, totals.SubtotalCents+totals.TaxCents+totals.DeliveryFeeCents)
}

func TestComputeTotalsRoundsTaxHalfUp(t *testing.T) {
	est, _ := fixedEstimator(t)

	// 333 * 0.075 = 24.975 -> 25 cents.
	totals, err := est.ComputeTotals([]LineInput{{UnitPriceCents: 333, Qty: 1}}, 0, decimal.NewFromFloat(0.075))
	require.NoError(t, err)
	assert.Equal(t, 25, totals.TaxCents)

	// 10 * 0.05 = 0.5 -> rounds up to 1 cent.
	totals, err = est.ComputeTotals([]LineInput{{UnitPriceCents: 10, Qty: 1}}, 0, decimal.NewFromFloat(0.05))
	require.NoError(t, err)
	assert.Equal(t, 1, totals.TaxCents)
}

func TestComputeTotalsRejectsBadLines(t *testing.T) {
	est, _ := fixedEstimator(t)

	_, err := est.ComputeTotals([]LineInput{{UnitPriceCents: 100, Qty: 0}}, 0, decimal.Zero)
	assert.Error(t, err)

	_, err = est.ComputeTotals([]LineInput{{UnitPriceCents: -5, Qty: 1}}, 0, decimal.Zero)
	assert.Error(t, err)

	_, err = est.ComputeTotals(nil, -1, decimal.Zero)
	assert.Error(t, err)
}

func TestEstimateCompletionRoundsUpToMinute(t *testing.T) {
	est, now := fixedEstimator(t)

	// 20 min prep + 10 km at 30 km/h (= 20 min travel) = 40 min exactly.
	eta := est.EstimateCompletion([]int{10, 20}, 10)
	assert.Equal(t, now.Add(40*time.Minute), eta)

	// 2.5 km at 30 km/h = 5 min travel; 15 + 5 = 20 min exactly.
	eta = est.EstimateCompletion([]int{15}, 2.5)
	assert.Equal(t, now.Add(20*time.Minute), eta)

	// 1 km at 30 km/h = 2 min; fractional total rounds up.
	eta = est.EstimateCompletion([]int{0}, 1.1)
	assert.Equal(t, now.Add(3*time.Minute), eta)
}

func TestEstimateCompletionUsesFallbackDistance(t *testing.T) {
	est, now := fixedEstimator(t)

	// Unknown distance falls back to 5 km = 10 min at 30 km/h.
	eta := est.EstimateCompletion([]int{30}, -1)
	assert.Equal(t, now.Add(40*time.Minute), eta)
}

func TestEstimateCompletionIdempotentForSameInputs(t *testing.T) {
	est, _ := fixedEstimator(t)
	first := est.EstimateCompletion([]int{12}, 4)
	second := est.EstimateCompletion([]int{12}, 4)
	assert.Equal(t, first, second)
}

func TestNewEstimatorValidation(t *testing.T) {
	_, err := NewEstimator(0, 5)
	assert.Error(t, err)
	_, err = NewEstimator(25, -1)
	assert.Error(t, err)
}
