package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// LineInput is a (unit price, quantity) pair taken from a frozen item snapshot.
type LineInput struct {
	UnitPriceCents int
	Qty            int
}

// Totals holds the derived money fields of an order. All amounts are cents.
type Totals struct {
	SubtotalCents    int
	TaxCents         int
	DeliveryFeeCents int
	TotalCents       int
}

// Estimator computes money totals and completion estimates. Now is injectable
// so tests can pin the clock.
type Estimator struct {
	CourierSpeedKmh    float64
	FallbackDistanceKm float64
	Now                func() time.Time
}

// NewEstimator builds an estimator with the given heuristics.
func NewEstimator(courierSpeedKmh, fallbackDistanceKm float64) (*Estimator, error) {
	if courierSpeedKmh <= 0 {
		return nil, fmt.Errorf("courier speed must be positive, got %v", courierSpeedKmh)
	}
	if fallbackDistanceKm < 0 {
		return nil, fmt.Errorf("fallback distance must not be negative, got %v", fallbackDistanceKm)
	}
	return &Estimator{
		CourierSpeedKmh:    courierSpeedKmh,
		FallbackDistanceKm: fallbackDistanceKm,
		Now:                time.Now,
	}, nil
}

// ComputeTotals derives subtotal, tax, delivery fee and total from frozen
// per-item prices. Tax is subtotal * rate rounded half-up to cent precision;
// total is the exact sum of the three parts.
func (e *Estimator) ComputeTotals(lines []LineInput, deliveryFeeCents int, taxRate decimal.Decimal) (Totals, error) {
	if deliveryFeeCents < 0 {
		return Totals{}, fmt.Errorf("delivery fee must not be negative")
	}
	subtotal := 0
	for i, line := range lines {
		if line.Qty < 1 {
			return Totals{}, fmt.Errorf("line %d: quantity must be at least 1", i)
		}
		if line.UnitPriceCents < 0 {
			return Totals{}, fmt.Errorf("line %d: unit price must not be negative", i)
		}
		subtotal += line.UnitPriceCents * line.Qty
	}

	tax := decimal.NewFromInt(int64(subtotal)).
		Mul(taxRate).
		Round(0) // cents in, half-up at cent precision out

	return Totals{
		SubtotalCents:    subtotal,
		TaxCents:         int(tax.IntPart()),
		DeliveryFeeCents: deliveryFeeCents,
		TotalCents:       subtotal + int(tax.IntPart()) + deliveryFeeCents,
	}, nil
}

// EstimateCompletion returns now + the slowest item's preparation time + the
// courier travel time for the given distance, rounded up to the next minute.
// A negative distance means unknown; the fallback distance is used.
func (e *Estimator) EstimateCompletion(prepMinutes []int, distanceKm float64) time.Time {
	maxPrep := 0
	for _, m := range prepMinutes {
		if m > maxPrep {
			maxPrep = m
		}
	}
	if distanceKm < 0 {
		distanceKm = e.FallbackDistanceKm
	}
	travelMinutes := distanceKm / e.CourierSpeedKmh * 60

	total := float64(maxPrep) + travelMinutes
	rounded := time.Duration(math.Ceil(total)) * time.Minute
	return e.now().Add(rounded)
}

func (e *Estimator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
