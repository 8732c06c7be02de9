// Package stats computes streaming summaries of numeric fields with
// quantile sketches.
package stats

import (
	"fmt"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
)

// DefaultAccuracy is the default relative accuracy of quantile estimates.
const DefaultAccuracy = 0.01

// Summary describes the values of one field.
type Summary struct {
	Field   string
	Count   int64
	NaN     int64 // NaN values, excluded from all other statistics
	Samples int   // samples contributing at least one value
	Min     float64
	Max     float64
	Mean    float64
	P50     float64
	P90     float64
	P99     float64
}

// Accumulator maintains running statistics for one field.
// It is not safe for concurrent use.
type Accumulator struct {
	field   string
	count   int64
	nan     int64
	samples int
	sum     float64
	min     float64
	max     float64
	sketch  *ddsketch.DDSketch
}

// New creates an Accumulator whose quantiles have the given relative
// accuracy (0 < accuracy < 1).
func New(field string, accuracy float64) (*Accumulator, error) {
	sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
	if err != nil {
		return nil, fmt.Errorf("creating sketch for %s: %w", field, err)
	}
	return &Accumulator{
		field:  field,
		min:    math.MaxFloat64,
		max:    -math.MaxFloat64,
		sketch: sketch,
	}, nil
}

// Add adds a value.
func (a *Accumulator) Add(value float64) error {
	if math.IsNaN(value) {
		a.nan++
		return nil
	}
	if err := a.sketch.Add(value); err != nil {
		return fmt.Errorf("%s: adding %v: %w", a.field, value, err)
	}
	a.count++
	a.sum += value
	if value < a.min {
		a.min = value
	}
	if value > a.max {
		a.max = value
	}
	return nil
}

// AddSample adds one sample's run of values.
func (a *Accumulator) AddSample(values []float64) error {
	if len(values) > 0 {
		a.samples++
	}
	for _, v := range values {
		if err := a.Add(v); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of non-NaN values added.
func (a *Accumulator) Count() int64 {
	return a.count
}

// Summary returns the statistics collected so far.
func (a *Accumulator) Summary() Summary {
	s := Summary{
		Field:   a.field,
		Count:   a.count,
		NaN:     a.nan,
		Samples: a.samples,
	}
	if a.count == 0 {
		return s
	}
	s.Min = a.min
	s.Max = a.max
	s.Mean = a.sum / float64(a.count)
	if qs, err := a.sketch.GetValuesAtQuantiles([]float64{0.50, 0.90, 0.99}); err == nil {
		s.P50, s.P90, s.P99 = clamp(qs[0], s), clamp(qs[1], s), clamp(qs[2], s)
	}
	return s
}

// clamp keeps sketch estimates within the observed range.
func clamp(v float64, s Summary) float64 {
	return math.Min(math.Max(v, s.Min), s.Max)
}
