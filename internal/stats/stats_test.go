package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator(t *testing.T) {
	a, err := New("energy", DefaultAccuracy)
	require.NoError(t, err)

	for i := 1; i <= 100; i++ {
		require.NoError(t, a.Add(float64(i)))
	}
	require.NoError(t, a.Add(math.NaN()))

	s := a.Summary()
	assert.Equal(t, "energy", s.Field)
	assert.Equal(t, int64(100), s.Count)
	assert.Equal(t, int64(1), s.NaN)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	assert.InDelta(t, 50.5, s.Mean, 1e-9)
	assert.InEpsilon(t, 50, s.P50, 0.03)
	assert.InEpsilon(t, 90, s.P90, 0.03)
	assert.InEpsilon(t, 99, s.P99, 0.03)
}

func TestAccumulatorNegative(t *testing.T) {
	a, err := New("charges", DefaultAccuracy)
	require.NoError(t, err)
	require.NoError(t, a.AddSample([]float64{-0.5, 0, 0.5}))
	require.NoError(t, a.AddSample(nil))
	require.NoError(t, a.AddSample([]float64{-1}))

	s := a.Summary()
	assert.Equal(t, int64(4), s.Count)
	assert.Equal(t, 2, s.Samples)
	assert.Equal(t, -1.0, s.Min)
	assert.Equal(t, 0.5, s.Max)
	assert.GreaterOrEqual(t, s.P50, -1.0)
	assert.LessOrEqual(t, s.P99, 0.5)
}

func TestEmptySummary(t *testing.T) {
	a, err := New("x", DefaultAccuracy)
	require.NoError(t, err)
	s := a.Summary()
	assert.Zero(t, s.Count)
	assert.Zero(t, s.Min)
	assert.Zero(t, s.Max)
}

func TestInvalidAccuracy(t *testing.T) {
	_, err := New("x", 0)
	assert.Error(t, err)
	_, err = New("x", 1.5)
	assert.Error(t, err)
}
