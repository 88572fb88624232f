package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	assert.Equal(t, 4.0, SMA([]float64{1, 2, 3, 4, 5}, 3))
	assert.True(t, math.IsNaN(SMA([]float64{1, 2}, 3)))
	assert.True(t, math.IsNaN(SMA([]float64{1, 2}, 0)))
}

func TestEMASeries(t *testing.T) {
	// span 3 -> alpha 0.5
	got := EMASeries([]float64{2, 4, 8}, 3)
	assert.Equal(t, []float64{2, 3, 5.5}, got)
	assert.Nil(t, EMASeries(nil, 3))
	assert.True(t, math.IsNaN(EMA(nil, 3)))
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	m, s := MACD(closes, 12, 26, 9)
	assert.InDelta(t, 0, m, 1e-12)
	assert.InDelta(t, 0, s, 1e-12)
}

func TestMACDRisingSeriesIsPositive(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	m, s := MACD(closes, 12, 26, 9)
	assert.Greater(t, m, 0.0)
	assert.Greater(t, s, 0.0)
}

func TestRSI(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 100.0, RSI(up, 4))

	// two gains of 1, two losses of 1
	mixed := []float64{10, 11, 10, 11, 10}
	assert.InDelta(t, 50.0, RSI(mixed, 4), 1e-9)

	flat := []float64{7, 7, 7, 7, 7}
	assert.Equal(t, 50.0, RSI(flat, 4))

	down := []float64{5, 4, 3, 2, 1}
	assert.Equal(t, 0.0, RSI(down, 4))

	assert.True(t, math.IsNaN(RSI([]float64{1, 2}, 14)))
}

func TestBollingerSampleStd(t *testing.T) {
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mid, up, low := Bollinger(vals, 8, 2)
	assert.InDelta(t, 5.0, mid, 1e-12)
	// sample variance = 32/7
	sd := math.Sqrt(32.0 / 7.0)
	assert.InDelta(t, 5+2*sd, up, 1e-12)
	assert.InDelta(t, 5-2*sd, low, 1e-12)
}
