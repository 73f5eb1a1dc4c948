package lmrdecode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func Test_GenLowpassUnityDC(t *testing.T) {
	for _, w := range []WindowType{WindowTruncated, WindowCosine, WindowHamming, WindowBlackman, WindowFlatTop} {
		var taps = genLowpass(0.1, 63, w)
		assert.InDelta(t, 1.0, floats.Sum(taps), 1e-9, "window %d", w)
		assert.InDelta(t, taps[0], taps[62], 1e-12)
	}
}

func Test_GenHalfBand(t *testing.T) {
	var taps = genHalfBand(31, WindowBlackman)
	require.Len(t, taps, 31)

	assert.InDelta(t, 1.0, floats.Sum(taps), 1e-9)

	for j, x := range taps {
		var offset = j - 15
		if offset != 0 && offset%2 == 0 {
			assert.Zero(t, x, "tap %d", j)
		} else {
			assert.NotZero(t, x, "tap %d", j)
		}
	}

	var ts, err = NewTapSet("hb", taps)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ts.Magnitude(12000, 48000), 0.01)
	assert.Less(t, ts.Magnitude(20000, 48000), 0.01)
}

func Test_GenBandpassCentreGain(t *testing.T) {
	var taps = genBandpass(1000.0/24000, 2000.0/24000, 209, WindowTruncated)

	var ts, err = NewTapSet("bp", taps)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ts.Magnitude(1500, 24000), 0.05)
	assert.Less(t, ts.Magnitude(5000, 24000), 0.05)
}

func Test_RRC(t *testing.T) {
	assert.InDelta(t, 1.0, rrc(0, 0.2), 1e-12)
	assert.InDelta(t, 0.0, rrc(1, 0.2), 1e-9)
	assert.InDelta(t, 0.0, rrc(-2, 0.2), 1e-9)
	// a*t == 0.5 is a removable singularity.
	assert.False(t, math.IsNaN(rrc(2.5, 0.2)))
}

func Test_KaiserBeta(t *testing.T) {
	assert.Zero(t, kaiserBeta(20))
	assert.InDelta(t, 0.5842*math.Pow(9, 0.4)+0.07886*9, kaiserBeta(30), 1e-12)
	assert.InDelta(t, 0.1102*(60-8.7), kaiserBeta(60), 1e-12)
}

func Test_DelayLine(t *testing.T) {
	var d = newDelayLine(3)

	for _, x := range []float64{1, 2, 3, 4} {
		d.push(x)
	}
	assert.Equal(t, []float64{4, 3, 2}, d.window())
	assert.InDelta(t, 4*1+3*10+2*100, d.convolve([]float64{1, 10, 100}), 1e-12)

	d.reset()
	assert.Equal(t, []float64{0, 0, 0}, d.window())
}

func Test_AGC(t *testing.T) {
	var peak, valley, out float64
	for i := range 2000 {
		var in = IfThenElse(i%2 == 0, 0.8, -0.2)
		peak, valley, out = agc(in, 0.7, 0.0001, peak, valley)
	}

	assert.InDelta(t, 0.8, peak, 0.01)
	assert.InDelta(t, -0.2, valley, 0.01)
	assert.InDelta(t, -0.5, out, 0.01)
}

func Test_Oscillator(t *testing.T) {
	assert.InDelta(t, 1.0, fcos256(0), 1e-12)
	assert.InDelta(t, 0.0, fsin256(0), 1e-12)
	assert.InDelta(t, 1.0, fsin256(1<<30), 1e-12)
	assert.InDelta(t, -1.0, fcos256(1<<31), 1e-12)
}

func Test_NextPowerOfTwo(t *testing.T) {
	assert.Equal(t, 1, nextPowerOfTwo(0))
	assert.Equal(t, 1, nextPowerOfTwo(1))
	assert.Equal(t, 2048, nextPowerOfTwo(1776))
	assert.Equal(t, 4096, nextPowerOfTwo(4096))
}
