package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Filter stages: real FIR filtering with optional decimation.
 *
 * Description:	A stage owns its sample history and decimation phase
 *		but only borrows its taps, which may be shared.  Both
 *		persist across calls, so output is the same however the
 *		input happens to be chunked.
 *
 *		Output length for an input of N samples is
 *		floor((phase + N) / R).  When every buffer is a multiple
 *		of R that is exactly N / R.
 *
 *------------------------------------------------------------------*/

import (
	"math"
)

type RealFIRFilter struct {
	name       string
	taps       []float64 // Borrowed from a TapSet.  Never written.
	sparse     []int     // Non-zero tap indices, for half-band kernels.
	gain       float64
	decimation int

	history delayLine
	phase   int

	out Output[SampleBuffer]
}

// NewRealFIRFilter creates a filter stage.  decimation 1 means none.
func NewRealFIRFilter(taps TapSet, gain float64, decimation int) (*RealFIRFilter, error) {
	if taps.IsZero() {
		return nil, configError("filter stage needs taps")
	}
	if decimation < 1 {
		return nil, configError("filter %q: decimation %d", taps.Name(), decimation)
	}
	if gain <= 0 || math.IsNaN(gain) || math.IsInf(gain, 0) {
		return nil, configError("filter %q: gain %g", taps.Name(), gain)
	}

	return &RealFIRFilter{
		name:       taps.Name(),
		taps:       taps.taps,
		gain:       gain,
		decimation: decimation,
		history:    newDelayLine(taps.Len()),
	}, nil
}

/*------------------------------------------------------------------
 *
 * Name:        NewHalfBandDecimator
 *
 * Purpose:     Filter and decimate by exactly 2.
 *
 * Inputs:	taps	- Odd length, symmetric, with every second tap
 *			  either side of the centre zero.
 *
 * Description:	Only the non-zero taps are multiplied.
 *
 *----------------------------------------------------------------*/

func NewHalfBandDecimator(taps TapSet, gain float64) (*RealFIRFilter, error) {
	var n = taps.Len()
	if n < 3 || n%2 == 0 {
		return nil, configError("half-band filter %q: length %d must be odd", taps.Name(), n)
	}
	if !taps.isSymmetric(1e-9) {
		return nil, configError("half-band filter %q: taps are not symmetric", taps.Name())
	}

	var center = (n - 1) / 2
	var sparse []int
	for j, t := range taps.taps {
		var offset = j - center
		if offset != 0 && offset%2 == 0 {
			if math.Abs(t) > 1e-9 {
				return nil, configError("half-band filter %q: tap %d should be zero", taps.Name(), j)
			}
			continue
		}
		sparse = append(sparse, j)
	}

	var f, err = NewRealFIRFilter(taps, gain, 2)
	if err != nil {
		return nil, err
	}
	f.sparse = sparse
	return f, nil
}

func (f *RealFIRFilter) Name() string {
	return f.name
}

func (f *RealFIRFilter) Decimation() int {
	return f.decimation
}

// Output is where filtered buffers go.
func (f *RealFIRFilter) Output() *Output[SampleBuffer] {
	return &f.out
}

// SetListener replaces the downstream stage.
func (f *RealFIRFilter) SetListener(l Listener[SampleBuffer]) {
	f.out.SetListener(l)
}

// Receive filters a buffer and passes the result downstream.
func (f *RealFIRFilter) Receive(in SampleBuffer) {
	var out = f.Process(in)
	if len(out.Samples) > 0 {
		f.out.Emit(out)
	}
}

// Process filters a buffer and returns the result without emitting it.
func (f *RealFIRFilter) Process(in SampleBuffer) SampleBuffer {
	var samples = make([]float64, 0, (f.phase+len(in.Samples))/f.decimation)

	for _, x := range in.Samples {
		f.history.push(x)
		f.phase++
		if f.phase < f.decimation {
			continue
		}
		f.phase = 0
		samples = append(samples, f.gain*f.convolve())
	}

	return SampleBuffer{Samples: samples, SampleRate: in.SampleRate / f.decimation}
}

func (f *RealFIRFilter) convolve() float64 {
	if f.sparse == nil {
		return f.history.convolve(f.taps)
	}

	var w = f.history.window()
	var sum float64
	for _, j := range f.sparse {
		sum += f.taps[j] * w[j]
	}
	return sum
}

// Reset clears sample history and decimation phase.
func (f *RealFIRFilter) Reset() {
	f.history.reset()
	f.phase = 0
}
