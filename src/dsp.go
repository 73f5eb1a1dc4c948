package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:     Filter kernels and small DSP building blocks shared
 *		by the filter stages and the demodulators.
 *
 *----------------------------------------------------------------*/

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Longest kernel any generator here will produce.
const MaxFilterTaps = 4095

type WindowType int

const (
	WindowTruncated WindowType = iota
	WindowCosine
	WindowHamming
	WindowBlackman
	WindowFlatTop
)

/*------------------------------------------------------------------
 *
 * Name:        window
 *
 * Purpose:     Filter window shape functions.
 *
 * Inputs:   	windowType	- WindowHamming, etc.
 *		size		- Number of filter taps.
 *		j		- Index in range of 0 to size-1.
 *
 * Returns:     Multiplier for the window shape.
 *
 *----------------------------------------------------------------*/

func window(windowType WindowType, size int, j int) float64 {
	var n = float64(size)
	var x = float64(j)
	var center = 0.5 * (n - 1)

	switch windowType {
	case WindowCosine:
		return math.Cos((x - center) / n * math.Pi)

	case WindowHamming:
		return 0.53836 - 0.46164*math.Cos((x*2*math.Pi)/(n-1))

	case WindowBlackman:
		return 0.42659 - 0.49656*math.Cos((x*2*math.Pi)/(n-1)) +
			0.076849*math.Cos((x*4*math.Pi)/(n-1))

	case WindowFlatTop:
		return 1.0 - 1.93*math.Cos((x*2*math.Pi)/(n-1)) +
			1.29*math.Cos((x*4*math.Pi)/(n-1)) -
			0.388*math.Cos((x*6*math.Pi)/(n-1)) +
			0.028*math.Cos((x*8*math.Pi)/(n-1))

	case WindowTruncated:
		fallthrough
	default:
		return 1.0
	}
}

// kaiserBeta is the shape parameter for a given stopband attenuation in dB.
func kaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > 50:
		return 0.1102 * (attenuation - 8.7)
	case attenuation >= 21:
		return 0.5842*math.Pow(attenuation-21, 0.4) + 0.07886*(attenuation-21)
	default:
		return 0
	}
}

/*------------------------------------------------------------------
 *
 * Name:        genLowpass
 *
 * Purpose:     Generate low pass filter kernel.
 *
 * Inputs:   	fc		- Cutoff frequency as fraction of sampling frequency.
 *		size		- Number of filter taps.
 *		wtype		- Window type, WindowHamming, etc.
 *
 * Returns:	Kernel normalised for unity gain at DC.
 *
 *----------------------------------------------------------------*/

func genLowpass(fc float64, size int, wtype WindowType) []float64 {
	Assert(size >= 3 && size <= MaxFilterTaps)

	var taps = make([]float64, size)
	var center = 0.5 * float64(size-1)

	for j := range taps {
		var sinc float64
		var offset = float64(j) - center

		if offset == 0 {
			sinc = 2 * fc
		} else {
			sinc = math.Sin(2*math.Pi*fc*offset) / (math.Pi * offset)
		}

		taps[j] = sinc * window(wtype, size, j)
	}

	floats.Scale(1/floats.Sum(taps), taps)

	return taps
}

/*------------------------------------------------------------------
 *
 * Name:        genBandpass
 *
 * Purpose:     Generate band pass filter kernel for a demodulator prefilter.
 *
 * Inputs:   	f1		- Lower cutoff frequency as fraction of sampling frequency.
 *		f2		- Upper cutoff frequency...
 *		size		- Number of filter taps.
 *		wtype		- Window type, WindowHamming, etc.
 *
 * Returns:	Kernel normalised for unity gain in the middle of the passband.
 *
 *----------------------------------------------------------------*/

func genBandpass(f1 float64, f2 float64, size int, wtype WindowType) []float64 {
	Assert(size >= 3 && size <= MaxFilterTaps)
	Assert(f1 < f2)

	var taps = make([]float64, size)
	var center = 0.5 * float64(size-1)

	for j := range taps {
		var sinc float64
		var offset = float64(j) - center

		if offset == 0 {
			sinc = 2 * (f2 - f1)
		} else {
			sinc = math.Sin(2*math.Pi*f2*offset)/(math.Pi*offset) -
				math.Sin(2*math.Pi*f1*offset)/(math.Pi*offset)
		}

		taps[j] = sinc * window(wtype, size, j)
	}

	// Can't normalise the same way as lowpass, so compute the gain
	// in the middle of the passband instead.
	var w = 2 * math.Pi * (f1 + f2) / 2
	var g float64
	for j, t := range taps {
		g += t * math.Cos((float64(j)-center)*w)
	}
	floats.Scale(1/g, taps)

	return taps
}

/*------------------------------------------------------------------
 *
 * Name:        genHalfBand
 *
 * Purpose:     Generate a half-band low pass kernel for decimation by 2.
 *
 * Inputs:	size	- Number of taps.  Must be 4k+3 so the outermost
 *			  taps are the non-zero ones.
 *
 * Description:	Cutoff at a quarter of the sample rate.  Every second
 *		tap either side of the centre is exactly zero, which the
 *		decimator exploits.
 *
 *----------------------------------------------------------------*/

func genHalfBand(size int, wtype WindowType) []float64 {
	Assert(size%4 == 3)

	var taps = genLowpass(0.25, size, wtype)
	var center = (size - 1) / 2

	for j := range taps {
		var offset = j - center
		if offset != 0 && offset%2 == 0 {
			taps[j] = 0
		}
	}

	floats.Scale(1/floats.Sum(taps), taps)

	return taps
}

/*------------------------------------------------------------------
 *
 * Name:        rrc
 *
 * Purpose:     Root Raised Cosine function.
 *
 * Inputs:      t		- Time in units of symbol duration.
 *				  i.e. The centers of two adjacent symbols would differ by 1.
 *
 *		a		- Roll off factor, between 0 and 1.
 *
 * Returns:	Basically the sinc  (sin(x)/x) function with edges decreasing faster.
 *		Should be 1 for t = 0 and 0 at all other integer values of t.
 *
 *----------------------------------------------------------------*/

func rrc(t float64, a float64) float64 {
	var sinc, shape float64

	if t > -0.001 && t < 0.001 {
		sinc = 1
	} else {
		sinc = math.Sin(math.Pi*t) / (math.Pi * t)
	}

	if math.Abs(a*t) > 0.499 && math.Abs(a*t) < 0.501 {
		shape = math.Pi / 4
	} else {
		shape = math.Cos(math.Pi*a*t) / (1 - math.Pow(2*a*t, 2))
	}

	return sinc * shape
}

// genRRCLowpass is supposed to minimise intersymbol interference.
func genRRCLowpass(size int, rolloff float64, samplesPerSymbol float64) []float64 {
	Assert(size >= 3 && size <= MaxFilterTaps)

	var taps = make([]float64, size)
	for k := range taps {
		var t = (float64(k) - (float64(size)-1.0)/2.0) / samplesPerSymbol
		taps[k] = rrc(t, rolloff)
	}

	floats.Scale(1/floats.Sum(taps), taps)

	return taps
}

/*------------------------------------------------------------------
 *
 * Name:	delayLine
 *
 * Purpose:	Sample history for FIR convolution.
 *
 * Description:	Each sample is stored twice, n apart, so the most
 *		recent n samples are always one contiguous slice,
 *		newest first.  Convolution is then a single dot product
 *		with no wraparound handling.
 *
 *----------------------------------------------------------------*/

type delayLine struct {
	buf []float64
	pos int
	n   int
}

func newDelayLine(n int) delayLine {
	Assert(n >= 1)

	return delayLine{buf: make([]float64, 2*n), n: n}
}

func (d *delayLine) push(x float64) {
	d.pos--
	if d.pos < 0 {
		d.pos = d.n - 1
	}
	d.buf[d.pos] = x
	d.buf[d.pos+d.n] = x
}

// window is the last n samples, newest first.
func (d *delayLine) window() []float64 {
	return d.buf[d.pos : d.pos+d.n]
}

func (d *delayLine) reset() {
	clear(d.buf)
	d.pos = 0
}

// convolve is the FIR output for the current history.  len(taps) must be n.
func (d *delayLine) convolve(taps []float64) float64 {
	return floats.Dot(taps, d.window())
}

/*------------------------------------------------------------------
 *
 * Name:	agc
 *
 * Purpose:	Automatic gain control.
 *
 * Description:	Track the peak and valley with a fast attack and slow
 *		decay, then scale the input into roughly -0.5 .. +0.5.
 *
 * Returns:	Updated peak, updated valley, normalised sample.
 *
 *----------------------------------------------------------------*/

func agc(in float64, fastAttack float64, slowDecay float64, peak float64, valley float64) (float64, float64, float64) {
	if in >= peak {
		peak = in*fastAttack + peak*(1.0-fastAttack)
	} else {
		peak = in*slowDecay + peak*(1.0-slowDecay)
	}

	if in <= valley {
		valley = in*fastAttack + valley*(1.0-fastAttack)
	} else {
		valley = in*slowDecay + valley*(1.0-slowDecay)
	}

	if peak > valley {
		return peak, valley, (in - 0.5*(peak+valley)) / (peak - valley)
	}
	return peak, valley, 0.0
}

// Quarter wave lookup for the local oscillators, indexed by the top
// 8 bits of a 32 bit phase accumulator.
var cos256 = func() [256]float64 {
	var table [256]float64
	for j := range table {
		table[j] = math.Cos(float64(j) * 2.0 * math.Pi / 256.0)
	}
	return table
}()

func fcos256(phase uint32) float64 {
	return cos256[(phase>>24)&0xff]
}

func fsin256(phase uint32) float64 {
	return cos256[((phase>>24)-64)&0xff]
}
