package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Turn a declarative filter specification into taps.
 *
 * Description:	Windowed frequency sampling.  The ideal (brick wall)
 *		amplitude response is sampled on a dense grid, inverse
 *		transformed, centred, truncated and shaped with a Kaiser
 *		window whose beta is chosen for the tighter of the two
 *		ripple requirements.
 *
 *		The Kaiser length formula is only an estimate.  The
 *		response of each candidate is measured and the kernel
 *		grows two taps at a time until both ripple limits hold.
 *
 *		The design is a pure function of the specification, so
 *		the same specification always yields bit-identical taps.
 *		Designed tap sets are immutable and may be shared by any
 *		number of filter stages.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"math/cmplx"
	"slices"

	dspwindow "github.com/cwbudde/algo-dsp/dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

type FilterKind int

const (
	LowPass FilterKind = iota
	HighPass
)

func (k FilterKind) String() string {
	switch k {
	case LowPass:
		return "low-pass"
	case HighPass:
		return "high-pass"
	default:
		return "unknown"
	}
}

const defaultGridDensity = 16

// FilterSpecification describes a low or high pass response.
// Frequencies are in Hz.
type FilterSpecification struct {
	Name       string
	Kind       FilterKind
	SampleRate int

	PassBandEdge float64 // Cutoff for low-pass; start of the passband for high-pass.
	StopBandEdge float64 // Start of the stopband for low-pass; cutoff for high-pass.

	PassBandAmplitude float64
	StopBandAmplitude float64

	// Linear, relative to the passband amplitude, e.g. 0.01
	PassBandRipple float64
	StopBandRipple float64

	GridDensity int // 0 means the default of 16.
}

// Validate reports whether the specification can be designed.
func (s FilterSpecification) Validate() error {
	if s.SampleRate <= 0 {
		return configError("filter %q: sample rate %d", s.Name, s.SampleRate)
	}

	var nyquist = float64(s.SampleRate) / 2

	if s.PassBandEdge <= 0 || s.StopBandEdge <= 0 || s.PassBandEdge >= nyquist || s.StopBandEdge >= nyquist {
		return configError("filter %q: band edges %.1f/%.1f Hz outside 0 .. %.1f Hz", s.Name, s.PassBandEdge, s.StopBandEdge, nyquist)
	}

	switch s.Kind {
	case LowPass:
		if s.StopBandEdge <= s.PassBandEdge {
			return configError("filter %q: low-pass stopband %.1f Hz must be above passband %.1f Hz", s.Name, s.StopBandEdge, s.PassBandEdge)
		}
	case HighPass:
		if s.PassBandEdge <= s.StopBandEdge {
			return configError("filter %q: high-pass passband %.1f Hz must be above stopband %.1f Hz", s.Name, s.PassBandEdge, s.StopBandEdge)
		}
	default:
		return configError("filter %q: unknown kind %d", s.Name, s.Kind)
	}

	if s.PassBandRipple <= 0 || s.PassBandRipple >= 1 || s.StopBandRipple <= 0 || s.StopBandRipple >= 1 {
		return configError("filter %q: ripple must be in (0, 1)", s.Name)
	}

	if s.PassBandAmplitude <= 0 || s.StopBandAmplitude < 0 || s.StopBandAmplitude >= s.PassBandAmplitude {
		return configError("filter %q: amplitudes pass=%g stop=%g", s.Name, s.PassBandAmplitude, s.StopBandAmplitude)
	}

	if s.GridDensity < 0 {
		return configError("filter %q: grid density %d", s.Name, s.GridDensity)
	}

	if n := s.EstimatedTaps(); n > MaxFilterTaps {
		return configError("filter %q: needs %d taps, more than the %d allowed", s.Name, n, MaxFilterTaps)
	}

	return nil
}

// attenuation in dB needed to satisfy the tighter ripple.
func (s FilterSpecification) attenuation() float64 {
	return -20 * math.Log10(math.Min(s.PassBandRipple, s.StopBandRipple))
}

// transitionWidth as a fraction of the sample rate.
func (s FilterSpecification) transitionWidth() float64 {
	return math.Abs(s.StopBandEdge-s.PassBandEdge) / float64(s.SampleRate)
}

func (s FilterSpecification) gridDensity() int {
	if s.GridDensity == 0 {
		return defaultGridDensity
	}
	return s.GridDensity
}

// EstimatedTaps is the Kaiser length estimate, forced odd.
func (s FilterSpecification) EstimatedTaps() int {
	var a = s.attenuation()
	var df = s.transitionWidth()
	if df <= 0 {
		return math.MaxInt32
	}

	var n int
	if a > 21 {
		n = int(math.Ceil((a-7.95)/(14.36*df))) + 1
	} else {
		n = int(math.Ceil(0.9222/df)) + 1
	}

	n = max(n, 3)
	return n | 1
}

func (s FilterSpecification) idealAmplitude(freq float64, cutoff float64) float64 {
	var inPass = freq < cutoff
	if s.Kind == HighPass {
		inPass = !inPass
	}
	return IfThenElse(inPass, s.PassBandAmplitude, s.StopBandAmplitude)
}

/*------------------------------------------------------------------
 *
 * Name:        DesignFilter
 *
 * Purpose:     Produce the tap set for a specification.
 *
 * Description:	Starts from the estimated length and adds two taps
 *		until the measured passband deviation and stopband
 *		peak are both within the declared ripple.
 *
 * Errors:	ErrConfiguration if the specification is unrealisable
 *		within MaxFilterTaps.
 *
 *----------------------------------------------------------------*/

func DesignFilter(s FilterSpecification) (TapSet, error) {
	return designFilter(s, MaxFilterTaps)
}

func designFilter(s FilterSpecification, maxTaps int) (TapSet, error) {
	if err := s.Validate(); err != nil {
		return TapSet{}, err
	}

	var numTaps = s.EstimatedTaps()
	for ; numTaps <= maxTaps; numTaps += 2 {
		var taps, err = s.kernel(numTaps)
		if err != nil {
			return TapSet{}, err
		}

		var candidate = TapSet{name: s.Name, taps: taps}
		var passDeviation, stopPeak = s.measure(candidate)
		if passDeviation <= s.PassBandRipple && stopPeak <= s.StopBandRipple {
			return candidate, nil
		}
	}

	return TapSet{}, configError("filter %q: ripple not met within %d taps", s.Name, maxTaps)
}

// kernel is the windowed frequency sampling design at a fixed length.
func (s FilterSpecification) kernel(numTaps int) ([]float64, error) {
	var shape, err = dspwindow.Kaiser(numTaps, kaiserBeta(s.attenuation()))
	if err != nil {
		return nil, configError("filter %q: %v", s.Name, err)
	}

	var fftSize = nextPowerOfTwo(numTaps * s.gridDensity())
	var cutoff = 0.5 * (s.PassBandEdge + s.StopBandEdge)

	// Zero phase, so the spectrum is real and the impulse response
	// is symmetric about index 0.
	var coeffs = make([]complex128, fftSize/2+1)
	for k := range coeffs {
		var freq = float64(k) * float64(s.SampleRate) / float64(fftSize)
		coeffs[k] = complex(s.idealAmplitude(freq, cutoff), 0)
	}

	var fft = fourier.NewFFT(fftSize)
	var impulse = fft.Sequence(nil, coeffs)

	var center = (numTaps - 1) / 2
	var taps = make([]float64, numTaps)
	for n := range taps {
		var idx = (n - center + fftSize) % fftSize
		taps[n] = impulse[idx] / float64(fftSize) * shape[n]
	}

	// Pin the gain exactly at the middle of the passband.
	var gain float64
	switch s.Kind {
	case LowPass:
		gain = floats.Sum(taps)
	case HighPass:
		for n, t := range taps {
			gain += t * IfThenElse((n-center)%2 == 0, 1.0, -1.0)
		}
	}
	if math.Abs(gain) < 1e-12 {
		return nil, configError("filter %q: degenerate design", s.Name)
	}
	floats.Scale(s.PassBandAmplitude/gain, taps)

	return taps, nil
}

// Measurement grid spacing never exceeds this many Hz.
const measureResolution = 2.0

/*------------------------------------------------------------------
 *
 * Name:        measure
 *
 * Purpose:     Worst passband deviation and stopband peak of a
 *		design, both relative to the passband amplitude.
 *
 * Description:	|H| on a zero padded FFT grid no coarser than
 *		measureResolution, plus the two band edges exactly.
 *
 *----------------------------------------------------------------*/

func (s FilterSpecification) measure(t TapSet) (passDeviation float64, stopPeak float64) {
	var rate = float64(s.SampleRate)
	var size = nextPowerOfTwo(max(len(t.taps)*s.gridDensity(), int(math.Ceil(rate/measureResolution))))

	var padded = make([]float64, size)
	copy(padded, t.taps)
	var spectrum = fourier.NewFFT(size).Coefficients(nil, padded)

	var check = func(freq float64, magnitude float64) {
		var inPass, inStop bool
		switch s.Kind {
		case LowPass:
			inPass, inStop = freq <= s.PassBandEdge, freq >= s.StopBandEdge
		case HighPass:
			inPass, inStop = freq >= s.PassBandEdge, freq <= s.StopBandEdge
		}
		if inPass {
			passDeviation = max(passDeviation, math.Abs(magnitude-s.PassBandAmplitude)/s.PassBandAmplitude)
		}
		if inStop {
			stopPeak = max(stopPeak, math.Abs(magnitude-s.StopBandAmplitude)/s.PassBandAmplitude)
		}
	}

	for k, c := range spectrum {
		check(float64(k)*rate/float64(size), cmplx.Abs(c))
	}
	check(s.PassBandEdge, t.Magnitude(s.PassBandEdge, rate))
	check(s.StopBandEdge, t.Magnitude(s.StopBandEdge, rate))

	return passDeviation, stopPeak
}

/*------------------------------------------------------------------
 *
 * Name:	TapSet
 *
 * Purpose:	An immutable set of FIR coefficients.
 *
 *------------------------------------------------------------------*/

type TapSet struct {
	name string
	taps []float64
}

// NewTapSet copies taps.
func NewTapSet(name string, taps []float64) (TapSet, error) {
	if len(taps) == 0 {
		return TapSet{}, configError("tap set %q is empty", name)
	}
	if len(taps) > MaxFilterTaps {
		return TapSet{}, configError("tap set %q has %d taps, more than the %d allowed", name, len(taps), MaxFilterTaps)
	}
	for _, t := range taps {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return TapSet{}, configError("tap set %q is not finite", name)
		}
	}
	return TapSet{name: name, taps: slices.Clone(taps)}, nil
}

func (t TapSet) Name() string {
	return t.name
}

func (t TapSet) Len() int {
	return len(t.taps)
}

func (t TapSet) IsZero() bool {
	return len(t.taps) == 0
}

// Coefficients returns a copy of the taps.
func (t TapSet) Coefficients() []float64 {
	return slices.Clone(t.taps)
}

// Response is the complex frequency response at freq Hz for the given sample rate.
func (t TapSet) Response(freq float64, sampleRate float64) complex128 {
	var w = 2 * math.Pi * freq / sampleRate
	var h complex128
	for n, c := range t.taps {
		h += complex(c, 0) * cmplx.Exp(complex(0, -w*float64(n)))
	}
	return h
}

// Magnitude is |Response|.
func (t TapSet) Magnitude(freq float64, sampleRate float64) float64 {
	return cmplx.Abs(t.Response(freq, sampleRate))
}

// isSymmetric reports linear phase: taps[i] == taps[n-1-i] within tol.
func (t TapSet) isSymmetric(tol float64) bool {
	var n = len(t.taps)
	for i := 0; i < n/2; i++ {
		if math.Abs(t.taps[i]-t.taps[n-1-i]) > tol {
			return false
		}
	}
	return true
}
