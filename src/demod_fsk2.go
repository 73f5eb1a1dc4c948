package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Demodulator for 2 tone FSK / FFSK audio.
 *
 * Description:	Quadrature detection of each tone:
 *
 *		- Optional band pass prefilter around the two tones.
 *		- Mix with a local oscillator at each tone frequency
 *		  to get I and Q.
 *		- Root raised cosine low pass on I and Q.
 *		- Amplitude of each tone is hypot(I, Q).
 *		- Normalise each with its own AGC.  Tones are often not
 *		  received at the same level because of pre-emphasis
 *		  and de-emphasis, so this matters.
 *		- Demodulator output is the difference.  Positive means
 *		  mark.
 *
 *		Then the PLL decides where to sample.
 *
 *------------------------------------------------------------------*/

import (
	"math"
)

type Polarity int

const (
	PolarityNormal   Polarity = iota // Mark tone is a one.
	PolarityInverted                 // Mark tone is a zero.
)

func (p Polarity) String() string {
	return IfThenElse(p == PolarityInverted, "inverted", "normal")
}

// Demodulator turns filtered samples into a hard-decision symbol stream.
type Demodulator interface {
	Listener[SampleBuffer]

	// Output carries one bool per bit.
	Output() *Output[bool]

	// Locked reports data carrier detect.
	Locked() bool

	Reset()
}

type FSK2Config struct {
	SampleRate int
	Baud       int
	MarkHz     float64
	SpaceHz    float64
	Polarity   Polarity

	UsePrefilter bool
}

func (c FSK2Config) validate() error {
	if c.SampleRate <= 0 || c.Baud <= 0 {
		return configError("fsk2: sample rate %d, baud %d", c.SampleRate, c.Baud)
	}
	if 4*c.Baud > c.SampleRate {
		return configError("fsk2: %d samples/sec is too low for %d baud", c.SampleRate, c.Baud)
	}
	var nyquist = float64(c.SampleRate) / 2
	if c.MarkHz <= 0 || c.SpaceHz <= 0 || c.MarkHz >= nyquist || c.SpaceHz >= nyquist || c.MarkHz == c.SpaceHz {
		return configError("fsk2: tones %.0f/%.0f Hz at %d samples/sec", c.MarkHz, c.SpaceHz, c.SampleRate)
	}
	return nil
}

type FSK2Demodulator struct {
	config FSK2Config

	prefilter []float64
	raw       delayLine

	lpFilter []float64
	mI, mQ   delayLine
	sI, sQ   delayLine

	mOscPhase, mOscDelta uint32
	sOscPhase, sOscDelta uint32

	agcFastAttack float64
	agcSlowDecay  float64
	mPeak, mValley float64
	sPeak, sValley float64

	pll clockRecovery

	out Output[bool]
}

func NewFSK2Demodulator(config FSK2Config) (*FSK2Demodulator, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	var d = &FSK2Demodulator{
		config:        config,
		agcFastAttack: 0.70,
		agcSlowDecay:  0.000090,
		mOscDelta:     uint32(ticksPerPLLCycle * config.MarkHz / float64(config.SampleRate)),
		sOscDelta:     uint32(ticksPerPLLCycle * config.SpaceHz / float64(config.SampleRate)),
	}

	var sr = float64(config.SampleRate)
	var baud = float64(config.Baud)
	var samplesPerSymbol = sr / baud

	if config.UsePrefilter {
		const prefilterBaud = 0.50
		const prefilterLenSym = 383 * 1200.0 / 44100.0

		var f1 = (min(config.MarkHz, config.SpaceHz) - prefilterBaud*baud) / sr
		var f2 = (max(config.MarkHz, config.SpaceHz) + prefilterBaud*baud) / sr
		var taps = int(prefilterLenSym*samplesPerSymbol) | 1
		d.prefilter = genBandpass(max(f1, 0.001), f2, min(taps, MaxFilterTaps), WindowTruncated)
		d.raw = newDelayLine(len(d.prefilter))
	}

	const lpfWidthSym = 2.80
	const rrcRolloff = 0.20

	var lpTaps = int(lpfWidthSym*samplesPerSymbol) | 1
	d.lpFilter = genRRCLowpass(max(lpTaps, 3), rrcRolloff, samplesPerSymbol)
	d.mI = newDelayLine(len(d.lpFilter))
	d.mQ = newDelayLine(len(d.lpFilter))
	d.sI = newDelayLine(len(d.lpFilter))
	d.sQ = newDelayLine(len(d.lpFilter))

	d.pll = newClockRecovery(config.SampleRate, config.Baud, 0.74, 0.50, false, GenericDCDConfig())
	d.pll.onDCD = func(detect bool) {
		logger.Debug("DCD", "demodulator", "fsk2", "baud", config.Baud, "detect", detect)
	}

	return d, nil
}

func (d *FSK2Demodulator) Config() FSK2Config {
	return d.config
}

func (d *FSK2Demodulator) Output() *Output[bool] {
	return &d.out
}

func (d *FSK2Demodulator) Locked() bool {
	return d.pll.locked()
}

func (d *FSK2Demodulator) Receive(buf SampleBuffer) {
	Assert(buf.SampleRate == d.config.SampleRate)

	for _, x := range buf.Samples {
		d.processSample(x)
	}
}

func (d *FSK2Demodulator) processSample(x float64) {
	if d.prefilter != nil {
		d.raw.push(x)
		x = d.raw.convolve(d.prefilter)
	}

	d.mI.push(x * fcos256(d.mOscPhase))
	d.mQ.push(x * fsin256(d.mOscPhase))
	d.mOscPhase += d.mOscDelta

	d.sI.push(x * fcos256(d.sOscPhase))
	d.sQ.push(x * fsin256(d.sOscPhase))
	d.sOscPhase += d.sOscDelta

	var mAmp = math.Hypot(d.mI.convolve(d.lpFilter), d.mQ.convolve(d.lpFilter))
	var sAmp = math.Hypot(d.sI.convolve(d.lpFilter), d.sQ.convolve(d.lpFilter))

	var mNorm, sNorm float64
	d.mPeak, d.mValley, mNorm = agc(mAmp, d.agcFastAttack, d.agcSlowDecay, d.mPeak, d.mValley)
	d.sPeak, d.sValley, sNorm = agc(sAmp, d.agcFastAttack, d.agcSlowDecay, d.sPeak, d.sValley)

	// The normalized values should be around -0.5 to +0.5 so the difference
	// should work out to be around -1 to +1.
	var demodOut = mNorm - sNorm

	if d.pll.step(demodOut) {
		var bit = demodOut > 0
		if d.config.Polarity == PolarityInverted {
			bit = !bit
		}
		d.out.Emit(bit)
	}
}

func (d *FSK2Demodulator) Reset() {
	if d.prefilter != nil {
		d.raw.reset()
	}
	d.mI.reset()
	d.mQ.reset()
	d.sI.reset()
	d.sQ.reset()
	d.mOscPhase, d.sOscPhase = 0, 0
	d.mPeak, d.mValley, d.sPeak, d.sValley = 0, 0, 0, 0
	d.pll.reset()
}
