package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Demodulator for 4 level FSK (P25 phase 1 C4FM) from
 *		FM discriminator audio.
 *
 * Description:	Symbol timing comes from the same PLL as the other
 *		demodulators.  At each sampling point the level is
 *		corrected for frequency offset and compared against
 *		thresholds scaled by the tracked symbol spread.
 *
 *		Nominal levels are +-1 and +-3 when the spread is 2.0.
 *		The error between the received level and the nominal
 *		one feeds back into the spread and into a fine
 *		frequency estimate.  A slower coarse estimate follows
 *		the fine one and is what gets reported for AFC.
 *
 *		Dibits come out most significant bit first:
 *
 *			+3  01		-1  10
 *			+1  00		-3  11
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"time"
)

const (
	kSymbolSpread      = 0.0100
	kFineFrequency     = 0.125
	kCoarseFrequency   = 0.00125
	kSymbolSpreadMin   = 1.8
	kSymbolSpreadMax   = 2.4
	defaultSpread      = 2.0
	c4fmHzPerLevel     = 600.0 // Deviation of the +1 symbol.
	afcReportThreshold = 5     // Hz
)

// FrequencyCorrection is published when the AFC estimate of a channel's
// frequency error moves.  Positive means the signal is high.
type FrequencyCorrection struct {
	Decoder   DecoderType
	Hz        int
	Timestamp time.Time
}

type FSK4Config struct {
	SampleRate int
	SymbolRate int

	// Largest frequency correction, in Hz, the demodulator may apply.
	MaxCorrection int

	// Publish FrequencyCorrection events.
	AFC bool
}

type FSK4Demodulator struct {
	config FSK4Config

	peak float64

	spread           float64
	fineCorrection   float64
	coarseCorrection float64
	maxCorrection    float64
	lastReportedHz   int

	pll clockRecovery

	out         Output[bool]
	corrections Broadcaster[FrequencyCorrection]
	now         func() time.Time
}

func NewFSK4Demodulator(config FSK4Config) (*FSK4Demodulator, error) {
	if config.SampleRate <= 0 || config.SymbolRate <= 0 || 4*config.SymbolRate > config.SampleRate {
		return nil, configError("fsk4: %d samples/sec is unusable for %d symbols/sec", config.SampleRate, config.SymbolRate)
	}
	if config.MaxCorrection < 0 {
		return nil, configError("fsk4: maximum correction %d Hz", config.MaxCorrection)
	}

	var d = &FSK4Demodulator{
		config:        config,
		spread:        defaultSpread,
		maxCorrection: float64(config.MaxCorrection) / c4fmHzPerLevel,
		now:           time.Now,
	}

	d.pll = newClockRecovery(config.SampleRate, config.SymbolRate, 0.89, 0.67, true, DCDConfig{
		ThreshOn:  30,
		ThreshOff: 6,
		GoodWidth: 768,
	})
	d.pll.onDCD = func(detect bool) {
		logger.Debug("DCD", "demodulator", "fsk4", "detect", detect)
	}

	return d, nil
}

func (d *FSK4Demodulator) Output() *Output[bool] {
	return &d.out
}

func (d *FSK4Demodulator) Locked() bool {
	return d.pll.locked()
}

// AddCorrectionListener subscribes to AFC estimates.
func (d *FSK4Demodulator) AddCorrectionListener(l Listener[FrequencyCorrection]) func() {
	return d.corrections.AddListener(l)
}

// Correction is the current coarse estimate in Hz.
func (d *FSK4Demodulator) Correction() int {
	return int(math.Round(d.coarseCorrection * c4fmHzPerLevel))
}

func (d *FSK4Demodulator) Receive(buf SampleBuffer) {
	Assert(buf.SampleRate == d.config.SampleRate)

	for _, x := range buf.Samples {
		d.processSample(x)
	}
}

func (d *FSK4Demodulator) processSample(x float64) {
	// Scale so the outer symbols sit near +-3.
	var ax = math.Abs(x)
	if ax >= d.peak {
		d.peak = ax*0.70 + d.peak*0.30
	} else {
		d.peak = ax*0.00005 + d.peak*(1-0.00005)
	}
	if d.peak > 1e-9 {
		x *= 3.0 / d.peak
	}

	var level = x - d.fineCorrection

	if !d.pll.step(level) {
		return
	}

	var symbol, symbolError = d.decide(level)

	d.spread = math.Max(d.spread, kSymbolSpreadMin)
	d.spread = math.Min(d.spread, kSymbolSpreadMax)

	d.coarseCorrection += (d.fineCorrection - d.coarseCorrection) * kCoarseFrequency
	d.fineCorrection += symbolError * kFineFrequency
	d.fineCorrection = math.Max(-d.maxCorrection, math.Min(d.maxCorrection, d.fineCorrection))

	d.out.Emit(symbol&2 != 0)
	d.out.Emit(symbol&1 != 0)

	d.reportCorrection()
}

// decide returns the dibit and the error from the nominal level,
// adjusting the spread on the way.
func (d *FSK4Demodulator) decide(level float64) (int, float64) {
	var symbolError float64
	var dibit int

	switch {
	case level < -d.spread:
		// -3: expected at -1.5 * spread
		symbolError = level + 1.5*d.spread
		d.spread -= symbolError * 0.5 * kSymbolSpread
		dibit = 3
	case level < 0:
		// -1: expected at -0.5 * spread
		symbolError = level + 0.5*d.spread
		d.spread -= symbolError * kSymbolSpread
		dibit = 2
	case level < d.spread:
		// +1: expected at +0.5 * spread
		symbolError = level - 0.5*d.spread
		d.spread += symbolError * kSymbolSpread
		dibit = 0
	default:
		// +3: expected at +1.5 * spread
		symbolError = level - 1.5*d.spread
		d.spread += symbolError * 0.5 * kSymbolSpread
		dibit = 1
	}

	return dibit, symbolError
}

func (d *FSK4Demodulator) reportCorrection() {
	if !d.config.AFC {
		return
	}

	var hz = d.Correction()
	if hz-d.lastReportedHz < afcReportThreshold && d.lastReportedHz-hz < afcReportThreshold {
		return
	}
	d.lastReportedHz = hz

	d.corrections.Dispatch(FrequencyCorrection{
		Decoder:   DecoderP25Phase1,
		Hz:        hz,
		Timestamp: d.now(),
	})
}

func (d *FSK4Demodulator) Reset() {
	d.peak = 0
	d.spread = defaultSpread
	d.fineCorrection = 0
	d.coarseCorrection = 0
	d.lastReportedHz = 0
	d.pll.reset()
}
