package lmrdecode

/*-------------------------------------------------------------------
 *
 * Purpose:	Symbol clock recovery and data carrier detect, shared
 *		by all the demodulators.
 *
 * Description:	The symbol clock is a signed 32 bit counter advanced
 *		by a fixed step every sample so that it wraps once per
 *		symbol.  Wraparound, from large positive to large
 *		negative, is where data is sampled.  Ideally the
 *		demodulator output changes sign close to 0, half way
 *		between sampling points, so every sign change nudges
 *		the counter toward 0.
 *
 *		How hard it is nudged depends on DCD.  While searching
 *		the counter is pulled in quickly; once locked it has
 *		more inertia so noise doesn't throw it around.
 *
 *		DCD keeps a running score of how well transitions line
 *		up with where they are expected.  This works for any
 *		signal with enough transitions, not just ones with
 *		recognisable flag patterns.
 *
 *--------------------------------------------------------------------*/

import (
	"math"
	"math/bits"
)

const ticksPerPLLCycle = 256.0 * 256.0 * 256.0 * 256.0

type DCDConfig struct {
	ThreshOn  int
	ThreshOff int

	// Width, in units of 2^20 ticks, of the window either side of 0
	// where a transition counts as good.  No more than 1024.
	GoodWidth int32
}

// These values are good for 1200 bps FSK.
// Might want to override for other modems.
func GenericDCDConfig() DCDConfig {
	return DCDConfig{
		// Hysteresis: Can miss 2 out of 32 for detecting lock.
		ThreshOn:  30,
		ThreshOff: 6,
		GoodWidth: 512,
	}
}

type dcdState struct {
	goodFlag bool
	badFlag  bool
	goodHist uint8
	badHist  uint8
	score    uint32
	detect   bool
}

func (d *dcdState) signalTransition(cfg DCDConfig, phase int32) {
	var width = cfg.GoodWidth * 1024 * 1024
	if phase > -width && phase < width {
		d.goodFlag = true
	} else {
		d.badFlag = true
	}
}

// eachSymbol updates the score.  Returns true if detect changed.
func (d *dcdState) eachSymbol(cfg DCDConfig) bool {
	d.goodHist = d.goodHist<<1 | uint8(boolToUint(d.goodFlag))
	d.goodFlag = false

	d.badHist = d.badHist<<1 | uint8(boolToUint(d.badFlag))
	d.badFlag = false

	d.score <<= 1
	// 2 is to allow patterns with only 2 transitions per octet.
	if bits.OnesCount8(d.goodHist)-bits.OnesCount8(d.badHist) >= 2 {
		d.score |= 1
	}

	var s = bits.OnesCount32(d.score)
	if s >= cfg.ThreshOn && !d.detect {
		d.detect = true
		return true
	}
	if s <= cfg.ThreshOff && d.detect {
		d.detect = false
		return true
	}
	return false
}

/*-------------------------------------------------------------------
 *
 * Name:	clockRecovery
 *
 * Inputs:	interpolate	- Use the fractional position of each zero
 *				  crossing rather than assuming it happened
 *				  exactly on the current sample.  Better for
 *				  baseband signals at low samples per symbol.
 *
 *--------------------------------------------------------------------*/

type clockRecovery struct {
	stepPerSample    int32
	lockedInertia    float64
	searchingInertia float64
	interpolate      bool
	dcdConfig        DCDConfig

	clock     int32
	prevClock int32
	prevOut   float64
	dcd       dcdState

	// Called when DCD changes.  May be nil.
	onDCD func(detect bool)
}

func newClockRecovery(sampleRate int, baud int, lockedInertia float64, searchingInertia float64, interpolate bool, dcd DCDConfig) clockRecovery {
	Assert(sampleRate > 0 && baud > 0 && 2*baud < sampleRate)

	return clockRecovery{
		stepPerSample:    int32(math.Round(ticksPerPLLCycle * float64(baud) / float64(sampleRate))),
		lockedInertia:    lockedInertia,
		searchingInertia: searchingInertia,
		interpolate:      interpolate,
		dcdConfig:        dcd,
	}
}

// step advances one sample.  sample is true when a symbol should be
// taken from out.
func (c *clockRecovery) step(out float64) (sample bool) {
	c.prevClock = c.clock

	// Perform the add as unsigned to avoid signed overflow error.
	c.clock = int32(uint32(c.clock) + uint32(c.stepPerSample))

	if c.clock < 0 && c.prevClock > 0 {
		sample = true
		if c.dcd.eachSymbol(c.dcdConfig) && c.onDCD != nil {
			c.onDCD(c.dcd.detect)
		}
	}

	if (c.prevOut < 0 && out >= 0) || (c.prevOut >= 0 && out < 0) {
		c.dcd.signalTransition(c.dcdConfig, c.clock)

		var target float64
		if c.interpolate && out != c.prevOut {
			target = float64(c.stepPerSample) * out / (out - c.prevOut)
		}

		var inertia = IfThenElse(c.dcd.detect, c.lockedInertia, c.searchingInertia)
		c.clock = int32(float64(c.clock)*inertia + target*(1.0-inertia))
	}

	c.prevOut = out
	return sample
}

func (c *clockRecovery) locked() bool {
	return c.dcd.detect
}

func (c *clockRecovery) reset() {
	c.clock = 0
	c.prevClock = 0
	c.prevOut = 0
	c.dcd = dcdState{}
}
