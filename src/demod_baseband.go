package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Demodulator for baseband NRZ signalling, such as the
 *		sub-audible data used by LTR and Passport.
 *
 * Description:	The input has already been low pass filtered by a
 *		filter stage.  All that is left is to remove any DC
 *		bias, normalise with AGC and slice, with the PLL
 *		using interpolated zero crossings because there are
 *		not many samples per symbol.
 *
 *------------------------------------------------------------------*/

type BasebandConfig struct {
	SampleRate int
	Baud       int
	Polarity   Polarity
}

type BasebandDemodulator struct {
	config BasebandConfig

	agcFastAttack float64
	agcSlowDecay  float64
	peak, valley  float64

	pll clockRecovery

	out Output[bool]
}

func NewBasebandDemodulator(config BasebandConfig) (*BasebandDemodulator, error) {
	if config.SampleRate <= 0 || config.Baud <= 0 || 4*config.Baud > config.SampleRate {
		return nil, configError("baseband: %d samples/sec is unusable for %d baud", config.SampleRate, config.Baud)
	}

	var d = &BasebandDemodulator{
		config:        config,
		agcFastAttack: 0.080,
		agcSlowDecay:  0.00012,
	}

	d.pll = newClockRecovery(config.SampleRate, config.Baud, 0.89, 0.67, true, DCDConfig{
		ThreshOn:  32,
		ThreshOff: 8,
		GoodWidth: 1024,
	})
	d.pll.onDCD = func(detect bool) {
		logger.Debug("DCD", "demodulator", "baseband", "baud", config.Baud, "detect", detect)
	}

	return d, nil
}

func (d *BasebandDemodulator) Output() *Output[bool] {
	return &d.out
}

func (d *BasebandDemodulator) Locked() bool {
	return d.pll.locked()
}

func (d *BasebandDemodulator) Receive(buf SampleBuffer) {
	Assert(buf.SampleRate == d.config.SampleRate)

	for _, x := range buf.Samples {
		var demodOut float64
		d.peak, d.valley, demodOut = agc(x, d.agcFastAttack, d.agcSlowDecay, d.peak, d.valley)

		if d.pll.step(demodOut) {
			d.out.Emit((demodOut > 0) != (d.config.Polarity == PolarityInverted))
		}
	}
}

func (d *BasebandDemodulator) Reset() {
	d.peak, d.valley = 0, 0
	d.pll.reset()
}
