package lmrdecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BasebandDemodulate(t *testing.T) {
	quietLogs(t)

	for _, polarity := range []Polarity{PolarityNormal, PolarityInverted} {
		t.Run(polarity.String(), func(t *testing.T) {
			var d, err = NewBasebandDemodulator(BasebandConfig{SampleRate: 6000, Baud: 300, Polarity: polarity})
			require.NoError(t, err)

			var got collector[bool]
			d.Output().SetListener(&got)

			var bits = randomBits(testRand(11), 600)
			feed(d, nrz(bits, 6000, 300, 0.4), 6000, 100)

			var want = bits
			if polarity == PolarityInverted {
				want = make(BitString, len(bits))
				for i, b := range bits {
					want[i] = !b
				}
			}

			require.InDelta(t, len(bits), got.Len(), 2)
			assert.Zero(t, alignedErrors(got.Values(), want, 20, 580, 2))
			assert.True(t, d.Locked())

			d.Reset()
			assert.False(t, d.Locked())
		})
	}
}

func Test_BasebandThroughSubAudioFilter(t *testing.T) {
	quietLogs(t)

	var lp, err = NewRealFIRFilter(testTaps(t, FilterSubAudioLowPass), 1.0, subAudioDecimation)
	require.NoError(t, err)

	d, err := NewBasebandDemodulator(BasebandConfig{SampleRate: 6000, Baud: 300})
	require.NoError(t, err)
	lp.SetListener(d)

	var got collector[bool]
	d.Output().SetListener(&got)

	var bits = randomBits(testRand(12), 600)
	feed(lp, nrz(bits, 48000, 300, 0.4), 48000, 4800)

	assert.Zero(t, alignedErrors(got.Values(), bits, 20, 580, 2))
}

func Test_BasebandConfigErrors(t *testing.T) {
	var _, err = NewBasebandDemodulator(BasebandConfig{SampleRate: 1000, Baud: 300})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewBasebandDemodulator(BasebandConfig{SampleRate: 6000})
	assert.ErrorIs(t, err, ErrConfiguration)
}
