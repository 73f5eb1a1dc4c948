package lmrdecode

import (
	"time"
)

// SampleBuffer is a block of real-valued baseband samples.
//
// Ownership passes to the receiving stage.  Stages never modify a buffer
// they were given; they produce a new one.
type SampleBuffer struct {
	Samples    []float64
	SampleRate int // Hz
}

func NewSampleBuffer(samples []float64, sampleRate int) SampleBuffer {
	Assert(sampleRate > 0)

	return SampleBuffer{Samples: samples, SampleRate: sampleRate}
}

// SampleBufferFromPCM16 converts signed 16 bit samples to the nominal +-1.0 range.
func SampleBufferFromPCM16(pcm []int16, sampleRate int) SampleBuffer {
	var samples = make([]float64, len(pcm))
	for i, s := range pcm {
		samples[i] = float64(s) / 32768.0
	}
	return NewSampleBuffer(samples, sampleRate)
}

func (b SampleBuffer) Len() int {
	return len(b.Samples)
}

// Duration is the time span covered by the buffer.
func (b SampleBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}
