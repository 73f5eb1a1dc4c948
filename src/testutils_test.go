package lmrdecode

import (
	"io"
	"math"
	"math/rand/v2"
	"os"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records everything it receives.
type collector[T any] struct {
	mu     sync.Mutex
	values []T
}

func (c *collector[T]) Receive(v T) {
	c.mu.Lock()
	c.values = append(c.values, v)
	c.mu.Unlock()
}

func (c *collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.values...)
}

func (c *collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// quietLogs silences the package logger for the duration of a test.
func quietLogs(t *testing.T) {
	t.Helper()

	var old = logger
	SetLogger(nil)
	t.Cleanup(func() { logger = old })
}

// freshMetrics swaps in collectors registered with a private registry.
func freshMetrics(t *testing.T) *prometheus.Registry {
	t.Helper()

	var reg = prometheus.NewRegistry()
	var old = metrics
	metrics = NewMetrics(reg)
	t.Cleanup(func() { metrics = old })
	return reg
}

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec
}

func randomBits(r *rand.Rand, n int) BitString {
	var out = make(BitString, n)
	for i := range out {
		out[i] = r.IntN(2) == 1
	}
	return out
}

func alternatingBits(n int) BitString {
	var out = make(BitString, n)
	for i := range out {
		out[i] = i%2 == 0
	}
	return out
}

func concatBits(parts ...[]bool) BitString {
	var out BitString
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// ffsk is phase continuous two tone FSK.  true bits are sent as oneHz.
func ffsk(bits []bool, sampleRate int, baud int, oneHz float64, zeroHz float64, amplitude float64) []float64 {
	var samplesPerBit = float64(sampleRate) / float64(baud)
	var n = int(float64(len(bits)) * samplesPerBit)
	var out = make([]float64, n)
	var phase float64

	for i := range out {
		var bit = bits[min(int(float64(i)/samplesPerBit), len(bits)-1)]
		phase += 2 * math.Pi * IfThenElse(bit, oneHz, zeroHz) / float64(sampleRate)
		out[i] = amplitude * math.Sin(phase)
	}
	return out
}

// nrz is rectangular baseband signalling, true positive.
func nrz(bits []bool, sampleRate int, baud int, amplitude float64) []float64 {
	var samplesPerBit = float64(sampleRate) / float64(baud)
	var n = int(float64(len(bits)) * samplesPerBit)
	var out = make([]float64, n)

	for i := range out {
		var bit = bits[min(int(float64(i)/samplesPerBit), len(bits)-1)]
		out[i] = IfThenElse(bit, amplitude, -amplitude)
	}
	return out
}

// c4fm maps bits, two at a time, to rectangular +-1 / +-3 levels.
func c4fm(bits []bool, sampleRate int, symbolRate int, scale float64) []float64 {
	Assert(len(bits)%2 == 0)

	var levels = map[[2]bool]float64{
		{false, true}:  3,
		{false, false}: 1,
		{true, false}:  -1,
		{true, true}:   -3,
	}

	var samplesPerSymbol = sampleRate / symbolRate
	var out = make([]float64, 0, len(bits)/2*samplesPerSymbol)
	for i := 0; i < len(bits); i += 2 {
		var level = levels[[2]bool{bits[i], bits[i+1]}]
		for range samplesPerSymbol {
			out = append(out, level*scale)
		}
	}
	return out
}

// mpt1327Payload is the codewords followed by filler out to a full frame.
func mpt1327Payload(words ...uint64) BitString {
	var out BitString
	for _, w := range words {
		out = append(out, MPT1327CodewordBits(w)...)
	}
	Assert(len(out) <= mpt1327MessageLength)
	return append(out, alternatingBits(mpt1327MessageLength-len(out))...)
}

// mpt1327Transmission wraps a frame payload in preamble and tail bits.
func mpt1327Transmission(pattern SyncPattern, payload BitString) BitString {
	return concatBits(alternatingBits(96), pattern.Bits(), payload, alternatingBits(64))
}

// mpt1327Audio is a transmission as 48000 samples/sec FFSK.  Standard sync
// is sent with the tones swapped relative to French.
func mpt1327Audio(pattern SyncPattern, payload BitString, french bool) []float64 {
	var one, zero = 1800.0, 1200.0
	if french {
		one, zero = zero, one
	}
	return ffsk(mpt1327Transmission(pattern, payload), DefaultSampleRate, 1200, one, zero, 0.5)
}

// feed passes samples through in chunks of the given size.
func feed(l Listener[SampleBuffer], samples []float64, sampleRate int, chunk int) {
	for i := 0; i < len(samples); i += chunk {
		var end = min(i+chunk, len(samples))
		l.Receive(NewSampleBuffer(samples[i:end], sampleRate))
	}
}

// alignedErrors is the fewest mismatches between want[from:to] and got,
// over every delay of got up to maxDelay bits.
func alignedErrors(got []bool, want []bool, from int, to int, maxDelay int) int {
	var best = to - from
	for delay := 0; delay <= maxDelay; delay++ {
		var errs = 0
		for j := from; j < to; j++ {
			if j+delay >= len(got) || got[j+delay] != want[j] {
				errs++
			}
		}
		best = min(best, errs)
	}
	return best
}

// captureStdout runs command with os.Stdout redirected and returns what
// it wrote.  The pipe is drained while command runs.
func captureStdout(t *testing.T, command func()) string {
	t.Helper()

	var oldStdout = os.Stdout
	var r, w, err = os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
	}()

	var output = make(chan []byte)
	go func() {
		var b, _ = io.ReadAll(r)
		output <- b
	}()

	command()

	w.Close() //nolint:gosec
	os.Stdout = oldStdout

	return string(<-output)
}

func AssertOutputContains(t *testing.T, command func(), expected ...string) {
	t.Helper()

	var out = captureStdout(t, command)
	for _, e := range expected {
		assert.Contains(t, out, e)
	}
}
