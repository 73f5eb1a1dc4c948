package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Find sync patterns in a bit stream and capture the
 *		fixed length message that follows each one.
 *
 * Description:	Searching: every bit is shifted into a register the
 *		width of the pattern.  Once the register has been filled
 *		and matches, switch to capturing.
 *
 *		Capturing: bits are appended to the payload until it is
 *		the message length, then the frame is emitted and the
 *		register cleared, so the next sync must arrive complete
 *		and entirely after the end of this message.
 *
 *		Sync detection is exact.  No errors are tolerated.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"strings"
	"time"
)

type FramerState int

const (
	FramerSearching FramerState = iota
	FramerCapturing
)

func (s FramerState) String() string {
	return IfThenElse(s == FramerCapturing, "capturing", "searching")
}

// BitString is a captured sequence of bits in transmission order.
type BitString []bool

// Uint packs length bits starting at start, first bit most significant.
func (b BitString) Uint(start int, length int) uint64 {
	Assert(length >= 0 && length <= 64 && start >= 0 && start+length <= len(b))

	var v uint64
	for _, bit := range b[start : start+length] {
		v = v<<1 | boolToUint(bit)
	}
	return v
}

func (b BitString) String() string {
	var sb strings.Builder
	for _, bit := range b {
		sb.WriteByte(IfThenElse[byte](bit, '1', '0'))
	}
	return sb.String()
}

// Hex packs the bits into hex digits, padding the last with zeros.
func (b BitString) Hex() string {
	var sb strings.Builder
	for i := 0; i < len(b); i += 4 {
		var n = min(4, len(b)-i)
		fmt.Fprintf(&sb, "%X", b.Uint(i, n)<<(4-n))
	}
	return sb.String()
}

// MessageFrame is the payload captured after one sync pattern match.
type MessageFrame struct {
	Pattern   SyncPattern
	Bits      BitString
	Timestamp time.Time
}

type MessageFramer struct {
	pattern SyncPattern
	mask    uint64

	register uint64
	filled   int
	state    FramerState
	payload  BitString

	now       func() time.Time
	listeners Broadcaster[MessageFrame]
	protocol  string
}

func NewMessageFramer(pattern SyncPattern) *MessageFramer {
	Assert(pattern.Len() > 0 && pattern.MessageLength() > 0)

	return &MessageFramer{
		pattern: pattern,
		mask:    pattern.mask(),
		now:     time.Now,
	}
}

func (f *MessageFramer) Pattern() SyncPattern {
	return f.pattern
}

func (f *MessageFramer) State() FramerState {
	return f.state
}

// AddListener subscribes to completed frames.
func (f *MessageFramer) AddListener(l Listener[MessageFrame]) (cancel func()) {
	return f.listeners.AddListener(l)
}

// Receive takes one demodulated bit.
func (f *MessageFramer) Receive(bit bool) {
	switch f.state {
	case FramerSearching:
		f.register = (f.register<<1 | boolToUint(bit)) & f.mask
		if f.filled < f.pattern.Len() {
			f.filled++
		}
		if f.filled == f.pattern.Len() && f.register == f.pattern.bits {
			f.state = FramerCapturing
			f.payload = make(BitString, 0, f.pattern.MessageLength())
		}

	case FramerCapturing:
		f.payload = append(f.payload, bit)
		if len(f.payload) == f.pattern.MessageLength() {
			var frame = MessageFrame{
				Pattern:   f.pattern,
				Bits:      f.payload,
				Timestamp: f.now(),
			}
			f.clear()
			if f.protocol != "" {
				metrics.framesCaptured.WithLabelValues(f.protocol, f.pattern.Name()).Inc()
			}
			f.listeners.Dispatch(frame)
		}
	}
}

// Reset abandons any partial capture and returns to searching.
func (f *MessageFramer) Reset() {
	f.clear()
}

func (f *MessageFramer) clear() {
	f.register = 0
	f.filled = 0
	f.state = FramerSearching
	f.payload = nil
}
