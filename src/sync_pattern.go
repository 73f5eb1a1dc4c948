package lmrdecode

import (
	"strings"
)

// Longest sync pattern a framer's shift register can hold.
const MaxSyncPatternBits = 64

// SyncPattern is a fixed bit sequence marking the start of a message,
// together with how many payload bits follow it.
type SyncPattern struct {
	name          string
	bits          uint64 // Most recent bit in the lowest position.
	length        int
	messageLength int
}

/*------------------------------------------------------------------
 *
 * Name:        NewSyncPattern
 *
 * Inputs:	pattern		- '0' and '1' characters, first transmitted
 *				  bit first.  Spaces and underscores are
 *				  ignored so long patterns can be grouped.
 *
 *		messageLength	- Payload bits that follow the pattern.
 *
 *----------------------------------------------------------------*/

func NewSyncPattern(name string, pattern string, messageLength int) (SyncPattern, error) {
	var p = SyncPattern{name: name, messageLength: messageLength}

	for _, c := range pattern {
		switch c {
		case '0', '1':
			if p.length == MaxSyncPatternBits {
				return SyncPattern{}, configError("sync pattern %q is longer than %d bits", name, MaxSyncPatternBits)
			}
			p.bits = p.bits<<1 | uint64(c-'0')
			p.length++
		case ' ', '_':
		default:
			return SyncPattern{}, configError("sync pattern %q: unexpected character %q", name, c)
		}
	}

	if p.length == 0 {
		return SyncPattern{}, configError("sync pattern %q is empty", name)
	}
	if messageLength < 1 {
		return SyncPattern{}, configError("sync pattern %q: message length %d", name, messageLength)
	}

	return p, nil
}

func mustSyncPattern(name string, pattern string, messageLength int) SyncPattern {
	var p, err = NewSyncPattern(name, pattern, messageLength)
	if err != nil {
		panic(err)
	}
	return p
}

func (p SyncPattern) Name() string {
	return p.name
}

func (p SyncPattern) Len() int {
	return p.length
}

func (p SyncPattern) MessageLength() int {
	return p.messageLength
}

func (p SyncPattern) mask() uint64 {
	if p.length == 64 {
		return ^uint64(0)
	}
	return uint64(1)<<p.length - 1
}

// Bits in transmission order.
func (p SyncPattern) Bits() []bool {
	var out = make([]bool, p.length)
	for i := range out {
		out[i] = p.bits>>(p.length-1-i)&1 == 1
	}
	return out
}

// String is the pattern as '0' and '1' characters.
func (p SyncPattern) String() string {
	var sb strings.Builder
	for _, b := range p.Bits() {
		sb.WriteByte(IfThenElse[byte](b, '1', '0'))
	}
	return sb.String()
}

// MPT1327 frames start with REVS (1010) then the 16 bit sync word.
// The 350 bit slot is the 20 sync bits plus five 64 bit codewords and
// ten bits of slack.
const mpt1327MessageLength = 330

var (
	SyncMPT1327Control       = mustSyncPattern("MPT1327 control", "1010 1100 0100 1101 0111", mpt1327MessageLength)
	SyncMPT1327ControlFrench = mustSyncPattern("MPT1327 control (French)", "1010 1011 0100 0011 0010", mpt1327MessageLength)
	SyncMPT1327Traffic       = mustSyncPattern("MPT1327 traffic", "1010 0011 1011 0010 1000", mpt1327MessageLength)
	SyncMPT1327TrafficFrench = mustSyncPattern("MPT1327 traffic (French)", "1010 0100 1011 1100 1101", mpt1327MessageLength)

	// Frame sync followed by the 64 bit network identifier.
	SyncP25Phase1 = mustSyncPattern("P25 phase 1", "0101 0101 0111 0101 1111 0101 1111 1111 0111 0111 1111 1111", 64)

	SyncLTROutbound = mustSyncPattern("LTR outbound", "1010 1100 0", 31)
	SyncLTRInbound  = mustSyncPattern("LTR inbound", "0101 0011 1", 31)

	SyncPassport = mustSyncPattern("Passport", "0001 0110 1", 59)

	SyncFleetsync2 = mustSyncPattern("Fleetsync II", "0101 0101 0101 0101 0111 0010 0010 0011", 128)
	SyncMDC1200    = mustSyncPattern("MDC1200", "0000 0111 0000 1001 0010 1010 0100 0100 0110 1111", 112)
	SyncLJ1200     = mustSyncPattern("LoJack", "0101 0101 0101 0101 1000 0011 0111 1000", 64)
	SyncTait1200   = mustSyncPattern("Tait 1200", "0101 0101 0101 0101 0001 0010 0111 1001", 128)
)
