package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	MPT1327 codewords.
 *
 * Description:	Every codeword is 64 bits:
 *
 *		  48 information bits
 *		  15 check bits, a cyclic code with generator
 *		     x^15 + x^14 + x^13 + x^11 + x^4 + x^2 + 1,
 *		     with the last check bit inverted
 *		   1 parity bit making the whole codeword even
 *
 *		The first information bit says what kind of codeword
 *		it is: 1 for an address codeword, 0 for data.
 *
 *		Address codewords, by information bit position:
 *
 *		   0		1
 *		   1 .. 7	PFIX	prefix
 *		   8 .. 20	IDENT1	called unit
 *		  21		1 for Go To Channel
 *
 *		Go To Channel:
 *		  22		D	data call
 *		  23 .. 32	CHAN
 *		  33 .. 45	IDENT2	calling unit
 *		  46 .. 47	N	spare
 *
 *		Everything else:
 *		  22 .. 24	CAT	only 0 is defined
 *		  25 .. 26	TYPE
 *		  27 .. 29	FUNC
 *		  30 .. 42	IDENT2
 *		  43 .. 47	parameters
 *
 *		Control channel slots start with a CCSC codeword,
 *		which is a data codeword carrying the 15 bit system
 *		identity in bits 1 .. 15.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"math/bits"
)

const (
	mpt1327CodewordBits = 64
	mpt1327InfoBits     = 48
	mpt1327Generator    = 0x6815 // x^15 implied.
)

// mpt1327Checksum is the 15 check bits for 48 information bits.
func mpt1327Checksum(info uint64) uint16 {
	var crc uint16
	for i := mpt1327InfoBits - 1; i >= 0; i-- {
		var feedback = (crc>>14)&1 ^ uint16(info>>i)&1
		crc = (crc << 1) & 0x7fff
		if feedback != 0 {
			crc ^= mpt1327Generator
		}
	}
	return crc ^ 0x0001
}

// MPT1327Codeword builds a complete codeword from 48 information bits.
func MPT1327Codeword(info uint64) uint64 {
	info &= 1<<mpt1327InfoBits - 1
	var word = info<<16 | uint64(mpt1327Checksum(info))<<1
	return word | uint64(bits.OnesCount64(word)&1)
}

// mpt1327CodewordValid checks both the cyclic code and the parity.
func mpt1327CodewordValid(word uint64) bool {
	if bits.OnesCount64(word)&1 != 0 {
		return false
	}
	var info = word >> 16
	return uint16(word>>1)&0x7fff == mpt1327Checksum(info)
}

func mpt1327Info(word uint64) uint64 {
	return word >> 16
}

// mpt1327Field extracts length bits starting at information bit start.
func mpt1327Field(info uint64, start int, length int) uint64 {
	return info >> (mpt1327InfoBits - start - length) & (1<<length - 1)
}

func mpt1327IsAddress(info uint64) bool {
	return mpt1327Field(info, 0, 1) == 1
}

/*------------------------------------------------------------------
 *
 * Name:	MPT1327MessageType
 *
 *------------------------------------------------------------------*/

type MPT1327MessageType int

const (
	MPT1327Unknown MPT1327MessageType = iota
	MPT1327GoToChannel

	// Aloha
	MPT1327ALH
	MPT1327ALHS
	MPT1327ALHD
	MPT1327ALHE
	MPT1327ALHR
	MPT1327ALHX
	MPT1327ALHF

	// Acknowledgements
	MPT1327ACK
	MPT1327ACKI
	MPT1327ACKQ
	MPT1327ACKX
	MPT1327ACKV
	MPT1327ACKE
	MPT1327ACKT
	MPT1327ACKB

	// Control
	MPT1327AHY
	MPT1327AHYX
	MPT1327MARK
	MPT1327MAINT
	MPT1327CLEAR
	MPT1327MOVE
	MPT1327BCAST
	MPT1327AHYP

	// Requests
	MPT1327RQS
	MPT1327RQE
	MPT1327RQT
	MPT1327RQD
	MPT1327RQQ
	MPT1327RQC
	MPT1327RQR
	MPT1327HEAD
)

var mpt1327TypeNames = [...]string{
	MPT1327Unknown:     "UNKNOWN",
	MPT1327GoToChannel: "GTC",
	MPT1327ALH:         "ALH",
	MPT1327ALHS:        "ALHS",
	MPT1327ALHD:        "ALHD",
	MPT1327ALHE:        "ALHE",
	MPT1327ALHR:        "ALHR",
	MPT1327ALHX:        "ALHX",
	MPT1327ALHF:        "ALHF",
	MPT1327ACK:         "ACK",
	MPT1327ACKI:        "ACKI",
	MPT1327ACKQ:        "ACKQ",
	MPT1327ACKX:        "ACKX",
	MPT1327ACKV:        "ACKV",
	MPT1327ACKE:        "ACKE",
	MPT1327ACKT:        "ACKT",
	MPT1327ACKB:        "ACKB",
	MPT1327AHY:         "AHY",
	MPT1327AHYX:        "AHYX",
	MPT1327MARK:        "MARK",
	MPT1327MAINT:       "MAINT",
	MPT1327CLEAR:       "CLEAR",
	MPT1327MOVE:        "MOVE",
	MPT1327BCAST:       "BCAST",
	MPT1327AHYP:        "AHYP",
	MPT1327RQS:         "RQS",
	MPT1327RQE:         "RQE",
	MPT1327RQT:         "RQT",
	MPT1327RQD:         "RQD",
	MPT1327RQQ:         "RQQ",
	MPT1327RQC:         "RQC",
	MPT1327RQR:         "RQR",
	MPT1327HEAD:        "HEAD",
}

func (t MPT1327MessageType) String() string {
	if t >= 0 && int(t) < len(mpt1327TypeNames) {
		return mpt1327TypeNames[t]
	}
	return fmt.Sprintf("MPT1327MessageType(%d)", int(t))
}

// MPT1327MessageTypes lists every defined type except Unknown.
func MPT1327MessageTypes() []MPT1327MessageType {
	var out = make([]MPT1327MessageType, 0, len(mpt1327TypeNames)-1)
	for t := MPT1327GoToChannel; int(t) < len(mpt1327TypeNames); t++ {
		out = append(out, t)
	}
	return out
}

// Indexed by TYPE then FUNC, for CAT 0.
var mpt1327TypeTable = [4][8]MPT1327MessageType{
	{MPT1327ALH, MPT1327ALHS, MPT1327ALHD, MPT1327ALHE, MPT1327ALHR, MPT1327ALHX, MPT1327ALHF, MPT1327Unknown},
	{MPT1327ACK, MPT1327ACKI, MPT1327ACKQ, MPT1327ACKX, MPT1327ACKV, MPT1327ACKE, MPT1327ACKT, MPT1327ACKB},
	{MPT1327AHY, MPT1327AHYX, MPT1327MARK, MPT1327MAINT, MPT1327CLEAR, MPT1327MOVE, MPT1327BCAST, MPT1327AHYP},
	{MPT1327RQS, MPT1327RQE, MPT1327RQT, MPT1327RQD, MPT1327RQQ, MPT1327RQC, MPT1327RQR, MPT1327HEAD},
}

// Aloha messages invite random access and don't name a caller.
func (t MPT1327MessageType) hasIdent2() bool {
	switch t {
	case MPT1327ALH, MPT1327ALHS, MPT1327ALHD, MPT1327ALHE, MPT1327ALHR, MPT1327ALHX, MPT1327ALHF,
		MPT1327MARK, MPT1327BCAST, MPT1327Unknown:
		return false
	default:
		return true
	}
}

// Idents with fixed meanings.
var mpt1327SpecialIdents = map[uint16]string{
	8191: "ALLI",   // All units
	8190: "TSCI",   // The trunking controller
	8189: "IPFIXI", // Inter-prefix
	8188: "SDMI",   // Short data message
	8187: "DIVERTI",
	8186: "INCI", // Include
	8185: "REGI", // Registration
	0:    "DUMMYI",
}

func mpt1327SpecialIdent(ident uint16) bool {
	var _, ok = mpt1327SpecialIdents[ident]
	return ok
}

// mpt1327AddressFields decodes an address codeword's information bits.
// Returns an error for the reserved categories.
func mpt1327AddressFields(info uint64, m *MPT1327Message) error {
	m.Prefix = uint8(mpt1327Field(info, 1, 7))
	m.Ident1 = uint16(mpt1327Field(info, 8, 13))

	if mpt1327Field(info, 21, 1) == 1 {
		m.Type = MPT1327GoToChannel
		m.DataCall = mpt1327Field(info, 22, 1) == 1
		m.ChannelNumber = int(mpt1327Field(info, 23, 10))
		m.Ident2 = uint16(mpt1327Field(info, 33, 13))
		return nil
	}

	var category = mpt1327Field(info, 22, 3)
	if category != 0 {
		return fmt.Errorf("reserved category %d", category)
	}

	m.Type = mpt1327TypeTable[mpt1327Field(info, 25, 2)][mpt1327Field(info, 27, 3)]
	if m.Type == MPT1327Unknown {
		return fmt.Errorf("reserved function")
	}
	m.Ident2 = uint16(mpt1327Field(info, 30, 13))
	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	Builders
 *
 * Purpose:	Assemble information fields.  The inverse of the
 *		decoding above; for tests and signal generators.
 *
 *------------------------------------------------------------------*/

// MPT1327AddressInfo packs a non-GTC address codeword.
func MPT1327AddressInfo(t MPT1327MessageType, prefix uint8, ident1 uint16, ident2 uint16) uint64 {
	var typ, fn = -1, -1
	for i, row := range mpt1327TypeTable {
		for j, x := range row {
			if x == t {
				typ, fn = i, j
			}
		}
	}
	Assert(typ >= 0)

	return 1<<47 |
		uint64(prefix&0x7f)<<40 |
		uint64(ident1&0x1fff)<<27 |
		uint64(typ)<<21 |
		uint64(fn)<<18 |
		uint64(ident2&0x1fff)<<5
}

// MPT1327GoToChannelInfo packs a GTC address codeword.
func MPT1327GoToChannelInfo(prefix uint8, ident1 uint16, channel int, ident2 uint16, data bool) uint64 {
	return 1<<47 |
		uint64(prefix&0x7f)<<40 |
		uint64(ident1&0x1fff)<<27 |
		1<<26 |
		boolToUint(data)<<25 |
		uint64(channel&0x3ff)<<15 |
		uint64(ident2&0x1fff)<<2
}

// MPT1327CCSCInfo packs a control channel system codeword.
func MPT1327CCSCInfo(system uint16) uint64 {
	return uint64(system&0x7fff) << 32
}

// MPT1327CodewordBits unpacks a codeword into transmission order.
func MPT1327CodewordBits(word uint64) BitString {
	var out = make(BitString, mpt1327CodewordBits)
	for i := range out {
		out[i] = word>>(mpt1327CodewordBits-1-i)&1 == 1
	}
	return out
}
