package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Decoded protocol messages.
 *
 * Description:	The set of message kinds is closed: every kind embeds
 *		messageHeader, which carries what all messages have in
 *		common.  Listeners switch on the concrete type.
 *
 *		Messages are immutable once dispatched.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

type Message interface {
	Protocol() DecoderType
	Timestamp() time.Time

	// Identifiers are the radio identities the message mentions, in the
	// form alias lists use.
	Identifiers() []string

	// Alias for one of the identifiers, if the channel's alias list had one.
	Alias(id string) (string, bool)

	String() string

	header() *messageHeader
}

type messageHeader struct {
	protocol  DecoderType
	timestamp time.Time
	pattern   string
	aliases   map[string]string
}

func newMessageHeader(protocol DecoderType, frame MessageFrame) messageHeader {
	return messageHeader{
		protocol:  protocol,
		timestamp: frame.Timestamp,
		pattern:   frame.Pattern.Name(),
	}
}

func (h *messageHeader) header() *messageHeader {
	return h
}

func (h *messageHeader) Protocol() DecoderType {
	return h.protocol
}

func (h *messageHeader) Timestamp() time.Time {
	return h.timestamp
}

// SyncPattern is the name of the pattern the frame was found with.
func (h *messageHeader) SyncPattern() string {
	return h.pattern
}

func (h *messageHeader) Alias(id string) (string, bool) {
	var a, ok = h.aliases[id]
	return a, ok
}

// Aliases is a copy of every alias found.
func (h *messageHeader) Aliases() map[string]string {
	return maps.Clone(h.aliases)
}

func (h *messageHeader) setAlias(id string, alias string) {
	if h.aliases == nil {
		h.aliases = make(map[string]string)
	}
	h.aliases[id] = alias
}

// describeIdentifier is "id (alias)" or just "id".
func describeIdentifier(m Message, id string) string {
	if a, ok := m.Alias(id); ok {
		return fmt.Sprintf("%s (%s)", id, a)
	}
	return id
}

/*------------------------------------------------------------------
 *
 * Name:	RawMessage
 *
 * Purpose:	A frame from a protocol with no field level parser.
 *		Only the framing is known to be right.
 *
 *------------------------------------------------------------------*/

type RawMessage struct {
	messageHeader
	Bits BitString
}

func (m *RawMessage) Identifiers() []string {
	return nil
}

func (m *RawMessage) String() string {
	return fmt.Sprintf("%s %s", m.protocol.Label(), m.Bits.Hex())
}

/*------------------------------------------------------------------
 *
 * Name:	P25NetworkID
 *
 * Purpose:	The network identifier that follows every P25 phase 1
 *		frame sync.
 *
 *------------------------------------------------------------------*/

type P25DataUnit uint8

const (
	P25HeaderDataUnit            P25DataUnit = 0x0
	P25TerminatorWithoutLC       P25DataUnit = 0x3
	P25LogicalLinkDataUnit1      P25DataUnit = 0x5
	P25TrunkingSignalingDataUnit P25DataUnit = 0x7
	P25LogicalLinkDataUnit2      P25DataUnit = 0xA
	P25PacketDataUnit            P25DataUnit = 0xC
	P25TerminatorWithLC          P25DataUnit = 0xF
)

var p25DataUnitNames = map[P25DataUnit]string{
	P25HeaderDataUnit:            "HDU",
	P25TerminatorWithoutLC:       "TDU",
	P25LogicalLinkDataUnit1:      "LDU1",
	P25TrunkingSignalingDataUnit: "TSBK",
	P25LogicalLinkDataUnit2:      "LDU2",
	P25PacketDataUnit:            "PDU",
	P25TerminatorWithLC:          "TDULC",
}

func (d P25DataUnit) String() string {
	if s, ok := p25DataUnitNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DUID-%X", uint8(d))
}

func (d P25DataUnit) valid() bool {
	var _, ok = p25DataUnitNames[d]
	return ok
}

type P25NetworkID struct {
	messageHeader
	NAC      uint16 // Network access code, 12 bits.
	DataUnit P25DataUnit
}

func (m *P25NetworkID) Identifiers() []string {
	return []string{fmt.Sprintf("NAC-%03X", m.NAC)}
}

func (m *P25NetworkID) String() string {
	return fmt.Sprintf("P25 NAC %s %s", describeIdentifier(m, m.Identifiers()[0]), m.DataUnit)
}

/*------------------------------------------------------------------
 *
 * Name:	MPT1327Message
 *
 *------------------------------------------------------------------*/

type MPT1327ChannelKind int

const (
	MPT1327ControlChannel MPT1327ChannelKind = iota
	MPT1327TrafficChannel
)

func (k MPT1327ChannelKind) String() string {
	return IfThenElse(k == MPT1327TrafficChannel, "traffic", "control")
}

type MPT1327Message struct {
	messageHeader

	Channel MPT1327ChannelKind
	Type    MPT1327MessageType

	SystemID uint16 // From the CCSC codeword; control channel only.

	Prefix uint8
	Ident1 uint16
	Ident2 uint16 // Only for types that carry a second identity.

	// Go To Channel
	ChannelNumber int
	Frequency     int64 // Hz, 0 if there was no channel map entry.
	DataCall      bool

	// 48 bit information fields of the data codewords that followed.
	DataCodewords []uint64
}

// Identifiers are "PPP-IIII" formatted prefix/ident pairs.  Special
// idents like ALLI are left out.
func (m *MPT1327Message) Identifiers() []string {
	var ids []string
	if !mpt1327SpecialIdent(m.Ident1) {
		ids = append(ids, mpt1327Identifier(m.Prefix, m.Ident1))
	}
	if m.Type.hasIdent2() && !mpt1327SpecialIdent(m.Ident2) {
		ids = append(ids, mpt1327Identifier(m.Prefix, m.Ident2))
	}
	return ids
}

func (m *MPT1327Message) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "MPT1327 %s", m.Type)
	if m.Channel == MPT1327ControlChannel {
		fmt.Fprintf(&sb, " SYS:%04X", m.SystemID)
	}

	fmt.Fprintf(&sb, " TO:%s", m.describeIdent(m.Ident1))
	if m.Type.hasIdent2() {
		fmt.Fprintf(&sb, " FROM:%s", m.describeIdent(m.Ident2))
	}

	if m.Type == MPT1327GoToChannel {
		fmt.Fprintf(&sb, " CHAN:%d", m.ChannelNumber)
		if m.Frequency != 0 {
			fmt.Fprintf(&sb, " FREQ:%.5f", float64(m.Frequency)/1e6)
		}
		if m.DataCall {
			sb.WriteString(" DATA")
		}
	}

	if len(m.DataCodewords) > 0 {
		var words = make([]string, len(m.DataCodewords))
		for i, w := range m.DataCodewords {
			words[i] = fmt.Sprintf("%012X", w)
		}
		fmt.Fprintf(&sb, " DATA:[%s]", strings.Join(words, " "))
	}

	return sb.String()
}

func (m *MPT1327Message) describeIdent(ident uint16) string {
	if name, ok := mpt1327SpecialIdents[ident]; ok {
		return name
	}
	return describeIdentifier(m, mpt1327Identifier(m.Prefix, ident))
}

func mpt1327Identifier(prefix uint8, ident uint16) string {
	return fmt.Sprintf("%03d-%04d", prefix, ident)
}

// sortedIdentifiers is for stable output.
func sortedIdentifiers(m Message) []string {
	var ids = slices.Clone(m.Identifiers())
	slices.Sort(ids)
	return ids
}
