package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Decoder and channel configuration.
 *
 * Description:	A YAML file describes channels, alias lists and
 *		channel maps:
 *
 *		sample_rate: 48000
 *		channels:
 *		  - name: Site 1 control
 *		    type: standard
 *		    decoder:
 *		      type: mpt1327
 *		      sync: normal
 *		      channel_map: site1
 *		    aux_decoders: [fleetsync2]
 *		    alias_list: fleet
 *		alias_lists:
 *		  - name: fleet
 *		    aliases:
 *		      "200-1001": Dispatch
 *		      "200-2*": Mobiles
 *		channel_maps:
 *		  - name: site1
 *		    ranges:
 *		      - first: 1
 *		        last: 100
 *		        base: 165012500
 *		        spacing: 12500
 *
 *		Anything left out gets the decoder type's default.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

/*------------------------------------------------------------------
 *
 * Name:	DecoderType
 *
 *------------------------------------------------------------------*/

type DecoderType int

const (
	DecoderUnknown DecoderType = iota
	DecoderAM
	DecoderNBFM
	DecoderLTRStandard
	DecoderLTRNet
	DecoderMPT1327
	DecoderPassport
	DecoderP25Phase1

	// Auxiliary decoders run alongside a primary one on voice channels.
	DecoderFleetsync2
	DecoderMDC1200
	DecoderLJ1200
	DecoderTait1200
)

var decoderTypeNames = map[DecoderType]string{
	DecoderAM:          "am",
	DecoderNBFM:        "nbfm",
	DecoderLTRStandard: "ltr-standard",
	DecoderLTRNet:      "ltr-net",
	DecoderMPT1327:     "mpt1327",
	DecoderPassport:    "passport",
	DecoderP25Phase1:   "p25-phase1",
	DecoderFleetsync2:  "fleetsync2",
	DecoderMDC1200:     "mdc1200",
	DecoderLJ1200:      "lj1200",
	DecoderTait1200:    "tait1200",
}

var decoderTypeLabels = map[DecoderType]string{
	DecoderAM:          "AM",
	DecoderNBFM:        "NBFM",
	DecoderLTRStandard: "LTR-Standard",
	DecoderLTRNet:      "LTR-Net",
	DecoderMPT1327:     "MPT1327",
	DecoderPassport:    "Passport",
	DecoderP25Phase1:   "P25 Phase 1",
	DecoderFleetsync2:  "Fleetsync II",
	DecoderMDC1200:     "MDC1200",
	DecoderLJ1200:      "LoJack",
	DecoderTait1200:    "Tait 1200",
}

// String is the short name used in configuration files.
func (t DecoderType) String() string {
	if s, ok := decoderTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Label is for display.
func (t DecoderType) Label() string {
	if s, ok := decoderTypeLabels[t]; ok {
		return s
	}
	return "Unknown"
}

func (t DecoderType) IsAuxiliary() bool {
	switch t {
	case DecoderFleetsync2, DecoderMDC1200, DecoderLJ1200, DecoderTait1200:
		return true
	default:
		return false
	}
}

// PrimaryDecoderTypes in declaration order.
func PrimaryDecoderTypes() []DecoderType {
	return []DecoderType{DecoderAM, DecoderNBFM, DecoderLTRStandard, DecoderLTRNet, DecoderMPT1327, DecoderPassport, DecoderP25Phase1}
}

// AuxiliaryDecoderTypes in declaration order.
func AuxiliaryDecoderTypes() []DecoderType {
	return []DecoderType{DecoderFleetsync2, DecoderMDC1200, DecoderLJ1200, DecoderTait1200}
}

// ParseDecoderType accepts the short name or the label, case insensitively.
func ParseDecoderType(s string) (DecoderType, error) {
	var want = strings.ToLower(strings.TrimSpace(s))
	for t, name := range decoderTypeNames {
		if want == name || want == strings.ToLower(decoderTypeLabels[t]) {
			return t, nil
		}
	}
	return DecoderUnknown, configError("unknown decoder type %q", s)
}

func (t *DecoderType) UnmarshalYAML(value *yaml.Node) error {
	var parsed, err = ParseDecoderType(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = parsed
	return nil
}

func (t DecoderType) MarshalYAML() (any, error) {
	return t.String(), nil
}

/*------------------------------------------------------------------
 *
 * Name:	Smaller enumerations
 *
 *------------------------------------------------------------------*/

// MPT1327Sync selects which sync words and output polarity to use.
type MPT1327Sync int

const (
	MPT1327SyncNormal MPT1327Sync = iota
	MPT1327SyncFrench
)

func (s MPT1327Sync) String() string {
	return IfThenElse(s == MPT1327SyncFrench, "french", "normal")
}

func (s MPT1327Sync) valid() bool {
	return s == MPT1327SyncNormal || s == MPT1327SyncFrench
}

func ParseMPT1327Sync(s string) (MPT1327Sync, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return MPT1327SyncNormal, nil
	case "french":
		return MPT1327SyncFrench, nil
	default:
		return MPT1327SyncNormal, configError("unknown MPT1327 sync %q", s)
	}
}

func (s *MPT1327Sync) UnmarshalYAML(value *yaml.Node) error {
	var parsed, err = ParseMPT1327Sync(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = parsed
	return nil
}

func (s MPT1327Sync) MarshalYAML() (any, error) {
	return s.String(), nil
}

type P25Modulation int

const (
	P25ModulationC4FM P25Modulation = iota
	P25ModulationCQPSK
)

func (m P25Modulation) String() string {
	return IfThenElse(m == P25ModulationCQPSK, "cqpsk", "c4fm")
}

// Label is for display.
func (m P25Modulation) Label() string {
	return IfThenElse(m == P25ModulationCQPSK, "Simulcast (LSM)", "Normal (C4FM)")
}

func (m P25Modulation) valid() bool {
	return m == P25ModulationC4FM || m == P25ModulationCQPSK
}

func ParseP25Modulation(s string) (P25Modulation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c4fm":
		return P25ModulationC4FM, nil
	case "cqpsk", "lsm":
		return P25ModulationCQPSK, nil
	default:
		return P25ModulationC4FM, configError("unknown P25 modulation %q", s)
	}
}

func (m *P25Modulation) UnmarshalYAML(value *yaml.Node) error {
	var parsed, err = ParseP25Modulation(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = parsed
	return nil
}

func (m P25Modulation) MarshalYAML() (any, error) {
	return m.String(), nil
}

// MessageDirection is which side of an LTR conversation to decode.
type MessageDirection int

const (
	DirectionOutbound MessageDirection = iota // Repeater to mobile.
	DirectionInbound
)

func (d MessageDirection) String() string {
	return IfThenElse(d == DirectionInbound, "inbound", "outbound")
}

func (d MessageDirection) valid() bool {
	return d == DirectionOutbound || d == DirectionInbound
}

func ParseMessageDirection(s string) (MessageDirection, error) {
	switch strings.ToLower(s) {
	case "", "outbound", "osw":
		return DirectionOutbound, nil
	case "inbound", "isw":
		return DirectionInbound, nil
	default:
		return DirectionOutbound, configError("unknown message direction %q", s)
	}
}

func (d *MessageDirection) UnmarshalYAML(value *yaml.Node) error {
	var parsed, err = ParseMessageDirection(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = parsed
	return nil
}

func (d MessageDirection) MarshalYAML() (any, error) {
	return d.String(), nil
}

// ChannelType says whether a channel is a control channel that hands
// out traffic channels, or one of those traffic channels.
type ChannelType int

const (
	ChannelStandard ChannelType = iota
	ChannelTraffic
)

func (c ChannelType) String() string {
	return IfThenElse(c == ChannelTraffic, "traffic", "standard")
}

func (c ChannelType) valid() bool {
	return c == ChannelStandard || c == ChannelTraffic
}

func (c *ChannelType) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(value.Value) {
	case "", "standard":
		*c = ChannelStandard
	case "traffic":
		*c = ChannelTraffic
	default:
		return fmt.Errorf("line %d: %w", value.Line, configError("unknown channel type %q", value.Value))
	}
	return nil
}

func (c ChannelType) MarshalYAML() (any, error) {
	return c.String(), nil
}

/*------------------------------------------------------------------
 *
 * Name:	DecoderConfiguration
 *
 * Purpose:	Settings for one primary decoder.  Fields that don't
 *		apply to the type are ignored.
 *
 *------------------------------------------------------------------*/

type DecoderConfiguration struct {
	Type DecoderType `yaml:"type"`

	// MPT1327
	Sync           MPT1327Sync `yaml:"sync"`
	ChannelMapName string      `yaml:"channel_map,omitempty"`

	// P25
	Modulation P25Modulation `yaml:"modulation"`

	// LTR
	Direction MessageDirection `yaml:"direction"`

	// Automatic frequency correction, for decoders that estimate it.
	AFC                  bool `yaml:"afc"`
	AFCMaximumCorrection int  `yaml:"afc_maximum_correction"` // Hz

	// Trunked systems
	CallTimeout            time.Duration `yaml:"call_timeout"`
	TrafficChannelPoolSize int           `yaml:"traffic_channel_pool_size"`
}

const (
	DefaultAFCMaximumCorrection   = 3000
	DefaultCallTimeout            = 45 * time.Second
	MaxCallTimeout                = 5 * time.Minute
	DefaultTrafficChannelPoolSize = 3
	MaxTrafficChannelPoolSize     = 50
)

// DefaultDecoderConfiguration is what a type gets when nothing is said.
func DefaultDecoderConfiguration(t DecoderType) (DecoderConfiguration, error) {
	var c = DecoderConfiguration{Type: t}

	switch t {
	case DecoderAM, DecoderNBFM:
	case DecoderLTRStandard, DecoderLTRNet, DecoderPassport:
		c.CallTimeout = DefaultCallTimeout
	case DecoderMPT1327:
		c.Sync = MPT1327SyncNormal
		c.CallTimeout = DefaultCallTimeout
		c.TrafficChannelPoolSize = DefaultTrafficChannelPoolSize
	case DecoderP25Phase1:
		c.Modulation = P25ModulationC4FM
		c.AFC = true
		c.AFCMaximumCorrection = DefaultAFCMaximumCorrection
		c.CallTimeout = DefaultCallTimeout
		c.TrafficChannelPoolSize = DefaultTrafficChannelPoolSize
	default:
		return DecoderConfiguration{}, configError("no primary decoder of type %s", t)
	}

	return c, nil
}

// applyDefaults fills anything left zero.
func (c *DecoderConfiguration) applyDefaults() error {
	var d, err = DefaultDecoderConfiguration(c.Type)
	if err != nil {
		return err
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.TrafficChannelPoolSize == 0 {
		c.TrafficChannelPoolSize = d.TrafficChannelPoolSize
	}
	if c.AFCMaximumCorrection == 0 {
		c.AFCMaximumCorrection = d.AFCMaximumCorrection
	}
	return nil
}

func (c DecoderConfiguration) Validate() error {
	if c.Type == DecoderUnknown || c.Type.IsAuxiliary() {
		return configError("%s is not a primary decoder type", c.Type)
	}
	if c.CallTimeout < 0 || c.CallTimeout > MaxCallTimeout {
		return configError("%s: call timeout %v outside 0 .. %v", c.Type, c.CallTimeout, MaxCallTimeout)
	}
	if c.TrafficChannelPoolSize < 0 || c.TrafficChannelPoolSize > MaxTrafficChannelPoolSize {
		return configError("%s: traffic channel pool size %d outside 0 .. %d", c.Type, c.TrafficChannelPoolSize, MaxTrafficChannelPoolSize)
	}
	if c.AFCMaximumCorrection < 0 {
		return configError("%s: maximum AFC correction %d Hz", c.Type, c.AFCMaximumCorrection)
	}
	if !c.Sync.valid() {
		return configError("%s: unknown MPT1327 sync %d", c.Type, int(c.Sync))
	}
	if !c.Modulation.valid() {
		return configError("%s: unknown P25 modulation %d", c.Type, int(c.Modulation))
	}
	if !c.Direction.valid() {
		return configError("%s: unknown message direction %d", c.Type, int(c.Direction))
	}
	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	ChannelConfig
 *
 *------------------------------------------------------------------*/

type ChannelConfig struct {
	Name        string               `yaml:"name"`
	System      string               `yaml:"system,omitempty"`
	Site        string               `yaml:"site,omitempty"`
	Type        ChannelType          `yaml:"type"`
	Decoder     DecoderConfiguration `yaml:"decoder"`
	AuxDecoders []DecoderType        `yaml:"aux_decoders,omitempty"`
	AliasList   string               `yaml:"alias_list,omitempty"`
}

// Copy is independent of the original.
func (c ChannelConfig) Copy() ChannelConfig {
	var out = c
	out.AuxDecoders = slices.Clone(c.AuxDecoders)
	return out
}

func (c ChannelConfig) Validate() error {
	if !c.Type.valid() {
		return fmt.Errorf("channel %q: %w", c.Name, configError("unknown channel type %d", int(c.Type)))
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("channel %q: %w", c.Name, err)
	}
	var seen = make(map[DecoderType]bool)
	for _, aux := range c.AuxDecoders {
		if !aux.IsAuxiliary() {
			return fmt.Errorf("channel %q: %w", c.Name, configError("%s is not an auxiliary decoder", aux))
		}
		if seen[aux] {
			return fmt.Errorf("channel %q: %w", c.Name, configError("auxiliary decoder %s listed twice", aux))
		}
		seen[aux] = true
	}
	return nil
}

type AliasListConfig struct {
	Name    string            `yaml:"name"`
	Aliases map[string]string `yaml:"aliases"`
}

type Config struct {
	SampleRate  int               `yaml:"sample_rate"`
	Channels    []ChannelConfig   `yaml:"channels"`
	AliasLists  []AliasListConfig `yaml:"alias_lists,omitempty"`
	ChannelMaps []ChannelMap      `yaml:"channel_maps,omitempty"`
	MQTT        MQTTConfig        `yaml:"mqtt,omitempty"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses, applies defaults and validates.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		// Errors from our own UnmarshalYAML methods already wrap ErrConfiguration;
		// syntax errors from the parser don't.
		if !errors.Is(err, ErrConfiguration) {
			err = fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return nil, err
	}

	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	for i := range c.Channels {
		if err := c.Channels[i].Decoder.applyDefaults(); err != nil {
			return nil, fmt.Errorf("channel %q: %w", c.Channels[i].Name, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.SampleRate != DefaultSampleRate {
		return configError("sample rate %d: only %d is supported", c.SampleRate, DefaultSampleRate)
	}

	var lists = make(map[string]bool)
	for _, a := range c.AliasLists {
		if a.Name == "" || lists[a.Name] {
			return configError("alias list name %q missing or duplicated", a.Name)
		}
		lists[a.Name] = true
	}

	var maps = make(map[string]bool)
	for _, m := range c.ChannelMaps {
		if err := m.Validate(); err != nil {
			return err
		}
		if maps[m.Name] {
			return configError("channel map %q duplicated", m.Name)
		}
		maps[m.Name] = true
	}

	for _, ch := range c.Channels {
		if err := ch.Validate(); err != nil {
			return err
		}
		if ch.AliasList != "" && !lists[ch.AliasList] {
			return configError("channel %q: no alias list named %q", ch.Name, ch.AliasList)
		}
		if ch.Decoder.ChannelMapName != "" && !maps[ch.Decoder.ChannelMapName] {
			return configError("channel %q: no channel map named %q", ch.Name, ch.Decoder.ChannelMapName)
		}
	}

	return c.MQTT.Validate()
}

// BuildAliasLists builds the lookup structures for every configured list.
func (c *Config) BuildAliasLists() []*AliasList {
	var out = make([]*AliasList, 0, len(c.AliasLists))
	for _, a := range c.AliasLists {
		out = append(out, NewAliasList(a.Name, a.Aliases))
	}
	return out
}
