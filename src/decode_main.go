package lmrdecode

/*------------------------------------------------------------------
 *
 * Purpose:	Main program for the standalone decoder.
 *
 * Inputs:	Signed 16 bit little endian mono PCM at 48000
 *		samples per second, from stdin or a file.  e.g.
 *
 *		rtl_fm -f 169.8125M -s 48k | lmrdecode --decoder mpt1327
 *
 *		sox recording.wav -t raw -r 48000 -e signed -b 16 -c 1 - | lmrdecode -c channels.yaml
 *
 * Outputs:	One line per decoded message on stdout.
 *		Optionally MQTT and a Prometheus endpoint.
 *
 * Description:	Without --config a single channel is built from the
 *		command line options.  With it, every configured
 *		channel is built and all are fed the same input.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

const defaultBlockSamples = 4800 // 100 ms

type decodeOptions struct {
	config          string
	input           string
	decoder         string
	sync            string
	modulation      string
	direction       string
	aux             []string
	timestampFormat string
	metricsAddr     string
	logLevel        string
	mqttBroker      string
	mqttTopic       string
	blockSamples    int
	help            bool
}

func bindDecodeFlags(fs *pflag.FlagSet) *decodeOptions {
	var o decodeOptions

	fs.StringVarP(&o.config, "config", "c", "", "YAML channel configuration.  Overrides the single channel options.")
	fs.StringVarP(&o.input, "input", "i", "-", "Raw s16le 48000 samples/sec mono input file, - for stdin.")
	fs.StringVarP(&o.decoder, "decoder", "d", DecoderMPT1327.String(), "Primary decoder: "+strings.Join(decoderTypeNamesOf(PrimaryDecoderTypes()), ", ")+".")
	fs.StringVar(&o.sync, "sync", MPT1327SyncNormal.String(), "MPT1327 sync: normal or french.")
	fs.StringVar(&o.modulation, "modulation", P25ModulationC4FM.String(), "P25 modulation: c4fm or cqpsk.")
	fs.StringVar(&o.direction, "direction", DirectionOutbound.String(), "LTR message direction: outbound or inbound.")
	fs.StringSliceVarP(&o.aux, "aux", "a", nil, "Auxiliary decoders: "+strings.Join(decoderTypeNamesOf(AuxiliaryDecoderTypes()), ", ")+".")
	fs.StringVarP(&o.timestampFormat, "timestamp-format", "T", "%H:%M:%S", "Precede messages with 'strftime' format time stamp.  Empty for none.")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	fs.StringVarP(&o.logLevel, "log-level", "l", "info", "debug, info, warn or error.")
	fs.StringVar(&o.mqttBroker, "mqtt-broker", "", "Publish messages to this MQTT broker, e.g. tcp://localhost:1883")
	fs.StringVar(&o.mqttTopic, "mqtt-topic", "", "MQTT topic prefix.")
	fs.IntVar(&o.blockSamples, "block-samples", defaultBlockSamples, "Samples per processing block.")
	fs.BoolVarP(&o.help, "help", "h", false, "Display help text.")

	return &o
}

func decoderTypeNamesOf(types []DecoderType) []string {
	var out = make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.String())
	}
	return out
}

func DecodeMain() {
	var opts = bindDecodeFlags(pflag.CommandLine)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Decode LMR trunking control channels from audio.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Input is raw signed 16 bit little endian mono at %d samples/sec.\n", DefaultSampleRate)
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if opts.help {
		pflag.Usage()
		os.Exit(0)
	}

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runDecode(ctx, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		stop()
		os.Exit(IfThenElse(errors.Is(err, ErrConfiguration), 2, 1))
	}
}

/*------------------------------------------------------------------
 *
 * Name:	runDecode
 *
 * Purpose:	Everything after flag parsing.
 *
 * Returns:	nil at end of input or when ctx is cancelled.
 *
 *------------------------------------------------------------------*/

func runDecode(ctx context.Context, opts *decodeOptions, stdin io.Reader, out io.Writer) error {
	if err := SetLogLevel(opts.logLevel); err != nil {
		return err
	}
	if opts.blockSamples < 1 {
		return configError("block size %d", opts.blockSamples)
	}

	var stamp *strftime.Strftime
	if opts.timestampFormat != "" {
		var err error
		if stamp, err = strftime.New(opts.timestampFormat); err != nil {
			return configError("timestamp format %q: %v", opts.timestampFormat, err)
		}
	}

	var config, err = decodeConfig(opts)
	if err != nil {
		return err
	}

	var library *FilterLibrary
	if library, err = DefaultFilterLibrary(); err != nil {
		return err
	}

	var factory = NewDecoderFactory(library,
		WithAliasLists(config.BuildAliasLists()...),
		WithChannelMaps(config.ChannelMaps...),
	)

	var pipelines []*Pipeline
	for _, ch := range config.Channels {
		var p, err = factory.Build(ch)
		if err != nil {
			return err
		}
		pipelines = append(pipelines, p)
	}

	if opts.metricsAddr != "" {
		var shutdown, err = serveMetrics(opts.metricsAddr)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	var printer = &messagePrinter{out: bufio.NewWriter(out), stamp: stamp}
	defer printer.out.Flush()

	for _, p := range pipelines {
		var name = p.Channel().Name
		var filters = p.MessageFilters()

		p.AddMessageListener(ListenerFunc[Message](func(m Message) {
			if filters.Passes(m) {
				printer.message(name, m)
			}
		}))

		if t := p.Traffic(); t != nil {
			t.AddListener(ListenerFunc[TrafficEvent](func(e TrafficEvent) {
				printer.traffic(name, e)
			}))
		}

		if config.MQTT.Enabled() {
			var publisher, err = NewMQTTPublisher(config.MQTT, p.ID(), name)
			if err != nil {
				return err
			}
			defer publisher.Close()
			p.AddMessageListener(publisher)
		}
	}

	var in = stdin
	if opts.input != "-" {
		var f, err = os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	err = decodeStream(ctx, in, opts.blockSamples, config.SampleRate, pipelines)

	for _, p := range pipelines {
		p.Stop()
	}

	return err
}

// decodeConfig loads the configuration file, or builds a one channel
// configuration from the command line.
func decodeConfig(opts *decodeOptions) (*Config, error) {
	var config *Config

	if opts.config != "" {
		var err error
		if config, err = LoadConfig(opts.config); err != nil {
			return nil, err
		}
	} else {
		var t, err = ParseDecoderType(opts.decoder)
		if err != nil {
			return nil, err
		}

		decoder, err := DefaultDecoderConfiguration(t)
		if err != nil {
			return nil, err
		}
		if decoder.Sync, err = ParseMPT1327Sync(opts.sync); err != nil {
			return nil, err
		}
		if decoder.Modulation, err = ParseP25Modulation(opts.modulation); err != nil {
			return nil, err
		}
		if decoder.Direction, err = ParseMessageDirection(opts.direction); err != nil {
			return nil, err
		}

		var channel = ChannelConfig{
			Name:    t.Label(),
			Type:    ChannelStandard,
			Decoder: decoder,
		}
		for _, a := range opts.aux {
			var aux, err = ParseDecoderType(a)
			if err != nil {
				return nil, err
			}
			channel.AuxDecoders = append(channel.AuxDecoders, aux)
		}

		config = &Config{SampleRate: DefaultSampleRate, Channels: []ChannelConfig{channel}}
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	if opts.mqttBroker != "" {
		config.MQTT.Broker = opts.mqttBroker
	}
	if opts.mqttTopic != "" {
		config.MQTT.TopicPrefix = opts.mqttTopic
	}

	return config, nil
}

/*------------------------------------------------------------------
 *
 * Name:	decodeStream
 *
 * Purpose:	Read PCM in blocks and feed every pipeline.
 *
 * Description:	A trailing odd byte is discarded.
 *
 *------------------------------------------------------------------*/

func decodeStream(ctx context.Context, in io.Reader, blockSamples int, sampleRate int, pipelines []*Pipeline) error {
	var reader = bufio.NewReader(in)
	var raw = make([]byte, blockSamples*2)
	var pcm = make([]int16, blockSamples)

	for {
		if ctx.Err() != nil {
			logger.Info("Interrupted")
			return nil
		}

		var n, err = io.ReadFull(reader, raw)
		var samples = n / 2
		if samples > 0 {
			for i := range samples {
				pcm[i] = int16(binary.LittleEndian.Uint16(raw[2*i:])) //nolint:gosec
			}
			var buf = SampleBufferFromPCM16(pcm[:samples], sampleRate)
			for _, p := range pipelines {
				p.Process(buf)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		default:
			return fmt.Errorf("reading input: %w", err)
		}
	}
}

// serveMetrics exposes the package collectors over HTTP.
func serveMetrics(addr string) (func(), error) {
	var registry = prometheus.NewRegistry()
	if err := RegisterMetrics(registry); err != nil {
		return nil, err
	}

	var mux = http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	var server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "addr", addr, "err", err)
		}
	}()

	logger.Info("Serving metrics", "addr", addr)

	return func() {
		var ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}

type messagePrinter struct {
	out   *bufio.Writer
	stamp *strftime.Strftime
}

func (p *messagePrinter) prefix(t time.Time, channel string) string {
	if p.stamp == nil {
		return "[" + channel + "] "
	}
	return "[" + p.stamp.FormatString(t) + " " + channel + "] "
}

func (p *messagePrinter) message(channel string, m Message) {
	fmt.Fprintf(p.out, "%s%s", p.prefix(m.Timestamp(), channel), m.String())

	for _, id := range sortedIdentifiers(m) {
		if a, ok := m.Alias(id); ok {
			fmt.Fprintf(p.out, " %s=%q", id, a)
		}
	}

	fmt.Fprintf(p.out, "\n")
	p.out.Flush()
}

func (p *messagePrinter) traffic(channel string, e TrafficEvent) {
	var a = e.Allocation
	fmt.Fprintf(p.out, "%sTRAFFIC %s CHAN:%d", p.prefix(a.LastSeen, channel), strings.ToUpper(e.Kind.String()), a.Channel)
	if a.Frequency != 0 {
		fmt.Fprintf(p.out, " FREQ:%.4f", float64(a.Frequency)/1e6)
	}
	if a.To != "" {
		fmt.Fprintf(p.out, " TO:%s", a.To)
	}
	if a.From != "" {
		fmt.Fprintf(p.out, " FROM:%s", a.From)
	}
	fmt.Fprintf(p.out, "\n")
	p.out.Flush()
}
