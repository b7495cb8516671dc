package tsguard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopacket/gopacket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/tsguard/common/go/xiter"
	"github.com/yanet-platform/tsguard/common/go/xpacket"
	"github.com/yanet-platform/tsguard/tsguard/internal/capture"
	"github.com/yanet-platform/tsguard/tsguard/internal/report"
	"github.com/yanet-platform/tsguard/tsguard/internal/rewrite"
)

// ErrNoCaptures is returned when the inputs contain no capture files.
var ErrNoCaptures = errors.New("no capture files found")

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// InspectorOption is a function that configures the inspector.
type InspectorOption func(*options)

// WithLog sets the logger for the inspector.
func WithLog(log *zap.SugaredLogger) InspectorOption {
	return func(o *options) {
		o.Log = log
	}
}

// Inspector analyzes the TCP timestamps of capture files and optionally
// writes rewritten copies of them.
type Inspector struct {
	cfg *Config
	log *zap.SugaredLogger
}

// NewInspector creates a new inspector using the provided configuration.
func NewInspector(cfg *Config, options ...InspectorOption) (*Inspector, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Inspector{
		cfg: cfg,
		log: opts.Log,
	}, nil
}

// Run inspects the capture files found at the given paths.
//
// Files are processed concurrently, up to the configured number of workers.
// The first failure cancels the remaining files.
func (m *Inspector) Run(ctx context.Context, paths []string) (*report.Report, error) {
	cfg := &m.cfg.Inspect

	files, err := capture.Discover(paths, cfg.Match)
	if err != nil {
		return nil, fmt.Errorf("failed to discover captures: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoCaptures
	}

	outputs := make([]string, len(files))
	if cfg.Mode != rewrite.ModeObserve {
		outputs, err = outputPaths(cfg.OutputDir, files)
		if err != nil {
			return nil, err
		}

		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	m.log.Infow("inspecting captures",
		zap.Int("files", len(files)),
		zap.Stringer("mode", cfg.Mode),
		zap.Stringer("min_risk", cfg.MinRisk),
	)

	rep := &report.Report{
		Mode:  cfg.Mode.String(),
		Files: make([]*report.FileStats, len(files)),
	}

	wg, ctx := errgroup.WithContext(ctx)
	wg.SetLimit(cfg.Workers)
	for idx, path := range files {
		wg.Go(func() error {
			stats, err := m.inspectFile(ctx, path, outputs[idx])
			if err != nil {
				return fmt.Errorf("failed to inspect %s: %w", path, err)
			}

			rep.Files[idx] = stats
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return nil, err
	}

	return rep, nil
}

// inspectFile inspects a single capture, writing the rewritten copy to
// output unless it is empty.
func (m *Inspector) inspectFile(ctx context.Context, path string, output string) (*report.FileStats, error) {
	cfg := &m.cfg.Inspect
	log := m.log.With(zap.String("capture", path))

	r, err := capture.Open(path, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	stats := &report.FileStats{Path: path}

	var w *capture.Writer
	if output != "" {
		w, err = capture.Create(output, uint32(cfg.Snaplen.Bytes()), r.LinkType())
		if err != nil {
			return nil, err
		}
		defer w.Close()

		stats.Output = output
	}

	log.Debugw("opened capture",
		zap.String("format", r.Format()),
		zap.Stringer("link_type", r.LinkType()),
	)

	rw := rewrite.NewRewriter(cfg.Config, rewrite.WithLog(log))

	for frame, packet := range xiter.Number(r.Packets(), 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stats.Packets++
		ci := packet.Metadata().CaptureInfo
		data := packet.Data()

		if raw, ok := xpacket.PacketTCPOptions(packet); ok {
			stats.TCP++
			data = m.inspectSegment(rw, stats, packet, raw, log.With(zap.Int("frame", frame)))
		}

		if w != nil {
			if err := w.WritePacket(ci, data); err != nil {
				return nil, err
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	if w != nil {
		if err := w.Close(); err != nil {
			return nil, err
		}
	}

	log.Infow("inspected capture",
		zap.Int("packets", stats.Packets),
		zap.Int("tcp", stats.TCP),
		zap.Int("timestamps", stats.WithTimestamp),
		zap.Int("stripped", stats.Stripped),
		zap.Int("spoofed", stats.Spoofed),
	)

	return stats, nil
}

// inspectSegment accounts a TCP segment and returns the frame to write.
func (m *Inspector) inspectSegment(
	rw *rewrite.Rewriter,
	stats *report.FileStats,
	packet gopacket.Packet,
	raw []byte,
	log *zap.SugaredLogger,
) []byte {
	flow := rewrite.NewFlowKey(packet)

	// A bare SYN opens a new connection, possibly on a reused 4-tuple.
	if tcp, ok := xpacket.TCPLayer(packet); ok && tcp.SYN && !tcp.ACK {
		rw.Forget(flow)
	}

	verdict := rw.Inspect(flow, raw)
	if verdict.Malformed != nil {
		stats.Malformed++
	}
	if verdict.Analysis.HasTimestamp {
		stats.AddRisk(verdict.Analysis.Risk)
	}

	ci := packet.Metadata().CaptureInfo
	if ci.CaptureLength < ci.Length {
		stats.Truncated++
		return packet.Data()
	}

	if verdict.Action == rewrite.ActionNone {
		return packet.Data()
	}

	data, err := xpacket.RewriteTCPOptions(packet, verdict.Options)
	if err != nil {
		stats.Failed++
		log.Warnw("failed to rewrite segment, copying it unchanged", zap.Error(err))
		return packet.Data()
	}

	switch verdict.Action {
	case rewrite.ActionStripped:
		stats.Stripped++
	case rewrite.ActionSpoofed:
		stats.Spoofed++
	}

	return data
}

// outputPaths returns the paths of the rewritten copies of the captures.
//
// Inputs mapping to the same output, such as "a/x.pcap" and "b/x.pcap" or
// "x.pcap" and "x.pcapng", are refused, as is an output that would replace
// any of the inputs.
func outputPaths(dir string, inputs []string) ([]string, error) {
	sources := map[string]string{}
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, err
		}
		sources[abs] = input
	}

	outputs := make([]string, 0, len(inputs))
	owners := map[string]string{}
	for _, input := range inputs {
		output, err := outputPath(dir, input)
		if err != nil {
			return nil, err
		}

		abs, err := filepath.Abs(output)
		if err != nil {
			return nil, err
		}
		if other, ok := owners[abs]; ok {
			return nil, fmt.Errorf("captures %s and %s would both be written to %s", other, input, output)
		}
		if source, ok := sources[abs]; ok {
			return nil, fmt.Errorf("output %s of %s would overwrite the input %s", output, input, source)
		}
		owners[abs] = input

		outputs = append(outputs, output)
	}

	return outputs, nil
}

// outputPath returns the path of the rewritten copy of a capture.
//
// Output captures are always classic pcap.
func outputPath(dir string, input string) (string, error) {
	name := filepath.Base(input)
	if ext := filepath.Ext(name); ext != ".pcap" {
		name = strings.TrimSuffix(name, ext) + ".pcap"
	}
	output := filepath.Join(dir, name)

	absInput, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return "", err
	}
	if absInput == absOutput {
		return "", fmt.Errorf("output %s would overwrite the input", output)
	}

	return output, nil
}
