package rewrite

import (
	"go.uber.org/zap"

	"github.com/yanet-platform/tsguard/common/go/tcpopt"
)

// SpoofConfig configures timestamp synthesis.
type SpoofConfig struct {
	// Base is added to the per-flow base of synthesized clocks.
	Base uint32 `yaml:"base"`
}

// Config configures the rewriter.
type Config struct {
	// Mode selects the action applied to segments carrying timestamps.
	Mode Mode `yaml:"mode"`
	// MinRisk is the lowest assessed risk a segment must have to be
	// stripped, or to start spoofing its connection.
	MinRisk tcpopt.Risk `yaml:"min_risk"`
	// Spoof configures ModeSpoof.
	Spoof SpoofConfig `yaml:"spoof"`
}

// Verdict is the outcome of inspecting one segment.
type Verdict struct {
	// Analysis is the analysis of the original options.
	Analysis tcpopt.Analysis
	// Malformed is the decoding error of the original options, if any.
	Malformed error
	// Action is what was done to the options.
	Action Action
	// Options are the options to put on the wire when Action is not
	// ActionNone.
	Options []tcpopt.Option
}

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// RewriterOption is a function that configures the rewriter.
type RewriterOption func(*options)

// WithLog sets the logger for the rewriter.
func WithLog(log *zap.SugaredLogger) RewriterOption {
	return func(o *options) {
		o.Log = log
	}
}

// Rewriter decides, segment by segment, how TCP timestamps are rewritten.
//
// In ModeSpoof it keeps a synthesized clock per flow direction, so it must
// see the segments of a capture in order and is not safe for concurrent use.
type Rewriter struct {
	cfg    Config
	codec  *tcpopt.Codec
	clocks map[FlowKey]*flowClock
	log    *zap.SugaredLogger
}

// NewRewriter creates a new rewriter.
func NewRewriter(cfg Config, options ...RewriterOption) *Rewriter {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Rewriter{
		cfg:    cfg,
		codec:  tcpopt.NewCodec(tcpopt.WithLog(opts.Log)),
		clocks: map[FlowKey]*flowClock{},
		log:    opts.Log,
	}
}

// Inspect analyzes the raw options field of a segment of the given flow and
// decides what its options should become.
//
// In ModeStrip every segment is judged against MinRisk on its own. In
// ModeSpoof MinRisk only decides whether a connection starts being spoofed:
// once either direction has a synthesized clock, every later segment of the
// connection is spoofed whatever its risk, so the peer never sees the
// original clock again.
func (m *Rewriter) Inspect(flow FlowKey, raw []byte) Verdict {
	analysis, malformed := m.codec.Inspect(raw)

	verdict := Verdict{
		Analysis:  analysis,
		Malformed: malformed,
	}

	if !analysis.HasTimestamp {
		return verdict
	}

	switch m.cfg.Mode {
	case ModeStrip:
		if analysis.Risk < m.cfg.MinRisk {
			return verdict
		}
		verdict.Action = ActionStripped
		verdict.Options = tcpopt.WithoutKind(analysis.Options, tcpopt.KindTimestamp)
	case ModeSpoof:
		if analysis.Risk < m.cfg.MinRisk && !m.spoofing(flow) {
			return verdict
		}
		verdict.Action = ActionSpoofed
		verdict.Options = m.spoof(flow, analysis.Options)
	}

	return verdict
}

// spoofing reports whether either direction of the flow's connection has a
// synthesized clock.
func (m *Rewriter) spoofing(flow FlowKey) bool {
	if _, ok := m.clocks[flow]; ok {
		return true
	}
	_, ok := m.clocks[flow.Reverse()]
	return ok
}

// Forget drops the synthesized clocks of both directions of the flow.
func (m *Rewriter) Forget(flow FlowKey) {
	delete(m.clocks, flow)
	delete(m.clocks, flow.Reverse())
}

// Flows returns the number of flow directions with a synthesized clock.
func (m *Rewriter) Flows() int {
	return len(m.clocks)
}

// spoof replaces every well-formed timestamp with its synthesized
// counterpart. Malformed Timestamp options are dropped.
//
// TSecr is translated through the clock of the reverse direction when it
// is known, so that the peer sees its own spoofed values echoed.
func (m *Rewriter) spoof(flow FlowKey, opts []tcpopt.Option) []tcpopt.Option {
	out := make([]tcpopt.Option, 0, len(opts))
	for _, opt := range opts {
		if opt.Kind != tcpopt.KindTimestamp {
			out = append(out, opt)
			continue
		}

		ts, ok := tcpopt.ExtractTimestamp(opt)
		if !ok {
			continue
		}

		clock, ok := m.clocks[flow]
		if !ok {
			clock = newFlowClock(ts.Val, m.cfg.Spoof.Base+flow.hash())
			m.clocks[flow] = clock
		}

		spoofed := tcpopt.Timestamp{
			Val: clock.spoof(ts.Val),
			Ecr: ts.Ecr,
		}
		if peer, ok := m.clocks[flow.Reverse()]; ok && ts.Ecr != 0 {
			spoofed.Ecr = peer.spoof(ts.Ecr)
		}

		m.log.Debugw("spoofed TCP timestamp",
			zap.Stringer("original", ts),
			zap.Stringer("spoofed", spoofed),
		)

		out = append(out, tcpopt.Option{
			Kind:   opt.Kind,
			Length: opt.Length,
			Data:   spoofed.Bytes(),
		})
	}

	return out
}
