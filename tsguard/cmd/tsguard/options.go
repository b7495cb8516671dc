package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/tsguard/common/go/logging"
	"github.com/yanet-platform/tsguard/common/go/tcpopt"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [HEX...]",
	Short: "Decode a TCP options field and assess its timestamp risk",
	Long: `Decode a TCP options field and assess its timestamp risk.

The field is given as hex, possibly split into several arguments. No
argument, or an empty one, stands for an empty options field.`,
	Args: cobra.ArbitraryArgs,
	Run: func(rawCmd *cobra.Command, args []string) {
		execute(func() error {
			return runAnalyze(cmd, args, rawCmd.OutOrStdout())
		})
	},
}

var stripCmd = &cobra.Command{
	Use:   "strip [HEX...]",
	Short: "Remove Timestamp options from a TCP options field",
	Args:  cobra.ArbitraryArgs,
	Run: func(rawCmd *cobra.Command, args []string) {
		execute(func() error {
			return runStrip(cmd, args, rawCmd.OutOrStdout())
		})
	},
}

var synthesize struct {
	base      uint32
	increment uint32
}

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Print a synthesized timestamp pair",
	Args:  cobra.NoArgs,
	Run: func(rawCmd *cobra.Command, _ []string) {
		ts := tcpopt.SynthesizeTimestamp(synthesize.base, synthesize.increment)
		fmt.Fprintln(rawCmd.OutOrStdout(), ts)
	},
}

func init() {
	synthesizeCmd.Flags().Uint32Var(&synthesize.base, "base", 0, "Base of the synthesized clock")
	synthesizeCmd.Flags().Uint32Var(&synthesize.increment, "increment", 0, "Ticks elapsed since the base")
}

func newCodec(cmd Cmd) (*tcpopt.Codec, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return tcpopt.NewCodec(tcpopt.WithLog(log)), func() { _ = log.Sync() }, nil
}

func runAnalyze(cmd Cmd, args []string, w io.Writer) error {
	data, err := parseHex(args)
	if err != nil {
		return err
	}

	codec, sync, err := newCodec(cmd)
	if err != nil {
		return err
	}
	defer sync()

	printAnalysis(w, codec.Analyze(data))
	return nil
}

func runStrip(cmd Cmd, args []string, w io.Writer) error {
	data, err := parseHex(args)
	if err != nil {
		return err
	}

	codec, sync, err := newCodec(cmd)
	if err != nil {
		return err
	}
	defer sync()

	fmt.Fprintln(w, hex.EncodeToString(codec.StripTimestamp(data)))
	return nil
}

func printAnalysis(w io.Writer, analysis tcpopt.Analysis) {
	if len(analysis.Options) == 0 {
		fmt.Fprintln(w, "Options: none")
	} else {
		fmt.Fprintln(w, "Options:")
		for _, opt := range analysis.Options {
			fmt.Fprintf(w, "  %s\n", opt)
		}
	}

	switch {
	case !analysis.HasTimestamp:
		fmt.Fprintln(w, "Timestamp: none")
	case analysis.Timestamp == nil:
		fmt.Fprintln(w, "Timestamp: malformed")
	default:
		fmt.Fprintf(w, "Timestamp: %s\n", analysis.Timestamp)
	}

	fmt.Fprintf(w, "Risk: %s\n", analysis.Risk)
}

// parseHex decodes an options field given as one or more hex words.
//
// Whitespace between bytes and "0x" prefixes are ignored.
func parseHex(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, word := range strings.Fields(strings.Join(args, " ")) {
		word = strings.TrimPrefix(word, "0x")
		word = strings.TrimPrefix(word, "0X")
		sb.WriteString(word)
	}

	data, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("failed to decode options field: %w", err)
	}

	return data, nil
}
