package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/tsguard/common/go/logging"
	"github.com/yanet-platform/tsguard/common/go/tcpopt"
	"github.com/yanet-platform/tsguard/common/go/xcmd"
	"github.com/yanet-platform/tsguard/tsguard"
	"github.com/yanet-platform/tsguard/tsguard/internal/report"
	"github.com/yanet-platform/tsguard/tsguard/internal/rewrite"
)

// InspectCmd is the command line arguments of the inspect subcommand.
type InspectCmd struct {
	Mode      rewrite.Mode
	MinRisk   string
	OutputDir string
	Match     string
	Workers   int
}

var inspectArgs InspectCmd

var inspectCmd = &cobra.Command{
	Use:   "inspect PATH...",
	Short: "Inspect the TCP timestamps of capture files",
	Long: `Inspect the TCP timestamps of pcap and pcapng capture files.

Directories are scanned for files matching the configured glob. Unless the
mode is observe, rewritten copies of the captures are written to the output
directory.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(rawCmd *cobra.Command, args []string) {
		execute(func() error {
			return runInspect(cmd, inspectArgs, rawCmd, args, rawCmd.OutOrStdout())
		})
	},
}

func init() {
	flags := inspectCmd.Flags()
	flags.Var(&inspectArgs.Mode, "mode", "Rewrite mode: observe, strip or spoof")
	flags.StringVar(&inspectArgs.MinRisk, "min-risk", "", "Lowest risk that is rewritten: low, medium, high or critical")
	flags.StringVarP(&inspectArgs.OutputDir, "output-dir", "o", "", "Directory for rewritten captures")
	flags.StringVar(&inspectArgs.Match, "match", "", "Glob matching capture files in directories")
	flags.IntVarP(&inspectArgs.Workers, "workers", "j", 0, "Number of captures inspected concurrently")
}

// apply overrides the configuration with the flags set on the command line.
func (m InspectCmd) apply(rawCmd *cobra.Command, cfg *tsguard.InspectConfig) error {
	flags := rawCmd.Flags()

	if flags.Changed("mode") {
		cfg.Mode = m.Mode
	}
	if flags.Changed("min-risk") {
		risk, err := tcpopt.ParseRisk(m.MinRisk)
		if err != nil {
			return err
		}
		cfg.MinRisk = risk
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = m.OutputDir
	}
	if flags.Changed("match") {
		cfg.Match = m.Match
	}
	if flags.Changed("workers") {
		cfg.Workers = m.Workers
	}

	return nil
}

func runInspect(cmd Cmd, args InspectCmd, rawCmd *cobra.Command, paths []string, w io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := args.apply(rawCmd, &cfg.Inspect); err != nil {
		return err
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	inspector, err := tsguard.NewInspector(cfg, tsguard.WithLog(log))
	if err != nil {
		return fmt.Errorf("failed to create inspector: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rep *report.Report

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		defer cancel()

		var err error
		rep, err = inspector.Run(ctx, paths)
		return err
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}

		log.Infof("caught signal: %v", err)
		return err
	})

	if err := wg.Wait(); err != nil {
		return err
	}

	return rep.Render(w)
}
