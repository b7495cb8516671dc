package report

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yanet-platform/tsguard/common/go/tcpopt"
)

// riskLevels is the number of tcpopt.Risk values.
const riskLevels = int(tcpopt.RiskCritical) + 1

// FileStats are the inspection statistics of a single capture file.
type FileStats struct {
	// Path is the inspected capture.
	Path string
	// Output is the rewritten capture, empty if none was written.
	Output string
	// Packets is the number of packets read.
	Packets int
	// TCP is the number of packets with a TCP header.
	TCP int
	// Malformed is the number of TCP segments whose options stopped
	// decoding early.
	Malformed int
	// Truncated is the number of TCP segments captured partially, which
	// are never rewritten.
	Truncated int
	// WithTimestamp is the number of TCP segments carrying a Timestamp
	// option.
	WithTimestamp int
	// Risk counts segments with a timestamp by assessed risk.
	Risk [riskLevels]int
	// Stripped is the number of segments whose timestamps were removed.
	Stripped int
	// Spoofed is the number of segments whose timestamps were replaced.
	Spoofed int
	// Failed is the number of segments that could not be rewritten and
	// were copied unchanged.
	Failed int
}

// AddRisk accounts a segment with a timestamp of the given risk.
func (m *FileStats) AddRisk(risk tcpopt.Risk) {
	m.WithTimestamp++
	if int(risk) < riskLevels {
		m.Risk[risk]++
	}
}

// Merge adds the counters of other to m.
func (m *FileStats) Merge(other *FileStats) {
	m.Packets += other.Packets
	m.TCP += other.TCP
	m.Malformed += other.Malformed
	m.Truncated += other.Truncated
	m.WithTimestamp += other.WithTimestamp
	for idx := range m.Risk {
		m.Risk[idx] += other.Risk[idx]
	}
	m.Stripped += other.Stripped
	m.Spoofed += other.Spoofed
	m.Failed += other.Failed
}

// Report is the result of an inspection run.
type Report struct {
	// Mode is the rewrite mode of the run.
	Mode string
	// Files are the per-file statistics, in input order.
	Files []*FileStats
}

// Total returns the sum of all file statistics.
func (m *Report) Total() FileStats {
	total := FileStats{Path: "total"}
	for _, file := range m.Files {
		total.Merge(file)
	}

	return total
}

// Render writes the report as a text table.
func (m *Report) Render(w io.Writer) error {
	title := cases.Title(language.English)

	if _, err := fmt.Fprintf(w, "Mode: %s\n\n", title.String(m.Mode)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "FILE\tPACKETS\tTCP\tTIMESTAMP")
	for idx := range riskLevels {
		fmt.Fprintf(tw, "\t%s", cases.Upper(language.English).String(tcpopt.Risk(idx).String()))
	}
	fmt.Fprint(tw, "\tMALFORMED\tTRUNCATED\tSTRIPPED\tSPOOFED\tFAILED\tOUTPUT\n")

	total := m.Total()
	for _, file := range append(slices.Clone(m.Files), &total) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d", file.Path, file.Packets, file.TCP, file.WithTimestamp)
		for _, count := range file.Risk {
			fmt.Fprintf(tw, "\t%d", count)
		}

		output := file.Output
		if output == "" {
			output = "-"
		}
		fmt.Fprintf(tw, "\t%d\t%d\t%d\t%d\t%d\t%s\n",
			file.Malformed, file.Truncated, file.Stripped, file.Spoofed, file.Failed, output)
	}

	return tw.Flush()
}
