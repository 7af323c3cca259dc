package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dhcgn/maillog/config"
	"github.com/dhcgn/maillog/export"
	"github.com/dhcgn/maillog/filter"
	"github.com/dhcgn/maillog/logreader"
	"github.com/dhcgn/maillog/model"
	"github.com/dhcgn/maillog/parser"
	"github.com/dhcgn/maillog/stats"
)

// Field is a record attribute the top report counts.
type Field struct {
	Name  string
	Value func(model.Record) string
}

// Fields lists the attributes reported by the top command, in display order.
var Fields = []Field{
	{"kind", func(r model.Record) string { return r.Kind }},
	{"sender", func(r model.Record) string { return r.From }},
	{"recipient", func(r model.Record) string { return r.To }},
	{"relay", func(r model.Record) string { return r.Relay }},
	{"status", func(r model.Record) string { return statusWord(r.Status) }},
	{"client", func(r model.Record) string { return r.Client }},
	{"helo", func(r model.Record) string { return r.Helo }},
	{"reject_reason", func(r model.Record) string { return r.Reason }},
	{"sasl_username", func(r model.Record) string { return r.SaslUsername }},
}

// statusWord keeps the delivery status and drops the remote reply.
func statusWord(status string) string {
	if i := strings.IndexByte(status, ' '); i >= 0 {
		return status[:i]
	}
	return status
}

type topOptions struct {
	reportDir string
	topN      int
	records   bool
	plain     bool
	keepGoing bool
}

// Report accumulates per-field counters.
type Report struct {
	Counters map[string]map[string]int
	Lines    int
	Ignored  int
	Errors   int
}

func NewReport() *Report {
	counters := make(map[string]map[string]int, len(Fields))
	for _, f := range Fields {
		counters[f.Name] = make(map[string]int)
	}
	return &Report{Counters: counters}
}

func (r *Report) Add(rec model.Record) {
	r.Lines++
	for _, f := range Fields {
		if v := f.Value(rec); v != "" {
			r.Counters[f.Name][v]++
		}
	}
}

// CollectLogs decodes the maillog files in paths into r. Undecodable lines
// stop the scan unless keepGoing is set.
func (r *Report) CollectLogs(paths []string, noise parser.Noise, keepGoing bool) error {
	p := parser.New(noise)
	return logreader.Read(paths, func(line model.Line) error {
		msg, err := p.Parse(line.Text)
		switch {
		case err != nil:
			r.Errors++
			if keepGoing {
				return nil
			}
			return fmt.Errorf("%s:%d: %w", line.Source, line.Number, err)
		case msg == nil:
			r.Ignored++
			return nil
		}
		r.Add(model.NewRecord(line, msg))
		return nil
	})
}

// CollectRecords reads export files written with --export into r.
func (r *Report) CollectRecords(paths []string) error {
	for _, path := range paths {
		if path == logreader.StdinPath {
			return errors.New("--records needs export files, not standard input")
		}
		if err := export.Load(path, func(rec model.Record) error {
			r.Add(rec)
			return nil
		}); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// NewTopCommand returns the top subcommand.
func NewTopCommand() *cobra.Command {
	var opts topOptions

	cmd := &cobra.Command{
		Use:   "top [maillog files]",
		Short: "Show the most frequent senders, recipients, relays and clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd, args)
			if err != nil {
				return err
			}
			return runTop(cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.reportDir, "output", "o", "", "Output directory for CSV reports (none written when empty)")
	cmd.Flags().IntVarP(&opts.topN, "top", "t", 10, "Number of top items to display in statistics")
	cmd.Flags().BoolVar(&opts.records, "records", false, "Inputs are JSON-lines exports instead of maillogs")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print numbered lists instead of tables")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep-going", false, "Skip undecodable lines instead of stopping at the first one")
	return cmd
}

// AddCommands registers the subcommands on root.
func AddCommands(root *cobra.Command) {
	root.AddCommand(NewTopCommand())
}

func runTop(w io.Writer, cfg config.Config, opts topOptions) error {
	if opts.topN < 1 {
		return fmt.Errorf("--top must be at least 1")
	}

	report := NewReport()
	if opts.records {
		if err := report.CollectRecords(cfg.Inputs); err != nil {
			return err
		}
	} else {
		noise, err := filter.New(cfg.FilterOptions())
		if err != nil {
			return err
		}
		if err := report.CollectLogs(cfg.Inputs, noise, opts.keepGoing); err != nil {
			return fmt.Errorf("error reading maillog: %w", err)
		}
	}

	fmt.Fprintf(w, "Decoded %s lines (ignored %s, errors %s)\n\n",
		humanize.Comma(int64(report.Lines)), humanize.Comma(int64(report.Ignored)), humanize.Comma(int64(report.Errors)))

	for _, f := range Fields {
		counts := report.Counters[f.Name]
		if len(counts) == 0 {
			continue
		}
		fmt.Fprintf(w, "Top %d %s:\n", opts.topN, f.Name)
		if opts.plain {
			stats.PrettyPrintTop(w, counts, opts.topN)
		} else {
			renderTable(w, f.Name, counts, opts.topN)
		}
		fmt.Fprintln(w)
	}

	if opts.reportDir == "" {
		return nil
	}
	if err := saveCSVReports(report.Counters, opts.reportDir, 1000); err != nil {
		return fmt.Errorf("error saving CSV reports: %w", err)
	}
	fmt.Fprintf(w, "Reports saved to directory: %s\n", opts.reportDir)
	return nil
}

func renderTable(w io.Writer, name string, counts map[string]int, limit int) {
	total := 0
	for _, n := range counts {
		total += n
	}

	pairs := stats.Top(counts, limit)
	out := make([][]string, 0, len(pairs))
	for i, p := range pairs {
		out = append(out, []string{strconv.Itoa(i + 1), p.Key, humanize.Comma(int64(p.Value))})
	}

	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"#", name, "count"})
	t.SetFooter([]string{"", fmt.Sprintf("%d distinct", len(counts)), humanize.Comma(int64(total))})
	t.AppendBulk(out)
	t.Render()
}

func saveCSVReports(counter map[string]map[string]int, dir string, limit int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, f := range Fields {
		filePath := filepath.Join(dir, fmt.Sprintf("report_%s.csv", f.Name))
		if err := writeCSV(filePath, counter[f.Name], limit); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, counts map[string]int, limit int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Value", "Count"}); err != nil {
		return err
	}
	for _, p := range stats.Top(counts, limit) {
		if err := writer.Write([]string{p.Key, strconv.Itoa(p.Value)}); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}
