package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spektr-org/salaryscope/engine"
)

// Output formats.
const (
	formatJSON   = "json"
	formatPretty = "pretty"
	formatText   = "text"
	formatCSV    = "csv"
)

type viewOptions struct {
	root      *rootOptions
	selection *selectionFlags
	role      string
	dimension string
	top       int
	bins      int
	format    string
	out       string
}

func newViewCmd(root *rootOptions) *cobra.Command {
	o := &viewOptions{root: root}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Evaluate a selection and print KPIs and aggregates",
		Long: `Evaluate a selection and print KPIs and aggregates.

Formats:
  json      Full JSON output (default when stdout is not a terminal)
  pretty    Pretty-printed JSON
  text      Human-readable summary (default on a terminal)
  csv       Filtered records as CSV (ready for Sheets/Excel)`,
		Args: cobra.NoArgs,
		RunE: o.run,
	}

	fs := cmd.Flags()
	o.selection = bindSelectionFlags(fs)
	fs.StringVar(&o.role, "role", "", "Role for the per-country mean salary (default from config)")
	fs.StringVar(&o.dimension, "dimension", "", "Dimension for the category distribution (default from config)")
	fs.IntVar(&o.top, "top", 0, "Number of top roles (default from config)")
	fs.IntVar(&o.bins, "bins", 0, "Histogram bin count (default from config)")
	fs.StringVar(&o.format, "format", "", "Output format: json, pretty, text, csv")
	fs.StringVar(&o.out, "out", "", "Write output to file instead of stdout")
	return cmd
}

func (o *viewOptions) run(cmd *cobra.Command, _ []string) error {
	format, err := resolveFormat(o.format, o.out, o.root.stdout)
	if err != nil {
		return err
	}

	var extra []engine.Option
	if cmd.Flags().Changed("dimension") {
		d, err := engine.ParseDimension(o.dimension)
		if err != nil {
			return err
		}
		extra = append(extra, engine.WithDistributionDimension(d))
	}
	if cmd.Flags().Changed("role") {
		extra = append(extra, engine.WithFocusRole(o.role))
	}
	if cmd.Flags().Changed("top") {
		extra = append(extra, engine.WithTopN(o.top))
	}
	if cmd.Flags().Changed("bins") {
		extra = append(extra, engine.WithBins(o.bins))
	}

	a, err := o.root.setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sel, err := o.selection.resolve(a.analyzer.Domains())
	if err != nil {
		return err
	}
	vm, err := a.analyzer.Evaluate(cmd.Context(), sel, extra...)
	if err != nil {
		return err
	}

	return withOutput(o.out, o.root.stdout, func(w io.Writer) error {
		switch format {
		case formatCSV:
			return writeRecordsCSV(w, vm.Records)
		case formatText:
			return writeText(w, vm)
		default:
			return writeJSON(w, viewOutput{
				Summary:  engine.BuildSummary(vm),
				KPICards: engine.BuildKPICards(vm.KPIs),
				Charts:   engine.BuildCharts(vm),
				View:     vm,
			}, format)
		}
	})
}

// ============================================================================
// OUTPUT TYPES
// ============================================================================

type viewOutput struct {
	Summary  string               `json:"summary"`
	KPICards []engine.KPICard     `json:"kpiCards"`
	Charts   []engine.ChartConfig `json:"charts"`
	View     *engine.ViewModel    `json:"view"`
}

// resolveFormat validates an explicit format or picks text for an
// interactive terminal and json otherwise.
func resolveFormat(format, out string, stdout io.Writer) (string, error) {
	switch format {
	case formatJSON, formatPretty, formatText, formatCSV:
		return format, nil
	case "":
		if f, ok := stdout.(*os.File); ok && out == "" && term.IsTerminal(int(f.Fd())) {
			return formatText, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, pretty, text or csv)", format)
	}
}

// withOutput runs write against --out or stdout.
func withOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ============================================================================
// CSV OUTPUT
// ============================================================================

func writeRecordsCSV(w io.Writer, records []engine.SalaryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(engine.RecordHeader()); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(engine.RecordRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func writeText(w io.Writer, vm *engine.ViewModel) error {
	var b strings.Builder
	fmt.Fprintln(&b, engine.BuildSummary(vm))
	if vm.IsEmpty() {
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintln(&b)
	for _, card := range engine.BuildKPICards(vm.KPIs) {
		fmt.Fprintf(&b, "  %-20s %s\n", card.Label, card.Value)
	}

	fmt.Fprintf(&b, "\nTop %d roles by mean salary\n", vm.TopN)
	for _, r := range vm.TopRoles {
		fmt.Fprintf(&b, "  %-40s %12s  (%d)\n", r.Role, engine.FormatUSD(r.MeanSalary), r.Count)
	}

	fmt.Fprintf(&b, "\n%s distribution\n", engine.LabelForDimension(vm.DistributionDimension))
	for _, c := range vm.Distribution {
		label := c.Value
		if label == "" {
			label = "(blank)"
		}
		fmt.Fprintf(&b, "  %-20s %8s  %5.1f%%\n", label, engine.FormatInt(c.Count), 100*float64(c.Count)/float64(len(vm.Records)))
	}

	fmt.Fprintf(&b, "\nMean salary of %s by country\n", vm.FocusRole)
	means := engine.SortedCountryMeans(vm.CountryMeans)
	if len(means) == 0 {
		fmt.Fprintln(&b, "  no records")
	}
	for _, m := range means {
		fmt.Fprintf(&b, "  %-6s %12s\n", m.Country, engine.FormatUSD(m.MeanSalary))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == formatPretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
