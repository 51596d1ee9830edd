package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/salaryscope/schema"
)

func newDomainsCmd(root *rootOptions) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the distinct values of every dimension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := resolveFormat(format, out, root.stdout)
			if err != nil {
				return err
			}
			if f == formatCSV {
				return fmt.Errorf("format %q is not supported for domains", f)
			}

			a, err := root.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			dims := a.analyzer.Domains().Describe()
			return withOutput(out, root.stdout, func(w io.Writer) error {
				if f == formatText {
					return writeDomainsText(w, dims)
				}
				return writeJSON(w, dims, f)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: json, pretty, text")
	cmd.Flags().StringVar(&out, "out", "", "Write output to file instead of stdout")
	return cmd
}

func writeDomainsText(w io.Writer, dims []schema.DimensionMeta) error {
	var b strings.Builder
	for _, d := range dims {
		marker := ""
		if d.Filterable {
			marker = " (filter)"
		}
		fmt.Fprintf(&b, "%s%s: %d values\n", d.DisplayName, marker, len(d.Values))
		if d.CardinalityHint != "high" {
			fmt.Fprintf(&b, "  %s\n", strings.Join(d.Values, ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
