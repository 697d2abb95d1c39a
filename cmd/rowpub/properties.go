package rowpub

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/edgeflare/rowpub/pkg/pipeline/step/kafka"
	"github.com/spf13/cobra"
)

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "List the recognized producer properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeProperties(cmd.OutOrStdout())
	},
}

func writeProperties(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDEFAULT\tDESCRIPTION")
	for _, p := range kafka.Catalog() {
		def := "-"
		if p.HasDefault {
			def = p.Default
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, def, p.Description)
	}
	return tw.Flush()
}
