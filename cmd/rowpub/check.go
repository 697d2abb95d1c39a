package rowpub

import (
	"context"
	"fmt"
	"io"

	"github.com/edgeflare/rowpub/pkg/config"
	"github.com/edgeflare/rowpub/pkg/pgx"
	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"github.com/edgeflare/rowpub/pkg/pipeline/source"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the pipeline configuration",
	Long:  `Validate every step against the source schema without connecting to any broker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := inputSchema(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		m := pipeline.NewManager(pipeline.WithLogger(logger))
		return printDiagnostics(cmd.OutOrStdout(), m.Check(&cfg.Pipeline, schema))
	},
}

// inputSchema returns the schema of the configured source. A postgres source
// has to run its query to learn it.
func inputSchema(ctx context.Context, c *config.Config) (row.Schema, error) {
	if c.Pipeline.Source.Type != source.TypePostgres {
		return c.Pipeline.Source.Schema, nil
	}

	pools := pgx.NewPools()
	defer pools.Close()

	src, err := source.Open(ctx, c.Pipeline.Source, pools)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()
	return src.Schema(), nil
}

// printDiagnostics writes one line per diagnostic and fails when any of them
// is an error.
func printDiagnostics(w io.Writer, diags []pipeline.Diagnostic) error {
	if len(diags) == 0 {
		fmt.Fprintln(w, "no findings")
		return nil
	}
	for _, d := range diags {
		fmt.Fprintln(w, d)
	}
	if pipeline.HasErrors(diags) {
		return fmt.Errorf("check failed")
	}
	return nil
}
