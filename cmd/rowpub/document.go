package rowpub

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edgeflare/rowpub/pkg/attrstore"
	"github.com/edgeflare/rowpub/pkg/config"
	"github.com/edgeflare/rowpub/pkg/pgx"
	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/step/kafka"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Formats a step configuration can be exported to and imported from
const (
	formatXML   = "xml"
	formatYAML  = "yaml"
	formatStore = "store"
)

var (
	docStep   string
	docFormat string
	docOutput string
	docInput  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Export or import Kafka step configuration",
}

var configExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a step's configuration as a document or to the attribute store",
	Long: `Write the configuration of a kafka step from the config file as an XML or
YAML document, or save it to the configured attribute store with --format store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if docOutput != "" && docFormat != formatStore {
			f, err := os.Create(docOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return exportConfig(cmd.Context(), w, cfg, docStep, docFormat)
	},
}

var configImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Read a step's configuration from a document or the attribute store",
	Long: `Read the configuration of a kafka step from an XML or YAML document, or
from the configured attribute store with --format store, and print it as a
step entry for the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		if docFormat != formatStore {
			var err error
			if docInput == "" || docInput == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(docInput)
			}
			if err != nil {
				return err
			}
		}
		return importConfig(cmd.Context(), cmd.OutOrStdout(), cfg, docStep, docFormat, data)
	},
}

// producerConfig decodes the configuration of the kafka step named step.
func producerConfig(c *config.Config, step string) (*kafka.ProducerConfig, error) {
	sc := c.Pipeline.GetStep(step)
	if sc == nil {
		return nil, fmt.Errorf("step %s not found in pipeline %s", step, c.Pipeline.Name)
	}
	if sc.Type != pipeline.StepKafka {
		return nil, fmt.Errorf("step %s has type %s, not %s", step, sc.Type, pipeline.StepKafka)
	}
	return kafka.DecodeProducerConfig(sc.Config)
}

// openStore opens the configured attribute store and returns a release func.
func openStore(ctx context.Context, c *config.Config) (attrstore.Store, func(), error) {
	pools := pgx.NewPools()
	store, release, err := attrstore.Open(ctx, c.Store, pools)
	if err != nil {
		pools.Close()
		return nil, nil, err
	}
	return store, func() {
		release()
		pools.Close()
	}, nil
}

func exportConfig(ctx context.Context, w io.Writer, c *config.Config, step, format string) error {
	pc, err := producerConfig(c, step)
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(format) {
	case formatXML:
		data, err = kafka.MarshalXML(step, pc)
	case formatYAML:
		data, err = kafka.MarshalYAML(step, pc)
	case formatStore:
		store, release, err := openStore(ctx, c)
		if err != nil {
			return err
		}
		defer release()
		scope := attrstore.Scope{PipelineID: c.Pipeline.Name, StepID: step}
		if err := kafka.SaveAttributes(ctx, store, scope, pc); err != nil {
			return err
		}
		fmt.Fprintf(w, "saved %s to %s store\n", scope, c.Store.Type)
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func importConfig(ctx context.Context, w io.Writer, c *config.Config, step, format string, data []byte) error {
	var (
		pc  *kafka.ProducerConfig
		err error
	)
	switch strings.ToLower(format) {
	case formatXML:
		pc, err = kafka.UnmarshalXML(step, data)
	case formatYAML:
		pc, err = kafka.UnmarshalYAML(step, data)
	case formatStore:
		store, release, oerr := openStore(ctx, c)
		if oerr != nil {
			return oerr
		}
		defer release()
		pc, err = kafka.LoadAttributes(ctx, store, attrstore.Scope{PipelineID: c.Pipeline.Name, StepID: step})
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return err
	}

	entry := map[string]any{
		"name":   step,
		"type":   pipeline.StepKafka,
		"config": kafka.EncodeProducerConfig(pc),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode([]any{entry}); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	for _, c := range []*cobra.Command{configExportCmd, configImportCmd} {
		c.Flags().StringVarP(&docStep, "step", "s", "", "name of the kafka step")
		c.Flags().StringVarP(&docFormat, "format", "f", formatXML, "document format (xml, yaml, store)")
		c.MarkFlagRequired("step")
	}
	configExportCmd.Flags().StringVarP(&docOutput, "output", "o", "", "write the document to this file instead of stdout")
	configImportCmd.Flags().StringVarP(&docInput, "input", "i", "-", "read the document from this file, - for stdin")

	configCmd.AddCommand(configExportCmd)
	configCmd.AddCommand(configImportCmd)
}
