package rowpub

import (
	"fmt"
	"os"

	"github.com/edgeflare/rowpub/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Register built-in steps
	_ "github.com/edgeflare/rowpub/pkg/pipeline/step/debug"
	_ "github.com/edgeflare/rowpub/pkg/pipeline/step/kafka"
)

var cfgFile string
var logLevel string
var cfg *config.Config
var logger = zap.NewNop()
var rootCmd = &cobra.Command{
	Use:   "rowpub",
	Short: "rowpub publishes table rows to Kafka",
	Long:  `rowpub reads rows from a JSON-lines file or a PostgreSQL query and publishes one Kafka message per row`,
	Run: func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Fprintln(cmd.OutOrStdout(), config.Version)
			return
		}

		// If no subcommand is provided, print help
		cmd.Help()
	},
	SilenceUsage: true,
}

func Main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/rowpub.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "L", "info", "log at this level (debug, info, warn, error, fatal, none)")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Print the version number")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(propertiesCmd)
}

func initConfig() {
	var err error
	logger, err = newLogger(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}

	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	if cfg.File != "" {
		logger.Debug("using config file", zap.String("file", cfg.File))
	}
}

// newLogger returns a production logger at level. "none" disables logging.
func newLogger(level string) (*zap.Logger, error) {
	if level == "none" {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
