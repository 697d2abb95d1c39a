package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edgeflare/rowpub/pkg/attrstore"
	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Version is set at build time
var Version = "dev"

// keyDelimiter separates nested config keys. Producer property names
// contain dots, so viper's default delimiter cannot be used.
const keyDelimiter = "::"

// Config holds application-wide configuration
type Config struct {
	Pipeline pipeline.Config  `mapstructure:"pipeline"`
	Store    attrstore.Config `mapstructure:"store"`
	Metrics  MetricsConfig    `mapstructure:"metrics"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads config from file or environment. Without cfgFile, rowpub.yaml
// is looked up in $HOME/.config and the working directory; a missing file
// is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("rowpub")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ROWPUB")
	v.AutomaticEnv()

	v.SetDefault("pipeline::name", "rowpub")
	v.SetDefault("pipeline::source::type", "jsonl")
	v.SetDefault("store::type", attrstore.BackendMemory)
	v.SetDefault("metrics::addr", ":9100")

	var file string
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		file = v.ConfigFileUsed()
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = file

	return &cfg, nil
}
