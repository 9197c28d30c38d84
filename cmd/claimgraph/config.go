// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/claimgraph/pkg/types"
)

// setDefaults registers every config key so env variables and flags can
// override keys that no config file mentions.
func setDefaults() {
	d := types.DefaultConfig()
	viper.SetDefault("mapping.output_dir", d.Mapping.OutputDir)
	viper.SetDefault("mapping.format", string(d.Mapping.Format))
	viper.SetDefault("mapping.workers", d.Mapping.Workers)
	viper.SetDefault("mapping.cache_ttl", d.Mapping.CacheTTL)
	viper.SetDefault("session.dir", d.Session.Dir)
	viper.SetDefault("session.max_results", d.Session.MaxResults)
}

// loadConfig resolves flags, env, config file, and defaults into a
// validated Config.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := viper.Unmarshal(&cfg, hook); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
