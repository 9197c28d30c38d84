// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the claimgraph CLI. It maps saved
// model responses into claim graphs and walks users through their forcing
// points one decision at a time.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the claimgraph CLI.
var rootCmd = &cobra.Command{
	Use:   "claimgraph",
	Short: "Map competing model answers into a claim graph and traverse it",
	Long: `claimgraph turns a multi-model synthesis response into a canonical claim
graph: claims, the conflicts between them, and the yes/no conditions that
prune them. Each conflict and condition is a forcing point; a session walks
through them, recording every decision, until only the favored claims remain.

Use map to write graph files, points to list a graph's forcing points, and
session to run a persistent traversal.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./claimgraph.yaml or ~/.config/claimgraph/claimgraph.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("claimgraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "claimgraph"))
		}
	}

	setDefaults()

	viper.SetEnvPrefix("CLAIMGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
