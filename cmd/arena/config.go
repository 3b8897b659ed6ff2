package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/config"
)

var flagDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the rules configuration",
	Long: `Print the rules configuration as YAML.

The configuration is searched in this order:
  1. --config <path>
  2. ~/.arena/arena.yaml
  3. ./configs/arena.yaml
  4. built-in defaults

Use --defaults to print the built-in file, a good starting point for
your own arena.yaml.

Examples:
  arena config
  arena config --defaults > ~/.arena/arena.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagDefaults, "defaults", false, "Print the built-in defaults")
}

func runConfig(_ *cobra.Command, _ []string) error {
	if flagDefaults {
		_, err := os.Stdout.Write(config.DefaultYAML())
		return err
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
