package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jiekaitao/litmap/internal/config"
	"github.com/spf13/cobra"
)

// errConfigExists is returned when config init would overwrite a file.
var errConfigExists = errors.New("config file already exists")

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage litmap.yml",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long: `Write the default configuration as YAML.

Usage:
  litmap config init                 # writes ./litmap.yml
  litmap config init conf/map.yml    # writes a specific file
  litmap config init --force         # overwrite an existing file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

// ConfigInitResult is the JSON response for config init.
type ConfigInitResult struct {
	Path string `json:"path"`
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigFile
	if len(args) == 1 {
		path = args[0]
	}
	path = config.ExpandPath(path)

	if err := writeDefaultConfig(path, configInitForce); err != nil {
		if errors.Is(err, errConfigExists) {
			exitWithError(ExitConfigError, "%v (use --force to overwrite)", err)
		}
		return err
	}

	if humanOutput {
		outputHuman("Wrote default configuration to %s\n", path)
		return nil
	}
	return outputJSON(ConfigInitResult{Path: path})
}

// writeDefaultConfig saves config.Default() to path, refusing to replace an
// existing file unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", errConfigExists, path)
		}
	}
	return config.Default().Save(path)
}
