package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/docdyhr/versiontracker-sub001/internal/common/config"
	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/common/output"
)

// promptInput is read by config init
var promptInput io.Reader = os.Stdin

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the versiontracker configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.FindConfigPath(); err != nil {
				logger.Error("%v", err)
				os.Exit(1)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			logger.Error("loading config: %v", err)
			os.Exit(1)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		enc.Close()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConfigInit(cmd.OutOrStdout(), promptInput); err != nil {
			output.PrintError("%v", err)
			os.Exit(1)
		}
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigInit prompts for the catalog and inventory sources and saves
// the configuration
func runConfigInit(w io.Writer, in io.Reader) error {
	reader := bufio.NewReader(in)

	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "Config already exists at: %s\nOverwrite? [y/N]: ", path)
		if strings.ToLower(prompt(reader)) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	cfg := config.Default()

	fmt.Fprintf(w, "Catalog source (%s, %s) [%s]: ", config.CatalogAPI, config.CatalogBrew, cfg.Catalog.Source)
	if v := prompt(reader); v != "" {
		cfg.Catalog.Source = v
	}

	fmt.Fprintf(w, "Inventory source (%s, %s, %s) [%s]: ",
		config.InventorySystemProfiler, config.InventoryBundles, config.InventoryFile, cfg.Inventory.Source)
	if v := prompt(reader); v != "" {
		cfg.Inventory.Source = v
	}
	if cfg.Inventory.Source == config.InventoryFile {
		fmt.Fprint(w, "Inventory file: ")
		cfg.Inventory.File = prompt(reader)
	}

	fmt.Fprint(w, "Overrides file (empty for none): ")
	cfg.OverridesFile = prompt(reader)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration saved to: %s\n", path)
	fmt.Fprintln(w, "You can now run: versiontracker check")
	return nil
}

// prompt reads one trimmed line
func prompt(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
