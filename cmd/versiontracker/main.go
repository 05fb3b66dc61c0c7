package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docdyhr/versiontracker-sub001/internal/common/command"
	"github.com/docdyhr/versiontracker-sub001/internal/common/config"
	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
	"github.com/docdyhr/versiontracker-sub001/internal/common/output"
)

// defaultLogFile selects the log file under the XDG state directory
const defaultLogFile = "default"

var (
	verbose    bool
	quiet      bool
	noColor    bool
	logFile    string
	configPath string
)

// newRunner creates the process runner used by the brew catalog and the
// system_profiler inventory
var newRunner = func() command.Runner {
	return command.NewExecRunner()
}

var rootCmd = &cobra.Command{
	Use:   "versiontracker",
	Short: "Track versions of installed macOS applications",
	Long: `versiontracker compares the applications installed on this Mac with the
Homebrew catalog and reports which ones are outdated, up-to-date, updated by
themselves, or could not be matched.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
		if logFile != "" {
			if err := enableFileLogging(logFile); err != nil {
				logger.Warn("file logging disabled: %v", err)
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Default().Close()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to a file (without a value: the XDG state directory)")
	rootCmd.PersistentFlags().Lookup("log-file").NoOptDefVal = defaultLogFile
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.config/versiontracker/config.yaml)")
}

func enableFileLogging(path string) error {
	if path == defaultLogFile {
		return logger.Default().EnableFileLogging()
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	return logger.Default().EnableFileLoggingAt(expanded)
}

// loadConfig reads the file named by --config, or the first config found
// in the standard locations
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Load()
	}
	path, err := config.ExpandPath(configPath)
	if err != nil {
		return nil, err
	}
	return config.LoadFrom(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
