package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bsduhaime/waddle/internal/config"
	"github.com/bsduhaime/waddle/internal/logging"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:          "waddle",
	Short:        "Inspect, extract and rewrite WAD2/WAD3 texture archives",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	// i/o
	rootCmd.PersistentFlags().StringP("input", "i", "", "path to .wad file (required)")

	// selection
	rootCmd.PersistentFlags().StringSlice("match", nil, "only select textures whose name matches this glob (repeatable)")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "skip textures whose name matches this glob (repeatable)")

	// other opts
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stdout and file)")

	viper.BindPFlag("input", rootCmd.PersistentFlags().Lookup("input"))
	viper.BindPFlag("match", rootCmd.PersistentFlags().Lookup("match"))
	viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))

	rootCmd.AddCommand(infoCmd, listCmd, extractCmd, rewriteCmd, restoreCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "waddle"))
		}
		viper.AddConfigPath("/etc/waddle")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("WADDLE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig unmarshals the merged flags, environment and config file and
// sets up logging. The returned function closes the log file.
func loadConfig() (*config.Config, func() error, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("could not set up logging: %w", err)
	}

	if cfg.InputFile == "" {
		_ = closeLog()
		return nil, nil, errors.New(`required flag "input" not set`)
	}

	return cfg, closeLog, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
