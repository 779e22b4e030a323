// Package cmd implements the cognilink command line.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TFMV/cognilink/config"
)

// cfgFile stores an optional explicit path to a config file
// (if not provided we try ./cognilink.config.{json,yaml,toml}).
var cfgFile string

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "cognilink",
	Short:         "Interactive knowledge graphs for study planning",
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRunE merges defaults, config file, env and flags before
	// any subcommand runs.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			v.AddConfigPath(".")
			v.SetConfigName(config.ConfigName)
		}
		config.BindEnv(v)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}

		c, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = c
		logger = newLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		slog.SetDefault(logger)
		if used := v.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		return nil
	},
}

// Execute is called from main.go and starts the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, Bad.Sprint("error:"), err)
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./cognilink.config.{json,yaml,toml})")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}
