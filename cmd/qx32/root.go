package main

import (
	"fmt"
	"os"

	"github.com/aretw0/qx32/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qx32",
	Short: "QX32 is an orbital quantum cluster that answers yes/no questions",
	Long: `QX32 accepts a yes/no question, plays a timed telemetry sequence and reveals
a deterministic YES or NO with a probability, or a cluster fault.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

// loadConfig layers the --config file, the environment and the command flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("duration") {
		cfg.Duration, _ = flags.GetDuration("duration")
	}
	if flags.Changed("mute") {
		cfg.Mute, _ = flags.GetBool("mute")
	}
	if flags.Changed("no-glitch") {
		noGlitch, _ := flags.GetBool("no-glitch")
		cfg.Glitch = !noGlitch
	}
	if flags.Changed("failure-rate") {
		cfg.FailureRate, _ = flags.GetFloat64("failure-rate")
	}
	if flags.Changed("scripts") {
		cfg.ScriptsFile, _ = flags.GetString("scripts")
	}
	// mcp has its own integer --port for the SSE transport.
	if f := flags.Lookup("port"); f != nil && f.Changed && f.Value.Type() == "string" {
		cfg.Port = f.Value.String()
	}
	return cfg, cfg.Validate()
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
