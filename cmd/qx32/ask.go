package main

import (
	"context"
	"os"
	"strings"

	"github.com/aretw0/qx32/internal/cli"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the cluster a question",
	Long: `Without arguments, opens the interactive terminal: type a question and press
ENTER, press ENTER again to rerun the protocol, Ctrl+C aborts a run.
With arguments, asks a single question and exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		plain, _ := cmd.Flags().GetBool("plain")
		tty := cli.IsTerminal(os.Stdout)

		return cli.RunAsk(context.Background(), cli.AskOptions{
			Config:   cfg,
			Question: strings.Join(args, " "),
			Plain:    plain || !tty,
			Debug:    debugFlag(cmd),
			Bell:     tty,
		})
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().Duration("duration", 0, "Processing time budget (e.g. 7s)")
	askCmd.Flags().Bool("mute", false, "Disable sound effects")
	askCmd.Flags().Bool("no-glitch", false, "Disable the glitch effect")
	askCmd.Flags().Float64("failure-rate", 0, "Probability that a run ends in a cluster fault")
	askCmd.Flags().String("scripts", "", "YAML file overriding status scripts and faults")
	askCmd.Flags().Bool("plain", false, "No colours or in-place redraws")

	// Running qx32 with no command opens the terminal.
	rootCmd.RunE = askCmd.RunE
	rootCmd.Flags().AddFlagSet(askCmd.Flags())
}
