package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/qx32"
	"github.com/aretw0/qx32/internal/presentation/graph"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/script"
	"github.com/aretw0/qx32/pkg/sequencer"
	"github.com/aretw0/qx32/pkg/session"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [question]",
	Short: "Export the status scripts as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the default and easter-egg scripts.
With a question, runs it instantly and highlights the path it took.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		set := script.DefaultSet()
		if cfg.ScriptsFile != "" {
			if set, err = script.LoadFile(cfg.ScriptsFile); err != nil {
				return err
			}
		}

		var overlay *graph.Overlay
		if len(args) > 0 {
			cluster := qx32.New(
				qx32.WithScripts(set),
				qx32.WithSessionOptions(
					session.WithFailureRate(cfg.FailureRate),
					session.WithRevealDelay(0),
					session.WithSequencer(sequencer.WithDuration(0)),
				),
			)
			defer cluster.Close()

			snap, err := cluster.Ask(context.Background(), args[0])
			if err != nil && !errors.Is(err, domain.ErrInvalidQuestion) {
				return err
			}
			overlay = &graph.Overlay{Snapshot: snap}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(set, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("scripts", "", "YAML file overriding status scripts and faults")
	graphCmd.Flags().Float64("failure-rate", 0, "Probability that the highlighted run ends in a cluster fault")
}
