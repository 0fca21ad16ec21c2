package main

import (
	"context"

	"github.com/aretw0/qx32/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes cluster sessions as a JSON API with live events over SSE,
Prometheus metrics on /metrics and the OpenAPI document on /openapi.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()
		return cli.RunServe(sc, cfg, debugFlag(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Duration("duration", 0, "Processing time budget (e.g. 7s)")
	serveCmd.Flags().Float64("failure-rate", 0, "Probability that a run ends in a cluster fault")
	serveCmd.Flags().String("scripts", "", "YAML file overriding status scripts and faults")
}
