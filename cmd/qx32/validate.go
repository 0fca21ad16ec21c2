package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <question>",
	Short: "Check whether a text is accepted as a yes/no question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		tag, ok := validator.Classify(text)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrInvalidQuestion, text)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid yes/no question (%s) ✅\n", tag)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
