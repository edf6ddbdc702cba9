package main

import (
	"fmt"

	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/spf13/cobra"
)

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models that can be selected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, m := range settings.SupportedModels {
				marker := " "
				if m == settings.DefaultModel {
					marker = "*"
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %-15s %s\n", marker, m, m.Description())
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}
