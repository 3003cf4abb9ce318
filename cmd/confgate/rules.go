package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRulesCmd())
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with rule documents",
		Long:  `Validate, test, and scaffold compliance rule documents.`,
	}

	cmd.AddCommand(newRulesValidateCmd())
	cmd.AddCommand(newRulesTestCmd())
	cmd.AddCommand(newRulesNewCmd())

	return cmd
}
