package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confgate-dev/confgate/internal/config"
	"github.com/confgate-dev/confgate/internal/engine"
	"github.com/confgate-dev/confgate/internal/output"
)

func newRulesTestCmd() *cobra.Command {
	var rulesPath string
	var ruleID string

	cmd := &cobra.Command{
		Use:   "test <config file>",
		Short: "Run one rule against one configuration",
		Long: `Evaluate a single rule against a single configuration file and print
every finding, including passes and skips. Useful while authoring rules:
the full trace shows which blocks were extracted and how each check
resolved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesTest(cmd.Context(), rulesPath, ruleID, args[0])
		},
	}

	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Rule document path (JSON)")
	cmd.Flags().StringVar(&ruleID, "rule", "", "Rule ID to test")
	_ = cmd.MarkFlagRequired("rules")
	_ = cmd.MarkFlagRequired("rule")

	return cmd
}

func runRulesTest(ctx context.Context, rulesPath, ruleID, configPath string) error {
	ruleSet, err := config.LoadRules(rulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	rule := ruleSet.Get(ruleID)
	if rule == nil {
		return fmt.Errorf("rule %q not found in %s", ruleID, rulesPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	base := filepath.Base(configPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	slog.Debug("testing rule", "rule", ruleID, "logic_type", rule.LogicType, "device", name)

	// Evaluate just this one rule; the filter keeps the rest out.
	cfg := engine.DefaultConfig()
	cfg.Filter = engine.RuleFilter{IncludeIDs: []string{ruleID}}
	eng := engine.New(cfg, slog.Default())

	result, err := eng.Scan(ctx, []engine.Target{{Name: name, Text: string(data)}}, ruleSet)
	if err != nil {
		return err
	}

	// Full trace: show passing and skipped findings too.
	formatter := output.NewTableFormatter(os.Stdout)
	formatter.Verbose = true
	if err := formatter.Format(result); err != nil {
		return err
	}

	if result.HasFailures() {
		return fmt.Errorf("rule %s failed against %s", ruleID, configPath)
	}
	return nil
}
