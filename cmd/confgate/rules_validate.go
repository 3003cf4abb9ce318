package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/confgate-dev/confgate/internal/config"
	"github.com/confgate-dev/confgate/internal/engine"
)

func newRulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules.json>",
		Short: "Validate a rule document without scanning",
		Long: `Load a rule document and report structural problems: schema violations,
duplicate IDs, unknown logic types, and malformed payloads. Exits non-zero
when any rule is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRulesValidate(args[0])
		},
	}
}

func runRulesValidate(path string) error {
	ruleSet, err := config.LoadRules(path)
	if err != nil {
		return err
	}

	// Schema, field, and payload validation all passed at load; what is
	// left to flag is logic types no checker serves.
	registry := engine.NewRegistry(1)
	var problems []string
	byType := make(map[string]int)

	for i := range ruleSet.Items {
		rule := &ruleSet.Items[i]
		byType[rule.LogicType]++

		if _, err := registry.Resolve(rule.LogicType); err != nil {
			problems = append(problems, fmt.Sprintf("rule %s: %v", rule.ID, err))
		}
	}

	fmt.Printf("Rules: %d (%d active)\n", ruleSet.Len(), len(ruleSet.Active()))
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %s: %d\n", t, byType[t])
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Printf("✗ %s\n", p)
		}
		return fmt.Errorf("%d of %d rules invalid", len(problems), ruleSet.Len())
	}

	fmt.Println("✓ all rules valid")
	return nil
}
