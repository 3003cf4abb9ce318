package main

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/confgate-dev/confgate/internal/domain/rules"
)

type newRuleOptions struct {
	ID         string
	Title      string
	Severity   string
	LogicType  string
	Tags       []string
	OutputPath string
}

var newRuleIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func newRulesNewCmd() *cobra.Command {
	opts := &newRuleOptions{}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Scaffold a new rule interactively",
		Long: `Walk through the fields of a new rule and write a skeleton rule
document. The generated payload is a starting point; edit the patterns
to match your platform's configuration syntax.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRulesNew(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "rule.json", "Output file path")

	return cmd
}

func runRulesNew(opts *newRuleOptions) error {
	err := huh.NewInput().
		Title("Rule ID").
		Description("Letters, digits, hyphens, and underscores").
		Validate(func(s string) error {
			if !newRuleIDRe.MatchString(s) {
				return fmt.Errorf("invalid rule ID")
			}
			return nil
		}).
		Value(&opts.ID).
		Run()
	if err != nil {
		return err
	}

	err = huh.NewInput().
		Title("Title").
		Value(&opts.Title).
		Run()
	if err != nil {
		return err
	}

	err = huh.NewSelect[string]().
		Title("Severity").
		Options(
			huh.NewOption("Low", "low"),
			huh.NewOption("Medium", "medium").Selected(true),
			huh.NewOption("High", "high"),
			huh.NewOption("Critical", "critical"),
		).
		Value(&opts.Severity).
		Run()
	if err != nil {
		return err
	}

	err = huh.NewSelect[string]().
		Title("Logic type").
		Options(
			huh.NewOption("Advanced block check (blocks, groups, conditions)", "advanced_block_check").Selected(true),
			huh.NewOption("Simple match (whole document)", "simple_match"),
			huh.NewOption("Block match (flat per-block rules)", "block_match"),
			huh.NewOption("Version check", "version_check"),
		).
		Value(&opts.LogicType).
		Run()
	if err != nil {
		return err
	}

	err = huh.NewMultiSelect[string]().
		Title("Tags").
		Options(
			huh.NewOption("security", "security"),
			huh.NewOption("routing", "routing"),
			huh.NewOption("interfaces", "interfaces"),
			huh.NewOption("management", "management"),
		).
		Value(&opts.Tags).
		Run()
	if err != nil {
		return err
	}

	rule := rules.Rule{
		ID:        opts.ID,
		Title:     opts.Title,
		Severity:  opts.Severity,
		Tags:      opts.Tags,
		LogicType: opts.LogicType,
		Payload:   payloadSkeleton(opts.LogicType),
	}

	data, err := json.MarshalIndent([]rules.Rule{rule}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.OutputPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write rule: %w", err)
	}

	fmt.Printf("✓ Rule written to %s\n", opts.OutputPath)
	fmt.Printf("Run 'confgate rules test %s --rules %s --rule %s' against a sample config.\n",
		"<config>", opts.OutputPath, opts.ID)
	return nil
}

// payloadSkeleton returns a minimal valid payload for the logic type.
func payloadSkeleton(logicType string) json.RawMessage {
	switch logicType {
	case "simple_match":
		return json.RawMessage(`{
    "pattern": "^service password-encryption$",
    "is_regex": true
  }`)
	case "block_match":
		return json.RawMessage(`{
    "parent_block_start": "^interface (\\S+)",
    "child_rules": [
      {"pattern": "no ip proxy-arp", "mode": "must_exist"}
    ]
  }`)
	case "version_check":
		return json.RawMessage(`{
    "pattern": "^version (\\S+)",
    "operator": "ge",
    "value": "15.2"
  }`)
	default: // advanced_block_check
		return json.RawMessage(`{
    "block": {"start": "^interface (\\S+)"},
    "checks": [
      {"pattern": "no ip proxy-arp", "mode": "must_exist"}
    ]
  }`)
	}
}
