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
	"github.com/confgate-dev/confgate/internal/domain/rules"
	"github.com/confgate-dev/confgate/internal/engine"
	"github.com/confgate-dev/confgate/internal/output"
	"github.com/confgate-dev/confgate/internal/version"
)

var (
	scanRules         string
	scanInventory     string
	scanFormat        string
	scanOutFile       string
	includeTags       []string
	includeSeverities []string
	includeRuleIDs    []string
	excludeRuleIDs    []string
	filterExpr        string
	parallel          int
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [config files...]",
	Short: "Evaluate configuration files against a rule document",
	Long: `Load a rule document and evaluate device configuration snapshots
against it. Configurations are given either as positional file arguments
or through a YAML inventory (--inventory).

Filtering:
  --tags security,routing      Run rules with 'security' OR 'routing' tags
  --severity critical,high     Run rules with these severities
  --rule ssh-version-2         Run specific rules by ID
  --exclude-rule banner-motd   Exclude specific rules by ID
  --filter "severity == 'high'"  Advanced filtering expression`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanRules, "rules", "r", "", "Rule document path (JSON)")
	scanCmd.Flags().StringVarP(&scanInventory, "inventory", "i", "", "Device inventory path (YAML)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "", "Output format: table, json, yaml, junit, sarif (default: table)")
	scanCmd.Flags().StringVarP(&scanOutFile, "output", "o", "", "Output file path (default: stdout)")

	scanCmd.Flags().StringSliceVar(&includeTags, "tags", nil, "Run rules with these tags (comma-separated)")
	scanCmd.Flags().StringSliceVar(&includeSeverities, "severity", nil, "Run rules with these severities (comma-separated)")
	scanCmd.Flags().StringSliceVar(&includeRuleIDs, "rule", nil, "Run specific rules by ID (comma-separated)")
	scanCmd.Flags().StringSliceVar(&excludeRuleIDs, "exclude-rule", nil, "Exclude specific rules by ID (comma-separated)")
	scanCmd.Flags().StringVar(&filterExpr, "filter", "", "Advanced filter expression (e.g. \"severity == 'critical'\")")
	scanCmd.Flags().IntVar(&parallel, "parallel", 0, "Max devices evaluated concurrently (default: one per CPU)")
}

// runScan implements the core logic for the scan command.
func runScan(ctx context.Context, args []string) error {
	sys := loadSystemConfig()

	rulesPath := scanRules
	if rulesPath == "" {
		rulesPath = sys.DefaultRules
	}
	if rulesPath == "" {
		return fmt.Errorf("no rule document: pass --rules or set default_rules in $HOME/.confgate.yaml")
	}

	slog.Info("loading rules", "path", rulesPath)
	ruleSet, err := config.LoadRules(rulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	slog.Info("rules loaded", "count", ruleSet.Len(), "active", len(ruleSet.Active()))

	targets, configPaths, err := collectTargets(args)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no configurations: pass config files or --inventory")
	}

	engCfg, err := buildEngineConfig(ruleSet, sys)
	if err != nil {
		return err
	}

	eng := engine.New(engCfg, slog.Default())
	result, err := eng.Scan(ctx, targets, ruleSet)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	writer := os.Stdout
	if scanOutFile != "" {
		//nolint:gosec // G304: user-controlled output path is intentional
		file, err := os.Create(scanOutFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			_ = file.Close()
		}()
		writer = file
		slog.Info("writing output", "file", scanOutFile, "format", scanFormat)
	}

	format := scanFormat
	if format == "" {
		format = sys.DefaultFormat
	}
	if format == "" {
		format = "table"
	}

	formatter, err := output.NewFormatter(format, writer, output.Options{
		Indent:      true,
		ConfigPaths: configPaths,
		ToolVersion: version.Get().Version,
	})
	if err != nil {
		return err
	}
	if err := formatter.Format(result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if result.HasFailures() {
		s := result.Summary()
		return fmt.Errorf("scan failed: %d passed, %d failed, %d errors",
			s.Passed, s.Failed, s.Errored)
	}
	return nil
}

// collectTargets resolves configurations from positional args and the
// inventory flag. Both may be combined; names must stay unique.
func collectTargets(args []string) ([]engine.Target, map[string]string, error) {
	var targets []engine.Target
	configPaths := make(map[string]string)

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if _, dup := configPaths[name]; dup {
			return nil, nil, fmt.Errorf("duplicate device name %q", name)
		}
		targets = append(targets, engine.Target{Name: name, Text: string(data)})
		configPaths[name] = path
	}

	if scanInventory != "" {
		inv, err := config.LoadInventory(scanInventory)
		if err != nil {
			return nil, nil, err
		}
		invTargets, err := inv.Targets()
		if err != nil {
			return nil, nil, err
		}
		for i, t := range invTargets {
			if _, dup := configPaths[t.Name]; dup {
				return nil, nil, fmt.Errorf("duplicate device name %q", t.Name)
			}
			configPaths[t.Name] = inv.Devices[i].ConfigPath
		}
		targets = append(targets, invTargets...)
	}

	return targets, configPaths, nil
}

// buildEngineConfig assembles the engine configuration from flags and the
// system config, validating rule ID references and compiling the filter
// expression once up front.
func buildEngineConfig(ruleSet *rules.RuleSet, sys *config.SystemConfig) (engine.Config, error) {
	for _, id := range includeRuleIDs {
		if ruleSet.Get(id) == nil {
			return engine.Config{}, fmt.Errorf("--rule references non-existent rule: %s", id)
		}
	}
	for _, id := range excludeRuleIDs {
		if ruleSet.Get(id) == nil {
			return engine.Config{}, fmt.Errorf("--exclude-rule references non-existent rule: %s", id)
		}
	}

	cfg := engine.DefaultConfig()
	if parallel > 0 {
		cfg.MaxConcurrentDevices = parallel
	} else if sys.Parallel > 0 {
		cfg.MaxConcurrentDevices = sys.Parallel
	}

	cfg.Filter = engine.RuleFilter{
		IncludeIDs: includeRuleIDs,
		ExcludeIDs: excludeRuleIDs,
		Tags:       includeTags,
		Severities: includeSeverities,
	}

	if filterExpr != "" {
		program, err := engine.CompileFilter(filterExpr)
		if err != nil {
			return engine.Config{}, fmt.Errorf("%w\nExample: severity in ['critical', 'high'] && !('slow' in tags)", err)
		}
		cfg.Filter.Program = program
	}

	return cfg, nil
}

// loadSystemConfig loads the global configuration, falling back to an
// empty config when the file is missing or unreadable.
func loadSystemConfig() *config.SystemConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		return &config.SystemConfig{}
	}
	sys, err := config.LoadSystemConfig(filepath.Join(home, ".confgate.yaml"))
	if err != nil {
		slog.Debug("failed to load system config, using defaults", "error", err)
		return &config.SystemConfig{}
	}
	if !verbose && sys.Verbose {
		verbose = true
		setupLogging()
	}
	return sys
}
