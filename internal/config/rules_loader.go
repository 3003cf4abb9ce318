// Package config loads rule documents, device inventories, and the
// system-level configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/confgate-dev/confgate/internal/domain/rules"
)

// LoadRules loads and validates a JSON rule document from path.
func LoadRules(path string) (*rules.RuleSet, error) {
	// os.OpenRoot keeps the open confined to the file's directory, so a
	// symlinked rules path cannot escape it.
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules directory: %w", err)
	}
	defer root.Close()

	file, err := root.Open(base)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer file.Close()

	set, err := LoadRulesFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadRulesFromReader loads and validates a JSON rule document. The
// document is first checked against the rule schema, then decoded and
// validated field by field.
func LoadRulesFromReader(r io.Reader) (*rules.RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	if err := validateRuleSchema(data); err != nil {
		return nil, err
	}

	var items []rules.Rule
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	set, err := rules.NewRuleSet(items)
	if err != nil {
		return nil, err
	}
	for i := range set.Items {
		if err := set.Items[i].ValidatePayload(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", set.Items[i].ID, err)
		}
	}
	return set, nil
}

var compiledRuleSchema = mustCompileRuleSchema()

func mustCompileRuleSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("rules.schema.json", strings.NewReader(ruleDocumentSchema)); err != nil {
		panic(fmt.Sprintf("rule schema resource: %v", err))
	}
	schema, err := compiler.Compile("rules.schema.json")
	if err != nil {
		panic(fmt.Sprintf("rule schema: %v", err))
	}
	return schema
}

// validateRuleSchema checks a raw rule document against the JSON Schema.
func validateRuleSchema(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := compiledRuleSchema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return formatSchemaError(validationErr)
		}
		return fmt.Errorf("rule document validation failed: %w", err)
	}
	return nil
}

// formatSchemaError flattens a nested schema validation error into one
// readable message.
func formatSchemaError(err *jsonschema.ValidationError) error {
	var messages []string

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)

	if len(messages) == 0 {
		return fmt.Errorf("rule document validation failed")
	}
	return fmt.Errorf("rule document validation failed:\n    - %s", strings.Join(messages, "\n    - "))
}
