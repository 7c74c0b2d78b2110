package emotion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadRules reads a trained rule table from a JSON document written by the
// trainer. The document is a single object mapping emotion labels to ranked
// keyword arrays; object key order is the label priority order.
func LoadRules(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}

	table := NewRuleTable()
	if err := json.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("parse rule table %s: %w", path, err)
	}
	return table, nil
}

// SaveRules rewrites the rule table document wholesale.
func SaveRules(path string, table *RuleTable) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rule table: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create rule table dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write rule table: %w", err)
	}
	return nil
}
