package mapping

import (
	"context"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/logging"
)

// RuleStore loads the ordered mapping rules for an organization. Rules are
// loaded once per ingestion batch and are immutable during that batch.
type RuleStore interface {
	Load(ctx context.Context, orgID string) ([]Rule, error)
}

// FileRuleStore reads per-organization rule files (<dir>/<org_id>.yaml) and
// falls back to the built-in default rule set when no file exists.
type FileRuleStore struct {
	dir string
}

// NewFileRuleStore creates a FileRuleStore rooted at dir.
func NewFileRuleStore(dir string) *FileRuleStore {
	return &FileRuleStore{dir: dir}
}

// Load returns the rules for orgID, or DefaultRules when the org has none.
func (s *FileRuleStore) Load(ctx context.Context, orgID string) ([]Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, orgID+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.Ctx(ctx).Debug().
			Str("org_id", orgID).
			Msg("No mapping rules file, using defaults")
		return DefaultRules(), nil
	}
	if err != nil {
		return nil, errors.WrapStore("load", "rules", orgID, err)
	}

	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, errors.WrapStore("decode", "rules", orgID, err)
	}
	if len(rules) == 0 {
		return DefaultRules(), nil
	}
	return rules, nil
}

// StaticRuleStore serves a fixed rule list regardless of organization.
// Useful for tests and one-off ingestion runs.
type StaticRuleStore []Rule

// Load returns the static rules, or DefaultRules when empty.
func (s StaticRuleStore) Load(_ context.Context, _ string) ([]Rule, error) {
	if len(s) == 0 {
		return DefaultRules(), nil
	}
	return []Rule(s), nil
}
