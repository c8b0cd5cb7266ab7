package mapping

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRuleStoreLoad(t *testing.T) {
	dir := t.TempDir()

	rulesYAML := `- source_field: "Item Name"
  internal_field: title
- source_field: "Retail Price"
  internal_field: price
  transform:
    op: to_number
- source_field: "Fabric"
  internal_field: attributes.fabric
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(rulesYAML), 0o644))

	s := NewFileRuleStore(dir)

	rules, err := s.Load(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "Item Name", rules[0].SourceField)
	assert.Equal(t, FieldTitle, rules[0].InternalField)
	require.NotNil(t, rules[1].Transform)
	assert.Equal(t, OpToNumber, rules[1].Transform.Op)
	assert.Equal(t, "attributes.fabric", rules[2].InternalField)
}

func TestFileRuleStoreMissingFileFallsBack(t *testing.T) {
	s := NewFileRuleStore(t.TempDir())

	rules, err := s.Load(context.Background(), "no-such-org")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestFileRuleStoreEmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.yaml"), []byte("[]"), 0o644))

	s := NewFileRuleStore(dir)

	rules, err := s.Load(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestFileRuleStoreMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("{not yaml: ["), 0o644))

	s := NewFileRuleStore(dir)

	_, err := s.Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestStaticRuleStore(t *testing.T) {
	rules := []Rule{{SourceField: "x", InternalField: FieldTitle}}

	got, err := StaticRuleStore(rules).Load(context.Background(), "any")
	require.NoError(t, err)
	assert.Equal(t, rules, got)

	got, err = StaticRuleStore(nil).Load(context.Background(), "any")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), got)
}
