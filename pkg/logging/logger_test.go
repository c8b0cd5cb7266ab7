package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)

	logger.Info().Str("org_id", "org-1").Msg("ingest started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "org-1", entry["org_id"])
	assert.Equal(t, "ingest started", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestDefaultNotNil(t *testing.T) {
	assert.NotNil(t, Default())
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	FromContext(ctx).Info().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}

func TestFromContextFallsBack(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))
	assert.Equal(t, Default(), FromContext(nil)) //nolint:staticcheck
}

func TestWithOrgAddsField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	ctx = WithOrg(ctx, "org-9")
	Ctx(ctx).Info().Msg("scoped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "org-9", entry["org_id"])
}
