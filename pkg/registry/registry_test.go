// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistry = `{
  "version": "1.0.0",
  "lastUpdated": "2025-06-01T00:00:00Z",
  "activities": [
    {
      "id": "renewal.priority.classify",
      "displayName": "Classify Renewal Priority",
      "category": "renewal",
      "version": "1.0.0",
      "taskType": "classify-renewal-priority",
      "implementationStatus": "completed",
      "errorCodes": ["PRIORITY_RULES_FAILED"],
      "timeout": "10s",
      "retries": 0,
      "workflows": ["renewal-pipeline"]
    },
    {
      "id": "renewal.quote.generate",
      "displayName": "Generate Quote",
      "category": "quote",
      "version": "1.0.0",
      "taskType": "generate-quote",
      "implementationStatus": "completed",
      "timeout": "30s",
      "retries": 3,
      "workflows": ["renewal-pipeline", "negotiation"]
    }
  ]
}`

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, testRegistry))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", reg.Version)
	require.Len(t, reg.Activities, 2)
	assert.Equal(t, "renewal.priority.classify", reg.Activities[0].ID)
	assert.Equal(t, 3, reg.Activities[1].Retries)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadRegistry_MalformedJSON(t *testing.T) {
	_, err := LoadRegistry(writeRegistry(t, `{"activities": [`))
	require.Error(t, err)
}

func TestFindByTaskType(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, testRegistry))
	require.NoError(t, err)

	activity, err := reg.FindByTaskType("generate-quote")
	require.NoError(t, err)
	assert.Equal(t, "renewal.quote.generate", activity.ID)
	assert.Contains(t, activity.Workflows, "negotiation")

	_, err = reg.FindByTaskType("unknown-task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown-task")
}

func TestShippedRegistryParses(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)

	require.NotEmpty(t, reg.Activities)
	seen := map[string]bool{}
	for _, a := range reg.Activities {
		assert.False(t, seen[a.TaskType], "duplicate task type %s", a.TaskType)
		seen[a.TaskType] = true
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, a.Category)
	}
}
