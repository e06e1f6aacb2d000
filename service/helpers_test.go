package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validBuildJSON = `{
  "id": "b1",
  "itemId": "chicken-bowl",
  "version": 1,
  "status": "draft",
  "steps": [
    {
      "id": "s1",
      "orderIndex": 0,
      "action": {"family": "HEAT"},
      "instruction": "Sous vide the chicken",
      "equipment": {"applianceId": "waterbath"},
      "time": {"durationSeconds": 1200, "isActive": false}
    }
  ]
}
`

const invalidBuildJSON = `{
  "id": "b2",
  "itemId": "rice-bowl",
  "version": 3,
  "status": "draft",
  "steps": [
    {"id": "s1", "orderIndex": 0, "action": {"family": "HEAT"}, "stationId": "hot"}
  ]
}
`

const malformedBuildJSON = `{"id": "b3", "itemId": "x", "version": 1, "status": "draft", "steps": [], "colour": "red"}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
