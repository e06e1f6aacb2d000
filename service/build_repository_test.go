package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRepository_CollectBuildFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bowls/chicken.json", validBuildJSON)
	writeFile(t, dir, "bowls/rice.json", invalidBuildJSON)
	writeFile(t, dir, "wraps/deep/wrap.json", validBuildJSON)
	writeFile(t, dir, "bom.json", "[]")
	writeFile(t, dir, "README.md", "# builds")
	writeFile(t, dir, ".hidden/secret.json", validBuildJSON)
	writeFile(t, dir, "node_modules/pkg/package.json", "{}")

	repo := NewBuildRepository()
	files, err := repo.CollectBuildFiles([]string{dir}, []string{"**/*.json"}, []string{"**/bom*.json"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "bowls", "chicken.json"),
		filepath.Join(dir, "bowls", "rice.json"),
		filepath.Join(dir, "wraps", "deep", "wrap.json"),
	}, files)
}

func TestBuildRepository_CollectPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bowls/chicken.json", validBuildJSON)
	writeFile(t, dir, "wraps/wrap.json", validBuildJSON)

	repo := NewBuildRepository()
	files, err := repo.CollectBuildFiles([]string{dir}, []string{"bowls/**"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "bowls", "chicken.json")}, files)

	// explicit files are deduplicated
	single := filepath.Join(dir, "wraps", "wrap.json")
	files, err = repo.CollectBuildFiles([]string{single, single}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)
}

func TestBuildRepository_MissingPath(t *testing.T) {
	_, err := NewBuildRepository().CollectBuildFiles([]string{filepath.Join(t.TempDir(), "nope")}, nil, nil)
	var de domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeFileNotFound, de.Code)
}

func TestBuildRepository_LoadBuild(t *testing.T) {
	dir := t.TempDir()
	repo := NewBuildRepository()

	b, err := repo.LoadBuild(writeFile(t, dir, "ok.json", validBuildJSON))
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	_, err = repo.LoadBuild(writeFile(t, dir, "bad.json", malformedBuildJSON))
	issues, ok := schema.IsSchemaError(err)
	require.True(t, ok, "got %v", err)
	require.Len(t, issues, 1)
	assert.Equal(t, "colour", issues[0].Path)
	assert.Equal(t, domain.IssueUnrecognizedKey, issues[0].Code)
}

func TestBuildRepository_SaveBuildReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ok.json", validBuildJSON)
	require.NoError(t, os.Chmod(path, 0o600))

	repo := NewBuildRepository()
	b, err := repo.LoadBuild(path)
	require.NoError(t, err)
	b.Steps[0].Equipment.ApplianceID = "combi_oven"

	require.NoError(t, repo.SaveBuild(path, b))

	reloaded, err := repo.LoadBuild(path)
	require.NoError(t, err)
	assert.Equal(t, "combi_oven", reloaded.Steps[0].Equipment.ApplianceID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}
