package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/schema"
)

// BuildRepositoryImpl implements domain.BuildRepository on the local filesystem
type BuildRepositoryImpl struct{}

// NewBuildRepository creates a new filesystem build repository
func NewBuildRepository() *BuildRepositoryImpl {
	return &BuildRepositoryImpl{}
}

// CollectBuildFiles finds build documents under the given paths. Files named
// directly are kept when they match the patterns; directories are walked
// recursively. The result is sorted and free of duplicates.
func (r *BuildRepositoryImpl) CollectBuildFiles(paths []string, includePatterns, excludePatterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.NewFileNotFoundError(path, err)
		}

		if !info.IsDir() {
			if r.shouldIncludeFile(path, includePatterns, excludePatterns) {
				add(path)
			}
			continue
		}

		dirFiles, err := r.collectFromDirectory(path, includePatterns, excludePatterns)
		if err != nil {
			return nil, err
		}
		for _, f := range dirFiles {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ReadFile reads the content of a file
func (r *BuildRepositoryImpl) ReadFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}
	return content, nil
}

// LoadBuild reads and strictly parses a build document. Schema failures are
// returned unwrapped so callers can surface the individual issues.
func (r *BuildRepositoryImpl) LoadBuild(path string) (*domain.Build, error) {
	data, err := r.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := schema.ParseBuild(data)
	if err != nil {
		if _, ok := schema.IsSchemaError(err); ok {
			return nil, err
		}
		return nil, domain.NewParseError(path, err)
	}
	return b, nil
}

// SaveBuild writes the build to a temporary file in the same directory and
// renames it over path.
func (r *BuildRepositoryImpl) SaveBuild(path string, build *domain.Build) error {
	data, err := schema.MarshalBuild(build)
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to encode build %s", build.ID), err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to create temporary file for %s", path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.NewOutputError(fmt.Sprintf("failed to write %s", tmpName), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return domain.NewOutputError(fmt.Sprintf("failed to sync %s", tmpName), err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to close %s", tmpName), err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to set permissions on %s", tmpName), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to replace %s", path), err)
	}
	return nil
}

func (r *BuildRepositoryImpl) collectFromDirectory(dirPath string, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFunc := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		// Skip hidden directories and files
		if path != dirPath && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dirPath && r.shouldSkipDirectory(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(dirPath, path)
		if relErr != nil {
			rel = path
		}
		if r.isBuildDocument(path) && r.shouldIncludeFile(filepath.ToSlash(rel), includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	if err := filepath.WalkDir(dirPath, walkFunc); err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}
	return files, nil
}

func (r *BuildRepositoryImpl) isBuildDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// shouldIncludeFile matches patterns against both the slash path and the base name
func (r *BuildRepositoryImpl) shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	slashPath := filepath.ToSlash(path)
	base := filepath.Base(path)

	for _, pattern := range excludePatterns {
		if matchPattern(pattern, slashPath) || matchPattern(pattern, base) {
			return false
		}
	}

	if len(includePatterns) == 0 {
		return true
	}
	for _, pattern := range includePatterns {
		if matchPattern(pattern, slashPath) || matchPattern(pattern, base) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, name string) bool {
	matched, _ := doublestar.Match(pattern, name)
	return matched
}

func (r *BuildRepositoryImpl) shouldSkipDirectory(dirName string) bool {
	switch strings.ToLower(dirName) {
	case "node_modules", "vendor", "dist":
		return true
	}
	return false
}
