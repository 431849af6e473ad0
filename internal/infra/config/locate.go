// Where: internal/infra/config/locate.go
// What: Service file discovery.
// Why: Commands run from nested directories still find the service definition.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindServiceFile resolves name against startDir. Absolute names and names with a
// directory part are used as given; bare names are searched upward from startDir.
func FindServiceFile(startDir, name string) (string, error) {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(startDir, path)
		}
		if !fileExists(path) {
			return "", fmt.Errorf("%w: %s", ErrServiceFileNotFound, path)
		}
		return filepath.Clean(path), nil
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s (searched upward from %s)", ErrServiceFileNotFound, name, startDir)
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
