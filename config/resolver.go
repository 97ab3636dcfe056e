package config

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lintdock/lintdock/models"
	"gopkg.in/yaml.v3"
)

// DefaultName is the workspace-relative SwiftLint configuration file.
const DefaultName = ".swiftlint.yml"

// Resolve picks the active configuration path: an explicit override wins,
// then the workspace-bound default, then none. An override that does not
// exist is an error; a missing workspace default just means no config.
func Resolve(workspace, override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%w: config %s: %v", models.ErrIOFailure, override, err)
		}
		return override, nil
	}

	bound := filepath.Join(workspace, DefaultName)
	if _, err := os.Stat(bound); err == nil {
		return bound, nil
	}
	return "", nil
}

// Validate checks that the configuration file is well-formed YAML.
func Validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config %s: %v", models.ErrIOFailure, path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: config %s is not valid YAML: %v", models.ErrInvalidOutput, path, err)
	}
	return nil
}

// Hash returns the SHA-256 of the configuration file contents, used by
// callers to detect "violations are stale relative to config" conditions.
// An empty path hashes to the empty string.
func Hash(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read config %s: %v", models.ErrIOFailure, path, err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}
