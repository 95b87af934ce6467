package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// ConflictStrategy defines how to handle name conflicts when adding entries.
type ConflictStrategy string

const (
	ConflictFail      ConflictStrategy = "fail"
	ConflictSkip      ConflictStrategy = "skip"
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// ErrExists is returned when an entry exists and the strategy is ConflictFail.
var ErrExists = errors.New("already exists")

// ParseConflictStrategy maps a flag value onto a strategy.
func ParseConflictStrategy(s string) (ConflictStrategy, bool) {
	switch ConflictStrategy(s) {
	case ConflictFail, ConflictSkip, ConflictOverwrite:
		return ConflictStrategy(s), true
	case "":
		return ConflictFail, true
	default:
		return "", false
	}
}

// readJSON decodes a file in the config directory into v. It reports false
// when the file does not exist.
func readJSON(name string, v any) (bool, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(filepath.Join(configDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

func writeJSON(name string, v any) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(configDir, name), data, 0600)
}

// writeFileAtomic writes data next to path and renames it into place, so an
// interrupted write leaves the previous file intact.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
