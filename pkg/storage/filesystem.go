package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps generated export files on disk under one base
// directory. Paths handed to it are always relative; anything that would
// escape the base directory is rejected.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir %s: %w", baseDir, err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data under the relative path and returns that path.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("prepare export dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write export %s: %w", relPath, err)
	}
	return relPath, nil
}

// Open returns a read-only handle for a stored file.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", relPath, err)
	}
	return file, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalStorage) Delete(relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete export %s: %w", relPath, err)
	}
	return nil
}

// CleanupOlderThan deletes files whose mtime is older than ttl and returns
// the relative paths it removed.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var removed []string
	err := filepath.WalkDir(s.baseDir, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		if rel, err := filepath.Rel(s.baseDir, path); err == nil {
			removed = append(removed, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup exports: %w", err)
	}
	return removed, nil
}

func (s *LocalStorage) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid export path %q", relPath)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
