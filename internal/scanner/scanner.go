package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scanner walks a directory tree and finds statement files
type Scanner struct {
	rootDir string
}

// New creates a new scanner for the given root directory
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// ScanResult represents a found statement file.
// AccountID comes from the directory layout: {root}/{account}/file.ext.
// Files directly under the root carry no account.
type ScanResult struct {
	Path      string
	AccountID string
}

// Scan walks the directory tree and finds all statement files
func (s *Scanner) Scan() ([]ScanResult, error) {
	var results []ScanResult

	rootDir := s.expandHome(s.rootDir)

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !s.isStatementFile(path) {
			return nil
		}

		results = append(results, ScanResult{
			Path:      path,
			AccountID: s.accountFromPath(path, rootDir),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return results, nil
}

// isStatementFile checks if file is a known statement format
func (s *Scanner) isStatementFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".qfx" || ext == ".ofx" || ext == ".csv"
}

// accountFromPath takes the first directory under the root as the account ID
func (s *Scanner) accountFromPath(filePath, rootDir string) string {
	relPath, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		return ""
	}

	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) >= 2 {
		return parts[0]
	}
	return ""
}

// expandHome expands ~ to home directory
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
