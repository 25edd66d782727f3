// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DBFileName is the document database file inside a data directory.
const DBFileName = "folio.db"

// ResolveDataDir resolves the folio data directory from user input.
// It normalizes the input and follows redirect files:
//
//   - "" -> the fallback directory
//   - "/path/to/dir" -> "/path/to/dir"
//
// Redirect handling: if <dir>/redirect exists, its contents name the actual
// data directory (relative to <dir>). This lets several checkouts or
// machines point at one shared op log.
func ResolveDataDir(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	return followRedirect(filepath.Clean(path))
}

// DBPath returns the database file path inside the resolved data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFileName)
}

// followRedirect checks for a redirect file and follows it if present.
func followRedirect(dataDir string) string {
	redirectPath := filepath.Join(dataDir, "redirect")

	content, err := os.ReadFile(redirectPath) //nolint:gosec // redirect path is within the data dir
	if err != nil {
		return dataDir
	}

	target := strings.TrimSpace(string(content))
	if target == "" {
		return dataDir
	}

	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(dataDir, target))
}
