package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsValidPath checks if a given path exists and is a regular file or directory.
func IsValidPath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is neither a file nor a directory", path)
	}

	return nil
}

// IsValidInputFile checks that path is an existing regular file with one of
// the given extensions.
func IsValidInputFile(path string, extensions ...string) error {
	if err := IsValidPath(path); err != nil {
		return err
	}
	if info, _ := os.Stat(path); info != nil && info.IsDir() {
		return fmt.Errorf("path %s is a directory, expected a file", path)
	}
	if len(extensions) == 0 {
		return nil
	}
	ext := filepath.Ext(path)
	for _, allowed := range extensions {
		if strings.EqualFold(ext, allowed) {
			return nil
		}
	}
	return fmt.Errorf("unsupported file extension %q for %s (expected %s)", ext, path, strings.Join(extensions, ", "))
}

// IsValidOutputFormat checks if the given report format is supported.
func IsValidOutputFormat(format string) error {
	switch format {
	case "csv", "json", "xml":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'csv', 'json', 'xml'", format)
	}
}

// IsValidFilePermissions rejects modes that grant any permission to others.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0007 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600 or 0640", mode.String())
	}
	return nil
}
