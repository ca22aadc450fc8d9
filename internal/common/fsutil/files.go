// fsutil/files.go
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-oozie-composer/internal/common/errors"
)

// FileExists checks if a file exists and is not a directory
func FileExists(path string) bool {
	mu := GetPathMutex(path)
	mu.Lock()
	defer mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadFile reads an entire file into memory, mapping os errors onto the
// sentinel taxonomy.
func ReadFile(path string) ([]byte, error) {
	mu := GetPathMutex(path)
	mu.Lock()
	defer mu.Unlock()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return data, nil
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", errors.ErrFileNotFound, path)
	case os.IsPermission(err):
		return nil, fmt.Errorf("%w: %s", errors.ErrPermissionDenied, path)
	default:
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrFileReadError, path, err)
	}
}

// WriteFile writes data to a file, creating the parent directory if necessary
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := CreateDirIfNotExists(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPathNotAccessible, err)
	}

	mu := GetPathMutex(path)
	mu.Lock()
	defer mu.Unlock()

	if err := os.WriteFile(path, data, perm); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", errors.ErrPermissionDenied, path)
		}
		return fmt.Errorf("%w: %s: %v", errors.ErrFileWriteError, path, err)
	}
	return nil
}

// GetExtension returns the lower-cased extension of path without the dot
func GetExtension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
