package fsutil

import (
	"path/filepath"
	"sync"
)

// Path mutex registry guarding concurrent reads and writes of the same file
var pathMutexes sync.Map

// GetPathMutex returns the mutex for the cleaned form of path
func GetPathMutex(path string) *sync.Mutex {
	actual, _ := pathMutexes.LoadOrStore(filepath.Clean(path), &sync.Mutex{})
	return actual.(*sync.Mutex)
}
