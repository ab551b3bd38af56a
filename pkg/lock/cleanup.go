package lock

import (
	"os"
	"path/filepath"
)

// CleanupTempFiles removes the *.tmp files an interrupted writer left behind
// under each of dirs. Missing directories are ignored.
func CleanupTempFiles(dirs ...string) (int, error) {
	var cleaned int
	var firstErr error

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				return nil
			}
			if filepath.Ext(path) == ".tmp" {
				if removeErr := os.Remove(path); removeErr == nil {
					cleaned++
				} else if firstErr == nil {
					firstErr = removeErr
				}
			}
			return nil
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return cleaned, firstErr
}
