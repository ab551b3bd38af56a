package impl

import (
	"fmt"
	"os"
	"path/filepath"

	cache "climate-analyzer/pkg/local_cache"
	"climate-analyzer/pkg/lock"
	"climate-analyzer/pkg/logger"
)

func CacheList(cacheDir string) ([]cache.Entry, error) {
	c, err := cache.NewCache(cacheDir, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	entries := c.List()
	if len(entries) == 0 {
		fmt.Printf("No cached responses in %s\n", cacheDir)
		return nil, nil
	}

	size, err := c.Size()
	if err != nil {
		logger.Warnf("failed to compute cache size: %v", err)
	}
	fmt.Printf("Cache: %s (%d responses, %s on disk)\n\n", cacheDir, len(entries), formatSize(size))
	for _, e := range entries {
		fmt.Printf("  [%s] %s  %s\n", e.ID, e.StoredAt.Format("2006-01-02 15:04:05"), formatSize(int64(e.RawSize)))
		fmt.Printf("      %s\n", e.URL)
	}
	return entries, nil
}

// CacheClear drops cached responses and fetch coverage. Stored city data
// is kept.
func CacheClear(cacheDir string) error {
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		fmt.Println("No cache found")
		return nil
	}

	if cleaned, err := lock.CleanupTempFiles(cacheDir); err != nil {
		fmt.Printf("Warning: failed to cleanup temp files: %v\n", err)
	} else if cleaned > 0 {
		logger.Infof("cleaned %d temp files", cleaned)
	}

	c, err := cache.NewCache(cacheDir, 0)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	count := len(c.List())
	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear response cache: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(cacheDir, "coverage")); err != nil {
		return fmt.Errorf("failed to clear fetch coverage: %w", err)
	}

	fmt.Printf("Cleared %d cached responses\n", count)
	return nil
}
