package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/golang/snappy"
)

type Entry struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	StoredAt time.Time `json:"stored_at"`
	RawSize  int       `json:"raw_size"`
}

type ResponseIndex struct {
	NextID  int              `json:"next_id"`
	Entries map[string]Entry `json:"entries"`
}

// Cache keeps raw API responses on disk, snappy-compressed, keyed by the
// request URL. A non-positive expireAfter keeps entries forever.
type Cache struct {
	baseDir     string
	respDir     string
	expireAfter time.Duration
	index       ResponseIndex
	mutex       sync.RWMutex
}

func NewCache(baseDir string, expireAfter time.Duration) (*Cache, error) {
	respDir := filepath.Join(baseDir, "responses")
	c := &Cache{
		baseDir:     baseDir,
		respDir:     respDir,
		expireAfter: expireAfter,
		index: ResponseIndex{
			NextID:  1,
			Entries: make(map[string]Entry),
		},
	}

	if err := os.MkdirAll(respDir, 0755); err != nil {
		return nil, err
	}

	c.loadIndex()
	return c, nil
}

func (c *Cache) loadIndex() {
	data, err := os.ReadFile(c.indexFile())
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, &c.index)
	if c.index.Entries == nil {
		c.index.Entries = make(map[string]Entry)
	}
	if c.index.NextID < 1 {
		c.index.NextID = 1
	}
}

func (c *Cache) saveIndex() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.indexFile(), data, 0644)
}

func (c *Cache) indexFile() string {
	return filepath.Join(c.respDir, "index.json")
}

func (c *Cache) entryFile(id string) string {
	return filepath.Join(c.respDir, id+".sz")
}

func Key(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

func (c *Cache) Get(url string) ([]byte, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.index.Entries[Key(url)]
	if !exists {
		return nil, false
	}
	if c.expireAfter > 0 && time.Since(entry.StoredAt) > c.expireAfter {
		return nil, false
	}

	compressed, err := os.ReadFile(c.entryFile(entry.ID))
	if err != nil {
		return nil, false
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) Put(url string, data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := Key(url)
	entry, exists := c.index.Entries[key]
	if !exists {
		entry = Entry{ID: strconv.Itoa(c.index.NextID), URL: url}
		c.index.NextID++
	}
	entry.StoredAt = time.Now()
	entry.RawSize = len(data)

	if err := os.WriteFile(c.entryFile(entry.ID), snappy.Encode(nil, data), 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	c.index.Entries[key] = entry

	return c.saveIndex()
}

func (c *Cache) List() []Entry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]Entry, 0, len(c.index.Entries))
	for _, e := range c.index.Entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		a, _ := strconv.Atoi(result[i].ID)
		b, _ := strconv.Atoi(result[j].ID)
		return a < b
	})
	return result
}

// Size returns the on-disk size of the cached responses.
func (c *Cache) Size() (int64, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var total int64
	err := filepath.Walk(c.respDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

func (c *Cache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entries, err := os.ReadDir(c.respDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Name() == "index.json" {
			continue
		}
		_ = os.RemoveAll(filepath.Join(c.respDir, entry.Name()))
	}

	c.index = ResponseIndex{
		NextID:  1,
		Entries: make(map[string]Entry),
	}

	return c.saveIndex()
}
