package imageserver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// CacheKey addresses an image by its full prompt, so an identical
// prompt never costs a second generation.
func CacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])[:12]
}

// Cache is a content-addressed PNG store on disk.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "murder_mystery_images")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".png")
}

// Lookup returns the cached path for a key, if present.
func (c *Cache) Lookup(key string) (string, bool) {
	p := c.path(key)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Store writes image bytes under the key and returns the path.
func (c *Cache) Store(key string, data []byte) (string, error) {
	p := c.path(key)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to cache image: %w", err)
	}
	return p, nil
}

// CachedImage describes one cache entry.
type CachedImage struct {
	Key     string    `json:"key"`
	Path    string    `json:"path"`
	SizeKB  float64   `json:"size_kb"`
	Created time.Time `json:"created"`
}

// List returns cache entries, newest first.
func (c *Cache) List(limit int) ([]CachedImage, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache dir: %w", err)
	}

	var images []CachedImage
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		images = append(images, CachedImage{
			Key:     e.Name()[:len(e.Name())-len(".png")],
			Path:    filepath.Join(c.dir, e.Name()),
			SizeKB:  float64(info.Size()) / 1024,
			Created: info.ModTime(),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Created.After(images[j].Created)
	})
	if limit > 0 && len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

// Stats summarizes the cache for diagnostics.
type Stats struct {
	TotalImages int     `json:"total_images"`
	TotalSizeMB float64 `json:"total_size_mb"`
	Directory   string  `json:"cache_directory"`
}

func (c *Cache) Stats() (Stats, error) {
	images, err := c.List(0)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{TotalImages: len(images), Directory: c.dir}
	for _, img := range images {
		s.TotalSizeMB += img.SizeKB / 1024
	}
	return s, nil
}
