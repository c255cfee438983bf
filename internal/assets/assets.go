// Package assets fetches 3D model assets and turns them into scene graphs.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/beanbag/internal/engine/scene"
)

// ErrNoScene is returned when an asset decodes but holds nothing to render.
var ErrNoScene = errors.New("asset contains no meshes")

// Fetcher acquires a model and returns its scene graph. Implementations must
// return promptly once ctx is cancelled.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scene.Scene, error)
}

// GLTFFetcher loads .glb/.gltf assets from http(s) URLs or local paths.
type GLTFFetcher struct {
	client *http.Client
	cache  *Cache
	log    *zap.Logger
}

// NewGLTFFetcher creates a fetcher. A nil client uses http.DefaultClient and
// a nil logger disables logging.
func NewGLTFFetcher(client *http.Client, log *zap.Logger) *GLTFFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GLTFFetcher{
		client: client,
		cache:  NewCache(),
		log:    log,
	}
}

// Cache returns the raw asset cache.
func (f *GLTFFetcher) Cache() *Cache {
	return f.cache
}

// Invalidate drops every cached download so the next Fetch goes back to
// the network.
func (f *GLTFFetcher) Invalidate() {
	f.cache.Clear()
	f.log.Debug("asset cache cleared")
}

// Fetch implements Fetcher.
func (f *GLTFFetcher) Fetch(ctx context.Context, url string) (*scene.Scene, error) {
	data, err := f.read(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sc, err := Decode(bytes.NewReader(data), sceneName(url))
	if err != nil {
		// Don't keep bytes we can't use; a later attempt should refetch.
		f.cache.Delete(url)
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	f.log.Debug("model decoded",
		zap.String("url", url),
		zap.Int("bytes", len(data)),
		zap.Int("meshes", len(sc.Meshes())))
	return sc, nil
}

// read returns the raw asset. Only remote assets are cached; local files are
// re-read so that edits show up on reload.
func (f *GLTFFetcher) read(ctx context.Context, url string) ([]byte, error) {
	if !IsRemote(url) {
		return os.ReadFile(url)
	}
	if data, ok := f.cache.Get(url); ok {
		return data, nil
	}
	data, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}
	f.cache.Set(url, data)
	return data, nil
}

func (f *GLTFFetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

// IsRemote reports whether url is fetched over HTTP.
func IsRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func sceneName(url string) string {
	name := path.Base(url)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSuffix(strings.TrimSuffix(name, ".glb"), ".gltf")
}

// Cache is a simple in-memory cache for raw asset bytes.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete drops a single entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
