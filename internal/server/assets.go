package server

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/zeusync/zoowalk/internal/core/components"
)

var _ components.AssetLoader = (*Catalog)(nil)

// AssetPrefix is the URL prefix under which the catalogue is served.
const AssetPrefix = "/assets/"

// Catalog resolves model paths to URL handles the browser renderer fetches.
// With a root directory set, every asset must exist below it.
type Catalog struct {
	root string

	mu      sync.Mutex
	handles map[string]components.MeshHandle
}

func NewCatalog(root string) *Catalog {
	return &Catalog{root: root, handles: make(map[string]components.MeshHandle)}
}

// Root returns the directory assets are checked against and served from.
func (c *Catalog) Root() string { return c.root }

func (c *Catalog) Load(dir, name string) (components.MeshHandle, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownAsset)
	}
	// Cleaning against "/" keeps the key below the root.
	key := path.Clean("/" + dir + "/" + name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.handles[key]; ok {
		return h, nil
	}
	if c.root != "" {
		full := filepath.Join(c.root, filepath.FromSlash(key))
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrUnknownAsset, key)
		}
	}

	h := components.MeshHandle(strings.TrimSuffix(AssetPrefix, "/") + key)
	c.handles[key] = h
	return h, nil
}

// Handles lists every resolved handle in sorted order.
func (c *Catalog) Handles() []components.MeshHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]components.MeshHandle, 0, len(c.handles))
	for _, h := range c.handles {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}
