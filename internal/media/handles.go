package media

import (
	"sync"

	"postdeck/internal/models"

	"github.com/google/uuid"
)

// PreviewPathPrefix is the URL prefix under which preview handles are served.
const PreviewPathPrefix = "/api/previews/"

// Handle is a transient display reference to a media item's content.
type Handle struct {
	Token  string `json:"token"`
	ItemID string `json:"item_id"`
	URL    string `json:"url"`
}

// Registry owns the blob store and resolves preview tokens across sessions.
type Registry struct {
	store *Store

	mu     sync.RWMutex
	tokens map[string]models.MediaItem

	// OnCount, when set, receives the number of live handles after each change.
	OnCount func(n int)
}

// NewRegistry returns a registry over store.
func NewRegistry(store *Store) *Registry {
	if store == nil {
		store = NewStore()
	}
	return &Registry{store: store, tokens: make(map[string]models.MediaItem)}
}

// Store returns the backing blob store.
func (r *Registry) Store() *Store { return r.store }

// Resolve returns the item and content behind a token.
func (r *Registry) Resolve(token string) (models.MediaItem, []byte, bool) {
	r.mu.RLock()
	item, ok := r.tokens[token]
	r.mu.RUnlock()
	if !ok {
		return models.MediaItem{}, nil, false
	}
	content, ok := r.store.Get(item.ID)
	if !ok {
		return models.MediaItem{}, nil, false
	}
	return item, content, true
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}

func (r *Registry) register(item models.MediaItem) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.tokens[token] = item
	n := len(r.tokens)
	r.mu.Unlock()
	r.notify(n)
	return token
}

func (r *Registry) unregister(token, itemID string) {
	r.mu.Lock()
	delete(r.tokens, token)
	n := len(r.tokens)
	r.mu.Unlock()
	r.store.Delete(itemID)
	r.notify(n)
}

func (r *Registry) notify(n int) {
	if r.OnCount != nil {
		r.OnCount(n)
	}
}

// NewCache returns an empty handle cache bound to this registry.
func (r *Registry) NewCache() *HandleCache {
	return &HandleCache{registry: r, byItem: make(map[string]Handle)}
}

// HandleCache tracks the handles acquired for one session's media items.
// A handle is created once per item and lives until Release or ReleaseAll.
type HandleCache struct {
	registry *Registry

	mu     sync.Mutex
	byItem map[string]Handle
}

// Put stores content for item and acquires its handle.
func (c *HandleCache) Put(item models.MediaItem, content []byte) Handle {
	c.registry.store.Put(item.ID, content)
	return c.Acquire(item)
}

// Acquire returns the item's handle, creating it on first use.
func (c *HandleCache) Acquire(item models.MediaItem) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.byItem[item.ID]; ok {
		return h
	}
	token := c.registry.register(item)
	h := Handle{Token: token, ItemID: item.ID, URL: PreviewPathPrefix + token}
	c.byItem[item.ID] = h
	return h
}

// URL returns the preview URL of an already acquired handle, or "".
func (c *HandleCache) URL(item models.MediaItem) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byItem[item.ID].URL
}

// Release drops the item's handle and content. Unknown items are ignored.
func (c *HandleCache) Release(itemID string) bool {
	c.mu.Lock()
	h, ok := c.byItem[itemID]
	if ok {
		delete(c.byItem, itemID)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	c.registry.unregister(h.Token, itemID)
	return true
}

// ReleaseAll drops every handle held by the cache.
func (c *HandleCache) ReleaseAll() int {
	c.mu.Lock()
	held := c.byItem
	c.byItem = make(map[string]Handle)
	c.mu.Unlock()
	for id, h := range held {
		c.registry.unregister(h.Token, id)
	}
	return len(held)
}

// Len returns the number of handles held.
func (c *HandleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byItem)
}
