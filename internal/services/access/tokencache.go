package access

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenCache is the client-side store of capability tokens, one per bot.
// It outlives sessions so a returning visitor re-enters silently.
type TokenCache interface {
	Get(botID string) (string, bool)
	Put(botID, token string) error
	Remove(botID string) error
}

// MemoryTokenCache keeps tokens for the life of the process.
type MemoryTokenCache struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenCache creates an empty cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]string)}
}

func (c *MemoryTokenCache) Get(botID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.tokens[botID]
	return token, ok
}

func (c *MemoryTokenCache) Put(botID, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[botID] = token
	return nil
}

func (c *MemoryTokenCache) Remove(botID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, botID)
	return nil
}

// FileTokenCache persists tokens as a JSON object in a file readable only by
// the owner.
type FileTokenCache struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenCache creates a cache backed by path. The file is created on
// the first Put.
func NewFileTokenCache(path string) *FileTokenCache {
	return &FileTokenCache{path: path}
}

func (c *FileTokenCache) load() (map[string]string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}
	tokens := map[string]string{}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	return tokens, nil
}

func (c *FileTokenCache) save(tokens map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token cache dir: %w", err)
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// Get returns the cached token. A corrupt file reads as empty.
func (c *FileTokenCache) Get(botID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tokens, err := c.load()
	if err != nil {
		return "", false
	}
	token, ok := tokens[botID]
	return token, ok
}

func (c *FileTokenCache) Put(botID, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tokens, err := c.load()
	if err != nil {
		tokens = map[string]string{}
	}
	tokens[botID] = token
	return c.save(tokens)
}

func (c *FileTokenCache) Remove(botID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tokens, err := c.load()
	if err != nil {
		return c.save(map[string]string{})
	}
	if _, ok := tokens[botID]; !ok {
		return nil
	}
	delete(tokens, botID)
	return c.save(tokens)
}
