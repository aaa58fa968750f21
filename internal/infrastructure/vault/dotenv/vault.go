// Package dotenv provides an environment-backed secret resolver for
// development and single-host deployments.
package dotenv

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/unifiedui/handoff-service/internal/core/vault"
)

// Scheme prefixes references resolved by this vault.
const Scheme = "dotenv://"

// Vault resolves dotenv:// references from environment variables, falling
// back to secrets registered with Put.
type Vault struct {
	mu      sync.RWMutex
	secrets map[string]string
}

var _ vault.Resolver = (*Vault)(nil)

// NewVault creates a new DotEnv vault instance.
func NewVault() *Vault {
	return &Vault{secrets: make(map[string]string)}
}

// Put registers an in-memory secret and returns its reference.
func (v *Vault) Put(key, value string) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.secrets[key] = value
	return Scheme + key
}

// Resolve returns the value behind ref.
func (v *Vault) Resolve(_ context.Context, ref string) (string, error) {
	if !strings.HasPrefix(ref, Scheme) {
		return ref, nil
	}
	key := strings.TrimPrefix(ref, Scheme)

	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if value, ok := v.secrets[key]; ok {
		return value, nil
	}
	return "", fmt.Errorf("secret not found: %s", key)
}
