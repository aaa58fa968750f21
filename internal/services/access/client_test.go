package access_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/services/access"
)

// scriptedPrompt answers with the given passwords in order.
func scriptedPrompt(answers ...string) (access.PromptFunc, *[]string) {
	var seen []string
	return func(_ context.Context, attempt int, lastError string) (string, error) {
		seen = append(seen, lastError)
		if attempt > len(answers) {
			return "", errors.New("out of answers")
		}
		return answers[attempt-1], nil
	}, &seen
}

func TestClient_EnterPromptsUntilGranted(t *testing.T) {
	_, gate := setupGate(t)
	cache := access.NewMemoryTokenCache()
	client := access.NewClient(gate, cache)
	prompt, seen := scriptedPrompt("a", "b", "c", secret)

	token, err := client.Enter(context.Background(), "locked", prompt)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, []string{"", access.ErrInvalidPassword, access.ErrInvalidPassword, access.ErrInvalidPassword}, *seen)
	cached, ok := cache.Get("locked")
	assert.True(t, ok)
	assert.Equal(t, token, cached)
}

func TestClient_EnterReusesCachedToken(t *testing.T) {
	_, gate := setupGate(t)
	cache := access.NewMemoryTokenCache()
	client := access.NewClient(gate, cache)
	first, err := client.Enter(context.Background(), "locked", func(context.Context, int, string) (string, error) {
		return secret, nil
	})
	require.NoError(t, err)

	second, err := client.Enter(context.Background(), "locked", func(context.Context, int, string) (string, error) {
		t.Fatal("prompted despite a valid cached token")
		return "", nil
	})

	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClient_EnterDropsRevokedToken(t *testing.T) {
	_, gate := setupGate(t)
	cache := access.NewMemoryTokenCache()
	require.NoError(t, cache.Put("locked", "stale"))
	client := access.NewClient(gate, cache)
	prompt, _ := scriptedPrompt(secret)

	token, err := client.Enter(context.Background(), "locked", prompt)

	require.NoError(t, err)
	assert.NotEqual(t, "stale", token)
}

func TestClient_EnterOpenBotNeverPrompts(t *testing.T) {
	_, gate := setupGate(t)
	client := access.NewClient(gate, access.NewMemoryTokenCache())

	token, err := client.Enter(context.Background(), "public", func(context.Context, int, string) (string, error) {
		t.Fatal("prompted for an open bot")
		return "", nil
	})

	require.NoError(t, err)
	assert.Equal(t, access.OpenToken, token)
}

func TestClient_EnterAbortedPrompt(t *testing.T) {
	_, gate := setupGate(t)
	client := access.NewClient(gate, access.NewMemoryTokenCache())
	prompt, _ := scriptedPrompt()

	_, err := client.Enter(context.Background(), "locked", prompt)

	assert.ErrorContains(t, err, "password prompt aborted")
}

func TestFileTokenCache_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	cache := access.NewFileTokenCache(path)

	_, ok := cache.Get("bot")
	assert.False(t, ok)

	require.NoError(t, cache.Put("bot", "tok"))
	require.NoError(t, cache.Put("other", "tok2"))

	reopened := access.NewFileTokenCache(path)
	got, ok := reopened.Get("bot")
	assert.True(t, ok)
	assert.Equal(t, "tok", got)

	require.NoError(t, reopened.Remove("bot"))
	_, ok = access.NewFileTokenCache(path).Get("bot")
	assert.False(t, ok)
	_, ok = access.NewFileTokenCache(path).Get("other")
	assert.True(t, ok)
}
