package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/services/platform"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
bots:
  - id: support
    name: Support
    secretHash: "$2a$10$abc"
    leadTrigger:
      type: after_messages
      messages: 3
    handoff:
      enabled: true
      offerAfterMessages: 2
  - id: open
    name: Open Bot
`)

	client, err := platform.LoadFile(path)
	require.NoError(t, err)

	support, err := client.GetBot(context.Background(), "support")
	require.NoError(t, err)
	assert.True(t, support.RequiresPassword())
	assert.Equal(t, platform.LeadTriggerAfterMessages, support.LeadTrigger.Type)
	assert.Equal(t, 3, support.LeadTrigger.Messages)
	assert.True(t, support.Handoff.Enabled)

	open, err := client.GetBot(context.Background(), "open")
	require.NoError(t, err)
	assert.False(t, open.RequiresPassword())
	assert.Equal(t, platform.LeadTriggerManual, open.LeadTrigger.Type)
}

func TestLoadFile_AcceptsJSON(t *testing.T) {
	path := writeFile(t, `{"bots": [{"id": "j", "name": "JSON"}]}`)

	client, err := platform.LoadFile(path)
	require.NoError(t, err)

	bot, err := client.GetBot(context.Background(), "j")
	require.NoError(t, err)
	assert.Equal(t, "JSON", bot.Name)
}

func TestLoadFile_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing id":      "bots:\n  - name: x\n",
		"duplicate id":    "bots:\n  - id: a\n  - id: a\n",
		"zero threshold":  "bots:\n  - id: a\n    leadTrigger: {type: after_messages}\n",
		"unknown trigger": "bots:\n  - id: a\n    leadTrigger: {type: sometimes}\n",
		"negative offer":  "bots:\n  - id: a\n    handoff: {offerAfterMessages: -1}\n",
		"not yaml":        "bots: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := platform.LoadFile(writeFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_MissingPath(t *testing.T) {
	_, err := platform.LoadFile("")
	assert.Error(t, err)

	_, err = platform.LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestStaticClient_UnknownBot(t *testing.T) {
	_, err := platform.NewStaticClient().GetBot(context.Background(), "ghost")

	assert.True(t, errors.IsNotFound(err))
}
