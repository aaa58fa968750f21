package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unifiedui/handoff-service/internal/services/access"
)

var (
	accessServer string
	accessKey    string
	visitCache   string
)

func newVisitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit <bot-id>",
		Short: "Enter a bot as a visitor and print its capability token",
		Long: `Pass a bot's access gate the way the widget does. A token cached from an
earlier run is re-checked first; the password is only asked for when it is
missing or no longer valid. Wrong passwords may be retried.

Examples:
  handoffctl visit support
  TOKEN=$(echo -n "s3cret" | handoffctl visit locked)`,
		Args: cobra.ExactArgs(1),
		RunE: runVisit,
	}
	cmd.Flags().StringVar(&accessServer, "server", envOr("HANDOFF_SERVER_URL", "http://localhost:8086"), "service base URL")
	cmd.Flags().StringVar(&visitCache, "cache", defaultTokenCachePath(), "token cache file, empty to keep the token in memory only")
	return cmd
}

func newRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <bot-id>",
		Short: "Drop every capability token issued for a bot",
		Long: `Revoke the tokens of a bot, e.g. after rotating its password. Visitors
have to enter the new password on their next visit.

Examples:
  handoffctl revoke locked --key $AGENT_KEY`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, err := access.NewRemoteGate(&access.RemoteGateConfig{BaseURL: accessServer, AgentKey: accessKey})
			if err != nil {
				return err
			}
			n, err := gate.Revoke(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d token(s) for %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&accessServer, "server", envOr("HANDOFF_SERVER_URL", "http://localhost:8086"), "service base URL")
	cmd.Flags().StringVar(&accessKey, "key", os.Getenv("HANDOFF_AGENT_KEY"), "agent key")
	return cmd
}

func defaultTokenCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "handoffctl", "tokens.json")
}

func runVisit(cmd *cobra.Command, args []string) error {
	gate, err := access.NewRemoteGate(&access.RemoteGateConfig{BaseURL: accessServer})
	if err != nil {
		return err
	}
	var cache access.TokenCache = access.NewMemoryTokenCache()
	if visitCache != "" {
		cache = access.NewFileTokenCache(visitCache)
	}
	client := access.NewClient(gate, cache)

	in := lineSource(cmd.InOrStdin())
	errOut := cmd.ErrOrStderr()
	prompt := func(_ context.Context, _ int, lastError string) (string, error) {
		if lastError != "" {
			fmt.Fprintln(errOut, defaultTheme.errorStyle().Render("! "+lastError))
		}
		secret, err := readSecret(nil, in, errOut)
		if err != nil {
			return "", err
		}
		if secret == "" {
			return "", fmt.Errorf("no password given")
		}
		return secret, nil
	}

	token, err := client.Enter(cmd.Context(), args[0], prompt)
	if err != nil {
		return err
	}
	fmt.Fprintln(errOut, defaultTheme.hintStyle().Render("-- access granted to "+args[0]))
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

// lineSource keeps a terminal as is so passwords are read without echo, and
// buffers anything else once so repeated prompts read successive lines.
func lineSource(in io.Reader) io.Reader {
	if f, ok := in.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			return f
		}
	}
	return bufio.NewReader(in)
}
