// Package cli provides the handoffctl command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/unifiedui/handoff-service/internal/pkg/logger"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	// Global flags
	verbose bool
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "handoffctl",
		Short: "Operator tooling for the handoff service",
		Long: `handoffctl manages bot secrets and access gates for the handoff service.
Its console command joins a handoff as a human agent.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger.Setup(level, "console", cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newHashSecretCmd(), newGenKeyCmd(), newConsoleCmd(), newVisitCmd(), newRevokeCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// readSecret reads a secret from args or, when absent, from in. A terminal
// is prompted on prompt without echo; anything else yields its first line.
func readSecret(args []string, in io.Reader, prompt io.Writer) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if in == nil {
		in = os.Stdin
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}
	return readLine(in)
}
