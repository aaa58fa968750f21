package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/unifiedui/handoff-service/internal/console"
	"github.com/unifiedui/handoff-service/internal/domain/models"
)

var (
	consoleServer    string
	consoleKey       string
	consoleKeepalive time.Duration
)

func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console <handoff-id>",
		Short: "Join a handoff as a human agent",
		Long: `Attach to a handoff over WebSocket. Lines typed on stdin are sent to the
visitor; "/resolve" ends the handoff and "/quit" leaves. The connection is
re-established automatically.

Examples:
  handoffctl console 3f1c... --key $AGENT_KEY
  HANDOFF_SERVER_URL=https://chat.example.com handoffctl console 3f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: runConsole,
	}
	cmd.Flags().StringVar(&consoleServer, "server", envOr("HANDOFF_SERVER_URL", "http://localhost:8086"), "service base URL")
	cmd.Flags().StringVar(&consoleKey, "key", os.Getenv("HANDOFF_AGENT_KEY"), "agent key")
	cmd.Flags().DurationVar(&consoleKeepalive, "keepalive", 15*time.Second, "server keepalive interval")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runConsole(cmd *cobra.Command, args []string) error {
	client, err := console.NewClient(console.Config{
		BaseURL:   consoleServer,
		HandoffID: args[0],
		AgentKey:  consoleKey,
		Keepalive: consoleKeepalive,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := cmd.OutOrStdout()
	go readCommands(cmd.InOrStdin(), out, client, cancel)

	err = client.Run(ctx, func(event models.Event, view *console.View) {
		printEvent(out, event, view)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func readCommands(in io.Reader, out io.Writer, client *console.Client, quit context.CancelFunc) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		var err error
		switch line {
		case "":
			continue
		case "/quit":
			quit()
			return
		case "/resolve":
			err = client.Resolve()
		default:
			err = client.Send(line)
		}
		if err != nil {
			fmt.Fprintln(out, defaultTheme.errorStyle().Render("! "+err.Error()))
		}
	}
	quit()
}

func printEvent(out io.Writer, event models.Event, view *console.View) {
	switch event.Type {
	case models.EventInit:
		fmt.Fprintln(out, defaultTheme.hintStyle().Render(fmt.Sprintf("-- session %s (%s)", view.SessionID(), view.Status())))
		for _, msg := range view.Messages() {
			printMessage(out, msg)
		}
	case models.EventMessage:
		printMessage(out, event.Message)
	case models.EventStatusChange:
		fmt.Fprintln(out, defaultTheme.hintStyle().Render(fmt.Sprintf("-- status %s", event.Status)))
	}
}

func printMessage(out io.Writer, msg *models.Message) {
	who := string(msg.SenderKind)
	if msg.SenderName != "" {
		who = msg.SenderName
	}
	content := msg.Content
	if msg.SenderKind == models.SenderSystem {
		content = defaultTheme.systemStyle(msg.SystemKind).Render(content)
	}
	fmt.Fprintf(out, "[%d] %s: %s\n", msg.Seq, defaultTheme.senderStyle(msg.SenderKind).Render(who), content)
}
