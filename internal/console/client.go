// Package console is the agent side of the handoff push stream: a WebSocket
// client that keeps a deduplicated view of the session and reconnects on
// failure.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/unifiedui/handoff-service/internal/api/dto"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
)

const (
	defaultKeepalive  = 15 * time.Second
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
	writeTimeout      = 10 * time.Second
	// watchdogFactor is the number of keepalive intervals without any frame
	// after which the connection is considered dead.
	watchdogFactor = 3
)

// Config holds the client settings.
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:8086.
	BaseURL   string
	HandoffID string
	AgentKey  string
	// Keepalive is the server's keepalive interval.
	Keepalive  time.Duration
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Dialer     *websocket.Dialer
}

// Handler is called for every frame applied to the view.
type Handler func(event models.Event, view *View)

// Client follows one handoff over the agent WebSocket.
type Client struct {
	endpoint string
	header   http.Header
	cfg      Config
	dialer   *websocket.Dialer
	view     *View

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a new console client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.HandoffID == "" {
		return nil, fmt.Errorf("handoff id is required")
	}
	endpoint, err := streamURL(cfg.BaseURL, cfg.HandoffID)
	if err != nil {
		return nil, err
	}
	if cfg.Keepalive <= 0 {
		cfg.Keepalive = defaultKeepalive
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = defaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}

	header := http.Header{}
	if cfg.AgentKey != "" {
		header.Set("Authorization", "Bearer "+cfg.AgentKey)
	}

	return &Client{
		endpoint: endpoint,
		header:   header,
		cfg:      cfg,
		dialer:   dialer,
		view:     NewView(),
	}, nil
}

// streamURL converts the HTTP base into the WebSocket endpoint.
func streamURL(base, handoffID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/api/v1/handoff-service/handoffs/" + url.PathEscape(handoffID) + "/ws"
	return u.String(), nil
}

// View returns the client's session view.
func (c *Client) View() *View {
	return c.view
}

// Run connects and keeps the stream alive until ctx is cancelled or the
// server rejects the handshake. Transport failures trigger a reconnect with
// capped exponential backoff.
func (c *Client) Run(ctx context.Context, handle Handler) error {
	backoff := c.cfg.MinBackoff
	for {
		conn, resp, err := c.dialer.DialContext(ctx, c.endpoint, c.header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return fmt.Errorf("handshake rejected: %s", resp.Status)
			}
			log.Warn().Err(err).Dur("backoff", backoff).Msg("console dial failed")
		} else {
			backoff = c.cfg.MinBackoff
			err = c.consume(ctx, conn, handle)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Info().Err(err).Msg("console stream lost, reconnecting")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}
}

// frameType peeks at the type of a server frame.
type frameType struct {
	Type string `json:"type"`
}

// consume reads frames until the connection fails. Any frame resets the
// watchdog.
func (c *Client) consume(ctx context.Context, conn *websocket.Conn, handle Handler) error {
	c.setConn(conn)
	defer c.setConn(nil)
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	window := watchdogFactor * c.cfg.Keepalive
	for {
		if err := conn.SetReadDeadline(time.Now().Add(window)); err != nil {
			return errors.NewTransportDisconnectedError(err)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return errors.NewTransportDisconnectedError(err)
		}

		var peek frameType
		if err := json.Unmarshal(data, &peek); err != nil {
			log.Warn().Err(err).Msg("console ignored malformed frame")
			continue
		}
		if peek.Type == "error" {
			var rejected dto.ErrorFrame
			_ = json.Unmarshal(data, &rejected)
			log.Warn().Str("code", rejected.Code).Str("message", rejected.Message).Msg("command rejected")
			continue
		}

		var event models.Event
		if err := json.Unmarshal(data, &event); err != nil {
			log.Warn().Err(err).Msg("console ignored malformed frame")
			continue
		}
		if event.Type == models.EventMessage && event.Message == nil {
			continue
		}
		c.view.Apply(event)
		if handle != nil {
			handle(event, c.view)
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// Send posts an agent message on the current connection.
func (c *Client) Send(text string) error {
	return c.write(dto.AgentCommand{Type: dto.CommandMessage, Text: text})
}

// Resolve ends the handoff.
func (c *Client) Resolve() error {
	return c.write(dto.AgentCommand{Type: dto.CommandResolve})
}

func (c *Client) write(cmd dto.AgentCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.NewTransportDisconnectedError(fmt.Errorf("not connected"))
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.NewTransportDisconnectedError(err)
	}
	if err := c.conn.WriteJSON(cmd); err != nil {
		return errors.NewTransportDisconnectedError(err)
	}
	return nil
}
