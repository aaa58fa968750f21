package redis

import (
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewEmbedded starts an in-process Redis server and returns a client for it.
// Closing the client stops the server.
func NewEmbedded(prefix string, defaultTTL time.Duration) (*Client, error) {
	srv, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start embedded redis: %w", err)
	}

	c := Wrap(redis.NewClient(&redis.Options{Addr: srv.Addr()}), prefix, defaultTTL)
	c.onClose = srv.Close
	return c, nil
}
