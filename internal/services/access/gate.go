// Package access implements the password gate and capability tokens.
package access

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/unifiedui/handoff-service/internal/core/cache"
	"github.com/unifiedui/handoff-service/internal/pkg/encryption"
	"github.com/unifiedui/handoff-service/internal/services/platform"
)

// OpenToken is the implicit token granted for bots without a password. It is
// never stored.
const OpenToken = "open"

// ErrInvalidPassword is the error text returned on a mismatch.
const ErrInvalidPassword = "invalid password"

// VerifyResult is the outcome of a password check.
type VerifyResult struct {
	Granted bool   `json:"granted"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Checker is the part of the gate a client needs.
type Checker interface {
	Verify(ctx context.Context, botID, candidate string) (*VerifyResult, error)
	CheckAccess(ctx context.Context, botID, token string) (bool, error)
}

// Revoker drops the tokens issued for a bot.
type Revoker interface {
	Revoke(ctx context.Context, botID string) (int64, error)
}

// GateConfig holds the dependencies of the gate.
type GateConfig struct {
	Bots      platform.Client
	Cache     cache.Client
	Encryptor encryption.Encryptor
	TokenTTL  time.Duration
}

// Gate verifies bot passwords and validates capability tokens. There is no
// lockout: callers may retry as often as they like.
type Gate struct {
	bots      platform.Client
	cache     cache.Client
	encryptor encryption.Encryptor
	ttl       time.Duration
}

var (
	_ Checker = (*Gate)(nil)
	_ Revoker = (*Gate)(nil)
)

// tokenRecord is the sealed value stored per token.
type tokenRecord struct {
	BotID    string    `json:"botId"`
	IssuedAt time.Time `json:"issuedAt"`
}

// NewGate creates a new access gate.
func NewGate(cfg *GateConfig) (*Gate, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Bots == nil {
		return nil, fmt.Errorf("bot registry is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache client is required")
	}
	if cfg.Encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	return &Gate{
		bots:      cfg.Bots,
		cache:     cfg.Cache,
		encryptor: cfg.Encryptor,
		ttl:       ttl,
	}, nil
}

// TokenKey builds the cache key for a capability token.
func TokenKey(botID, token string) string {
	return fmt.Sprintf("capability:%s:%s", botID, token)
}

// Verify checks candidate against the bot's secret and issues a token on a
// match. Unknown bots return the registry's NOT_FOUND error.
func (g *Gate) Verify(ctx context.Context, botID, candidate string) (*VerifyResult, error) {
	bot, err := g.bots.GetBot(ctx, botID)
	if err != nil {
		return nil, err
	}

	if !bot.RequiresPassword() {
		return &VerifyResult{Granted: true, Token: OpenToken}, nil
	}

	if candidate == "" || bcrypt.CompareHashAndPassword([]byte(bot.SecretHash), []byte(candidate)) != nil {
		log.Debug().Str("bot_id", botID).Msg("password rejected")
		return &VerifyResult{Granted: false, Error: ErrInvalidPassword}, nil
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	record, err := json.Marshal(tokenRecord{BotID: botID, IssuedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token record: %w", err)
	}

	key := TokenKey(botID, token)
	sealed, err := g.encryptor.Seal(record, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to seal token record: %w", err)
	}

	if err := g.cache.Set(ctx, key, []byte(sealed), g.ttl); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	log.Info().Str("bot_id", botID).Msg("capability token issued")
	return &VerifyResult{Granted: true, Token: token}, nil
}

// CheckAccess re-validates a previously issued token. It is a pure read:
// the token's TTL and value are left untouched.
func (g *Gate) CheckAccess(ctx context.Context, botID, token string) (bool, error) {
	bot, err := g.bots.GetBot(ctx, botID)
	if err != nil {
		return false, err
	}

	if !bot.RequiresPassword() {
		return true, nil
	}
	if token == "" || token == OpenToken {
		return false, nil
	}

	key := TokenKey(botID, token)
	data, err := g.cache.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read token: %w", err)
	}
	if data == nil {
		return false, nil
	}

	plaintext, err := g.encryptor.Open(string(data), []byte(key))
	if err != nil {
		log.Warn().Err(err).Str("bot_id", botID).Msg("undecryptable capability token treated as absent")
		return false, nil
	}

	var record tokenRecord
	if err := json.Unmarshal(plaintext, &record); err != nil {
		log.Warn().Err(err).Str("bot_id", botID).Msg("malformed capability token treated as absent")
		return false, nil
	}

	return record.BotID == botID, nil
}

// Revoke drops every token issued for a bot, e.g. after its secret rotates.
func (g *Gate) Revoke(ctx context.Context, botID string) (int64, error) {
	n, err := g.cache.DeletePattern(ctx, TokenKey(botID, "*"))
	if err != nil {
		return n, fmt.Errorf("failed to revoke tokens: %w", err)
	}
	log.Info().Str("bot_id", botID).Int64("revoked", n).Msg("capability tokens revoked")
	return n, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSecret returns the bcrypt hash stored in bot policy files.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}
