package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/session/inmemory"
	redisstore "github.com/mohammad-safakhou/newsrag/session/redis"
)

// TTL is the sliding expiry of a session; every Append resets it.
const TTL = time.Hour

// Store persists the ordered turns of chat sessions.
type Store interface {
	// Append adds a turn to the end of the session and resets its expiry.
	Append(ctx context.Context, sessionID string, turn models.Turn) error
	// Read returns the session's turns oldest-first; unknown sessions read as empty.
	Read(ctx context.Context, sessionID string) ([]models.Turn, error)
	// Clear removes the session. Clearing an unknown session is not an error.
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// NewStore builds the store selected by cfg.Backend.
func NewStore(ctx context.Context, cfg config.SessionConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.SessionBackendRedis:
		s, err := redisstore.New(ctx, cfg.Redis, TTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SessionBackendMemory:
		return inmemory.New(TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}
