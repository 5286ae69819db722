// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	xerrors "referral-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// Data is the server-side record behind an issued token. Redis is the single
// source of truth for session liveness; revoking the record invalidates the
// token before its expiry.
type Data struct {
	JTI        string    `json:"jti"`
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	LoginAt    time.Time `json:"login_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// Create stores a new session in Redis with a TTL matching the token expiry.
func (m *Manager) Create(ctx context.Context, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(data.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	if err := m.client.Set(ctx, m.key(data.IdentityID, data.JTI), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// Get retrieves a live session or ErrSessionExpired if it was revoked or
// timed out.
func (m *Manager) Get(ctx context.Context, identityID, jti string) (*Data, error) {
	raw, err := m.client.Get(ctx, m.key(identityID, jti)).Bytes()
	if err == redis.Nil {
		return nil, xerrors.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &data, nil
}

// Revoke deletes the session, signing the holder out.
func (m *Manager) Revoke(ctx context.Context, identityID, jti string) error {
	if err := m.client.Del(ctx, m.key(identityID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (m *Manager) key(identityID, jti string) string {
	return fmt.Sprintf("session:%s:%s", identityID, jti)
}
