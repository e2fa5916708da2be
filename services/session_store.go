package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"movewell-assistant/models"
	"movewell-assistant/utils"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps sessions between requests. Get returns a private copy:
// changes are only visible to others after Save.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
}

// MemorySessionStore holds sessions in process memory and expires them after
// the configured TTL of inactivity.
type MemorySessionStore struct {
	cache *cache.Cache
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{cache: cache.New(ttl, ttl/2+time.Minute)}
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	raw, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return decodeSession(raw.([]byte))
}

func (m *MemorySessionStore) Save(_ context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.cache.Set(session.ID, data, cache.DefaultExpiration)
	return nil
}

// RedisSessionStore shares sessions between replicas. Every save refreshes
// the key's TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decodeSession(data)
}

func (r *RedisSessionStore) Save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()
	if err := r.client.Set(ctx, sessionKey(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func decodeSession(data []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
