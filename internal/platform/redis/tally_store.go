// Package redis provides a Redis-backed store for in-progress study session
// tallies, letting several API instances share one set of open sessions.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces tally keys.
const DefaultKeyPrefix = "scry:session:"

// Hash fields of a tally key
const (
	fieldUserID    = "user_id"
	fieldStudied   = "studied"
	fieldCorrect   = "correct"
	fieldStartedAt = "started_at"
)

// incrementScript counts one review only if the tally still exists, so an
// expired session is never resurrected as a partial hash.
var incrementScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HINCRBY", KEYS[1], "studied", 1)
if ARGV[1] == "1" then
	redis.call("HINCRBY", KEYS[1], "correct", 1)
end
return 1
`)

// TallyStore implements store.SessionTallyStore on Redis hashes.
// Each tally lives under one key and expires ttl after it was created.
type TallyStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewTallyStore creates a Redis tally store.
// A non-positive ttl keeps tallies until they are taken.
func NewTallyStore(client goredis.UniversalClient, ttl time.Duration, logger *slog.Logger) *TallyStore {
	if client == nil {
		panic("redis client cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TallyStore{
		client: client,
		ttl:    ttl,
		prefix: DefaultKeyPrefix,
		logger: logger.With(slog.String("component", "redis_tally_store")),
	}
}

// Ensure TallyStore implements store.SessionTallyStore interface
var _ store.SessionTallyStore = (*TallyStore)(nil)

func (s *TallyStore) key(sessionID uuid.UUID) string {
	return s.prefix + sessionID.String()
}

// Create implements store.SessionTallyStore.Create
func (s *TallyStore) Create(ctx context.Context, tally *domain.SessionTally) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := s.key(tally.ID)

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, encodeTally(tally))
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create session tally",
			slog.String("error", err.Error()),
			slog.String("session_id", tally.ID.String()))
		return fmt.Errorf("%w: create tally: %w", store.ErrInternal, err)
	}

	log.Debug("session tally created",
		slog.String("session_id", tally.ID.String()),
		slog.String("user_id", tally.UserID.String()))
	return nil
}

// Get implements store.SessionTallyStore.Get
func (s *TallyStore) Get(ctx context.Context, sessionID uuid.UUID) (*domain.SessionTally, error) {
	fields, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, s.internal(ctx, "get", sessionID, err)
	}
	return decodeTally(sessionID, fields)
}

// Increment implements store.SessionTallyStore.Increment
func (s *TallyStore) Increment(ctx context.Context, sessionID uuid.UUID, wasCorrect bool) error {
	correct := "0"
	if wasCorrect {
		correct = "1"
	}

	found, err := incrementScript.Run(ctx, s.client, []string{s.key(sessionID)}, correct).Int()
	if err != nil {
		return s.internal(ctx, "increment", sessionID, err)
	}
	if found == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

// Take implements store.SessionTallyStore.Take
// HGETALL and DEL run in one MULTI block, so only one caller sees the fields.
func (s *TallyStore) Take(ctx context.Context, sessionID uuid.UUID) (*domain.SessionTally, error) {
	key := s.key(sessionID)

	var fields *goredis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, s.internal(ctx, "take", sessionID, err)
	}

	return decodeTally(sessionID, fields.Val())
}

// Ping checks connectivity to the Redis server.
func (s *TallyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *TallyStore) internal(ctx context.Context, op string, sessionID uuid.UUID, err error) error {
	logger.FromContextOrDefault(ctx, s.logger).Error("session tally operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.String("session_id", sessionID.String()))
	return fmt.Errorf("%w: %s tally: %w", store.ErrInternal, op, err)
}

func encodeTally(tally *domain.SessionTally) map[string]any {
	return map[string]any{
		fieldUserID:    tally.UserID.String(),
		fieldStudied:   tally.Studied,
		fieldCorrect:   tally.Correct,
		fieldStartedAt: tally.StartedAt.UTC().Format(time.RFC3339Nano),
	}
}

// decodeTally rebuilds a tally from its hash fields.
// An empty hash means the key does not exist.
func decodeTally(sessionID uuid.UUID, fields map[string]string) (*domain.SessionTally, error) {
	if len(fields) == 0 {
		return nil, store.ErrSessionNotFound
	}

	userID, err := uuid.Parse(fields[fieldUserID])
	if err != nil {
		return nil, corrupt(sessionID, fieldUserID, err)
	}
	studied, err := strconv.Atoi(fields[fieldStudied])
	if err != nil {
		return nil, corrupt(sessionID, fieldStudied, err)
	}
	correct, err := strconv.Atoi(fields[fieldCorrect])
	if err != nil {
		return nil, corrupt(sessionID, fieldCorrect, err)
	}
	startedAt, err := time.Parse(time.RFC3339Nano, fields[fieldStartedAt])
	if err != nil {
		return nil, corrupt(sessionID, fieldStartedAt, err)
	}

	return &domain.SessionTally{
		ID:        sessionID,
		UserID:    userID,
		Studied:   studied,
		Correct:   correct,
		StartedAt: startedAt,
	}, nil
}

func corrupt(sessionID uuid.UUID, field string, err error) error {
	return fmt.Errorf("%w: tally %s has malformed %s: %w", store.ErrInternal, sessionID, field, err)
}
