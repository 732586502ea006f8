package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// SessionStore persists finalized study session summaries.
// Summaries are append-only; daily totals are computed by summing them.
type SessionStore interface {
	// Create inserts one summary row.
	Create(ctx context.Context, summary *domain.SessionSummary) error

	// DailyStats sums every summary of the learner dated day.
	// A day without sessions yields zero totals, not an error.
	DailyStats(ctx context.Context, userID uuid.UUID, day time.Time) (domain.DailyStats, error)

	// SessionDates returns the distinct days with at least one summary,
	// newest first, no earlier than since.
	SessionDates(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)

	// WithTx returns a new SessionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) SessionStore
}

// SessionTallyStore holds the accumulators of in-progress study sessions.
// Implementations must be safe for concurrent use; increments on the same
// tally from concurrent requests must not be lost.
type SessionTallyStore interface {
	// Create stores a new, empty tally.
	Create(ctx context.Context, tally *domain.SessionTally) error

	// Get returns a snapshot of the tally.
	// Returns ErrSessionNotFound if it does not exist or has expired.
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.SessionTally, error)

	// Increment counts one review on the tally.
	// Returns ErrSessionNotFound if it does not exist or has expired.
	Increment(ctx context.Context, sessionID uuid.UUID, wasCorrect bool) error

	// Take atomically returns and removes the tally, so a session is
	// finalized at most once.
	// Returns ErrSessionNotFound if it does not exist or has expired.
	Take(ctx context.Context, sessionID uuid.UUID) (*domain.SessionTally, error)
}
