package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// studySessionEntity names session summaries in store errors.
const studySessionEntity = "study_session"

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, summary *domain.SessionSummary) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := summary.Validate(); err != nil {
		log.Warn("session summary validation failed",
			slog.String("error", err.Error()),
			slog.String("session_id", summary.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO study_sessions (id, user_id, cards_studied, cards_correct,
			session_duration_minutes, session_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		summary.ID,
		summary.UserID,
		summary.CardsStudied,
		summary.CardsCorrect,
		summary.DurationMinutes,
		dateParam(summary.SessionDate),
		summary.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create session summary",
			slog.String("error", err.Error()),
			slog.String("session_id", summary.ID.String()),
			slog.String("user_id", summary.UserID.String()))
		return store.NewStoreError(studySessionEntity, "create", "insert failed", MapError(err))
	}

	log.Info("session summary saved",
		slog.String("session_id", summary.ID.String()),
		slog.String("user_id", summary.UserID.String()),
		slog.Int("cards_studied", summary.CardsStudied),
		slog.Int("cards_correct", summary.CardsCorrect),
		slog.Int("duration_minutes", summary.DurationMinutes))
	return nil
}

// DailyStats implements store.SessionStore.DailyStats
func (s *PostgresSessionStore) DailyStats(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
) (domain.DailyStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(SUM(cards_studied), 0),
			COALESCE(SUM(cards_correct), 0),
			COALESCE(SUM(session_duration_minutes), 0),
			COUNT(*)
		FROM study_sessions
		WHERE user_id = $1 AND session_date = $2::date
	`
	stats := domain.DailyStats{Date: domain.CalendarDate(day)}
	err := s.db.QueryRowContext(ctx, query, userID, dateParam(day)).Scan(
		&stats.CardsStudied,
		&stats.CardsCorrect,
		&stats.Minutes,
		&stats.SessionsCount,
	)
	if err != nil {
		log.Error("failed to sum daily session stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return domain.DailyStats{}, store.NewStoreError(studySessionEntity, "daily_stats", "query failed", MapError(err))
	}

	return stats, nil
}

// SessionDates implements store.SessionStore.SessionDates
func (s *PostgresSessionStore) SessionDates(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]time.Time, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT DISTINCT session_date
		FROM study_sessions
		WHERE user_id = $1 AND session_date >= $2::date
		ORDER BY session_date DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, dateParam(since))
	if err != nil {
		log.Error("failed to query session dates",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError(studySessionEntity, "session_dates", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, store.NewStoreError(studySessionEntity, "session_dates", "scan failed", MapError(err))
		}
		dates = append(dates, domain.CalendarDate(d))
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating session dates",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError(studySessionEntity, "session_dates", "row iteration failed", MapError(err))
	}

	return dates, nil
}

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}
