package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// studyCardEntity names study cards in store errors.
const studyCardEntity = "study_card"

const studyCardColumns = `id, user_id, verse_id, ease_factor, review_interval, repetitions,
		next_review_date, last_reviewed_at, created_at, updated_at`

// PostgresStudyCardStore implements the store.StudyCardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStudyCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudyCardStore creates a new PostgreSQL implementation of the StudyCardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresStudyCardStore(db store.DBTX, logger *slog.Logger) *PostgresStudyCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStudyCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "study_card_store")),
	}
}

// Ensure PostgresStudyCardStore implements store.StudyCardStore interface
var _ store.StudyCardStore = (*PostgresStudyCardStore)(nil)

// dateParam formats a calendar date for a DATE column so the database never
// reinterprets it in its own time zone.
func dateParam(t time.Time) string {
	return domain.CalendarDate(t).Format(time.DateOnly)
}

// Create implements store.StudyCardStore.Create
func (s *PostgresStudyCardStore) Create(ctx context.Context, card *domain.StudyCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("study card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("verse_id", card.VerseID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO study_cards (` + studyCardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.UserID,
		card.VerseID,
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		dateParam(card.NextReviewDate),
		nullTime(card.LastReviewedAt),
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			log.Debug("verse already in study deck",
				slog.String("user_id", card.UserID.String()),
				slog.String("verse_id", card.VerseID.String()))
			return store.ErrStudyCardExists
		case IsForeignKeyViolation(err):
			log.Warn("study card references unknown verse",
				slog.String("verse_id", card.VerseID.String()))
			return store.ErrVerseNotFound
		}

		log.Error("failed to create study card",
			slog.String("error", err.Error()),
			slog.String("user_id", card.UserID.String()),
			slog.String("verse_id", card.VerseID.String()))
		return store.NewStoreError(studyCardEntity, "create", "insert failed", MapError(err))
	}

	log.Info("study card created",
		slog.String("card_id", card.ID.String()),
		slog.String("user_id", card.UserID.String()),
		slog.String("verse_id", card.VerseID.String()))
	return nil
}

// Get implements store.StudyCardStore.Get
func (s *PostgresStudyCardStore) Get(ctx context.Context, userID, verseID uuid.UUID) (*domain.StudyCard, error) {
	return s.get(ctx, userID, verseID, false)
}

// GetForUpdate implements store.StudyCardStore.GetForUpdate
func (s *PostgresStudyCardStore) GetForUpdate(
	ctx context.Context,
	userID, verseID uuid.UUID,
) (*domain.StudyCard, error) {
	return s.get(ctx, userID, verseID, true)
}

func (s *PostgresStudyCardStore) get(
	ctx context.Context,
	userID, verseID uuid.UUID,
	forUpdate bool,
) (*domain.StudyCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + studyCardColumns + `
		FROM study_cards
		WHERE user_id = $1 AND verse_id = $2
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	card, err := scanStudyCard(s.db.QueryRowContext(ctx, query, userID, verseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("study card not found",
				slog.String("user_id", userID.String()),
				slog.String("verse_id", verseID.String()))
			return nil, store.ErrStudyCardNotFound
		}
		log.Error("failed to get study card",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("verse_id", verseID.String()),
			slog.Bool("for_update", forUpdate))
		return nil, store.NewStoreError(studyCardEntity, "get", "select failed", MapError(err))
	}

	return card, nil
}

// Update implements store.StudyCardStore.Update
func (s *PostgresStudyCardStore) Update(ctx context.Context, card *domain.StudyCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("study card validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE study_cards
		SET ease_factor = $1,
			review_interval = $2,
			repetitions = $3,
			next_review_date = $4::date,
			last_reviewed_at = $5,
			updated_at = $6
		WHERE user_id = $7 AND verse_id = $8
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		dateParam(card.NextReviewDate),
		nullTime(card.LastReviewedAt),
		card.UpdatedAt,
		card.UserID,
		card.VerseID,
	)
	if err != nil {
		log.Error("failed to update study card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return store.NewStoreError(studyCardEntity, "update", "update failed", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrStudyCardNotFound); err != nil {
		log.Debug("study card not found for update",
			slog.String("user_id", card.UserID.String()),
			slog.String("verse_id", card.VerseID.String()))
		return err
	}

	log.Debug("study card updated",
		slog.String("card_id", card.ID.String()),
		slog.Int("review_interval", card.IntervalDays),
		slog.Float64("ease_factor", card.EaseFactor),
		slog.Int("repetitions", card.Repetitions))
	return nil
}

// ListDue implements store.StudyCardStore.ListDue
func (s *PostgresStudyCardStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	today time.Time,
	limit int,
) ([]*domain.DueItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT sc.id, sc.verse_id, v.verse_number, v.sanskrit_text, v.transliteration,
			v.english_translation, ch.chapter_number, ch.chapter_title, ch.scripture_name,
			sc.ease_factor, sc.review_interval, sc.repetitions, sc.next_review_date
		FROM study_cards sc
		JOIN verses v ON v.id = sc.verse_id
		JOIN scripture_chapters ch ON ch.id = v.chapter_id
		WHERE sc.user_id = $1 AND sc.next_review_date <= $2::date
		ORDER BY sc.next_review_date ASC, sc.created_at ASC, sc.verse_id ASC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, dateParam(today), limit)
	if err != nil {
		log.Error("failed to query due study cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError(studyCardEntity, "select_due", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	items := make([]*domain.DueItem, 0, limit)
	for rows.Next() {
		var item domain.DueItem
		if err := rows.Scan(
			&item.CardID,
			&item.VerseID,
			&item.VerseNumber,
			&item.SanskritText,
			&item.Transliteration,
			&item.EnglishTranslation,
			&item.ChapterNumber,
			&item.ChapterTitle,
			&item.ScriptureName,
			&item.EaseFactor,
			&item.IntervalDays,
			&item.Repetitions,
			&item.NextReviewDate,
		); err != nil {
			log.Error("failed to scan due study card",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, store.NewStoreError(studyCardEntity, "select_due", "scan failed", MapError(err))
		}
		item.NextReviewDate = domain.CalendarDate(item.NextReviewDate)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating due study cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError(studyCardEntity, "select_due", "row iteration failed", MapError(err))
	}

	log.Debug("selected due study cards",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)),
		slog.Int("limit", limit))
	return items, nil
}

// CountCards implements store.StudyCardStore.CountCards
func (s *PostgresStudyCardStore) CountCards(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.count(ctx, "count_cards",
		`SELECT COUNT(*) FROM study_cards WHERE user_id = $1`, userID)
}

// CountDue implements store.StudyCardStore.CountDue
func (s *PostgresStudyCardStore) CountDue(ctx context.Context, userID uuid.UUID, today time.Time) (int, error) {
	return s.count(ctx, "count_due",
		`SELECT COUNT(*) FROM study_cards WHERE user_id = $1 AND next_review_date <= $2::date`,
		userID, dateParam(today))
}

// CountReviewedSince implements store.StudyCardStore.CountReviewedSince
func (s *PostgresStudyCardStore) CountReviewedSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) (int, error) {
	return s.count(ctx, "count_reviewed_since",
		`SELECT COUNT(*) FROM study_cards WHERE user_id = $1 AND last_reviewed_at >= $2`,
		userID, since.UTC())
}

func (s *PostgresStudyCardStore) count(ctx context.Context, operation, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count study cards",
			slog.String("error", err.Error()),
			slog.String("operation", operation))
		return 0, store.NewStoreError(studyCardEntity, operation, "count failed", MapError(err))
	}
	return n, nil
}

// AddChapter implements store.StudyCardStore.AddChapter
// The verse count and the insert run in one statement so both see the same snapshot.
func (s *PostgresStudyCardStore) AddChapter(
	ctx context.Context,
	userID, chapterID uuid.UUID,
	today, now time.Time,
) (store.ChapterAddResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		WITH chapter_verses AS (
			SELECT id FROM verses WHERE chapter_id = $2
		), inserted AS (
			INSERT INTO study_cards (id, user_id, verse_id, ease_factor, review_interval,
				repetitions, next_review_date, created_at, updated_at)
			SELECT gen_random_uuid(), $1::uuid, cv.id, $3::numeric, $4::integer, 0, $5::date,
				$6::timestamptz, $6::timestamptz
			FROM chapter_verses cv
			ON CONFLICT (user_id, verse_id) DO NOTHING
			RETURNING 1
		)
		SELECT (SELECT COUNT(*) FROM chapter_verses), (SELECT COUNT(*) FROM inserted)
	`
	var total, added int
	err := s.db.QueryRowContext(
		ctx,
		query,
		userID,
		chapterID,
		domain.DefaultEaseFactor,
		domain.DefaultIntervalDays,
		dateParam(today),
		now.UTC(),
	).Scan(&total, &added)
	if err != nil {
		log.Error("failed to add chapter to study deck",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("chapter_id", chapterID.String()))
		return store.ChapterAddResult{}, store.NewStoreError(studyCardEntity, "add_chapter", "insert failed", MapError(err))
	}

	result := store.ChapterAddResult{Added: added, AlreadyPresent: total - added}
	log.Info("chapter added to study deck",
		slog.String("user_id", userID.String()),
		slog.String("chapter_id", chapterID.String()),
		slog.Int("added", result.Added),
		slog.Int("already_present", result.AlreadyPresent))
	return result, nil
}

// WithTx implements store.StudyCardStore.WithTx
func (s *PostgresStudyCardStore) WithTx(tx *sql.Tx) store.StudyCardStore {
	return &PostgresStudyCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudyCard(row rowScanner) (*domain.StudyCard, error) {
	var card domain.StudyCard
	var lastReviewed sql.NullTime

	if err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.VerseID,
		&card.EaseFactor,
		&card.IntervalDays,
		&card.Repetitions,
		&card.NextReviewDate,
		&lastReviewed,
		&card.CreatedAt,
		&card.UpdatedAt,
	); err != nil {
		return nil, err
	}

	card.NextReviewDate = domain.CalendarDate(card.NextReviewDate)
	if lastReviewed.Valid {
		t := lastReviewed.Time.UTC()
		card.LastReviewedAt = &t
	}
	return &card, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
