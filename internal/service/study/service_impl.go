package study

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/platform/metrics"
	"github.com/phrazzld/scry-study/internal/store"
)

// Defaults applied by NewStudyService for zero Options fields
const (
	DefaultMaxDueLimit = 100
	streakLookbackDays = 366
	reviewWindowDays   = 7
)

// Options configures the study service.
type Options struct {
	// Location is the timezone that defines the learner's calendar day.
	// Defaults to UTC.
	Location *time.Location

	// MaxDueLimit is the largest accepted due selection limit.
	// Defaults to DefaultMaxDueLimit.
	MaxDueLimit int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Metrics receives scheduling and session instrumentation.
	// Defaults to the shared metrics.NewMetrics instance.
	Metrics *metrics.Metrics
}

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	cards      StudyCardRepository
	sessions   store.SessionStore
	tallies    store.SessionTallyStore
	srsService srs.Service
	location   *time.Location
	maxLimit   int
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewStudyService creates a new StudyService implementation.
func NewStudyService(
	cards StudyCardRepository,
	sessions store.SessionStore,
	tallies store.SessionTallyStore,
	srsService srs.Service,
	opts Options,
	logger *slog.Logger,
) StudyService {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if tallies == nil {
		panic("tallies cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxDueLimit <= 0 {
		opts.MaxDueLimit = DefaultMaxDueLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetrics()
	}

	return &studyServiceImpl{
		cards:      cards,
		sessions:   sessions,
		tallies:    tallies,
		srsService: srsService,
		location:   opts.Location,
		maxLimit:   opts.MaxDueLimit,
		now:        opts.Now,
		metrics:    opts.Metrics,
		logger:     logger.With(slog.String("component", "study_service")),
	}
}

// clock returns the current instant and the learner's calendar date.
func (s *studyServiceImpl) clock() (time.Time, time.Time) {
	now := s.now()
	return now, domain.CalendarDate(now.In(s.location))
}

// SelectDue implements StudyService.SelectDue.
func (s *studyServiceImpl) SelectDue(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.DueItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 || limit > s.maxLimit {
		log.Debug("due selection limit out of range",
			slog.String("user_id", userID.String()),
			slog.Int("limit", limit),
			slog.Int("max_limit", s.maxLimit))
		return nil, ErrInvalidLimit
	}

	_, today := s.clock()
	items, err := s.cards.ListDue(ctx, userID, today, limit)
	if err != nil {
		log.Error("failed to select due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError(OpSelectDue, "failed to list due cards", err)
	}
	if items == nil {
		items = []*domain.DueItem{}
	}

	s.metrics.RecordDueSelection(len(items))
	log.Debug("selected due cards",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)),
		slog.String("today", today.Format(time.DateOnly)))
	return items, nil
}

// Rate implements StudyService.Rate.
func (s *studyServiceImpl) Rate(
	ctx context.Context,
	userID, verseID uuid.UUID,
	rating domain.Rating,
	sessionID *uuid.UUID,
) (*domain.StudyCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !rating.Valid() {
		log.Debug("invalid rating",
			slog.String("user_id", userID.String()),
			slog.String("verse_id", verseID.String()),
			slog.String("rating", string(rating)))
		return nil, ErrInvalidRating
	}

	if sessionID != nil {
		if _, err := s.ownedTally(ctx, OpRate, userID, *sessionID); err != nil {
			return nil, err
		}
	}

	now, today := s.clock()

	var updated *domain.StudyCard
	err := store.RunInTransaction(ctx, s.cards.DB(), func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, userID, verseID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrCardNotFound
			}
			return NewServiceError(OpRate, "failed to load study card", err)
		}

		next, err := s.srsService.CalculateNextReview(card, rating, now, today)
		if err != nil {
			return NewServiceError(OpRate, "failed to schedule next review", err)
		}

		if err := cards.Update(ctx, next); err != nil {
			if store.IsNotFoundError(err) {
				return ErrCardNotFound
			}
			return NewServiceError(OpRate, "failed to save study card", err)
		}

		updated = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			log.Debug("verse not in deck",
				slog.String("user_id", userID.String()),
				slog.String("verse_id", verseID.String()))
			return nil, err
		}

		log.Error("failed to rate study card",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("verse_id", verseID.String()),
			slog.String("rating", string(rating)))
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			return nil, err
		}
		return nil, NewServiceError(OpRate, "transaction failed", err)
	}

	s.metrics.RecordReview(string(rating), updated.IntervalDays)

	// the schedule is committed; a lost tally increment only affects statistics
	if sessionID != nil {
		if err := s.tallies.Increment(ctx, *sessionID, rating.IsCorrect()); err != nil {
			s.metrics.TallyErrors.WithLabelValues("increment").Inc()
			log.Warn("failed to count review in session tally",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("session_id", sessionID.String()))
		}
	}

	log.Info("study card rated",
		slog.String("user_id", userID.String()),
		slog.String("verse_id", verseID.String()),
		slog.String("rating", string(rating)),
		slog.Float64("ease_factor", updated.EaseFactor),
		slog.Int("interval", updated.IntervalDays),
		slog.Int("repetitions", updated.Repetitions),
		slog.String("next_review_date", updated.NextReviewDate.Format(time.DateOnly)))
	return updated, nil
}

// AddToDeck implements StudyService.AddToDeck.
func (s *studyServiceImpl) AddToDeck(
	ctx context.Context,
	userID, verseID uuid.UUID,
) (*AddResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now, today := s.clock()

	card, err := domain.NewStudyCard(userID, verseID, today, now)
	if err != nil {
		return nil, err
	}

	err = s.cards.Create(ctx, card)
	switch {
	case err == nil:
		s.metrics.RecordCardsAdded("verse", 1)
		log.Info("verse added to study deck",
			slog.String("user_id", userID.String()),
			slog.String("verse_id", verseID.String()))
		return &AddResult{Card: card, Added: true}, nil

	case errors.Is(err, store.ErrStudyCardExists):
		existing, getErr := s.cards.Get(ctx, userID, verseID)
		if getErr != nil {
			log.Error("failed to load existing study card",
				slog.String("error", getErr.Error()),
				slog.String("user_id", userID.String()),
				slog.String("verse_id", verseID.String()))
			return nil, NewServiceError(OpAddToDeck, "failed to load existing study card", getErr)
		}
		log.Debug("verse already in study deck",
			slog.String("user_id", userID.String()),
			slog.String("verse_id", verseID.String()))
		return &AddResult{Card: existing, Added: false}, nil

	case errors.Is(err, store.ErrVerseNotFound):
		return nil, ErrVerseNotFound

	default:
		log.Error("failed to add verse to study deck",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("verse_id", verseID.String()))
		return nil, NewServiceError(OpAddToDeck, "failed to create study card", err)
	}
}

// AddChapterToDeck implements StudyService.AddChapterToDeck.
func (s *studyServiceImpl) AddChapterToDeck(
	ctx context.Context,
	userID, chapterID uuid.UUID,
) (ChapterAddResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now, today := s.clock()

	result, err := s.cards.AddChapter(ctx, userID, chapterID, today, now)
	if err != nil {
		log.Error("failed to add chapter to study deck",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("chapter_id", chapterID.String()))
		return ChapterAddResult{}, NewServiceError(OpAddChapterToDeck, "failed to create study cards", err)
	}

	if result.Added+result.AlreadyPresent == 0 {
		log.Debug("chapter has no verses",
			slog.String("user_id", userID.String()),
			slog.String("chapter_id", chapterID.String()))
		return ChapterAddResult{}, ErrChapterEmpty
	}

	s.metrics.RecordCardsAdded("chapter", result.Added)
	return result, nil
}

// StartSession implements StudyService.StartSession.
func (s *studyServiceImpl) StartSession(ctx context.Context, userID uuid.UUID) (*domain.SessionTally, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now, _ := s.clock()

	tally, err := domain.NewSessionTally(userID, now)
	if err != nil {
		return nil, err
	}

	if err := s.tallies.Create(ctx, tally); err != nil {
		log.Error("failed to start study session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError(OpStartSession, "failed to create session tally", err)
	}

	s.metrics.SessionsStarted.Inc()
	log.Info("study session started",
		slog.String("user_id", userID.String()),
		slog.String("session_id", tally.ID.String()))
	return tally, nil
}

// RecordReview implements StudyService.RecordReview.
func (s *studyServiceImpl) RecordReview(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	wasCorrect bool,
) error {
	if _, err := s.ownedTally(ctx, OpRecordReview, userID, sessionID); err != nil {
		return err
	}

	if err := s.tallies.Increment(ctx, sessionID, wasCorrect); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to record review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("session_id", sessionID.String()))
		return NewServiceError(OpRecordReview, "failed to update session tally", err)
	}
	return nil
}

// FinalizeSession implements StudyService.FinalizeSession.
func (s *studyServiceImpl) FinalizeSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	durationMinutes *int,
) (*domain.SessionSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if durationMinutes != nil && *durationMinutes < 0 {
		return nil, ErrInvalidDuration
	}

	if _, err := s.ownedTally(ctx, OpFinalizeSession, userID, sessionID); err != nil {
		return nil, err
	}

	tally, err := s.tallies.Take(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		log.Error("failed to take session tally",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, NewServiceError(OpFinalizeSession, "failed to take session tally", err)
	}

	now, today := s.clock()
	minutes := tally.ElapsedMinutes(now)
	if durationMinutes != nil {
		minutes = *durationMinutes
	}

	summary, err := tally.Summarize(minutes, today, now)
	if err != nil {
		return nil, NewServiceError(OpFinalizeSession, "invalid session summary", err)
	}

	if err := s.sessions.Create(ctx, summary); err != nil {
		log.Error("failed to save session summary; session counts are lost",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("session_id", sessionID.String()),
			slog.Int("cards_studied", summary.CardsStudied),
			slog.Int("cards_correct", summary.CardsCorrect))
		return nil, NewServiceError(OpFinalizeSession, "failed to save session summary", err)
	}

	s.metrics.RecordSessionFinalized(summary.CardsStudied)
	log.Info("study session finalized",
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID.String()),
		slog.Int("cards_studied", summary.CardsStudied),
		slog.Int("cards_correct", summary.CardsCorrect),
		slog.Int("duration_minutes", summary.DurationMinutes))
	return summary, nil
}

// DailyStats implements StudyService.DailyStats.
func (s *studyServiceImpl) DailyStats(ctx context.Context, userID uuid.UUID) (domain.DailyStats, error) {
	_, today := s.clock()

	stats, err := s.sessions.DailyStats(ctx, userID, today)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load daily stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return domain.DailyStats{}, NewServiceError(OpDailyStats, "failed to sum session summaries", err)
	}
	return stats, nil
}

// Progress implements StudyService.Progress.
func (s *studyServiceImpl) Progress(ctx context.Context, userID uuid.UUID) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	_, today := s.clock()

	fail := func(message string, err error) (*domain.Progress, error) {
		log.Error("failed to build study progress",
			slog.String("error", err.Error()),
			slog.String("step", message),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError(OpProgress, message, err)
	}

	total, err := s.cards.CountCards(ctx, userID)
	if err != nil {
		return fail("failed to count cards", err)
	}

	due, err := s.cards.CountDue(ctx, userID, today)
	if err != nil {
		return fail("failed to count due cards", err)
	}

	stats, err := s.sessions.DailyStats(ctx, userID, today)
	if err != nil {
		return fail("failed to sum session summaries", err)
	}

	// the week starts at local midnight six days ago
	windowStart := domain.AddDays(today, -(reviewWindowDays - 1))
	y, m, d := windowStart.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, s.location)
	reviewed, err := s.cards.CountReviewedSince(ctx, userID, since)
	if err != nil {
		return fail("failed to count reviewed cards", err)
	}

	dates, err := s.sessions.SessionDates(ctx, userID, domain.AddDays(today, -streakLookbackDays))
	if err != nil {
		return fail("failed to load session dates", err)
	}

	return &domain.Progress{
		TotalCards:       total,
		DueCards:         due,
		Today:            stats,
		AccuracyPercent:  stats.AccuracyPercent(),
		ReviewedThisWeek: reviewed,
		StreakDays:       domain.StreakDays(dates, today),
	}, nil
}

// ownedTally loads the session tally and checks it belongs to userID.
func (s *studyServiceImpl) ownedTally(
	ctx context.Context,
	operation string,
	userID, sessionID uuid.UUID,
) (*domain.SessionTally, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tally, err := s.tallies.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			log.Debug("study session not found",
				slog.String("operation", operation),
				slog.String("user_id", userID.String()),
				slog.String("session_id", sessionID.String()))
			return nil, ErrSessionNotFound
		}
		log.Error("failed to load session tally",
			slog.String("error", err.Error()),
			slog.String("operation", operation),
			slog.String("session_id", sessionID.String()))
		return nil, NewServiceError(operation, "failed to load session tally", err)
	}

	if tally.UserID != userID {
		log.Warn("user does not own study session",
			slog.String("operation", operation),
			slog.String("user_id", userID.String()),
			slog.String("session_id", sessionID.String()),
			slog.String("owner_id", tally.UserID.String()))
		return nil, ErrSessionNotOwned
	}

	return tally, nil
}
