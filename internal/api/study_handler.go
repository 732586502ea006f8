package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/redact"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// StudyHandler handles study-related HTTP requests
type StudyHandler struct {
	studyService study.StudyService
	defaultLimit int
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
// defaultLimit is used by GET /study/due when no limit is given.
func NewStudyHandler(studyService study.StudyService, defaultLimit int, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("studyService cannot be nil for StudyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}
	if defaultLimit <= 0 {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("defaultLimit must be positive for StudyHandler")
	}

	return &StudyHandler{
		studyService: studyService,
		defaultLimit: defaultLimit,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// RegisterRoutes mounts the study routes on r. Authentication is applied by the caller.
func (h *StudyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/study", func(r chi.Router) {
		r.Get("/due", h.GetDueItems)
		r.Post("/items/{verseID}", h.AddToDeck)
		r.Post("/items/{verseID}/rating", h.RateItem)
		r.Post("/chapters/{chapterID}", h.AddChapterToDeck)
		r.Post("/sessions", h.StartSession)
		r.Post("/sessions/{sessionID}/reviews", h.RecordReview)
		r.Post("/sessions/{sessionID}/finalize", h.FinalizeSession)
		r.Get("/stats/today", h.GetDailyStats)
		r.Get("/progress", h.GetProgress)
	})
}

// GetDueItems handles GET /study/due?limit=N requests.
// It returns the learner's due cards, most overdue first.
func (h *StudyHandler) GetDueItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	limit, err := parseLimit(r, h.defaultLimit)
	if err != nil {
		log.Debug("invalid limit parameter", slog.String("limit", r.URL.Query().Get("limit")))
		HandleAPIError(w, r, err, "")
		return
	}

	items, err := h.studyService.SelectDue(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get due items")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DueItemsResponse{Items: items, Count: len(items)})
}

// RateItem handles POST /study/items/{verseID}/rating requests.
// It applies the rating to the learner's card and returns the new schedule.
func (h *StudyHandler) RateItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, verseID, ok := handleUserIDAndPathUUID(w, r, "verseID", log)
	if !ok {
		return
	}

	var req RateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	var sessionID *uuid.UUID
	if req.SessionID != nil {
		id := uuid.MustParse(*req.SessionID) // validated above
		sessionID = &id
	}

	card, err := h.studyService.Rate(r.Context(), userID, verseID, domain.Rating(req.Rating), sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to rate item")
		return
	}

	log.Debug("item rated",
		slog.String("verse_id", verseID.String()),
		slog.String("rating", req.Rating),
		slog.Int("interval_days", card.IntervalDays))
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// AddToDeck handles POST /study/items/{verseID} requests.
// It responds 201 when a card was created and 200 when the verse was already in the deck.
func (h *StudyHandler) AddToDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, verseID, ok := handleUserIDAndPathUUID(w, r, "verseID", log)
	if !ok {
		return
	}

	result, err := h.studyService.AddToDeck(r.Context(), userID, verseID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add verse to deck")
		return
	}

	status := http.StatusOK
	if result.Added {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, AddToDeckResponse{Card: result.Card, Added: result.Added})
}

// AddChapterToDeck handles POST /study/chapters/{chapterID} requests.
func (h *StudyHandler) AddChapterToDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, chapterID, ok := handleUserIDAndPathUUID(w, r, "chapterID", log)
	if !ok {
		return
	}

	result, err := h.studyService.AddChapterToDeck(r.Context(), userID, chapterID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add chapter to deck")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// StartSession handles POST /study/sessions requests.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	tally, err := h.studyService.StartSession(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(tally))
}

// RecordReview handles POST /study/sessions/{sessionID}/reviews requests.
// It counts a review in the session without touching any card schedule.
func (h *StudyHandler) RecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	var req RecordReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	if err := h.studyService.RecordReview(r.Context(), userID, sessionID, *req.WasCorrect); err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FinalizeSession handles POST /study/sessions/{sessionID}/finalize requests.
// The body is optional; without a duration it is derived from the session start.
func (h *StudyHandler) FinalizeSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "sessionID", log)
	if !ok {
		return
	}

	var req FinalizeSessionRequest
	if err := shared.DecodeOptionalJSON(r, &req); err != nil {
		log.Debug("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	summary, err := h.studyService.FinalizeSession(r.Context(), userID, sessionID, req.DurationMinutes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to finalize study session")
		return
	}

	log.Debug("study session finalized",
		slog.String("session_id", sessionID.String()),
		slog.Int("cards_studied", summary.CardsStudied))
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// GetDailyStats handles GET /study/stats/today requests.
func (h *StudyHandler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.studyService.DailyStats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get daily stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, dailyStatsToResponse(stats))
}

// GetProgress handles GET /study/progress requests.
func (h *StudyHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	progress, err := h.studyService.Progress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get study progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}
