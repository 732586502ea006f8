package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/service/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStudyService is a mock implementation of study.StudyService
type MockStudyService struct {
	mock.Mock
}

func (m *MockStudyService) SelectDue(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.DueItem, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DueItem), args.Error(1)
}

func (m *MockStudyService) Rate(
	ctx context.Context,
	userID, verseID uuid.UUID,
	rating domain.Rating,
	sessionID *uuid.UUID,
) (*domain.StudyCard, error) {
	args := m.Called(ctx, userID, verseID, rating, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudyCard), args.Error(1)
}

func (m *MockStudyService) AddToDeck(ctx context.Context, userID, verseID uuid.UUID) (*study.AddResult, error) {
	args := m.Called(ctx, userID, verseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.AddResult), args.Error(1)
}

func (m *MockStudyService) AddChapterToDeck(
	ctx context.Context,
	userID, chapterID uuid.UUID,
) (study.ChapterAddResult, error) {
	args := m.Called(ctx, userID, chapterID)
	return args.Get(0).(study.ChapterAddResult), args.Error(1)
}

func (m *MockStudyService) StartSession(ctx context.Context, userID uuid.UUID) (*domain.SessionTally, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionTally), args.Error(1)
}

func (m *MockStudyService) RecordReview(ctx context.Context, userID, sessionID uuid.UUID, wasCorrect bool) error {
	args := m.Called(ctx, userID, sessionID, wasCorrect)
	return args.Error(0)
}

func (m *MockStudyService) FinalizeSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	durationMinutes *int,
) (*domain.SessionSummary, error) {
	args := m.Called(ctx, userID, sessionID, durationMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionSummary), args.Error(1)
}

func (m *MockStudyService) DailyStats(ctx context.Context, userID uuid.UUID) (domain.DailyStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.DailyStats), args.Error(1)
}

func (m *MockStudyService) Progress(ctx context.Context, userID uuid.UUID) (*domain.Progress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Progress), args.Error(1)
}

var _ study.StudyService = (*MockStudyService)(nil)

const testDefaultLimit = 20

// newTestRouter mounts the study routes under /api with an injected learner.
// A nil userID leaves the request unauthenticated.
func newTestRouter(t *testing.T, svc study.StudyService, userID *uuid.UUID) http.Handler {
	t.Helper()
	_, log := logger.NewTestLogger(t)
	handler := NewStudyHandler(svc, testDefaultLimit, log)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if userID != nil {
					req = req.WithContext(shared.WithUserID(req.Context(), *userID))
				}
				next.ServeHTTP(w, req)
			})
		})
		handler.RegisterRoutes(r)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestNewStudyHandler_Panics(t *testing.T) {
	_, log := logger.NewTestLogger(t)
	assert.Panics(t, func() { NewStudyHandler(nil, 20, log) })
	assert.Panics(t, func() { NewStudyHandler(&MockStudyService{}, 20, nil) })
	assert.Panics(t, func() { NewStudyHandler(&MockStudyService{}, 0, log) })
}

func TestGetDueItems(t *testing.T) {
	userID := uuid.New()

	t.Run("default limit", func(t *testing.T) {
		svc := &MockStudyService{}
		items := []*domain.DueItem{{CardID: uuid.New(), VerseID: uuid.New(), VerseNumber: 47}}
		svc.On("SelectDue", mock.Anything, userID, testDefaultLimit).Return(items, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodGet, "/api/study/due", "")

		require.Equal(t, http.StatusOK, rr.Code)
		var resp DueItemsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, 47, resp.Items[0].VerseNumber)
		svc.AssertExpectations(t)
	})

	t.Run("explicit limit and empty result", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("SelectDue", mock.Anything, userID, 5).Return([]*domain.DueItem{}, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodGet, "/api/study/due?limit=5", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"items":[],"count":0}`, rr.Body.String())
	})

	t.Run("non numeric limit", func(t *testing.T) {
		svc := &MockStudyService{}
		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodGet, "/api/study/due?limit=ten", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid limit", decodeError(t, rr).Error)
		svc.AssertNotCalled(t, "SelectDue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("limit out of range", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("SelectDue", mock.Anything, userID, 0).Return(nil, study.ErrInvalidLimit)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodGet, "/api/study/due?limit=0", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("storage failure is sanitized", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("SelectDue", mock.Anything, userID, testDefaultLimit).
			Return(nil, study.NewServiceError(study.OpSelectDue, "failed", errors.New("connection refused")))

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodGet, "/api/study/due", "")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to get due items", decodeError(t, rr).Error)
		assert.NotContains(t, rr.Body.String(), "connection refused")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := &MockStudyService{}
		rr := doRequest(t, newTestRouter(t, svc, nil), http.MethodGet, "/api/study/due", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRateItem(t *testing.T) {
	userID := uuid.New()
	verseID := uuid.New()
	path := "/api/study/items/" + verseID.String() + "/rating"

	t.Run("rating without session", func(t *testing.T) {
		svc := &MockStudyService{}
		card := &domain.StudyCard{
			ID:             uuid.New(),
			UserID:         userID,
			VerseID:        verseID,
			EaseFactor:     2.5,
			IntervalDays:   4,
			Repetitions:    1,
			NextReviewDate: time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		}
		svc.On("Rate", mock.Anything, userID, verseID, domain.RatingGood, (*uuid.UUID)(nil)).Return(card, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, `{"rating":"good"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, float64(4), resp["review_interval"])
		assert.Equal(t, float64(1), resp["repetitions"])
		svc.AssertExpectations(t)
	})

	t.Run("rating within session", func(t *testing.T) {
		svc := &MockStudyService{}
		sessionID := uuid.New()
		svc.On("Rate", mock.Anything, userID, verseID, domain.RatingAgain,
			mock.MatchedBy(func(id *uuid.UUID) bool { return id != nil && *id == sessionID })).
			Return(&domain.StudyCard{IntervalDays: 1}, nil)

		body := `{"rating":"again","session_id":"` + sessionID.String() + `"}`
		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, body)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name            string
		path            string
		body            string
		expectedMessage string
	}{
		{
			name:            "unknown rating",
			path:            path,
			body:            `{"rating":"perfect"}`,
			expectedMessage: "Invalid rating: invalid value",
		},
		{
			name:            "missing rating",
			path:            path,
			body:            `{}`,
			expectedMessage: "Invalid rating: required field",
		},
		{
			name:            "malformed session id",
			path:            path,
			body:            `{"rating":"good","session_id":"abc"}`,
			expectedMessage: "Invalid session_id: invalid ID format",
		},
		{
			name:            "malformed body",
			path:            path,
			body:            `{"rating":`,
			expectedMessage: "Invalid request format",
		},
		{
			name:            "malformed verse id",
			path:            "/api/study/items/not-a-uuid/rating",
			body:            `{"rating":"good"}`,
			expectedMessage: "Invalid verseID",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &MockStudyService{}
			rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, tc.path, tc.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.expectedMessage, decodeError(t, rr).Error)
			svc.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	serviceErrors := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "not in deck", err: study.ErrCardNotFound, expectedStatus: http.StatusNotFound},
		{name: "session expired", err: study.ErrSessionNotFound, expectedStatus: http.StatusNotFound},
		{name: "session of another learner", err: study.ErrSessionNotOwned, expectedStatus: http.StatusForbidden},
		{
			name:           "storage failure",
			err:            study.NewServiceError(study.OpRate, "failed", errors.New("deadlock detected")),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range serviceErrors {
		t.Run(tc.name, func(t *testing.T) {
			svc := &MockStudyService{}
			svc.On("Rate", mock.Anything, userID, verseID, domain.RatingHard, mock.Anything).Return(nil, tc.err)

			rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, `{"rating":"hard"}`)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.NotEmpty(t, decodeError(t, rr).Error)
		})
	}
}

func TestAddToDeck(t *testing.T) {
	userID := uuid.New()
	verseID := uuid.New()
	path := "/api/study/items/" + verseID.String()

	t.Run("new card", func(t *testing.T) {
		svc := &MockStudyService{}
		card := &domain.StudyCard{ID: uuid.New(), UserID: userID, VerseID: verseID, IntervalDays: 1}
		svc.On("AddToDeck", mock.Anything, userID, verseID).Return(&study.AddResult{Card: card, Added: true}, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, "")

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp AddToDeckResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Added)
		assert.Equal(t, card.ID, resp.Card.ID)
	})

	t.Run("already in deck", func(t *testing.T) {
		svc := &MockStudyService{}
		card := &domain.StudyCard{ID: uuid.New(), UserID: userID, VerseID: verseID, IntervalDays: 9}
		svc.On("AddToDeck", mock.Anything, userID, verseID).Return(&study.AddResult{Card: card}, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, "")

		require.Equal(t, http.StatusOK, rr.Code)
		var resp AddToDeckResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Added)
		assert.Equal(t, 9, resp.Card.IntervalDays)
	})

	t.Run("unknown verse", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("AddToDeck", mock.Anything, userID, verseID).Return(nil, study.ErrVerseNotFound)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Verse not found", decodeError(t, rr).Error)
	})
}

func TestAddChapterToDeck(t *testing.T) {
	userID := uuid.New()
	chapterID := uuid.New()
	path := "/api/study/chapters/" + chapterID.String()

	t.Run("counts", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("AddChapterToDeck", mock.Anything, userID, chapterID).
			Return(study.ChapterAddResult{Added: 40, AlreadyPresent: 7}, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"added":40,"already_present":7}`, rr.Body.String())
	})

	t.Run("empty chapter", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("AddChapterToDeck", mock.Anything, userID, chapterID).
			Return(study.ChapterAddResult{}, study.ErrChapterEmpty)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestSessionEndpoints(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	startedAt := time.Date(2026, 4, 10, 19, 45, 0, 0, time.UTC)

	t.Run("start", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("StartSession", mock.Anything, userID).
			Return(&domain.SessionTally{ID: sessionID, UserID: userID, StartedAt: startedAt}, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, "/api/study/sessions", "")

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, sessionID.String(), resp.ID)
		assert.True(t, startedAt.Equal(resp.StartedAt))
	})

	t.Run("record review", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("RecordReview", mock.Anything, userID, sessionID, false).Return(nil)

		path := "/api/study/sessions/" + sessionID.String() + "/reviews"
		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, `{"was_correct":false}`)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("record review requires outcome", func(t *testing.T) {
		svc := &MockStudyService{}
		path := "/api/study/sessions/" + sessionID.String() + "/reviews"
		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, path, `{}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	finalizePath := "/api/study/sessions/" + sessionID.String() + "/finalize"

	t.Run("finalize with derived duration", func(t *testing.T) {
		svc := &MockStudyService{}
		summary := &domain.SessionSummary{ID: uuid.New(), UserID: userID, CardsStudied: 3, CardsCorrect: 2, DurationMinutes: 15}
		svc.On("FinalizeSession", mock.Anything, userID, sessionID, (*int)(nil)).Return(summary, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, finalizePath, "")

		require.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, float64(15), resp["session_duration_minutes"])
		svc.AssertExpectations(t)
	})

	t.Run("finalize with explicit duration", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("FinalizeSession", mock.Anything, userID, sessionID,
			mock.MatchedBy(func(d *int) bool { return d != nil && *d == 0 })).
			Return(&domain.SessionSummary{ID: uuid.New(), UserID: userID}, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, finalizePath, `{"duration_minutes":0}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	finalizeErrors := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "negative duration", err: study.ErrInvalidDuration, expectedStatus: http.StatusBadRequest},
		{name: "unknown session", err: study.ErrSessionNotFound, expectedStatus: http.StatusNotFound},
		{name: "another learner", err: study.ErrSessionNotOwned, expectedStatus: http.StatusForbidden},
	}
	for _, tc := range finalizeErrors {
		t.Run("finalize "+tc.name, func(t *testing.T) {
			svc := &MockStudyService{}
			svc.On("FinalizeSession", mock.Anything, userID, sessionID, mock.Anything).Return(nil, tc.err)

			rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodPost, finalizePath, `{"duration_minutes":-1}`)
			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}
}

func TestGetDailyStats(t *testing.T) {
	userID := uuid.New()
	svc := &MockStudyService{}
	svc.On("DailyStats", mock.Anything, userID).Return(domain.DailyStats{
		Date:          time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC),
		CardsStudied:  12,
		CardsCorrect:  9,
		Minutes:       25,
		SessionsCount: 2,
	}, nil)

	rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodGet, "/api/study/stats/today", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"date":"2026-04-11","cards_studied":12,"cards_correct":9,"minutes":25,"sessions":2,"accuracy_percent":75}`,
		rr.Body.String())
}

func TestGetProgress(t *testing.T) {
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("Progress", mock.Anything, userID).Return(&domain.Progress{
			TotalCards:       47,
			DueCards:         12,
			AccuracyPercent:  75,
			ReviewedThisWeek: 63,
			StreakDays:       2,
		}, nil)

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodGet, "/api/study/progress", "")

		require.Equal(t, http.StatusOK, rr.Code)
		var resp domain.Progress
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 47, resp.TotalCards)
		assert.Equal(t, 2, resp.StreakDays)
	})

	t.Run("failure", func(t *testing.T) {
		svc := &MockStudyService{}
		svc.On("Progress", mock.Anything, userID).Return(nil, errors.New("timeout"))

		rr := doRequest(t, newTestRouter(t, svc, &userID), http.MethodGet, "/api/study/progress", "")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to get study progress", decodeError(t, rr).Error)
	})
}
