package list

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/generation-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/generation-service/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListRecent(ctx context.Context, userID string, limit int) ([]*models.Generation, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Generation), args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		userID         string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "recent generations",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("ListRecent", mock.Anything, "user-1", 5).Return([]*models.Generation{
					{ID: "b", UserID: "user-1", Status: models.StatusPending},
					{ID: "a", UserID: "user-1", Status: models.StatusFailed},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"generations":[{"id":"b"`,
		},
		{
			name:   "no generations renders empty list",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("ListRecent", mock.Anything, "user-1", 5).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"generations":[]}`,
		},
		{
			name:   "service error",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("ListRecent", mock.Anything, "user-1", 5).Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"failed to get generations"}`,
		},
		{
			name:           "no identity",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(logger, svc, 5)

			req := httptest.NewRequest(http.MethodGet, "/generations", nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
