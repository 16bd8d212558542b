package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/p-sear/p-sear-backend/internal/app"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

func TestHandleAdminRooms(t *testing.T) {
	t.Parallel()

	room := domain.Room{
		ID:          "room-1",
		Name:        "Suite",
		MaxCapacity: 2,
		CheckIn:     "15:00",
		CheckOut:    "11:00",
	}

	tests := []struct {
		name           string
		method         string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "list rooms",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"name":"Suite"`,
		},
		{
			name:           "create room",
			method:         http.MethodPost,
			body:           `{"name":"Suite","max_capacity":2}`,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"check_in":"15:00"`,
		},
		{
			name:           "malformed body",
			method:         http.MethodPost,
			body:           "{",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			method:         http.MethodPost,
			body:           `{"max_capacity":2}`,
			serviceErr:     domain.ErrRoomNameRequired,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: "room_name_required",
		},
		{
			name:           "invalid check time",
			method:         http.MethodPost,
			body:           `{"name":"Suite","max_capacity":2,"check_in":"25:00"}`,
			serviceErr:     domain.ErrInvalidCheckTime,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "method not allowed",
			method:         http.MethodDelete,
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubAdminRoomService{room: room, err: tt.serviceErr}

			req := httptest.NewRequest(tt.method, "/admin/rooms", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			HandleAdminRooms(svc).ServeHTTP(rec, req)

			res := rec.Result()
			if res.StatusCode != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, res.StatusCode, rec.Body.String())
			}
			if tt.expectedSubstr != "" {
				body := rec.Body.String()
				if !strings.Contains(body, tt.expectedSubstr) {
					t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, body)
				}
			}
		})
	}
}

type stubAdminRoomService struct {
	room domain.Room
	err  error
}

func (s *stubAdminRoomService) CreateRoom(_ context.Context, _ app.CreateRoomInput) (domain.Room, error) {
	if s.err != nil {
		return domain.Room{}, s.err
	}
	return s.room, nil
}

func (s *stubAdminRoomService) ListRooms(_ context.Context) ([]domain.Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Room{s.room}, nil
}
