package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/p-sear/p-sear-backend/internal/app"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

func TestHandleReservations_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reservation := domain.Reservation{
		ID:          "res-1",
		MerchantUID: "merchant-1",
		RoomID:      "3b8f1c52-1f4e-4a7e-9a57-2f1f6f2a9c01",
		UserID:      "user-1",
		Price:       10000,
		StartAt:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Status:      domain.StatusCreated,
		CreatedAt:   now,
	}

	validBody := `{"room_id":"3b8f1c52-1f4e-4a7e-9a57-2f1f6f2a9c01","price":10000,"start_at":"2025-06-10","end_at":"2025-06-12"}`

	tests := []struct {
		name           string
		method         string
		body           string
		userID         string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "created",
			method:         http.MethodPost,
			body:           validBody,
			userID:         "user-1",
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"status":"CREATED"`,
		},
		{
			name:           "missing user header",
			method:         http.MethodPost,
			body:           validBody,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: "user_id_required",
		},
		{
			name:           "malformed body",
			method:         http.MethodPost,
			body:           "{",
			userID:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "room id not a uuid",
			method:         http.MethodPost,
			body:           `{"room_id":"room-1","price":10000,"start_at":"2025-06-10","end_at":"2025-06-12"}`,
			userID:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad date format",
			method:         http.MethodPost,
			body:           `{"room_id":"3b8f1c52-1f4e-4a7e-9a57-2f1f6f2a9c01","price":10000,"start_at":"June 10","end_at":"2025-06-12"}`,
			userID:         "user-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "past date",
			method:         http.MethodPost,
			body:           validBody,
			userID:         "user-1",
			serviceErr:     domain.ErrPastDate,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: "past_date",
		},
		{
			name:           "capacity exceeded",
			method:         http.MethodPost,
			body:           validBody,
			userID:         "user-1",
			serviceErr:     domain.ErrCapacityExceeded,
			expectedStatus: http.StatusConflict,
			expectedSubstr: "capacity_exceeded",
		},
		{
			name:           "room not found",
			method:         http.MethodPost,
			body:           validBody,
			userID:         "user-1",
			serviceErr:     domain.ErrRoomNotFound,
			expectedStatus: http.StatusNotFound,
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
			svc := &stubReservationCollection{
				reservation: reservation,
				err:         tt.serviceErr,
			}

			req := httptest.NewRequest(tt.method, "/reservations", strings.NewReader(tt.body))
			if tt.userID != "" {
				req.Header.Set(userIDHeader, tt.userID)
			}
			rec := httptest.NewRecorder()

			HandleReservations(svc, validator.New()).ServeHTTP(rec, req)

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
			if tt.expectedStatus == http.StatusCreated {
				if loc := res.Header.Get("Location"); loc != "/reservations/res-1" {
					t.Fatalf("expected Location header, got %q", loc)
				}
				if svc.got.UserID != "user-1" {
					t.Fatalf("expected user id from header, got %q", svc.got.UserID)
				}
			}
		})
	}
}

func TestHandleReservations_GetByMerchantUID(t *testing.T) {
	t.Parallel()

	reservation := domain.Reservation{
		ID:          "res-1",
		MerchantUID: "merchant-1",
		RoomID:      "room-1",
		UserID:      "user-1",
		Price:       10000,
		StartAt:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Status:      domain.StatusCreated,
	}

	t.Run("found", func(t *testing.T) {
		svc := &stubReservationCollection{reservation: reservation}
		req := httptest.NewRequest(http.MethodGet, "/reservations?merchant_uid=merchant-1", nil)
		rec := httptest.NewRecorder()

		HandleReservations(svc, validator.New()).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"merchant_uid":"merchant-1"`) {
			t.Fatalf("expected merchant uid in response, got %q", rec.Body.String())
		}
	})

	t.Run("missing query parameter", func(t *testing.T) {
		svc := &stubReservationCollection{reservation: reservation}
		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		rec := httptest.NewRecorder()

		HandleReservations(svc, validator.New()).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubReservationCollection{err: domain.ErrReservationNotFound}
		req := httptest.NewRequest(http.MethodGet, "/reservations?merchant_uid=missing", nil)
		rec := httptest.NewRecorder()

		HandleReservations(svc, validator.New()).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandleReservationActions(t *testing.T) {
	t.Parallel()

	reservation := domain.Reservation{
		ID:          "res-1",
		MerchantUID: "merchant-1",
		RoomID:      "room-1",
		UserID:      "user-1",
		Price:       10000,
		StartAt:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		EndAt:       time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Status:      domain.StatusPaid,
	}

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "get reservation",
			method:         http.MethodGet,
			path:           "/reservations/res-1",
			expectedStatus: http.StatusOK,
			expectedSubstr: `"start_at":"2025-06-10"`,
		},
		{
			name:           "get unknown reservation",
			method:         http.MethodGet,
			path:           "/reservations/missing",
			serviceErr:     domain.ErrReservationNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "refund accepted",
			method:         http.MethodPost,
			path:           "/reservations/res-1/refund",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "refund window expired",
			method:         http.MethodPost,
			path:           "/reservations/res-1/refund",
			serviceErr:     domain.ErrRefundWindowExpired,
			expectedStatus: http.StatusConflict,
			expectedSubstr: "refund_window_expired",
		},
		{
			name:           "check payment",
			method:         http.MethodPost,
			path:           "/reservations/res-1/check-payment",
			body:           `{"imp_uid":"imp-1"}`,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"status":"PAID"`,
		},
		{
			name:           "check payment without imp uid",
			method:         http.MethodPost,
			path:           "/reservations/res-1/check-payment",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "close",
			method:         http.MethodPost,
			path:           "/reservations/res-1/close",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "close already past",
			method:         http.MethodPost,
			path:           "/reservations/res-1/close",
			serviceErr:     domain.ErrSameStatus,
			expectedStatus: http.StatusConflict,
			expectedSubstr: "same_status",
		},
		{
			name:           "unknown action",
			method:         http.MethodPost,
			path:           "/reservations/res-1/archive",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "action with wrong method",
			method:         http.MethodGet,
			path:           "/reservations/res-1/refund",
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "invalid path",
			method:         http.MethodGet,
			path:           "/reservations/",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubReservationActions{
				reservation: reservation,
				err:         tt.serviceErr,
			}

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			HandleReservationActions(svc).ServeHTTP(rec, req)

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

type stubReservationCollection struct {
	reservation domain.Reservation
	err         error
	got         app.CreateReservationInput
}

func (s *stubReservationCollection) Create(_ context.Context, in app.CreateReservationInput) (domain.Reservation, error) {
	s.got = in
	if s.err != nil {
		return domain.Reservation{}, s.err
	}
	return s.reservation, nil
}

func (s *stubReservationCollection) GetByMerchantUID(_ context.Context, _ string) (domain.Reservation, error) {
	if s.err != nil {
		return domain.Reservation{}, s.err
	}
	return s.reservation, nil
}

type stubReservationActions struct {
	reservation domain.Reservation
	err         error
}

func (s *stubReservationActions) GetByID(_ context.Context, _ string) (domain.Reservation, error) {
	if s.err != nil {
		return domain.Reservation{}, s.err
	}
	return s.reservation, nil
}

func (s *stubReservationActions) Refund(_ context.Context, _ string) error {
	return s.err
}

func (s *stubReservationActions) CheckPayment(_ context.Context, _, _ string) (domain.ReservationStatus, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reservation.Status, nil
}

func (s *stubReservationActions) Close(_ context.Context, _ string) error {
	return s.err
}
