package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/p-sear/p-sear-backend/internal/app"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

const userIDHeader = "User-Id"
const dateLayout = "2006-01-02"

// ReservationCollection is the minimal interface needed by the
// /reservations collection endpoint.
type ReservationCollection interface {
	Create(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
	GetByMerchantUID(ctx context.Context, merchantUID string) (domain.Reservation, error)
}

// ReservationActions is the minimal interface needed by the
// per-reservation endpoints.
type ReservationActions interface {
	GetByID(ctx context.Context, id string) (domain.Reservation, error)
	Refund(ctx context.Context, reservationID string) error
	CheckPayment(ctx context.Context, reservationID, impUID string) (domain.ReservationStatus, error)
	Close(ctx context.Context, reservationID string) error
}

// HandleReservations routes POST /reservations (create) and
// GET /reservations?merchant_uid= (lookup by merchant order id).
func HandleReservations(svc ReservationCollection, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleGetByMerchantUID(w, r, svc)
			return
		case http.MethodPost:
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeError(w, http.StatusBadRequest, codeUserIDRequired, "User-Id header required")
			return
		}

		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}

		startAt, _ := time.Parse(dateLayout, req.StartAt)
		endAt, _ := time.Parse(dateLayout, req.EndAt)

		reservation, err := svc.Create(r.Context(), app.CreateReservationInput{
			RoomID:  req.RoomID,
			UserID:  userID,
			Price:   req.Price,
			StartAt: startAt,
			EndAt:   endAt,
		})
		if err != nil {
			writeReservationError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Location", "/reservations/"+reservation.ID)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toReservationResponse(reservation))
	}
}

// HandleReservationActions routes GET /reservations/{id} and the
// POST /reservations/{id}/{refund|check-payment|close} actions.
func HandleReservationActions(svc ReservationActions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := parseReservationPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			handleGetReservation(w, r, svc, id)
		case action == "":
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		case r.Method != http.MethodPost:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		case action == "refund":
			handleRefund(w, r, svc, id)
		case action == "check-payment":
			handleCheckPayment(w, r, svc, id)
		case action == "close":
			handleClose(w, r, svc, id)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleGetByMerchantUID(w http.ResponseWriter, r *http.Request, svc ReservationCollection) {
	merchantUID := r.URL.Query().Get("merchant_uid")
	if merchantUID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "merchant_uid query parameter required")
		return
	}

	reservation, err := svc.GetByMerchantUID(r.Context(), merchantUID)
	if err != nil {
		writeReservationError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toReservationResponse(reservation))
}

func handleGetReservation(w http.ResponseWriter, r *http.Request, svc ReservationActions, id string) {
	reservation, err := svc.GetByID(r.Context(), id)
	if err != nil {
		writeReservationError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toReservationResponse(reservation))
}

func handleRefund(w http.ResponseWriter, r *http.Request, svc ReservationActions, id string) {
	if err := svc.Refund(r.Context(), id); err != nil {
		writeReservationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleCheckPayment(w http.ResponseWriter, r *http.Request, svc ReservationActions, id string) {
	var req checkPaymentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil || req.ImpUID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "imp_uid required")
		return
	}

	status, err := svc.CheckPayment(r.Context(), id, req.ImpUID)
	if err != nil {
		writeReservationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(checkPaymentResponse{Status: string(status)})
}

func handleClose(w http.ResponseWriter, r *http.Request, svc ReservationActions, id string) {
	if err := svc.Close(r.Context(), id); err != nil {
		writeReservationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
	case errors.Is(err, domain.ErrInvalidStayRange):
		writeError(w, http.StatusBadRequest, codeInvalidStayRange, err.Error())
	case errors.Is(err, domain.ErrPastDate):
		writeError(w, http.StatusBadRequest, codePastDate, err.Error())
	case errors.Is(err, domain.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, codeRoomNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, codeCapacityExceeded, err.Error())
	case errors.Is(err, domain.ErrDuplicateMerchant):
		writeError(w, http.StatusConflict, codeDuplicateMerchant, err.Error())
	case errors.Is(err, domain.ErrRefundWindowExpired):
		writeError(w, http.StatusConflict, codeRefundWindowExpired, err.Error())
	case errors.Is(err, domain.ErrSameStatus):
		writeError(w, http.StatusConflict, codeSameStatus, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrValidationFailed):
		writeError(w, http.StatusConflict, codeValidationFailed, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseReservationPath(path string) (id, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "reservations" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 3 {
		if parts[2] == "" {
			return "", "", false
		}
		return parts[1], parts[2], true
	}
	return parts[1], "", true
}

type createReservationRequest struct {
	RoomID  string `json:"room_id" validate:"required,uuid4"`
	Price   int    `json:"price" validate:"required,gt=0"`
	StartAt string `json:"start_at" validate:"required,datetime=2006-01-02"`
	EndAt   string `json:"end_at" validate:"required,datetime=2006-01-02"`
}

type checkPaymentRequest struct {
	ImpUID string `json:"imp_uid"`
}

type checkPaymentResponse struct {
	Status string `json:"status"`
}

type reservationResponse struct {
	ID          string    `json:"id"`
	MerchantUID string    `json:"merchant_uid"`
	ImpUID      string    `json:"imp_uid,omitempty"`
	RoomID      string    `json:"room_id"`
	UserID      string    `json:"user_id"`
	Price       int       `json:"price"`
	StartAt     string    `json:"start_at"`
	EndAt       string    `json:"end_at"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:          r.ID,
		MerchantUID: r.MerchantUID,
		ImpUID:      r.ImpUID,
		RoomID:      r.RoomID,
		UserID:      r.UserID,
		Price:       r.Price,
		StartAt:     r.StartAt.Format(dateLayout),
		EndAt:       r.EndAt.Format(dateLayout),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
	}
}
