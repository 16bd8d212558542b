package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/p-sear/p-sear-backend/internal/app"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

// AdminRoomService is the minimal interface needed for admin room
// provisioning.
type AdminRoomService interface {
	CreateRoom(ctx context.Context, in app.CreateRoomInput) (domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
}

// HandleAdminRooms returns an HTTP handler for admin room
// creation/listing.
func HandleAdminRooms(svc AdminRoomService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rooms, err := svc.ListRooms(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]roomResponse, 0, len(rooms))
			for _, room := range rooms {
				resp = append(resp, toRoomResponse(room))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createRoomRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			room, err := svc.CreateRoom(r.Context(), app.CreateRoomInput{
				Name:        req.Name,
				MaxCapacity: req.MaxCapacity,
				CheckIn:     req.CheckIn,
				CheckOut:    req.CheckOut,
			})
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrRoomNameRequired):
					writeError(w, http.StatusBadRequest, codeRoomNameRequired, err.Error())
				case errors.Is(err, domain.ErrInvalidCapacity):
					writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
				case errors.Is(err, domain.ErrInvalidCheckTime):
					writeError(w, http.StatusBadRequest, codeInvalidCheckTime, err.Error())
				default:
					writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				}
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toRoomResponse(room))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

type createRoomRequest struct {
	Name        string `json:"name"`
	MaxCapacity int    `json:"max_capacity"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
}

type roomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxCapacity int    `json:"max_capacity"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
}

func toRoomResponse(room domain.Room) roomResponse {
	return roomResponse{
		ID:          room.ID,
		Name:        room.Name,
		MaxCapacity: room.MaxCapacity,
		CheckIn:     room.CheckIn,
		CheckOut:    room.CheckOut,
	}
}
