package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

type RoomRepository interface {
	CreateRoom(ctx context.Context, room domain.Room) error
	ListRooms(ctx context.Context) ([]domain.Room, error)
}

type AdminService struct {
	repo RoomRepository
}

func NewAdminService(repo RoomRepository) *AdminService {
	return &AdminService{repo: repo}
}

type CreateRoomInput struct {
	Name        string
	MaxCapacity int
	CheckIn     string
	CheckOut    string
}

const defaultCheckIn = "15:00"
const defaultCheckOut = "11:00"

func (s *AdminService) CreateRoom(ctx context.Context, in CreateRoomInput) (domain.Room, error) {
	if in.Name == "" {
		return domain.Room{}, domain.ErrRoomNameRequired
	}
	if in.MaxCapacity <= 0 {
		return domain.Room{}, domain.ErrInvalidCapacity
	}

	checkIn := in.CheckIn
	if checkIn == "" {
		checkIn = defaultCheckIn
	}
	checkOut := in.CheckOut
	if checkOut == "" {
		checkOut = defaultCheckOut
	}
	for _, v := range []string{checkIn, checkOut} {
		if _, err := time.Parse("15:04", v); err != nil {
			return domain.Room{}, domain.ErrInvalidCheckTime
		}
	}

	room := domain.Room{
		ID:          uuid.NewString(),
		Name:        in.Name,
		MaxCapacity: in.MaxCapacity,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
	}

	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (s *AdminService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.repo.ListRooms(ctx)
}
