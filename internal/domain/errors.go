package domain

import "errors"

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrSameStatus          = errors.New("reservation already has target status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrValidationFailed    = errors.New("validation failed")
	ErrImpUIDAlreadySet    = errors.New("imp uid already recorded")
	ErrDuplicateMerchant   = errors.New("merchant uid already exists")
	ErrPastDate            = errors.New("start date is in the past")
	ErrCapacityExceeded    = errors.New("room is not available for the requested dates")
	ErrRefundWindowExpired = errors.New("refund window expired")
	ErrInvalidStayRange    = errors.New("end date must be after start date")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrRoomNameRequired    = errors.New("room name required")
	ErrInvalidCapacity     = errors.New("invalid capacity")
	ErrInvalidCheckTime    = errors.New("invalid check-in/check-out time")
	ErrInvalidID           = errors.New("invalid id")
)
