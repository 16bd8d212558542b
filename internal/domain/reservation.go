package domain

import "time"

type ReservationStatus string

const (
	StatusCreated                   ReservationStatus = "CREATED"
	StatusPaymentValidationRequired ReservationStatus = "PAYMENT_VALIDATION_REQUIRED"
	StatusPaid                      ReservationStatus = "PAID"
	StatusRefundRequired            ReservationStatus = "REFUND_REQUIRED"
	StatusRefunded                  ReservationStatus = "REFUNDED"
	StatusAuctionSuccess            ReservationStatus = "AUCTION_SUCCESS"
	StatusAuctionFailure            ReservationStatus = "AUCTION_FAILURE"
	StatusPast                      ReservationStatus = "PAST"
)

// activeStatuses are the statuses from which a stay can still progress.
// Any active reservation may be sent to REFUND_REQUIRED by the guest or
// to PAST by the closing job.
var activeStatuses = map[ReservationStatus]struct{}{
	StatusCreated:                   {},
	StatusPaymentValidationRequired: {},
	StatusPaid:                      {},
	StatusAuctionSuccess:            {},
}

// transitions holds the explicit forward edges of the lifecycle beyond
// the two any-active rules above.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusCreated: {
		StatusPaymentValidationRequired,
		StatusAuctionSuccess,
		StatusAuctionFailure,
	},
	StatusPaymentValidationRequired: {StatusPaid},
	StatusRefundRequired:            {StatusRefunded},
}

// CanTransition reports whether the lifecycle permits moving from one
// status directly to another. It does not treat from == to specially.
func CanTransition(from, to ReservationStatus) bool {
	if _, active := activeStatuses[from]; active {
		if to == StatusRefundRequired || to == StatusPast {
			return true
		}
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s ReservationStatus) Active() bool {
	_, ok := activeStatuses[s]
	return ok
}

// Reservation is a booking of a room for a date range. It is never
// hard-deleted; terminal statuses are retained for audit.
type Reservation struct {
	ID          string
	MerchantUID string
	ImpUID      string
	RoomID      string
	UserID      string
	Price       int
	StartAt     time.Time
	EndAt       time.Time
	Status      ReservationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpdateStatus moves the reservation along a tabled edge. It returns
// ErrSameStatus when the reservation is already at target, which
// callers on redelivery paths treat as a benign no-op, and
// ErrInvalidTransition for any untabled edge.
func (r *Reservation) UpdateStatus(target ReservationStatus) error {
	if r.Status == target {
		return ErrSameStatus
	}
	if !CanTransition(r.Status, target) {
		return ErrInvalidTransition
	}
	r.Status = target
	return nil
}

// RollbackStatusTo undoes a previously applied transition. The target
// must be a tabled predecessor of the current status, so compensation
// cannot invent edges the forward table does not have.
func (r *Reservation) RollbackStatusTo(target ReservationStatus) error {
	if r.Status == target {
		return ErrSameStatus
	}
	if !CanTransition(target, r.Status) {
		return ErrInvalidTransition
	}
	r.Status = target
	return nil
}

// RecordImpUID stores the payment-gateway correlation id. It may be
// set at most once per payment cycle; recording the same value again
// is a no-op so redelivered payment messages stay idempotent.
func (r *Reservation) RecordImpUID(impUID string) error {
	if r.ImpUID != "" && r.ImpUID != impUID {
		return ErrImpUIDAlreadySet
	}
	r.ImpUID = impUID
	return nil
}
