package domain

import "time"

// Event kinds published by this service.
const (
	EventReservationCreated         = "reservation.created"
	EventRefundRequested            = "reservation.refund-requested"
	EventPaymentValidationRequested = "reservation.payment-validation-requested"
)

// Event kinds consumed from the auction and payment services.
const (
	EventAuctionNoBid     = "auction.no-bid"
	EventPaymentValidated = "payment.validated"
	EventRefundCompleted  = "refund.completed"
)

// ReservationMessage is the payload of reservation.created. CheckIn is
// the room's check-in time-of-day, carried so the scheduler can derive
// the closing instant without a room lookup.
type ReservationMessage struct {
	ID          string            `json:"id"`
	MerchantUID string            `json:"merchant_uid"`
	ImpUID      string            `json:"imp_uid,omitempty"`
	RoomID      string            `json:"room_id"`
	UserID      string            `json:"user_id"`
	Price       int               `json:"price"`
	StartAt     time.Time         `json:"start_at"`
	EndAt       time.Time         `json:"end_at"`
	CheckIn     string            `json:"check_in"`
	Status      ReservationStatus `json:"status"`
}

type RefundMessage struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Amount      int    `json:"amount"`
}

type PaymentMessage struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Amount      int    `json:"amount"`
}

type AuctionMessage struct {
	ReservationID string `json:"reservation_id"`
	AuctionID     string `json:"auction_id,omitempty"`
}
