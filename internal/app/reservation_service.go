package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/p-sear/p-sear-backend/internal/clock"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetByID(ctx context.Context, id string) (domain.Reservation, error)
	GetByMerchantUID(ctx context.Context, merchantUID string) (domain.Reservation, error)
	GetForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	GetForUpdateByMerchantUID(ctx context.Context, merchantUID string) (domain.Reservation, error)
	GetRoomForUpdate(ctx context.Context, roomID string) (domain.Room, error)
	CountOverlapping(ctx context.Context, roomID string, startAt, endAt time.Time) (int, error)
	Create(ctx context.Context, reservation domain.Reservation) error
	Update(ctx context.Context, reservation domain.Reservation) error
}

// OutboxAppender records a domain event durably inside the transaction
// already open on ctx.
type OutboxAppender interface {
	Append(ctx context.Context, event domain.OutboxEvent) error
}

type ReservationService struct {
	repo   ReservationRepository
	outbox OutboxAppender
	clock  clock.Clock
}

func NewReservationService(repo ReservationRepository, outbox OutboxAppender, clk clock.Clock) *ReservationService {
	return &ReservationService{
		repo:   repo,
		outbox: outbox,
		clock:  clk,
	}
}

// StatusUpdate carries the intent to move one reservation to a target
// status. Exactly one of ID or MerchantUID must be set. Validator, if
// present, runs against the locked row before any mutation; returning
// an error aborts the transition with the row untouched.
type StatusUpdate struct {
	ID          string
	MerchantUID string
	Target      domain.ReservationStatus
	Validator   func(*domain.Reservation) error
}

// UpdateStatus applies a transition under a row-level lock. Outcomes:
// nil on success, domain.ErrSameStatus when the row is already at the
// target (benign under redelivery), domain.ErrInvalidTransition for an
// untabled edge, and validator errors wrapped as ErrValidationFailed.
func (s *ReservationService) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	return s.applyStatus(ctx, update, (*domain.Reservation).UpdateStatus)
}

// RollbackStatus compensates a previously applied transition; the
// target must be a tabled predecessor of the current status.
func (s *ReservationService) RollbackStatus(ctx context.Context, update StatusUpdate) error {
	return s.applyStatus(ctx, update, (*domain.Reservation).RollbackStatusTo)
}

func (s *ReservationService) applyStatus(
	ctx context.Context,
	update StatusUpdate,
	move func(*domain.Reservation, domain.ReservationStatus) error,
) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.getForUpdate(txCtx, update)
		if err != nil {
			return err
		}

		if update.Validator != nil {
			if err := update.Validator(&reservation); err != nil {
				return err
			}
		}
		if err := move(&reservation, update.Target); err != nil {
			return err
		}

		reservation.UpdatedAt = s.clock.Now()
		return s.repo.Update(txCtx, reservation)
	})
}

func (s *ReservationService) getForUpdate(ctx context.Context, update StatusUpdate) (domain.Reservation, error) {
	if update.ID != "" {
		return s.repo.GetForUpdate(ctx, update.ID)
	}
	if update.MerchantUID != "" {
		return s.repo.GetForUpdateByMerchantUID(ctx, update.MerchantUID)
	}
	return domain.Reservation{}, domain.ErrInvalidID
}

type CreateReservationInput struct {
	RoomID  string
	UserID  string
	Price   int
	StartAt time.Time
	EndAt   time.Time
}

// Create validates the schedule and inserts the reservation as CREATED
// in one transaction, with the created event written to the outbox so
// check and insert cannot be interleaved by a concurrent booking.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	if in.Price <= 0 {
		return domain.Reservation{}, domain.ErrInvalidPrice
	}
	if !in.EndAt.After(in.StartAt) {
		return domain.Reservation{}, domain.ErrInvalidStayRange
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		room, err := s.repo.GetRoomForUpdate(txCtx, in.RoomID)
		if err != nil {
			return err
		}
		if err := checkSchedule(txCtx, s.repo, room, in.StartAt, in.EndAt, now); err != nil {
			return err
		}

		reservation := domain.Reservation{
			ID:          uuid.NewString(),
			MerchantUID: uuid.NewString(),
			RoomID:      in.RoomID,
			UserID:      in.UserID,
			Price:       in.Price,
			StartAt:     in.StartAt,
			EndAt:       in.EndAt,
			Status:      domain.StatusCreated,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(txCtx, reservation); err != nil {
			return err
		}

		msg := domain.ReservationMessage{
			ID:          reservation.ID,
			MerchantUID: reservation.MerchantUID,
			RoomID:      reservation.RoomID,
			UserID:      reservation.UserID,
			Price:       reservation.Price,
			StartAt:     reservation.StartAt,
			EndAt:       reservation.EndAt,
			CheckIn:     room.CheckIn,
			Status:      reservation.Status,
		}
		if err := s.appendEvent(txCtx, domain.EventReservationCreated, reservation.MerchantUID, msg); err != nil {
			return err
		}

		result = reservation
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

func (s *ReservationService) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ReservationService) GetByMerchantUID(ctx context.Context, merchantUID string) (domain.Reservation, error) {
	return s.repo.GetByMerchantUID(ctx, merchantUID)
}

// Refund computes the refundable amount, moves the reservation to
// REFUND_REQUIRED, and records the refund-requested event, all in one
// transaction.
func (s *ReservationService) Refund(ctx context.Context, reservationID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.repo.GetForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}

		amount, err := RefundAmount(reservation.Price, reservation.StartAt, s.clock.Now())
		if err != nil {
			return err
		}

		if err := s.UpdateStatus(txCtx, StatusUpdate{
			ID:     reservationID,
			Target: domain.StatusRefundRequired,
		}); err != nil {
			return err
		}

		return s.appendEvent(txCtx, domain.EventRefundRequested, reservation.MerchantUID, domain.RefundMessage{
			ImpUID:      reservation.ImpUID,
			MerchantUID: reservation.MerchantUID,
			Amount:      amount,
		})
	})
}

// CheckPayment records a payment attempt. When the reservation is
// still CREATED it moves toward PAYMENT_VALIDATION_REQUIRED; otherwise
// the current status is returned unchanged. The returned status is the
// one observed before any transition.
func (s *ReservationService) CheckPayment(ctx context.Context, reservationID, impUID string) (domain.ReservationStatus, error) {
	var status domain.ReservationStatus
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.repo.GetForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		status = reservation.Status
		if reservation.Status != domain.StatusCreated {
			return nil
		}
		return s.UpdateToPaymentValidationRequired(txCtx, domain.PaymentMessage{
			ImpUID:      impUID,
			MerchantUID: reservation.MerchantUID,
			Amount:      reservation.Price,
		})
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// UpdateToPaymentValidationRequired applies the guarded transition for
// a recorded payment attempt: the paid amount must equal the price and
// the impUid is recorded at most once. ErrSameStatus is absorbed so a
// redelivered payment message is a no-op.
func (s *ReservationService) UpdateToPaymentValidationRequired(ctx context.Context, payment domain.PaymentMessage) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		err := s.UpdateStatus(txCtx, StatusUpdate{
			MerchantUID: payment.MerchantUID,
			Target:      domain.StatusPaymentValidationRequired,
			Validator:   paymentValidator(payment),
		})
		if errors.Is(err, domain.ErrSameStatus) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.appendEvent(txCtx, domain.EventPaymentValidationRequested, payment.MerchantUID, payment)
	})
}

// UpdateToPaid finalizes a validated payment. ErrSameStatus is
// absorbed for redelivery.
func (s *ReservationService) UpdateToPaid(ctx context.Context, payment domain.PaymentMessage) error {
	err := s.UpdateStatus(ctx, StatusUpdate{
		MerchantUID: payment.MerchantUID,
		Target:      domain.StatusPaid,
		Validator:   paymentValidator(payment),
	})
	if errors.Is(err, domain.ErrSameStatus) {
		return nil
	}
	return err
}

// UpdateToRefunded settles a completed refund. ErrSameStatus is
// absorbed for redelivery.
func (s *ReservationService) UpdateToRefunded(ctx context.Context, refund domain.RefundMessage) error {
	err := s.UpdateStatus(ctx, StatusUpdate{
		MerchantUID: refund.MerchantUID,
		Target:      domain.StatusRefunded,
	})
	if errors.Is(err, domain.ErrSameStatus) {
		return nil
	}
	return err
}

// Close forces the reservation to PAST. Used by the closing job and
// exposed as an administrative operation.
func (s *ReservationService) Close(ctx context.Context, reservationID string) error {
	return s.UpdateStatus(ctx, StatusUpdate{
		ID:     reservationID,
		Target: domain.StatusPast,
	})
}

func paymentValidator(payment domain.PaymentMessage) func(*domain.Reservation) error {
	return func(r *domain.Reservation) error {
		if r.Price != payment.Amount {
			return fmt.Errorf("%w: paid amount %d does not match price %d",
				domain.ErrValidationFailed, payment.Amount, r.Price)
		}
		if err := r.RecordImpUID(payment.ImpUID); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
		}
		return nil
	}
}

func checkSchedule(ctx context.Context, repo ReservationRepository, room domain.Room, startAt, endAt, now time.Time) error {
	if startAt.Before(dateOf(now)) {
		return domain.ErrPastDate
	}
	overlapping, err := repo.CountOverlapping(ctx, room.ID, startAt, endAt)
	if err != nil {
		return err
	}
	if overlapping >= room.MaxCapacity {
		return domain.ErrCapacityExceeded
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func (s *ReservationService) appendEvent(ctx context.Context, kind, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return s.outbox.Append(ctx, domain.OutboxEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Key:       key,
		Payload:   body,
		Status:    domain.OutboxStatusPending,
		CreatedAt: s.clock.Now(),
	})
}
