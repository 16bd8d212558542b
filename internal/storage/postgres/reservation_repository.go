package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p-sear/p-sear-backend/internal/domain"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const reservationColumns = `id, merchant_uid, imp_uid, room_id, user_id, price, start_at, end_at, status, created_at, updated_at`

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return r.scanOne(r.queryRow(ctx, query, id))
}

func (r *ReservationRepository) GetByMerchantUID(ctx context.Context, merchantUID string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE merchant_uid = $1`
	return r.scanOne(r.queryRow(ctx, query, merchantUID))
}

func (r *ReservationRepository) GetForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.queryRow(ctx, query, id))
}

func (r *ReservationRepository) GetForUpdateByMerchantUID(ctx context.Context, merchantUID string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE merchant_uid = $1 FOR UPDATE`
	return r.scanOne(r.queryRow(ctx, query, merchantUID))
}

func (r *ReservationRepository) scanOne(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	var status string
	err := row.Scan(
		&res.ID,
		&res.MerchantUID,
		&res.ImpUID,
		&res.RoomID,
		&res.UserID,
		&res.Price,
		&res.StartAt,
		&res.EndAt,
		&status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}

func (r *ReservationRepository) GetRoomForUpdate(ctx context.Context, roomID string) (domain.Room, error) {
	const query = `SELECT id, name, max_capacity, check_in, check_out FROM rooms WHERE id = $1 FOR UPDATE`
	var room domain.Room
	err := r.queryRow(ctx, query, roomID).
		Scan(&room.ID, &room.Name, &room.MaxCapacity, &room.CheckIn, &room.CheckOut)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Room{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// CountOverlapping counts reservations on the room whose date range
// intersects [startAt, endAt) and whose status still occupies the
// room. Terminal refund/auction-failure outcomes free the dates.
func (r *ReservationRepository) CountOverlapping(ctx context.Context, roomID string, startAt, endAt time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM reservations
WHERE room_id = $1
  AND start_at < $3
  AND end_at > $2
  AND status NOT IN ('REFUNDED', 'AUCTION_FAILURE', 'PAST')`

	var count int
	if err := r.queryRow(ctx, query, roomID, startAt, endAt).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count overlapping reservations: %w", err)
	}
	return count, nil
}

func (r *ReservationRepository) Create(ctx context.Context, reservation domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, merchant_uid, imp_uid, room_id, user_id, price, start_at, end_at, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx, stmt,
		reservation.ID,
		reservation.MerchantUID,
		reservation.ImpUID,
		reservation.RoomID,
		reservation.UserID,
		reservation.Price,
		reservation.StartAt,
		reservation.EndAt,
		reservation.Status,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicateMerchant
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, reservation domain.Reservation) error {
	const stmt = `
UPDATE reservations
SET status = $2, imp_uid = $3, updated_at = $4
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, reservation.ID, reservation.Status, reservation.ImpUID, reservation.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
