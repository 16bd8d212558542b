package app

import (
	"time"

	"github.com/p-sear/p-sear-backend/internal/domain"
)

const (
	fullRefundDays = 6
	halfRefundDays = 3
)

// RefundAmount computes the refundable amount for a reservation priced
// in the smallest currency unit. Seven or more days before check-in
// the full price is refundable, between six and four days half of it
// (integer floor), and from three days out the window is closed.
func RefundAmount(price int, startAt, today time.Time) (int, error) {
	day := dateOf(today)
	if day.Before(dateOf(startAt).AddDate(0, 0, -fullRefundDays)) {
		return price, nil
	}
	if day.Before(dateOf(startAt).AddDate(0, 0, -halfRefundDays)) {
		return price / 2, nil
	}
	return 0, domain.ErrRefundWindowExpired
}
