package domain

import "time"

type JobKind string

const (
	JobKindClosing      JobKind = "closing"
	JobKindRefundWindow JobKind = "refund_window"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusDone    JobStatus = "done"
)

// ScheduledJob is a deferred, time-triggered action on one
// reservation. Key is the job identity; re-arming the same key
// replaces the prior job instead of duplicating it.
type ScheduledJob struct {
	Key           string
	Kind          JobKind
	ReservationID string
	FireAt        time.Time
	Status        JobStatus
	CreatedAt     time.Time
}

func ClosingJobKey(reservationID string) string {
	return "reservation.closing." + reservationID
}

func RefundJobKey(reservationID string) string {
	return "reservation.refund." + reservationID
}
