package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidID           = "invalid_id"
	codeUserIDRequired      = "user_id_required"
	codeRoomNameRequired    = "room_name_required"
	codeInvalidCapacity     = "invalid_capacity"
	codeInvalidCheckTime    = "invalid_check_time"
	codeInvalidPrice        = "invalid_price"
	codeInvalidStayRange    = "invalid_stay_range"
	codePastDate            = "past_date"
	codeCapacityExceeded    = "capacity_exceeded"
	codeDuplicateMerchant   = "duplicate_merchant_uid"
	codeRefundWindowExpired = "refund_window_expired"
	codeSameStatus          = "same_status"
	codeInvalidTransition   = "invalid_transition"
	codeValidationFailed    = "validation_failed"
	codeRoomNotFound        = "room_not_found"
	codeReservationNotFound = "reservation_not_found"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
