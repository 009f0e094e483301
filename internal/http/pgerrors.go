package httpserver

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGErrorMessage maps common Postgres errors to user-friendly HTTP status + message.
// If err is not a pg error, returns 500 with the provided fallback message.
func PGErrorMessage(err error, fallback string) (int, string) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		// Unknown error type; hide details
		return http.StatusInternalServerError, fallback
	}

	status := http.StatusBadRequest
	msg := fallback

	switch pgErr.Code {
	case "23505": // unique_violation
		status = http.StatusConflict
		switch pgErr.ConstraintName {
		case "push_tokens_token_key":
			msg = "This device token is already registered."
		case "profile_credentials_email_key", "profiles_email_key":
			msg = "An account with this email already exists."
		case "work_orders_work_order_id_key":
			msg = "A work order with this code already exists."
		default:
			msg = "Duplicate value violates a unique constraint."
		}
	case "23503": // foreign_key_violation
		msg = "Referenced record not found."
	case "23514": // check_violation
		switch pgErr.ConstraintName {
		case "leaves_date_range_chk":
			msg = "End date must be on or after the start date."
		default:
			msg = "Value violates a check constraint."
		}
	case "23502": // not_null_violation
		msg = "Missing required field."
	case "22P02": // invalid_text_representation (e.g., UUID/boolean/date)
		msg = "Invalid value format."
	case "22007", "22008": // invalid_datetime_format, datetime_field_overflow
		msg = "Invalid date/time format."
	case "22001": // string_data_right_truncation
		msg = "Value is too long."
	case "22003": // numeric_value_out_of_range
		msg = "Numeric value out of range."
	case "40001", "40P01": // serialization_failure, deadlock_detected
		status = http.StatusServiceUnavailable
	case "57014": // query_canceled
		status = http.StatusGatewayTimeout
	}

	return status, msg
}
