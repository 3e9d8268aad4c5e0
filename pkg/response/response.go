package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code string `json:"code"`
	Message  string `json:"message"`
}

//Error Codes
type ErrCode string
var (
	FAILED_REQUEST ErrCode = "REQUEST_FAILED"
	BAD_REQUEST ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND ErrCode = "NOT_FOUND"
	LOCKED ErrCode = "LOCKED"
	CONFLICT ErrCode = "CONFLICT"
	FORBIDDEN ErrCode = "FORBIDDEN"
	CLASS_FULL ErrCode = "CLASS_FULL"
	ALREADY_BOOKED ErrCode = "ALREADY_BOOKED"
	NOT_BOOKED ErrCode = "NOT_BOOKED"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound = errors.New("resource not found")
	ErrLocked = errors.New("resource is locked")
	ErrConflict = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")

	// Booking outcomes. Expected business results, surfaced to the caller
	// for user-facing messaging, never retried automatically.
	ErrClassFull = errors.New("class is full")
	ErrAlreadyBooked = errors.New("user is already booked into this class")
	ErrNotBooked = errors.New("user is not booked into this class")

	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPropagationFailed = errors.New("profile propagation failed")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
