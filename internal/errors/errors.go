package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error represents a universal error type carried up to the transport layer.
type Error struct {
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s, details: %v", e.Status, e.Err, e.Details)
}

// Unwrap exposes the wrapped error to [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	return e.Err
}

type transport struct {
	Message string   `json:"message"`
	Details []Detail `json:"details"`
	Status  int      `json:"status"`
}

func (s *Error) MarshalJSON() ([]byte, error) {
	msg := http.StatusText(s.Status)
	if s.Err != nil {
		msg = s.Err.Error()
	}

	return json.Marshal(transport{
		Message: msg,
		Details: s.Details,
		Status:  s.Status,
	})
}

func (s *Error) UnmarshalJSON(byts []byte) error {
	t := transport{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	s.Err = errors.New(t.Message)
	s.Details = t.Details
	s.Status = t.Status
	return nil
}

func E(args ...any) *Error {
	ret := &Error{
		Status:  http.StatusInternalServerError,
		Err:     nil,
		Details: nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// StatusOf reports the HTTP status carried by err, or 500 when err is not structured.
func StatusOf(err error) int {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Status
	}

	return http.StatusInternalServerError
}
