// Package errstatus carries structured failures between stages.
//
// A Status travels out of band next to the primary RPC outcome. It is encoded in
// protobuf wire format so any stage, whatever its transport, can decode it.
package errstatus

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a failure.
type Code int32

const (
	CodeUnspecified     Code = 0
	CodeInvalidArgument Code = 1
	CodeNotFound        Code = 2
	CodeTimeout         Code = 3
	CodeUnavailable     Code = 4
	CodeRateLimited     Code = 5
	CodeInternal        Code = 6
)

var codeNames = map[Code]string{
	CodeUnspecified:     "UNSPECIFIED",
	CodeInvalidArgument: "INVALID_ARGUMENT",
	CodeNotFound:        "NOT_FOUND",
	CodeTimeout:         "TIMEOUT",
	CodeUnavailable:     "UNAVAILABLE",
	CodeRateLimited:     "RATE_LIMITED",
	CodeInternal:        "INTERNAL",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CODE_%d", int32(c))
}

// Status is the structured failure record.
type Status struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// New builds a Status.
func New(code Code, message, details string) *Status {
	return &Status{Code: code, Message: message, Details: details}
}

// InvalidArgument is shorthand for a validation failure.
func InvalidArgument(message, details string) *Status {
	return New(CodeInvalidArgument, message, details)
}

// Internal wraps an unexpected error.
func Internal(message string, err error) *Status {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return New(CodeInternal, message, details)
}

// Error renders "message: details", or just the message when details are empty.
func (s *Status) Error() string {
	if s == nil {
		return ""
	}
	if strings.TrimSpace(s.Details) == "" {
		return s.Message
	}
	return s.Message + ": " + s.Details
}

// RPCCode maps the status to the canonical RPC outcome.
func (s *Status) RPCCode() RPCCode {
	if s == nil {
		return RPCUnknown
	}
	return s.Code.RPCCode()
}

// From extracts a Status from an error chain.
func From(err error) (*Status, bool) {
	var st *Status
	if errors.As(err, &st) && st != nil {
		return st, true
	}
	return nil, false
}

// CodeOf returns the Code carried by err, CodeInternal for foreign errors and
// CodeUnspecified for nil.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnspecified
	}
	if st, ok := From(err); ok {
		return st.Code
	}
	return CodeInternal
}
