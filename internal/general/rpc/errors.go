package rpc

import (
	"context"
	"errors"
	"fmt"

	"nearest-departures/internal/general/errstatus"
)

// Invoker performs one request/response call to a remote stage.
type Invoker interface {
	Invoke(ctx context.Context, service, method string, req, resp any) error
}

// CallError is a failed remote call as seen by the client. Status is the
// structured record from the side channel, nil when absent or undecodable.
type CallError struct {
	Service     string
	Method      string
	Code        errstatus.RPCCode
	Description string
	Status      *errstatus.Status
	DetailErr   error // why Status could not be decoded, if it could not
	Cause       error // transport failure, if the call never completed
}

func (e *CallError) Error() string {
	msg := fmt.Sprintf("rpc %s/%s: %s", e.Service, e.Method, e.Code)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}

func (e *CallError) Unwrap() []error {
	var errs []error
	if e.Status != nil {
		errs = append(errs, e.Status)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// AsCallError extracts a CallError from err.
func AsCallError(err error) (*CallError, bool) {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// transportError classifies a failure to complete a call at all.
func transportError(service, method string, err error) *CallError {
	code := errstatus.RPCUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		code = errstatus.RPCDeadlineExceeded
	}
	return &CallError{Service: service, Method: method, Code: code, Description: err.Error(), Cause: err}
}
