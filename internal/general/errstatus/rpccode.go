package errstatus

import "net/http"

// RPCCode is the canonical outcome of a remote call, independent of any Status record.
type RPCCode string

const (
	RPCOK                RPCCode = "OK"
	RPCInvalidArgument   RPCCode = "InvalidArgument"
	RPCNotFound          RPCCode = "NotFound"
	RPCDeadlineExceeded  RPCCode = "DeadlineExceeded"
	RPCUnavailable       RPCCode = "Unavailable"
	RPCResourceExhausted RPCCode = "ResourceExhausted"
	RPCInternal          RPCCode = "Internal"
	RPCUnknown           RPCCode = "Unknown"
)

// RPCCode maps a Status code to its canonical RPC outcome.
func (c Code) RPCCode() RPCCode {
	switch c {
	case CodeInvalidArgument:
		return RPCInvalidArgument
	case CodeNotFound:
		return RPCNotFound
	case CodeTimeout:
		return RPCDeadlineExceeded
	case CodeUnavailable:
		return RPCUnavailable
	case CodeRateLimited:
		return RPCResourceExhausted
	case CodeInternal:
		return RPCInternal
	default:
		return RPCUnknown
	}
}

// Code maps a canonical outcome back to a Status code. Used when a failure
// arrives without a structured record.
func (r RPCCode) Code() Code {
	switch r {
	case RPCInvalidArgument:
		return CodeInvalidArgument
	case RPCNotFound:
		return CodeNotFound
	case RPCDeadlineExceeded:
		return CodeTimeout
	case RPCUnavailable:
		return CodeUnavailable
	case RPCResourceExhausted:
		return CodeRateLimited
	case RPCInternal:
		return CodeInternal
	default:
		return CodeUnspecified
	}
}

// HTTPStatus is the status line used by the HTTP transport for r.
func (r RPCCode) HTTPStatus() int {
	switch r {
	case RPCOK:
		return http.StatusOK
	case RPCInvalidArgument:
		return http.StatusBadRequest
	case RPCNotFound:
		return http.StatusNotFound
	case RPCDeadlineExceeded:
		return http.StatusGatewayTimeout
	case RPCUnavailable:
		return http.StatusServiceUnavailable
	case RPCResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RPCCodeFromHTTP recovers a canonical outcome from a bare HTTP status, for
// responses that lack the Rpc-Status header (proxies, crashed peers).
func RPCCodeFromHTTP(status int) RPCCode {
	switch status {
	case http.StatusOK:
		return RPCOK
	case http.StatusBadRequest:
		return RPCInvalidArgument
	case http.StatusNotFound:
		return RPCNotFound
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return RPCDeadlineExceeded
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return RPCUnavailable
	case http.StatusTooManyRequests:
		return RPCResourceExhausted
	case http.StatusInternalServerError:
		return RPCInternal
	default:
		return RPCUnknown
	}
}

// ParseRPCCode accepts the names written by RPCCode.String.
func ParseRPCCode(s string) (RPCCode, bool) {
	switch r := RPCCode(s); r {
	case RPCOK, RPCInvalidArgument, RPCNotFound, RPCDeadlineExceeded,
		RPCUnavailable, RPCResourceExhausted, RPCInternal, RPCUnknown:
		return r, true
	}
	return RPCUnknown, false
}
