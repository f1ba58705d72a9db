package api

import (
	"errors"
	"net/http"

	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/record"
)

// statusCoder is implemented by domain errors that know their HTTP
// status.
type statusCoder interface {
	StatusCode() int
}

// errorCode maps an HTTP status to the machine-readable error code used
// in response bodies.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

// writeDomainError renders a domain error as JSON. Errors that carry a
// status code keep it; anything else becomes a 500 with the detail kept
// out of the response.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var nf *record.NotFoundError
	if errors.As(err, &nf) {
		httputil.WriteNotFound(w, "not_found", nf.Error())
		return
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		httputil.WriteError(w, sc.StatusCode(), errorCode(sc.StatusCode()), err.Error())
		return
	}

	s.log.Error("unhandled error", "error", err)
	httputil.WriteInternalError(w, "internal_error", "internal server error")
}
