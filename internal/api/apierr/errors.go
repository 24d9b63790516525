package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/services/session"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeInvalidAction          = "INVALID_ACTION"
	CodeInvalidDetails         = "INVALID_DETAILS"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeRunNotFound            = "RUN_NOT_FOUND"
	CodePuzzleNotFound         = "PUZZLE_NOT_FOUND"
	CodePuzzleLocked           = "PUZZLE_LOCKED"
	CodePortalLocked           = "PORTAL_LOCKED"
	CodeNotCompleted           = "NOT_COMPLETED"
	CodeAlreadyRegistered      = "ALREADY_REGISTERED"
	CodeLeaderboardUnavailable = "LEADERBOARD_UNAVAILABLE"
	CodeInternalError          = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrRunNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRunNotFound, "Run not found"}}
	case errors.Is(err, model.ErrPuzzleNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePuzzleNotFound, "Puzzle not found"}}
	case errors.Is(err, model.ErrPuzzleLocked):
		return &httpError{http.StatusConflict, APIError{CodePuzzleLocked, "Solve the previous puzzle first"}}
	case errors.Is(err, model.ErrInvalidAction):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAction, err.Error()}}
	case errors.Is(err, model.ErrPortalLocked):
		return &httpError{http.StatusConflict, APIError{CodePortalLocked, "Capture every flag before using the portal"}}
	case errors.Is(err, model.ErrNotCompleted):
		return &httpError{http.StatusConflict, APIError{CodeNotCompleted, "Complete the portal before registering"}}
	case errors.Is(err, model.ErrAlreadyRegistered):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyRegistered, "This run is already registered"}}
	case errors.Is(err, model.ErrMissingDetails):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDetails, "name and email are both required"}}
	case errors.Is(err, model.ErrInvalidEmail):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDetails, "email address is not valid"}}
	case errors.Is(err, model.ErrLeaderboardUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeLeaderboardUnavailable, "Leaderboard is unavailable"}}

	// Map session errors
	case errors.Is(err, session.ErrInvalidSession), errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
