package services

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrInvalidTarget         = errors.New("invalid follow target")
	ErrUserNotFound          = errors.New("user not found")
	ErrFollowRequestNotFound = errors.New("follow request not found")
	ErrForbidden             = errors.New("you are not allowed to modify this resource")
	ErrConflict              = errors.New("concurrent update on follow relationship, try again")
	ErrPostNotFound          = errors.New("post not found")
	ErrCommentNotFound       = errors.New("comment not found")
)

var errorStatus = map[error]int{
	ErrInvalidTarget:         http.StatusBadRequest,
	ErrUserNotFound:          http.StatusNotFound,
	ErrFollowRequestNotFound: http.StatusNotFound,
	ErrForbidden:             http.StatusForbidden,
	ErrConflict:              http.StatusConflict,
	ErrPostNotFound:          http.StatusNotFound,
	ErrCommentNotFound:       http.StatusNotFound,
}

// StatusCode maps a service error to the HTTP status the caller should see.
// Anything outside the taxonomy is an internal error.
func StatusCode(err error) int {
	if code, ok := errorStatus[errors.Cause(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}
