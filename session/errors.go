// ABOUTME: Authentication failures with user-facing messages
// ABOUTME: Translates API status errors from login and registration
package session

import (
	"errors"
	"net/http"

	"github.com/harperreed/salesdesk/api"
)

type AuthErrorKind int

const (
	InvalidCredentials AuthErrorKind = iota
	ValidationFailed
	ServerFailure
	EmailTaken
	NetworkFailure
)

func (k AuthErrorKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid_credentials"
	case ValidationFailed:
		return "validation"
	case ServerFailure:
		return "server"
	case EmailTaken:
		return "email_taken"
	}
	return "network"
}

// AuthError carries the message shown on the login or register screen.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("not signed in")

func loginError(err error) *AuthError {
	switch api.StatusOf(err) {
	case http.StatusUnauthorized:
		return &AuthError{Kind: InvalidCredentials, Message: "Invalid email or password", Err: err}
	case http.StatusUnprocessableEntity:
		return &AuthError{Kind: ValidationFailed, Message: "Please check your email and password format", Err: err}
	case http.StatusInternalServerError:
		return &AuthError{Kind: ServerFailure, Message: "Server error. Please try again later", Err: err}
	}
	msg := api.MessageOf(err)
	if msg == "" {
		msg = "Login failed. Please check your connection"
	}
	return &AuthError{Kind: NetworkFailure, Message: msg, Err: err}
}

func registerError(err error) *AuthError {
	switch api.StatusOf(err) {
	case http.StatusConflict:
		return &AuthError{Kind: EmailTaken, Message: "Email already registered", Err: err}
	case http.StatusUnprocessableEntity:
		return &AuthError{Kind: ValidationFailed, Message: "Please check your registration details", Err: err}
	}
	msg := api.MessageOf(err)
	if msg == "" {
		msg = "Registration failed"
	}
	kind := NetworkFailure
	if errors.Is(err, api.ErrServer) {
		kind = ServerFailure
	}
	return &AuthError{Kind: kind, Message: msg, Err: err}
}
