package domain

import "errors"

var (
	// Provider errors
	ErrProviderNotFound  = errors.New("provider not found")
	ErrDuplicateProvider = errors.New("duplicate provider registration")
	ErrProviderExchange  = errors.New("provider exchange failed")
	ErrProviderUserFetch = errors.New("failed to fetch user from provider")
	ErrMissingAuthCode   = errors.New("missing authorization code")
	ErrProviderDenied    = errors.New("provider denied authorization")

	// State token errors
	ErrInvalidState     = errors.New("invalid state token")
	ErrExpiredState     = errors.New("expired state token")
	ErrMalformedState   = errors.New("malformed state token")
	ErrStateMismatch    = errors.New("state token does not match this browser")
	ErrProviderMismatch = errors.New("state token was issued for another provider")

	// Session errors
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")

	// Calculator errors
	ErrNotAuthenticated = errors.New("not authenticated")

	// Config errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)
