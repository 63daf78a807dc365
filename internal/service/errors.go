package service

import "errors"

// Tagged failure modes of the account and catalog services. Handlers map
// these to HTTP statuses; services never return transport errors.
var (
	// ErrEmailTaken signals a registration or email change against an
	// address another account already holds.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound signals an update against a nonexistent account id.
	ErrUserNotFound = errors.New("user not found")

	// ErrProductNotFound signals a lookup or mutation of a missing product.
	ErrProductNotFound = errors.New("product not found")
)
