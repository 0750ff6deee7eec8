package domain

import "errors"

var (
	// ErrAccountNotFound is returned when the requested account has no local row
	ErrAccountNotFound = errors.New("account not found")

	// ErrOwnerNotFound is returned when an account exists but carries no owner row
	ErrOwnerNotFound = errors.New("account owner not found")

	// ErrInvalidArchive is returned when a tar stream is not a readable account archive
	ErrInvalidArchive = errors.New("invalid account archive")

	// ErrIdentityMismatch is returned when the actor document cannot yield an identity
	ErrIdentityMismatch = errors.New("actor identity mismatch")

	// ErrCollectionUnavailable is returned when a remote collection cannot be fetched
	ErrCollectionUnavailable = errors.New("remote collection unavailable")
)
