package service

import "errors"

// Sentinel errors returned by the workflow services. Handlers map these to
// HTTP statuses; anything else is treated as a store failure.
var (
	ErrSelfRequest      = errors.New("cannot send a connection request to yourself")
	ErrDuplicateRequest = errors.New("a pending request to this user already exists")
	ErrAlreadyConnected = errors.New("users are already connected")
	ErrRequestNotFound  = errors.New("request not found")
	ErrNotPending       = errors.New("request is no longer pending")
	ErrNotReceiver      = errors.New("request is not addressed to this user")
	ErrInvalidAction    = errors.New("unknown response action")
	ErrInvalidRecipient = errors.New("notification recipient is empty")
	ErrNotHost          = errors.New("only the host may respond to join requests")
	ErrRunFull          = errors.New("run is already full")
	ErrAlreadyMember    = errors.New("user is already a member of this run")
	ErrNotConnected     = errors.New("users are not connected")
	ErrNotFound         = errors.New("record not found")
)
