package domain

import (
	"errors"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrNoUpdatedData   = errors.New("no data to update")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")

	// * Communication errors.
	ErrBadRequest = errors.New("error parsing request")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrExpiredToken               = errors.New("access token has expired")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrInvalidCredentials         = errors.New("invalid login or password")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrUnauthorized               = errors.New("user is unauthorized to access the resource")
	ErrForbidden                  = errors.New("user is forbidden to access the resource")

	// * Business errors.
	ErrDuplicateOrder    = errors.New("order of this class already exists for today")
	ErrRestrictedItems   = errors.New("beneficiary accounts may order free-sale dishes only")
	ErrNotEligible       = errors.New("account has no beneficiary entitlement")
	ErrDishNotFound      = errors.New("some dishes were not found in the menu")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrInsufficientFunds = errors.New("balance would breach the debt ceiling")
	ErrImmutableOrder    = errors.New("beneficiary orders cannot be edited")

	// ErrTransient marks aborts caused by the store itself (serialization
	// conflict, deadlock, timeout). Safe to retry from scratch; every other
	// error above is deterministic for the same input.
	ErrTransient = errors.New("transient storage conflict")
)
