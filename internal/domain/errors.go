package domain

import "errors"

var (
	// ErrNotFound is returned when the requested item does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when the operation is illegal for the item's current status
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidBid is returned when the amount violates the auction variant's rule
	ErrInvalidBid = errors.New("invalid bid")
	// ErrExpired is returned for a forward auction past its end time
	ErrExpired = errors.New("auction expired")
	// ErrInvalidPayer is returned when someone other than the winner tries to pay
	ErrInvalidPayer = errors.New("invalid payer")
	// ErrOutstandingPayment is returned when a bidder still has a won but unpaid item
	ErrOutstandingPayment = errors.New("outstanding payment")
	// ErrValidation is returned for bad construction or request parameters
	ErrValidation = errors.New("validation error")
	// ErrInfrastructure is returned when persistence fails during an operation
	ErrInfrastructure = errors.New("infrastructure error")

	ErrConflict  = errors.New("already exists")
	ErrNotSeller = errors.New("caller is not the seller")

	// ErrVersionConflict is raised by stores when an item changed since it was read.
	ErrVersionConflict = errors.New("item version conflict")
)

// IsDomainError reports whether err is a recoverable rule violation rather
// than an infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidState, ErrInvalidBid, ErrExpired, ErrInvalidPayer,
		ErrOutstandingPayment, ErrValidation, ErrConflict, ErrNotSeller,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
