package service

import (
	"errors"
)

// Rejection errors returned by the engines. Each one maps to a specific
// user-visible message in the bot layer and is never escalated.
var (
	ErrAlreadyClaimedToday = errors.New("daily reward already claimed today")
	ErrSelfReferral        = errors.New("cannot redeem your own referral code")
	ErrAlreadyReferred     = errors.New("referral code already redeemed")
	ErrUnknownCode         = errors.New("unknown referral code")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRaffleClosed        = errors.New("raffle is closed")
	ErrOutOfStock          = errors.New("item is out of stock")
	ErrUserNotFound        = errors.New("user not found")
	ErrNotFound            = errors.New("not found")
)

// IsRejection reports whether err is a user-facing rejection rather than a
// storage or transport failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrAlreadyClaimedToday,
		ErrSelfReferral,
		ErrAlreadyReferred,
		ErrUnknownCode,
		ErrInsufficientBalance,
		ErrRaffleClosed,
		ErrOutOfStock,
		ErrUserNotFound,
		ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
