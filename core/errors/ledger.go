package errors

import stderrors "errors"

var (
	ErrInvalidDuration                = stderrors.New("lock duration out of range")
	ErrBelowMinimumAmount             = stderrors.New("amount below minimum locked amount")
	ErrNoActiveLock                   = stderrors.New("no active lock")
	ErrLockExists                     = stderrors.New("lock already exists")
	ErrLockExpired                    = stderrors.New("lock expired")
	ErrLockNotExpired                 = stderrors.New("lock not expired")
	ErrAlreadyLinked                  = stderrors.New("already linked")
	ErrNotLinked                      = stderrors.New("not linked")
	ErrUnknownRewardToken             = stderrors.New("unknown reward token")
	ErrInsufficientAllowanceOrBalance = stderrors.New("insufficient allowance or balance")
	ErrUnauthorized                   = stderrors.New("unauthorized")
	ErrPenaltyCollectorUnset          = stderrors.New("penalty collector not set")
	ErrInvalidAmount                  = stderrors.New("amount must be positive")
)
