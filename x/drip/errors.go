package drip

import (
	"github.com/iov-one/weave/errors"
)

// x/drip reserves 1500 ~ 1519.
var (
	// ErrAlreadyParticipant is returned when an address that is already
	// registered tries to register again.
	ErrAlreadyParticipant = errors.Register(1500, "already a participant")

	// ErrPoolExists is returned when creating a pool for a token that
	// already has one.
	ErrPoolExists = errors.Register(1501, "drip pool exists")

	// ErrZeroTokenPool is returned when creating a pool with a zero
	// funding amount.
	ErrZeroTokenPool = errors.Register(1502, "zero amount drip pool")

	// ErrNotFunded is returned when the drip account does not hold the
	// amount declared at pool creation.
	ErrNotFunded = errors.Register(1503, "drip account not funded")

	// ErrWrongTokensAmount is returned when the declared funding does not
	// equal tokens per epoch times the number of epochs.
	ErrWrongTokensAmount = errors.Register(1504, "wrong tokens amount")

	// ErrLessThanOneEpoch is returned when the division of the funding
	// into epochs yields less than one epoch.
	ErrLessThanOneEpoch = errors.Register(1505, "less than one epoch")

	// ErrNoActivePool is returned when a distribution cycle runs with no
	// active pool.
	ErrNoActivePool = errors.Register(1506, "no active drip pool")

	// ErrNoDistributionTime is returned when a distribution cycle runs
	// before the configured distribution time.
	ErrNoDistributionTime = errors.Register(1507, "distribution time not reached")

	// ErrInvalidActivePool is returned when the active pool index refers
	// to a token without a stored pool.
	ErrInvalidActivePool = errors.Register(1508, "invalid active drip pool")

	// ErrPoolNotEnoughFunds is returned when a pool cannot release a full
	// epoch from its remaining funds.
	ErrPoolNotEnoughFunds = errors.Register(1509, "pool has not enough funds")

	// ErrNothingToWithdraw is returned when a withdrawal is requested by
	// an address without shares.
	ErrNothingToWithdraw = errors.Register(1510, "no tokens to withdraw")
)
