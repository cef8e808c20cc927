package token

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/orm"
)

// Controller provides the business logic of moving tokens between
// addresses. It is the capability that other extensions consume to operate
// on token contracts.
type Controller struct {
	infos    orm.ModelBucket
	balances orm.ModelBucket
}

// NewController returns a controller backed by the token buckets.
func NewController() *Controller {
	return &Controller{
		infos:    NewTokenInfoBucket(),
		balances: NewBalanceBucket(),
	}
}

// TokenInfo returns the symbol of the token contract registered under the
// given address. It fails with ErrNotFound for an unknown contract.
func (c *Controller) TokenInfo(db weave.KVStore, contract weave.Address) (string, error) {
	var info TokenInfo
	if err := c.infos.One(db, contract, &info); err != nil {
		return "", errors.Wrap(err, "token info")
	}
	return info.Symbol, nil
}

// Balance returns the amount of tokens of the given contract held by an
// address. An address without a balance record holds zero tokens.
func (c *Controller) Balance(db weave.KVStore, contract, holder weave.Address) (int64, error) {
	var b Balance
	switch err := c.balances.One(db, balanceKey(contract, holder), &b); {
	case err == nil:
		return b.Amount, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "balance")
	}
}

// Transfer moves tokens of the given contract between two addresses.
func (c *Controller) Transfer(db weave.KVStore, contract, src, dest weave.Address, amount int64) error {
	if amount <= 0 {
		return errors.Wrap(errors.ErrAmount, "must be positive")
	}
	if err := c.infos.Has(db, contract); err != nil {
		return errors.Wrap(err, "token info")
	}

	held, err := c.Balance(db, contract, src)
	if err != nil {
		return err
	}
	if held < amount {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds: %d < %d", held, amount)
	}
	if err := c.set(db, contract, src, held-amount); err != nil {
		return errors.Wrap(err, "debit")
	}

	credit, err := c.Balance(db, contract, dest)
	if err != nil {
		return err
	}
	credit += amount
	if credit < 0 {
		return errors.Wrap(errors.ErrOverflow, "balance")
	}
	if err := c.set(db, contract, dest, credit); err != nil {
		return errors.Wrap(err, "credit")
	}
	return nil
}

// set writes the balance record of a holder. A zero amount removes the
// record instead.
func (c *Controller) set(db weave.KVStore, contract, holder weave.Address, amount int64) error {
	key := balanceKey(contract, holder)
	if amount == 0 {
		if err := c.balances.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	b := Balance{
		Metadata: &weave.Metadata{Schema: 1},
		Amount:   amount,
	}
	_, err := c.balances.Put(db, key, &b)
	return err
}
