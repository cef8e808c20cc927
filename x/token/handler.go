package token

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
)

const (
	createTokenCost   = 300
	transferTokenCost = 100
)

// RegisterQuery registers token contracts and balances for queries.
func RegisterQuery(qr weave.QueryRouter) {
	NewTokenInfoBucket().Register("tokens", qr)
	NewBalanceBucket().Register("tokenbalances", qr)
}

// RegisterRoutes registers handlers for token message processing.
func RegisterRoutes(r weave.Registry, auth x.Authenticator) {
	r = migration.SchemaMigratingRegistry("token", r)
	ctrl := NewController()

	r.Handle(&CreateTokenMsg{}, &createTokenHandler{auth: auth, infos: NewTokenInfoBucket(), ctrl: ctrl})
	r.Handle(&TransferTokenMsg{}, &transferTokenHandler{auth: auth, ctrl: ctrl})
}

type createTokenHandler struct {
	auth  x.Authenticator
	infos orm.ModelBucket
	ctrl  *Controller
}

func (h *createTokenHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createTokenCost}, nil
}

func (h *createTokenHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	contract := ContractAddr(msg.Symbol)
	info := TokenInfo{
		Metadata: &weave.Metadata{Schema: 1},
		Symbol:   msg.Symbol,
	}
	if _, err := h.infos.Put(db, contract, &info); err != nil {
		return nil, errors.Wrap(err, "cannot store token info")
	}
	if err := h.ctrl.set(db, contract, msg.Holder, msg.InitialSupply); err != nil {
		return nil, errors.Wrap(err, "cannot credit initial supply")
	}
	return &weave.DeliverResult{Data: contract}, nil
}

func (h *createTokenHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateTokenMsg, error) {
	var msg CreateTokenMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	switch err := h.infos.Has(db, ContractAddr(msg.Symbol)); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "token %s exists", msg.Symbol)
	case errors.ErrNotFound.Is(err):
		// All good, the symbol is free.
	default:
		return nil, errors.Wrap(err, "token info")
	}
	return &msg, nil
}

type transferTokenHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

func (h *transferTokenHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if err := h.move(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: transferTokenCost}, nil
}

func (h *transferTokenHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := h.move(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

// move runs the transfer on the given store, so that check reports the
// same failures as deliver would.
func (h *transferTokenHandler) move(ctx weave.Context, db weave.KVStore, tx weave.Tx) error {
	var msg TransferTokenMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return errors.Wrap(err, "load msg")
	}
	sender := x.AnySigner(ctx, h.auth)
	if sender == nil {
		return errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	return h.ctrl.Transfer(db, msg.Contract, sender.Address(), msg.Dest, msg.Amount)
}
