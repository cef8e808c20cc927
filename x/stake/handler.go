package stake

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
)

const setDelegationCost = 50

// RegisterQuery registers delegations for queries.
func RegisterQuery(qr weave.QueryRouter) {
	NewDelegationBucket().Register("delegations", qr)
}

// RegisterRoutes registers handlers for the delegation registry.
func RegisterRoutes(r weave.Registry, auth x.Authenticator) {
	r = migration.SchemaMigratingRegistry("stake", r)
	bucket := NewDelegationBucket()

	r.Handle(&SetDelegationMsg{}, &setDelegationHandler{auth: auth, bucket: bucket})
}

type setDelegationHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

func (h *setDelegationHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: setDelegationCost}, nil
}

func (h *setDelegationHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	key := delegationKey(msg.Delegator, msg.Validator)
	if msg.Amount == 0 {
		if err := h.bucket.Delete(db, key); err != nil && !errors.ErrNotFound.Is(err) {
			return nil, errors.Wrap(err, "cannot delete delegation")
		}
		return &weave.DeliverResult{}, nil
	}

	d := Delegation{
		Metadata:  &weave.Metadata{Schema: 1},
		Delegator: msg.Delegator,
		Validator: msg.Validator,
		Amount:    msg.Amount,
	}
	if _, err := h.bucket.Put(db, key, &d); err != nil {
		return nil, errors.Wrap(err, "cannot store delegation")
	}
	return &weave.DeliverResult{}, nil
}

// validate ensures the transaction carries a valid message, signed by the
// validator that the delegation is bonded with.
func (h *setDelegationHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*SetDelegationMsg, error) {
	var msg SetDelegationMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Validator) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "validator signature required")
	}
	return &msg, nil
}

// Querier provides read access to the delegation registry. It implements
// the capability that the drip extension consumes to weight participants.
type Querier struct {
	bucket orm.ModelBucket
}

// NewQuerier returns a Querier backed by the delegation bucket.
func NewQuerier() *Querier {
	return &Querier{bucket: NewDelegationBucket()}
}

// TotalDelegated returns the sum of all bonded amounts of the given
// delegator, across all validators. An address with no delegations has a
// total of zero.
func (q *Querier) TotalDelegated(db weave.KVStore, delegator weave.Address) (int64, error) {
	var dels []Delegation
	if _, err := q.bucket.ByIndex(db, "delegator", delegator, &dels); err != nil {
		return 0, errors.Wrap(err, "delegator index")
	}
	var total int64
	for _, d := range dels {
		total += d.Amount
		if total < 0 {
			return 0, errors.Wrap(errors.ErrOverflow, "total delegation")
		}
	}
	return total, nil
}
