package stake

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/app"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
)

func TestSetDelegation(t *testing.T) {
	var (
		valCond   = weavetest.NewCondition()
		val2Cond  = weavetest.NewCondition()
		aliceCond = weavetest.NewCondition()
	)

	setTx := func(delegator, validator weave.Address, amount int64) weave.Tx {
		return &weavetest.Tx{Msg: &SetDelegationMsg{
			Metadata:  &weave.Metadata{Schema: 1},
			Delegator: delegator,
			Validator: validator,
			Amount:    amount,
		}}
	}

	type Request struct {
		Conditions []weave.Condition
		Tx         weave.Tx
		WantErr    *errors.Error
	}

	type Total struct {
		Delegator weave.Address
		Amount    int64
	}

	cases := map[string]struct {
		Requests  []Request
		WantTotal []Total
	}{
		"a validator can declare a delegation": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{valCond},
					Tx:         setTx(aliceCond.Address(), valCond.Address(), 1000),
				},
			},
			WantTotal: []Total{
				{Delegator: aliceCond.Address(), Amount: 1000},
			},
		},
		"only the validator can declare its delegations": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         setTx(aliceCond.Address(), valCond.Address(), 1000),
					WantErr:    errors.ErrUnauthorized,
				},
			},
			WantTotal: []Total{
				{Delegator: aliceCond.Address(), Amount: 0},
			},
		},
		"a declaration overwrites the previous amount": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{valCond},
					Tx:         setTx(aliceCond.Address(), valCond.Address(), 1000),
				},
				{
					Conditions: []weave.Condition{valCond},
					Tx:         setTx(aliceCond.Address(), valCond.Address(), 400),
				},
			},
			WantTotal: []Total{
				{Delegator: aliceCond.Address(), Amount: 400},
			},
		},
		"a zero amount removes the delegation": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{valCond},
					Tx:         setTx(aliceCond.Address(), valCond.Address(), 1000),
				},
				{
					Conditions: []weave.Condition{valCond},
					Tx:         setTx(aliceCond.Address(), valCond.Address(), 0),
				},
			},
			WantTotal: []Total{
				{Delegator: aliceCond.Address(), Amount: 0},
			},
		},
		"delegations with different validators are summed up": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{valCond},
					Tx:         setTx(aliceCond.Address(), valCond.Address(), 1000),
				},
				{
					Conditions: []weave.Condition{val2Cond},
					Tx:         setTx(aliceCond.Address(), val2Cond.Address(), 234),
				},
			},
			WantTotal: []Total{
				{Delegator: aliceCond.Address(), Amount: 1234},
			},
		},
		"a negative amount is rejected": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{valCond},
					Tx:         setTx(aliceCond.Address(), valCond.Address(), -5),
					WantErr:    errors.ErrAmount,
				},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			migration.MustInitPkg(db, "stake")

			rt := app.NewRouter()
			auth := &weavetest.CtxAuth{Key: "auth"}
			RegisterRoutes(rt, auth)

			for i, req := range tc.Requests {
				ctx := weave.WithHeight(context.Background(), int64(100+i))
				ctx = weave.WithChainID(ctx, "testchain-123")
				ctx = auth.SetConditions(ctx, req.Conditions...)

				cache := db.CacheWrap()
				if _, err := rt.Check(ctx, cache, req.Tx); !req.WantErr.Is(err) {
					t.Fatalf("unexpected check error for request #%d: %+v", i, err)
				}
				cache.Discard()
				if _, err := rt.Deliver(ctx, db, req.Tx); !req.WantErr.Is(err) {
					t.Fatalf("unexpected deliver error for request #%d: %+v", i, err)
				}
			}

			q := NewQuerier()
			for _, want := range tc.WantTotal {
				total, err := q.TotalDelegated(db, want.Delegator)
				assert.Nil(t, err)
				assert.Equal(t, want.Amount, total)
			}
		})
	}
}
