package token

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

func TestUseCases(t *testing.T) {
	var (
		aliceCond = weavetest.NewCondition()
		bobCond   = weavetest.NewCondition()
	)

	createTx := func(symbol string, holder weave.Address, supply int64) weave.Tx {
		return &weavetest.Tx{Msg: &CreateTokenMsg{
			Metadata:      &weave.Metadata{Schema: 1},
			Symbol:        symbol,
			Holder:        holder,
			InitialSupply: supply,
		}}
	}
	transferTx := func(contract, dest weave.Address, amount int64) weave.Tx {
		return &weavetest.Tx{Msg: &TransferTokenMsg{
			Metadata: &weave.Metadata{Schema: 1},
			Contract: contract,
			Dest:     dest,
			Amount:   amount,
		}}
	}

	type Request struct {
		Conditions []weave.Condition
		Tx         weave.Tx
		WantErr    *errors.Error
	}

	type Holding struct {
		Contract weave.Address
		Holder   weave.Address
		Amount   int64
	}

	cases := map[string]struct {
		Requests     []Request
		WantHoldings []Holding
	}{
		"creating a token credits the initial supply to the holder": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         createTx("DRP", aliceCond.Address(), 1000),
				},
			},
			WantHoldings: []Holding{
				{Contract: ContractAddr("DRP"), Holder: aliceCond.Address(), Amount: 1000},
			},
		},
		"a symbol can be registered only once": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         createTx("DRP", aliceCond.Address(), 1000),
				},
				{
					Conditions: []weave.Condition{bobCond},
					Tx:         createTx("DRP", bobCond.Address(), 5),
					WantErr:    errors.ErrDuplicate,
				},
			},
		},
		"an invalid symbol is rejected": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         createTx("drp!", aliceCond.Address(), 1000),
					WantErr:    errors.ErrCurrency,
				},
			},
		},
		"tokens move from the main signer to the destination": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         createTx("DRP", aliceCond.Address(), 1000),
				},
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         transferTx(ContractAddr("DRP"), bobCond.Address(), 400),
				},
			},
			WantHoldings: []Holding{
				{Contract: ContractAddr("DRP"), Holder: aliceCond.Address(), Amount: 600},
				{Contract: ContractAddr("DRP"), Holder: bobCond.Address(), Amount: 400},
			},
		},
		"an address cannot spend more than it holds": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         createTx("DRP", aliceCond.Address(), 1000),
				},
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         transferTx(ContractAddr("DRP"), bobCond.Address(), 1001),
					WantErr:    errors.ErrAmount,
				},
			},
			WantHoldings: []Holding{
				{Contract: ContractAddr("DRP"), Holder: aliceCond.Address(), Amount: 1000},
				{Contract: ContractAddr("DRP"), Holder: bobCond.Address(), Amount: 0},
			},
		},
		"an unknown contract cannot be transferred": {
			Requests: []Request{
				{
					Conditions: []weave.Condition{aliceCond},
					Tx:         transferTx(ContractAddr("DRP"), bobCond.Address(), 1),
					WantErr:    errors.ErrNotFound,
				},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			migration.MustInitPkg(db, "token")

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

			ctrl := NewController()
			for _, want := range tc.WantHoldings {
				held, err := ctrl.Balance(db, want.Contract, want.Holder)
				assert.Nil(t, err)
				assert.Equal(t, want.Amount, held)
			}
		})
	}
}
