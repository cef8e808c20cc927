package drip

import (
	"context"
	"encoding/binary"
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/app"
	coin "github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/x/cash"
)

func TestUseCases(t *testing.T) {
	type Request struct {
		Now         weave.UnixTime
		Conditions  []weave.Condition
		Tx          weave.Tx
		BlockHeight int64
		WantErr     *errors.Error
	}

	type AccountBalance struct {
		Wallet weave.Address
		Amount coin.Coin
	}

	type TokenBalance struct {
		Contract weave.Address
		Holder   weave.Address
		Amount   int64
	}

	var (
		adminCond   = weavetest.NewCondition()
		aliceCond   = weavetest.NewCondition()
		bobCond     = weavetest.NewCondition()
		charlieCond = weavetest.NewCondition()

		tokenContract = weavetest.NewCondition().Address()

		now   = weave.UnixTime(1572247483)
		epoch = weave.UnixDuration(3600)
	)

	participateTx := func() weave.Tx {
		return &weavetest.Tx{Msg: &ParticipateMsg{Metadata: &weave.Metadata{Schema: 1}}}
	}
	createPoolTx := func(ticker string, amount, perEpoch, epochs int64) weave.Tx {
		return &weavetest.Tx{Msg: &CreateDripPoolMsg{
			Metadata:       &weave.Metadata{Schema: 1},
			Token:          &DripToken{Ticker: ticker, Available: amount},
			TokensPerEpoch: perEpoch,
			EpochsNumber:   epochs,
		}}
	}
	distributeTx := func() weave.Tx {
		return &weavetest.Tx{Msg: &DistributeSharesMsg{Metadata: &weave.Metadata{Schema: 1}}}
	}
	withdrawTx := func() weave.Tx {
		return &weavetest.Tx{Msg: &WithdrawTokensMsg{Metadata: &weave.Metadata{Schema: 1}}}
	}

	cases := map[string]struct {
		Requests      []Request
		Funds         []AccountBalance
		Delegations   map[string]int64
		MinStaking    int64
		TokenSymbols  map[string]string
		TokenBalances []TokenBalance
		AfterTest     func(t *testing.T, db weave.KVStore, tokens *tokenMock)
	}{
		"an address can register only once": {
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:         now + 1,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 101,
					WantErr:     ErrAlreadyParticipant,
				},
			},
		},
		"removing a participation is a noop for an unknown address": {
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:        now + 1,
					Conditions: []weave.Condition{aliceCond},
					Tx: &weavetest.Tx{Msg: &RemoveParticipationMsg{
						Metadata: &weave.Metadata{Schema: 1},
					}},
					BlockHeight: 101,
					WantErr:     nil,
				},
				{
					Now:        now + 2,
					Conditions: []weave.Condition{bobCond},
					Tx: &weavetest.Tx{Msg: &RemoveParticipationMsg{
						Metadata: &weave.Metadata{Schema: 1},
					}},
					BlockHeight: 102,
					WantErr:     nil,
				},
			},
		},
		"only the configuration owner can create a pool": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(10000, 0, "IOV")},
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          createPoolTx("IOV", 10000, 1000, 10),
					BlockHeight: 100,
					WantErr:     errors.ErrUnauthorized,
				},
			},
		},
		"a pool cannot be created with a zero amount": {
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 0, 0, 10),
					BlockHeight: 100,
					WantErr:     ErrZeroTokenPool,
				},
			},
		},
		"a pool must distribute for at least one epoch": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(100, 0, "IOV")},
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 100, 100, 0),
					BlockHeight: 100,
					WantErr:     ErrLessThanOneEpoch,
				},
			},
		},
		"the declared amount must split into whole epochs": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(100, 0, "IOV")},
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 100, 30, 3),
					BlockHeight: 100,
					WantErr:     ErrWrongTokensAmount,
				},
			},
		},
		"the drip account must hold the declared amount": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(500, 0, "IOV")},
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 10000, 1000, 10),
					BlockHeight: 100,
					WantErr:     ErrNotFunded,
				},
			},
		},
		"only one pool per token": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(20000, 0, "IOV")},
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 10000, 1000, 10),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:         now + 1,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 10000, 1000, 10),
					BlockHeight: 101,
					WantErr:     ErrPoolExists,
				},
			},
		},
		"distribution requires an active pool": {
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 100,
					WantErr:     ErrNoActivePool,
				},
			},
		},
		"distribution respects the schedule": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(10000, 0, "IOV")},
			},
			Delegations: map[string]int64{
				aliceCond.Address().String(): 1000000,
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 10000, 1000, 10),
					BlockHeight: 101,
					WantErr:     nil,
				},
				{
					Now:         now - 10,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 102,
					WantErr:     ErrNoDistributionTime,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 103,
					WantErr:     nil,
				},
				{
					// The schedule moved one epoch forward.
					Now:         now + 10,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 104,
					WantErr:     ErrNoDistributionTime,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore, tokens *tokenMock) {
				pool := loadPool(t, db, "IOV")
				if pool.Epoch != 1 {
					t.Fatalf("want epoch 1, got %d", pool.Epoch)
				}
				if pool.Withdrawable != 1000 {
					t.Fatalf("want withdrawable 1000, got %d", pool.Withdrawable)
				}
				if pool.Token.Available != 9000 {
					t.Fatalf("want available 9000, got %d", pool.Token.Available)
				}
				if pool.IssuedShares != 1000000 {
					t.Fatalf("want issued shares 1000000, got %d", pool.IssuedShares)
				}

				var conf Configuration
				if err := gconf.Load(db, "drip", &conf); err != nil {
					t.Fatalf("load configuration: %s", err)
				}
				if want := now.Add(epoch.Duration()); conf.NextDistributionTime != want {
					t.Fatalf("want next distribution at %s, got %s", want, conf.NextDistributionTime)
				}
			},
		},
		"a participant can withdraw its cut once": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(10000, 0, "IOV")},
			},
			Delegations: map[string]int64{
				aliceCond.Address().String(): 1000000,
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 10000, 1000, 10),
					BlockHeight: 101,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 102,
					WantErr:     nil,
				},
				{
					Now:         now + 10,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          withdrawTx(),
					BlockHeight: 103,
					WantErr:     nil,
				},
				{
					Now:         now + 20,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          withdrawTx(),
					BlockHeight: 104,
					WantErr:     ErrNothingToWithdraw,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore, tokens *tokenMock) {
				assertFunds(t, db, aliceCond.Address(), coin.NewCoin(1000, 0, "IOV"))
				assertFunds(t, db, DripAccount(), coin.NewCoin(9000, 0, "IOV"))

				pool := loadPool(t, db, "IOV")
				if pool.IssuedShares != 0 {
					t.Fatalf("want no issued shares, got %d", pool.IssuedShares)
				}
				if pool.Withdrawable != 0 {
					t.Fatalf("want nothing withdrawable, got %d", pool.Withdrawable)
				}
			},
		},
		"a cycle mints the same shares into every active pool": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(10000, 0, "IOV")},
				{Wallet: DripAccount(), Amount: coin.NewCoin(5000, 0, "BTC")},
			},
			Delegations: map[string]int64{
				aliceCond.Address().String():   1000000,
				bobCond.Address().String():     2000000,
				charlieCond.Address().String(): 3000000,
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{bobCond},
					Tx:          participateTx(),
					BlockHeight: 101,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{charlieCond},
					Tx:          participateTx(),
					BlockHeight: 102,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 10000, 1000, 10),
					BlockHeight: 103,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("BTC", 5000, 500, 10),
					BlockHeight: 104,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 105,
					WantErr:     nil,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore, tokens *tokenMock) {
				for _, token := range []string{"IOV", "BTC"} {
					pool := loadPool(t, db, token)
					if pool.IssuedShares != 6000000 {
						t.Fatalf("pool %s: want issued shares 6000000, got %d", token, pool.IssuedShares)
					}
					if pool.Epoch != 1 {
						t.Fatalf("pool %s: want epoch 1, got %d", token, pool.Epoch)
					}
				}
			},
		},
		"participants below the staking minimum collect nothing": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(10000, 0, "IOV")},
			},
			MinStaking: 1000,
			Delegations: map[string]int64{
				aliceCond.Address().String(): 5000,
				bobCond.Address().String():   999,
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{bobCond},
					Tx:          participateTx(),
					BlockHeight: 101,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 10000, 1000, 10),
					BlockHeight: 102,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 103,
					WantErr:     nil,
				},
				{
					Now:         now + 10,
					Conditions:  []weave.Condition{bobCond},
					Tx:          withdrawTx(),
					BlockHeight: 104,
					WantErr:     ErrNothingToWithdraw,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore, tokens *tokenMock) {
				pool := loadPool(t, db, "IOV")
				if pool.IssuedShares != 5000 {
					t.Fatalf("want issued shares 5000, got %d", pool.IssuedShares)
				}
			},
		},
		"an exhausted pool is retired but can still be withdrawn from": {
			Funds: []AccountBalance{
				{Wallet: DripAccount(), Amount: coin.NewCoin(1000, 0, "IOV")},
			},
			Delegations: map[string]int64{
				aliceCond.Address().String(): 1000000,
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{adminCond},
					Tx:          createPoolTx("IOV", 1000, 1000, 1),
					BlockHeight: 101,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 102,
					WantErr:     nil,
				},
				{
					// The only pool released all epochs and left the
					// active set.
					Now:         now + weave.UnixTime(2*epoch),
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 103,
					WantErr:     ErrNoActivePool,
				},
				{
					Now:         now + weave.UnixTime(2*epoch) + 10,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          withdrawTx(),
					BlockHeight: 104,
					WantErr:     nil,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore, tokens *tokenMock) {
				assertFunds(t, db, aliceCond.Address(), coin.NewCoin(1000, 0, "IOV"))
			},
		},
		"an external token pool moves funds through the token contract": {
			TokenSymbols: map[string]string{
				tokenContract.String(): "DRP",
			},
			TokenBalances: []TokenBalance{
				{Contract: tokenContract, Holder: DripAccount(), Amount: 500},
			},
			Delegations: map[string]int64{
				aliceCond.Address().String(): 1000000,
			},
			Requests: []Request{
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          participateTx(),
					BlockHeight: 100,
					WantErr:     nil,
				},
				{
					Now:        now,
					Conditions: []weave.Condition{adminCond},
					Tx: &weavetest.Tx{Msg: &CreateDripPoolMsg{
						Metadata:       &weave.Metadata{Schema: 1},
						Token:          &DripToken{Contract: tokenContract, Available: 500},
						TokensPerEpoch: 100,
						EpochsNumber:   5,
					}},
					BlockHeight: 101,
					WantErr:     nil,
				},
				{
					Now:         now,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          distributeTx(),
					BlockHeight: 102,
					WantErr:     nil,
				},
				{
					Now:         now + 10,
					Conditions:  []weave.Condition{aliceCond},
					Tx:          withdrawTx(),
					BlockHeight: 103,
					WantErr:     nil,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore, tokens *tokenMock) {
				if got := tokenFunds(t, db, tokens, tokenContract, aliceCond.Address()); got != 100 {
					t.Fatalf("want 100 tokens withdrawn, got %d", got)
				}
				if got := tokenFunds(t, db, tokens, tokenContract, DripAccount()); got != 400 {
					t.Fatalf("want 400 tokens left, got %d", got)
				}
			},
		},
		"an unknown token contract cannot back a pool": {
			Requests: []Request{
				{
					Now:        now,
					Conditions: []weave.Condition{adminCond},
					Tx: &weavetest.Tx{Msg: &CreateDripPoolMsg{
						Metadata:       &weave.Metadata{Schema: 1},
						Token:          &DripToken{Contract: tokenContract, Available: 500},
						TokensPerEpoch: 100,
						EpochsNumber:   5,
					}},
					BlockHeight: 100,
					WantErr:     errors.ErrNotFound,
				},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			migration.MustInitPkg(db, "drip", "cash")

			rt := app.NewRouter()
			auth := &weavetest.CtxAuth{Key: "auth"}
			ctrl := cash.NewController(cash.NewBucket())
			staking := &stakingMock{delegations: tc.Delegations}
			tokens := &tokenMock{symbols: tc.TokenSymbols}
			RegisterRoutes(rt, auth, ctrl, staking, tokens)

			for _, b := range tc.Funds {
				if err := ctrl.CoinMint(db, b.Wallet, b.Amount); err != nil {
					t.Fatalf("cannot mint coins for %q: %s", b.Wallet, err)
				}
			}
			for _, b := range tc.TokenBalances {
				if err := tokens.set(db, b.Contract, b.Holder, b.Amount); err != nil {
					t.Fatalf("cannot fund token balance for %q: %s", b.Holder, err)
				}
			}

			config := Configuration{
				Metadata:             &weave.Metadata{Schema: 1},
				Owner:                adminCond.Address(),
				MinStakingAmount:     tc.MinStaking,
				EpochDuration:        epoch,
				NextDistributionTime: now,
			}
			if err := gconf.Save(db, "drip", &config); err != nil {
				t.Fatalf("cannot save configuration: %s", err)
			}

			for i, req := range tc.Requests {
				ctx := weave.WithHeight(context.Background(), req.BlockHeight)
				ctx = weave.WithChainID(ctx, "testchain-123")
				ctx = auth.SetConditions(ctx, req.Conditions...)
				ctx = weave.WithBlockTime(ctx, req.Now.Time())

				cache := db.CacheWrap()
				if _, err := rt.Check(ctx, cache, req.Tx); !req.WantErr.Is(err) {
					t.Fatalf("unexpected %d check error: want %q, got %+v", i, req.WantErr, err)
				}
				cache.Discard()
				if _, err := rt.Deliver(ctx, db, req.Tx); !req.WantErr.Is(err) {
					t.Fatalf("unexpected %d deliver error: want %q, got %+v", i, req.WantErr, err)
				}
			}

			if tc.AfterTest != nil {
				tc.AfterTest(t, db, tokens)
			}
		})
	}
}

func loadPool(t testing.TB, db weave.KVStore, token string) *DripPool {
	t.Helper()

	var pool DripPool
	if err := NewPoolBucket().One(db, []byte(token), &pool); err != nil {
		t.Fatalf("cannot load pool %q: %s", token, err)
	}
	return &pool
}

func tokenFunds(t testing.TB, db weave.KVStore, tokens *tokenMock, contract weave.Address, holder weave.Address) int64 {
	t.Helper()

	amount, err := tokens.Balance(db, contract, holder)
	if err != nil {
		t.Fatalf("token balance of %q: %s", holder, err)
	}
	return amount
}

func assertFunds(t testing.TB, db weave.KVStore, wallet weave.Address, funds coin.Coin) {
	t.Helper()

	ctrl := cash.NewController(cash.NewBucket())
	coins, err := ctrl.Balance(db, wallet)
	if err != nil {
		t.Fatalf("balance: %s", err)
	}
	for _, c := range coins {
		if c.Ticker == funds.Ticker {
			if !c.Equals(funds) {
				t.Fatalf("unexpected %s funds: %q", funds.Ticker, c)
			}
			return
		}
	}
	t.Fatalf("no %s funds in %q", funds.Ticker, coins)
}

// stakingMock implements the StakingQuerier interface, serving delegations
// from a fixed declaration.
type stakingMock struct {
	delegations map[string]int64
}

var _ StakingQuerier = (*stakingMock)(nil)

func (m *stakingMock) TotalDelegated(db weave.KVStore, delegator weave.Address) (int64, error) {
	return m.delegations[delegator.String()], nil
}

// tokenMock implements the TokenController interface. Balances are kept in
// the store so that discarding a cache rolls transfers back, the same way it
// does for any other module.
type tokenMock struct {
	symbols map[string]string
}

var _ TokenController = (*tokenMock)(nil)

func (m *tokenMock) TokenInfo(db weave.KVStore, contract weave.Address) (string, error) {
	symbol, ok := m.symbols[contract.String()]
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "no contract %q", contract)
	}
	return symbol, nil
}

func (m *tokenMock) Balance(db weave.KVStore, contract weave.Address, holder weave.Address) (int64, error) {
	if _, ok := m.symbols[contract.String()]; !ok {
		return 0, errors.Wrapf(errors.ErrNotFound, "no contract %q", contract)
	}
	raw, err := db.Get(tokenBalanceKey(contract, holder))
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}

func (m *tokenMock) Transfer(db weave.KVStore, contract weave.Address, src weave.Address, dest weave.Address, amount int64) error {
	held, err := m.Balance(db, contract, src)
	if err != nil {
		return err
	}
	if held < amount {
		return errors.Wrapf(errors.ErrAmount, "only %d available", held)
	}
	if err := m.set(db, contract, src, held-amount); err != nil {
		return err
	}
	destHeld, err := m.Balance(db, contract, dest)
	if err != nil {
		return err
	}
	return m.set(db, contract, dest, destHeld+amount)
}

func (m *tokenMock) set(db weave.KVStore, contract weave.Address, holder weave.Address, amount int64) error {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(amount))
	return db.Set(tokenBalanceKey(contract, holder), raw)
}

func tokenBalanceKey(contract weave.Address, holder weave.Address) []byte {
	return []byte("tokenmock:" + contract.String() + "/" + holder.String())
}

func TestDistributeReportsMintedShares(t *testing.T) {
	var (
		adminCond = weavetest.NewCondition()
		aliceCond = weavetest.NewCondition()
		now       = weave.UnixTime(1572247483)
	)

	db := store.MemStore()
	migration.MustInitPkg(db, "drip", "cash")

	rt := app.NewRouter()
	auth := &weavetest.CtxAuth{Key: "auth"}
	ctrl := cash.NewController(cash.NewBucket())
	staking := &stakingMock{delegations: map[string]int64{
		aliceCond.Address().String(): 1000000,
	}}
	RegisterRoutes(rt, auth, ctrl, staking, &tokenMock{})

	if err := ctrl.CoinMint(db, DripAccount(), coin.NewCoin(10000, 0, "IOV")); err != nil {
		t.Fatalf("cannot mint coins: %s", err)
	}
	config := Configuration{
		Metadata:             &weave.Metadata{Schema: 1},
		Owner:                adminCond.Address(),
		EpochDuration:        weave.UnixDuration(3600),
		NextDistributionTime: now,
	}
	if err := gconf.Save(db, "drip", &config); err != nil {
		t.Fatalf("cannot save configuration: %s", err)
	}

	ctx := weave.WithHeight(context.Background(), 100)
	ctx = weave.WithChainID(ctx, "testchain-123")
	ctx = weave.WithBlockTime(ctx, now.Time())

	deliver := func(cond weave.Condition, msg weave.Msg) *weave.DeliverResult {
		t.Helper()
		res, err := rt.Deliver(auth.SetConditions(ctx, cond), db, &weavetest.Tx{Msg: msg})
		if err != nil {
			t.Fatalf("deliver %s: %+v", msg.Path(), err)
		}
		return res
	}

	deliver(aliceCond, &ParticipateMsg{Metadata: &weave.Metadata{Schema: 1}})
	deliver(adminCond, &CreateDripPoolMsg{
		Metadata:       &weave.Metadata{Schema: 1},
		Token:          &DripToken{Ticker: "IOV", Available: 10000},
		TokensPerEpoch: 1000,
		EpochsNumber:   10,
	})

	res := deliver(aliceCond, &DistributeSharesMsg{Metadata: &weave.Metadata{Schema: 1}})
	if len(res.Data) != 8 {
		t.Fatalf("want 8 bytes of result data, got %d", len(res.Data))
	}
	if got := int64(binary.BigEndian.Uint64(res.Data)); got != 1000000 {
		t.Fatalf("want 1000000 minted shares reported, got %d", got)
	}
}
