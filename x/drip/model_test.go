package drip

import (
	"math"
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
)

func TestDripTokenValidate(t *testing.T) {
	cases := map[string]struct {
		token   *DripToken
		wantErr *errors.Error
	}{
		"valid native token": {
			token: &DripToken{Ticker: "IOV", Available: 100},
		},
		"valid external token": {
			token: &DripToken{Contract: weavetest.NewCondition().Address(), Available: 100},
		},
		"no identity": {
			token:   &DripToken{Available: 100},
			wantErr: errors.ErrEmpty,
		},
		"both identities": {
			token: &DripToken{
				Ticker:   "IOV",
				Contract: weavetest.NewCondition().Address(),
			},
			wantErr: errors.ErrInput,
		},
		"invalid ticker": {
			token:   &DripToken{Ticker: "not a ticker"},
			wantErr: errors.ErrCurrency,
		},
		"negative amount": {
			token:   &DripToken{Ticker: "IOV", Available: -1},
			wantErr: errors.ErrAmount,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.token.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %q, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestDripPoolAdvanceEpoch(t *testing.T) {
	pool := DripPool{
		Metadata:       &weave.Metadata{Schema: 1},
		Token:          &DripToken{Ticker: "IOV", Available: 2000},
		InitialAmount:  2000,
		TokensPerEpoch: 1000,
		EpochsNumber:   2,
	}

	assert.Nil(t, pool.AdvanceEpoch(500))
	assert.Equal(t, int64(1), pool.Epoch)
	assert.Equal(t, int64(1000), pool.Token.Available)
	assert.Equal(t, int64(1000), pool.Withdrawable)
	assert.Equal(t, int64(500), pool.IssuedShares)

	assert.Nil(t, pool.AdvanceEpoch(500))
	assert.Equal(t, int64(2), pool.Epoch)
	if !pool.Exhausted() {
		t.Fatal("pool must be exhausted")
	}

	if err := pool.AdvanceEpoch(500); !ErrInvalidActivePool.Is(err) {
		t.Fatalf("advancing an exhausted pool: %+v", err)
	}
}

func TestDripPoolAdvanceEpochUnderfunded(t *testing.T) {
	pool := DripPool{
		Metadata:       &weave.Metadata{Schema: 1},
		Token:          &DripToken{Ticker: "IOV", Available: 500},
		InitialAmount:  2000,
		TokensPerEpoch: 1000,
		EpochsNumber:   2,
	}
	if err := pool.AdvanceEpoch(1); !ErrPoolNotEnoughFunds.Is(err) {
		t.Fatalf("want not enough funds, got %+v", err)
	}
}

func TestTokensFromShares(t *testing.T) {
	cases := map[string]struct {
		pool   DripPool
		shares int64
		want   int64
	}{
		"full ownership": {
			pool:   DripPool{IssuedShares: 1000, Withdrawable: 500},
			shares: 1000,
			want:   500,
		},
		"proportional cut rounds down": {
			pool:   DripPool{IssuedShares: 3, Withdrawable: 100},
			shares: 1,
			want:   33,
		},
		"no shares issued": {
			pool:   DripPool{Withdrawable: 100},
			shares: 0,
			want:   0,
		},
		"large values do not overflow": {
			pool: DripPool{
				IssuedShares: math.MaxInt64,
				Withdrawable: math.MaxInt64,
			},
			shares: math.MaxInt64,
			want:   math.MaxInt64,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.pool.TokensFromShares(tc.shares))
		})
	}
}

func TestSettleWithdrawal(t *testing.T) {
	pool := DripPool{IssuedShares: 1000, Withdrawable: 500}

	got, err := pool.SettleWithdrawal(600)
	assert.Nil(t, err)
	assert.Equal(t, int64(300), got)
	assert.Equal(t, int64(400), pool.IssuedShares)
	assert.Equal(t, int64(200), pool.Withdrawable)

	got, err = pool.SettleWithdrawal(400)
	assert.Nil(t, err)
	assert.Equal(t, int64(200), got)
	assert.Equal(t, int64(0), pool.IssuedShares)
	assert.Equal(t, int64(0), pool.Withdrawable)

	if _, err := pool.SettleWithdrawal(1); !errors.ErrAmount.Is(err) {
		t.Fatalf("settling more shares than issued: %+v", err)
	}
}

func TestParticipantListOrder(t *testing.T) {
	var (
		alice   = weavetest.NewCondition().Address()
		bob     = weavetest.NewCondition().Address()
		charlie = weavetest.NewCondition().Address()
	)

	var pl ParticipantList
	assert.Nil(t, pl.Add(alice))
	assert.Nil(t, pl.Add(bob))
	assert.Nil(t, pl.Add(charlie))

	if err := pl.Add(bob); !ErrAlreadyParticipant.Is(err) {
		t.Fatalf("adding twice: %+v", err)
	}

	pl.Remove(bob)
	// Removing an unknown address must be a noop.
	pl.Remove(bob)

	assert.Equal(t, []weave.Address{alice, charlie}, pl.Participants)
}

func TestTokenIndexOrder(t *testing.T) {
	var ti TokenIndex
	assert.Nil(t, ti.Add("IOV"))
	assert.Nil(t, ti.Add("BTC"))
	assert.Nil(t, ti.Add("ETH"))

	if err := ti.Add("BTC"); !ErrPoolExists.Is(err) {
		t.Fatalf("adding twice: %+v", err)
	}

	ti.Remove("BTC")
	ti.Remove("BTC")

	assert.Equal(t, []string{"IOV", "ETH"}, ti.Tokens)
}
