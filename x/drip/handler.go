package drip

import (
	"encoding/binary"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
)

const (
	participateCost          int64 = 50
	createPoolCost           int64 = 300
	distributePerParticipant int64 = 10
	withdrawPerShareCost     int64 = 100
)

// CashController allows to manage native coins without the need to directly
// access the bucket. Required functionality is implemented by the x/cash
// extension.
type CashController interface {
	Balance(weave.KVStore, weave.Address) (coin.Coins, error)
	MoveCoins(weave.KVStore, weave.Address, weave.Address, coin.Coin) error
}

// StakingQuerier provides access to the delegation state maintained by the
// staking module of the host chain.
type StakingQuerier interface {
	// TotalDelegated returns the sum of all active delegations of an
	// address, in whole units of the staking token.
	TotalDelegated(db weave.KVStore, delegator weave.Address) (int64, error)
}

// TokenController allows to query and move external fungible tokens that
// live outside of the native cash ledger.
type TokenController interface {
	// TokenInfo returns the symbol of the token managed by the contract.
	// ErrNotFound is returned for an unknown contract.
	TokenInfo(db weave.KVStore, contract weave.Address) (string, error)
	Balance(db weave.KVStore, contract weave.Address, holder weave.Address) (int64, error)
	Transfer(db weave.KVStore, contract weave.Address, src weave.Address, dest weave.Address, amount int64) error
}

// RegisterQuery registers drip buckets for querying.
func RegisterQuery(qr weave.QueryRouter) {
	NewPoolBucket().Register("drippools", qr)
	NewShareBucket().Register("dripshares", qr)
	NewParticipantBucket().Register("dripparticipants", qr)
	NewTokenIndexBucket().Register("driptokens", qr)
}

// RegisterRoutes registers handlers for drip message processing.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl CashController, staking StakingQuerier, tokens TokenController) {
	r = migration.SchemaMigratingRegistry("drip", r)

	pools := NewPoolBucket()
	shares := NewShareBucket()
	participants := NewParticipantBucket()
	index := NewTokenIndexBucket()

	r.Handle(&ParticipateMsg{}, &participateHandler{
		auth:         auth,
		participants: participants,
	})
	r.Handle(&RemoveParticipationMsg{}, &removeParticipationHandler{
		auth:         auth,
		participants: participants,
	})
	r.Handle(&CreateDripPoolMsg{}, &createDripPoolHandler{
		auth:   auth,
		pools:  pools,
		index:  index,
		ctrl:   ctrl,
		tokens: tokens,
	})
	r.Handle(&DistributeSharesMsg{}, &distributeSharesHandler{
		auth:         auth,
		pools:        pools,
		shares:       shares,
		participants: participants,
		index:        index,
		staking:      staking,
	})
	r.Handle(&WithdrawTokensMsg{}, &withdrawTokensHandler{
		auth:   auth,
		pools:  pools,
		shares: shares,
		index:  index,
		ctrl:   ctrl,
		tokens: tokens,
	})
	r.Handle(&UpdateConfigurationMsg{},
		gconf.NewUpdateConfigurationHandler("drip", &Configuration{}, auth, migration.CurrentAdmin))
}

// loadParticipants returns the participant registry. A missing registry is
// returned as an empty one.
func loadParticipants(db weave.KVStore, b orm.ModelBucket) (*ParticipantList, error) {
	var pl ParticipantList
	switch err := b.One(db, participantsKey, &pl); {
	case err == nil:
		return &pl, nil
	case errors.ErrNotFound.Is(err):
		return &ParticipantList{Metadata: &weave.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "participant registry")
	}
}

// loadTokenIndex returns the active token index. A missing index is returned
// as an empty one.
func loadTokenIndex(db weave.KVStore, b orm.ModelBucket) (*TokenIndex, error) {
	var ti TokenIndex
	switch err := b.One(db, tokenIndexKey, &ti); {
	case err == nil:
		return &ti, nil
	case errors.ErrNotFound.Is(err):
		return &TokenIndex{Metadata: &weave.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "token index")
	}
}

type participateHandler struct {
	auth         x.Authenticator
	participants orm.ModelBucket
}

var _ weave.Handler = (*participateHandler)(nil)

func (h *participateHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: participateCost}, nil
}

func (h *participateHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	sender, pl, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := pl.Add(sender); err != nil {
		return nil, err
	}
	if _, err := h.participants.Put(db, participantsKey, pl); err != nil {
		return nil, errors.Wrap(err, "store registry")
	}
	return &weave.DeliverResult{Data: sender}, nil
}

func (h *participateHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.Address, *ParticipantList, error) {
	var msg ParticipateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	sender := x.AnySigner(ctx, h.auth)
	if sender == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	pl, err := loadParticipants(db, h.participants)
	if err != nil {
		return nil, nil, err
	}
	if pl.Contains(sender.Address()) {
		return nil, nil, errors.Wrap(ErrAlreadyParticipant, sender.Address().String())
	}
	return sender.Address(), pl, nil
}

type removeParticipationHandler struct {
	auth         x.Authenticator
	participants orm.ModelBucket
}

var _ weave.Handler = (*removeParticipationHandler)(nil)

func (h *removeParticipationHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: participateCost}, nil
}

func (h *removeParticipationHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	sender, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	pl, err := loadParticipants(db, h.participants)
	if err != nil {
		return nil, err
	}
	// Removing an address that never registered is a noop. Shares already
	// collected are not affected by the removal.
	pl.Remove(sender)
	if _, err := h.participants.Put(db, participantsKey, pl); err != nil {
		return nil, errors.Wrap(err, "store registry")
	}
	return &weave.DeliverResult{}, nil
}

func (h *removeParticipationHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.Address, error) {
	var msg RemoveParticipationMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	sender := x.AnySigner(ctx, h.auth)
	if sender == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return sender.Address(), nil
}

type createDripPoolHandler struct {
	auth   x.Authenticator
	pools  orm.ModelBucket
	index  orm.ModelBucket
	ctrl   CashController
	tokens TokenController
}

var _ weave.Handler = (*createDripPoolHandler)(nil)

func (h *createDripPoolHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createPoolCost}, nil
}

func (h *createDripPoolHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	pool := &DripPool{
		Metadata:       &weave.Metadata{Schema: 1},
		Token:          msg.Token.clone(),
		InitialAmount:  msg.Token.Available,
		TokensPerEpoch: msg.TokensPerEpoch,
		EpochsNumber:   msg.EpochsNumber,
	}
	id := []byte(pool.Token.ID())
	if _, err := h.pools.Put(db, id, pool); err != nil {
		return nil, errors.Wrap(err, "store pool")
	}

	ti, err := loadTokenIndex(db, h.index)
	if err != nil {
		return nil, err
	}
	if err := ti.Add(pool.Token.ID()); err != nil {
		return nil, err
	}
	if _, err := h.index.Put(db, tokenIndexKey, ti); err != nil {
		return nil, errors.Wrap(err, "store token index")
	}
	return &weave.DeliverResult{Data: id}, nil
}

func (h *createDripPoolHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateDripPoolMsg, error) {
	var msg CreateDripPoolMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, conf.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "only the owner can create a drip pool")
	}
	if msg.Token.Available == 0 {
		return nil, errors.Wrap(ErrZeroTokenPool, msg.Token.ID())
	}
	if msg.EpochsNumber < 1 {
		return nil, errors.Wrap(ErrLessThanOneEpoch, "invalid epochs number")
	}
	total, err := mulInt64(msg.TokensPerEpoch, msg.EpochsNumber)
	if err != nil {
		return nil, err
	}
	if total != msg.Token.Available {
		return nil, errors.Wrapf(ErrWrongTokensAmount, "declared %d, distributed %d", msg.Token.Available, total)
	}

	id := msg.Token.ID()
	switch err := h.pools.Has(db, []byte(id)); {
	case err == nil:
		return nil, errors.Wrap(ErrPoolExists, id)
	case errors.ErrNotFound.Is(err):
		// All good, the pool does not exist yet.
	default:
		return nil, errors.Wrap(err, "pool lookup")
	}

	if err := h.checkFunding(db, msg.Token); err != nil {
		return nil, err
	}
	return &msg, nil
}

// checkFunding ensures the drip account holds at least the amount declared
// for the pool.
func (h *createDripPoolHandler) checkFunding(db weave.KVStore, token *DripToken) error {
	if token.IsNative() {
		balance, err := h.ctrl.Balance(db, DripAccount())
		if err != nil {
			return errors.Wrap(err, "drip account balance")
		}
		var held int64
		for _, c := range balance {
			if c.Ticker == token.Ticker {
				held = c.Whole
				break
			}
		}
		if held < token.Available {
			return errors.Wrapf(ErrNotFunded, "%s: held %d, declared %d", token.Ticker, held, token.Available)
		}
		return nil
	}

	if _, err := h.tokens.TokenInfo(db, token.Contract); err != nil {
		return errors.Wrap(err, "token contract")
	}
	held, err := h.tokens.Balance(db, token.Contract, DripAccount())
	if err != nil {
		return errors.Wrap(err, "drip account token balance")
	}
	if held < token.Available {
		return errors.Wrapf(ErrNotFunded, "%s: held %d, declared %d", token.ID(), held, token.Available)
	}
	return nil
}

type distributeSharesHandler struct {
	auth         x.Authenticator
	pools        orm.ModelBucket
	shares       orm.ModelBucket
	participants orm.ModelBucket
	index        orm.ModelBucket
	staking      StakingQuerier
}

var _ weave.Handler = (*distributeSharesHandler)(nil)

func (h *distributeSharesHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	// Run the full cycle so that check reports the same failures as
	// deliver would. The store this runs on is a throwaway cache.
	_, credited, err := h.runCycle(ctx, db)
	if err != nil {
		return nil, err
	}
	res := weave.CheckResult{
		GasAllocated: distributePerParticipant * credited,
	}
	return &res, nil
}

func (h *distributeSharesHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	emitted, _, err := h.runCycle(ctx, db)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, uint64(emitted))
	return &weave.DeliverResult{Data: data}, nil
}

// runCycle executes a single distribution cycle and returns the amount of
// freshly minted shares together with the number of participants that
// collected them.
func (h *distributeSharesHandler) runCycle(ctx weave.Context, db weave.KVStore) (int64, int64, error) {
	conf, err := loadConf(db)
	if err != nil {
		return 0, 0, err
	}
	ti, err := loadTokenIndex(db, h.index)
	if err != nil {
		return 0, 0, err
	}
	if len(ti.Tokens) == 0 {
		return 0, 0, errors.Wrap(ErrNoActivePool, "nothing to distribute")
	}

	blockNow, err := weave.BlockTime(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "block time")
	}
	now := weave.AsUnixTime(blockNow)
	if now < conf.NextDistributionTime {
		return 0, 0, errors.Wrapf(ErrNoDistributionTime, "next distribution at %s", conf.NextDistributionTime)
	}

	pl, err := loadParticipants(db, h.participants)
	if err != nil {
		return 0, 0, err
	}
	emitted, credited, err := h.mintShares(db, conf, pl, ti)
	if err != nil {
		return 0, 0, err
	}
	if err := h.advancePools(db, ti, emitted); err != nil {
		return 0, 0, err
	}

	// Move the distribution time forward by whole epochs so that it always
	// ends up in the future, no matter how late this cycle ran.
	steps := int64(now-conf.NextDistributionTime)/int64(conf.EpochDuration) + 1
	conf.NextDistributionTime += weave.UnixTime(steps * int64(conf.EpochDuration))
	if err := gconf.Save(db, "drip", conf); err != nil {
		return 0, 0, errors.Wrap(err, "save configuration")
	}
	return emitted, credited, nil
}

// mintShares credits every eligible participant with shares in every active
// pool, proportional to the participant delegation. It returns the total
// amount of freshly minted shares and the number of credited participants.
func (h *distributeSharesHandler) mintShares(db weave.KVStore, conf *Configuration, pl *ParticipantList, ti *TokenIndex) (int64, int64, error) {
	var emitted, credited int64
	for _, addr := range pl.Participants {
		weight, err := h.staking.TotalDelegated(db, addr)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "delegation of %s", addr)
		}
		if weight == 0 || weight < conf.MinStakingAmount {
			continue
		}
		for _, token := range ti.Tokens {
			if err := h.creditShare(db, addr, token, weight); err != nil {
				return 0, 0, err
			}
		}
		if emitted, err = addInt64(emitted, weight); err != nil {
			return 0, 0, errors.Wrap(err, "emitted shares")
		}
		credited++
	}
	return emitted, credited, nil
}

func (h *distributeSharesHandler) creditShare(db weave.KVStore, addr weave.Address, token string, weight int64) error {
	key := shareKey(addr, token)
	var share Share
	switch err := h.shares.One(db, key, &share); {
	case err == nil:
		// Accrue on top of what was not withdrawn yet.
	case errors.ErrNotFound.Is(err):
		share = Share{
			Metadata:    &weave.Metadata{Schema: 1},
			Participant: addr,
			Token:       token,
		}
	default:
		return errors.Wrapf(err, "share of %s", addr)
	}
	amount, err := addInt64(share.Amount, weight)
	if err != nil {
		return errors.Wrapf(err, "share of %s", addr)
	}
	share.Amount = amount
	if _, err := h.shares.Put(db, key, &share); err != nil {
		return errors.Wrapf(err, "store share of %s", addr)
	}
	return nil
}

// advancePools releases one epoch from every active pool and retires the
// pools that distributed all of their epochs. Exhausted pools are removed
// from the active index but their record is kept so that issued shares can
// still be withdrawn.
func (h *distributeSharesHandler) advancePools(db weave.KVStore, ti *TokenIndex, emitted int64) error {
	active := append([]string(nil), ti.Tokens...)
	for _, token := range active {
		var pool DripPool
		switch err := h.pools.One(db, []byte(token), &pool); {
		case err == nil:
		case errors.ErrNotFound.Is(err):
			return errors.Wrap(ErrInvalidActivePool, token)
		default:
			return errors.Wrapf(err, "pool %s", token)
		}
		if err := pool.AdvanceEpoch(emitted); err != nil {
			return errors.Wrapf(err, "pool %s", token)
		}
		if _, err := h.pools.Put(db, []byte(token), &pool); err != nil {
			return errors.Wrapf(err, "store pool %s", token)
		}
		if pool.Exhausted() {
			ti.Remove(token)
		}
	}
	if _, err := h.index.Put(db, tokenIndexKey, ti); err != nil {
		return errors.Wrap(err, "store token index")
	}
	return nil
}

func (h *distributeSharesHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) error {
	var msg DistributeSharesMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return errors.Wrap(err, "load msg")
	}
	// Anyone can trigger a distribution cycle, the configured distribution
	// time is the only gate.
	return nil
}

type withdrawTokensHandler struct {
	auth   x.Authenticator
	pools  orm.ModelBucket
	shares orm.ModelBucket
	index  orm.ModelBucket
	ctrl   CashController
	tokens TokenController
}

var _ weave.Handler = (*withdrawTokensHandler)(nil)

func (h *withdrawTokensHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	sender, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// Run the full payout so that check reports the same failures as
	// deliver would. The store this runs on is a throwaway cache.
	settled, err := h.payout(db, sender)
	if err != nil {
		return nil, err
	}
	res := weave.CheckResult{
		GasAllocated: withdrawPerShareCost * settled,
	}
	return &res, nil
}

func (h *withdrawTokensHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	sender, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.payout(db, sender); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

// payout converts all shares of the sender into token transfers and deletes
// them. The number of settled shares is returned.
func (h *withdrawTokensHandler) payout(db weave.KVStore, sender weave.Address) (int64, error) {
	var shares []Share
	keys, err := h.shares.ByIndex(db, "participant", sender, &shares)
	if err != nil {
		return 0, errors.Wrap(err, "shares lookup")
	}
	if len(shares) == 0 {
		return 0, errors.Wrap(ErrNothingToWithdraw, sender.String())
	}

	for i := range shares {
		if err := h.withdraw(db, sender, &shares[i]); err != nil {
			return 0, errors.Wrapf(err, "token %s", shares[i].Token)
		}
		if err := h.shares.Delete(db, keys[i]); err != nil {
			return 0, errors.Wrapf(err, "delete share %s", shares[i].Token)
		}
	}
	return int64(len(shares)), nil
}

// withdraw burns the shares and pays out the tokens they are worth. A share
// that converts to a zero token amount is burned without a transfer.
func (h *withdrawTokensHandler) withdraw(db weave.KVStore, sender weave.Address, share *Share) error {
	var pool DripPool
	if err := h.pools.One(db, []byte(share.Token), &pool); err != nil {
		return errors.Wrap(err, "pool")
	}
	amount, err := pool.SettleWithdrawal(share.Amount)
	if err != nil {
		return err
	}
	if _, err := h.pools.Put(db, []byte(share.Token), &pool); err != nil {
		return errors.Wrap(err, "store pool")
	}
	if amount == 0 {
		return nil
	}
	if pool.Token.IsNative() {
		c := coin.NewCoin(amount, 0, pool.Token.Ticker)
		if err := h.ctrl.MoveCoins(db, DripAccount(), sender, c); err != nil {
			return errors.Wrap(err, "move coins")
		}
		return nil
	}
	if err := h.tokens.Transfer(db, pool.Token.Contract, DripAccount(), sender, amount); err != nil {
		return errors.Wrap(err, "token transfer")
	}
	return nil
}

func (h *withdrawTokensHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.Address, error) {
	var msg WithdrawTokensMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	sender := x.AnySigner(ctx, h.auth)
	if sender == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return sender.Address(), nil
}
