package drip

import (
	"math/big"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &DripPool{}, migration.NoModification)
	migration.MustRegister(1, &ParticipantList{}, migration.NoModification)
	migration.MustRegister(1, &TokenIndex{}, migration.NoModification)
	migration.MustRegister(1, &Share{}, migration.NoModification)
}

// Validate ensures the token identifies exactly one asset, either a native
// coin by its ticker or an external fungible token contract by its address.
func (t *DripToken) Validate() error {
	switch {
	case t == nil:
		return errors.Wrap(errors.ErrEmpty, "token")
	case t.Ticker == "" && len(t.Contract) == 0:
		return errors.Wrap(errors.ErrEmpty, "ticker or contract required")
	case t.Ticker != "" && len(t.Contract) != 0:
		return errors.Wrap(errors.ErrInput, "ticker and contract are exclusive")
	}
	if t.Ticker != "" && !coin.IsCC(t.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "invalid ticker: %s", t.Ticker)
	}
	if len(t.Contract) != 0 {
		if err := t.Contract.Validate(); err != nil {
			return errors.Wrap(err, "contract")
		}
	}
	if t.Available < 0 {
		return errors.Wrap(errors.ErrAmount, "negative available amount")
	}
	return nil
}

// IsNative returns true if the token is a native chain coin.
func (t *DripToken) IsNative() bool {
	return t.Ticker != ""
}

// ID returns the unique identifier of the token. Native coins are identified
// by their ticker, external tokens by the hex form of the contract address.
func (t *DripToken) ID() string {
	if t.IsNative() {
		return t.Ticker
	}
	return t.Contract.String()
}

func (t *DripToken) clone() *DripToken {
	if t == nil {
		return nil
	}
	return &DripToken{
		Ticker:    t.Ticker,
		Contract:  t.Contract.Clone(),
		Available: t.Available,
	}
}

var _ orm.CloneableData = (*DripPool)(nil)

func (p *DripPool) Validate() error {
	if err := p.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := p.Token.Validate(); err != nil {
		return errors.Wrap(err, "token")
	}
	switch {
	case p.InitialAmount <= 0:
		return errors.Wrap(errors.ErrModel, "initial amount must be positive")
	case p.TokensPerEpoch <= 0:
		return errors.Wrap(errors.ErrModel, "tokens per epoch must be positive")
	case p.EpochsNumber < 1:
		return errors.Wrap(errors.ErrModel, "at least one epoch required")
	case p.Epoch < 0 || p.Epoch > p.EpochsNumber:
		return errors.Wrap(errors.ErrModel, "epoch out of range")
	case p.IssuedShares < 0:
		return errors.Wrap(errors.ErrModel, "negative issued shares")
	case p.Withdrawable < 0:
		return errors.Wrap(errors.ErrModel, "negative withdrawable amount")
	}
	return nil
}

func (p *DripPool) Copy() orm.CloneableData {
	return &DripPool{
		Metadata:       p.Metadata.Copy(),
		Token:          p.Token.clone(),
		InitialAmount:  p.InitialAmount,
		TokensPerEpoch: p.TokensPerEpoch,
		EpochsNumber:   p.EpochsNumber,
		Epoch:          p.Epoch,
		IssuedShares:   p.IssuedShares,
		Withdrawable:   p.Withdrawable,
	}
}

// Exhausted returns true once the pool released all of its epochs.
func (p *DripPool) Exhausted() bool {
	return p.Epoch >= p.EpochsNumber
}

// AdvanceEpoch releases one epoch worth of tokens and credits the given
// amount of freshly minted shares to the pool. The epoch release is moved
// from the available funds to the withdrawable balance.
func (p *DripPool) AdvanceEpoch(minted int64) error {
	if p.Exhausted() {
		return errors.Wrap(ErrInvalidActivePool, "pool exhausted")
	}
	if p.Token.Available < p.TokensPerEpoch {
		return errors.Wrapf(ErrPoolNotEnoughFunds, "available %d, epoch release %d",
			p.Token.Available, p.TokensPerEpoch)
	}
	issued, err := addInt64(p.IssuedShares, minted)
	if err != nil {
		return errors.Wrap(err, "issued shares")
	}
	withdrawable, err := addInt64(p.Withdrawable, p.TokensPerEpoch)
	if err != nil {
		return errors.Wrap(err, "withdrawable")
	}
	p.Token.Available -= p.TokensPerEpoch
	p.Withdrawable = withdrawable
	p.IssuedShares = issued
	p.Epoch++
	return nil
}

// TokensFromShares converts a share amount into the token amount it is
// worth, proportional to the withdrawable balance. The result is rounded
// down. The intermediate multiplication is computed with 128 bits so that
// two int64 values cannot overflow.
func (p *DripPool) TokensFromShares(shares int64) int64 {
	if p.IssuedShares == 0 || shares == 0 {
		return 0
	}
	num := new(big.Int).Mul(big.NewInt(shares), big.NewInt(p.Withdrawable))
	num.Quo(num, big.NewInt(p.IssuedShares))
	return num.Int64()
}

// SettleWithdrawal burns the given shares and returns the token amount they
// were worth. Both the withdrawable balance and the issued shares total are
// reduced.
func (p *DripPool) SettleWithdrawal(shares int64) (int64, error) {
	if shares < 0 || shares > p.IssuedShares {
		return 0, errors.Wrapf(errors.ErrAmount, "%d shares of %d issued", shares, p.IssuedShares)
	}
	tokens := p.TokensFromShares(shares)
	p.Withdrawable -= tokens
	p.IssuedShares -= shares
	return tokens, nil
}

func addInt64(a, b int64) (int64, error) {
	if b > 0 && a > maxInt64-b {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d + %d", a, b)
	}
	if b < 0 && a < minInt64-b {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d + %d", a, b)
	}
	return a + b, nil
}

func mulInt64(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d * %d", a, b)
	}
	return c, nil
}

const (
	maxInt64 = int64(^uint64(0) >> 1)
	minInt64 = -maxInt64 - 1
)

var _ orm.CloneableData = (*ParticipantList)(nil)

func (pl *ParticipantList) Validate() error {
	if err := pl.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	for i, p := range pl.Participants {
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "participant %d", i)
		}
	}
	return nil
}

func (pl *ParticipantList) Copy() orm.CloneableData {
	cpy := &ParticipantList{
		Metadata:     pl.Metadata.Copy(),
		Participants: make([]weave.Address, len(pl.Participants)),
	}
	for i := range pl.Participants {
		cpy.Participants[i] = pl.Participants[i].Clone()
	}
	return cpy
}

// Contains returns true if the address is registered.
func (pl *ParticipantList) Contains(addr weave.Address) bool {
	for _, p := range pl.Participants {
		if p.Equals(addr) {
			return true
		}
	}
	return false
}

// Add appends the address to the registry. Registration order is preserved.
func (pl *ParticipantList) Add(addr weave.Address) error {
	if pl.Contains(addr) {
		return errors.Wrap(ErrAlreadyParticipant, addr.String())
	}
	pl.Participants = append(pl.Participants, addr)
	return nil
}

// Remove deletes the address from the registry. Removing an address that is
// not registered is a noop.
func (pl *ParticipantList) Remove(addr weave.Address) {
	for i, p := range pl.Participants {
		if p.Equals(addr) {
			pl.Participants = append(pl.Participants[:i], pl.Participants[i+1:]...)
			return
		}
	}
}

var _ orm.CloneableData = (*TokenIndex)(nil)

func (ti *TokenIndex) Validate() error {
	if err := ti.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	for i, t := range ti.Tokens {
		if t == "" {
			return errors.Wrapf(errors.ErrModel, "empty token %d", i)
		}
	}
	return nil
}

func (ti *TokenIndex) Copy() orm.CloneableData {
	cpy := &TokenIndex{
		Metadata: ti.Metadata.Copy(),
		Tokens:   make([]string, len(ti.Tokens)),
	}
	copy(cpy.Tokens, ti.Tokens)
	return cpy
}

// Contains returns true if the token has an active pool.
func (ti *TokenIndex) Contains(token string) bool {
	for _, t := range ti.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Add appends the token to the active set. Creation order is preserved.
func (ti *TokenIndex) Add(token string) error {
	if ti.Contains(token) {
		return errors.Wrap(ErrPoolExists, token)
	}
	ti.Tokens = append(ti.Tokens, token)
	return nil
}

// Remove retires the token from the active set.
func (ti *TokenIndex) Remove(token string) {
	for i, t := range ti.Tokens {
		if t == token {
			ti.Tokens = append(ti.Tokens[:i], ti.Tokens[i+1:]...)
			return
		}
	}
}

var _ orm.CloneableData = (*Share)(nil)

func (s *Share) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := s.Participant.Validate(); err != nil {
		return errors.Wrap(err, "participant")
	}
	if s.Token == "" {
		return errors.Wrap(errors.ErrModel, "no token")
	}
	if s.Amount < 0 {
		return errors.Wrap(errors.ErrModel, "negative amount")
	}
	return nil
}

func (s *Share) Copy() orm.CloneableData {
	return &Share{
		Metadata:    s.Metadata.Copy(),
		Participant: s.Participant.Clone(),
		Token:       s.Token,
		Amount:      s.Amount,
	}
}

// NewPoolBucket returns a bucket for managing drip pools. Pools are keyed by
// the token identifier.
func NewPoolBucket() orm.ModelBucket {
	b := orm.NewModelBucket("drippool", &DripPool{})
	return migration.NewModelBucket("drip", b)
}

// NewShareBucket returns a bucket for managing participant shares. Shares
// are keyed by the participant address concatenated with the token
// identifier and additionally indexed by the participant address alone.
func NewShareBucket() orm.ModelBucket {
	b := orm.NewModelBucket("dripshare", &Share{},
		orm.WithIndex("participant", shareParticipant, false),
	)
	return migration.NewModelBucket("drip", b)
}

func shareParticipant(obj orm.Object) ([]byte, error) {
	s, ok := obj.Value().(*Share)
	if !ok {
		return nil, errors.Wrap(errors.ErrType, "not a share")
	}
	return s.Participant, nil
}

// shareKey builds the primary key of a participant share. Addresses have a
// fixed length so the concatenation is unambiguous.
func shareKey(participant weave.Address, token string) []byte {
	key := make([]byte, 0, len(participant)+len(token))
	key = append(key, participant...)
	return append(key, token...)
}

// NewParticipantBucket returns a bucket holding the participant registry
// under a fixed key.
func NewParticipantBucket() orm.ModelBucket {
	b := orm.NewModelBucket("dripreg", &ParticipantList{})
	return migration.NewModelBucket("drip", b)
}

// NewTokenIndexBucket returns a bucket holding the active token index under
// a fixed key.
func NewTokenIndexBucket() orm.ModelBucket {
	b := orm.NewModelBucket("driptok", &TokenIndex{})
	return migration.NewModelBucket("drip", b)
}

// Fixed keys of the singleton registry models.
var (
	participantsKey = []byte("participants")
	tokenIndexKey   = []byte("tokens")
)

// DripAccount returns the address of the account holding the native funds
// of all drip pools.
func DripAccount() weave.Address {
	return weave.NewCondition("drip", "pool", []byte("funds")).Address()
}
