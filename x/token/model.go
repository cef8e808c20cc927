package token

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &TokenInfo{}, migration.NoModification)
	migration.MustRegister(1, &Balance{}, migration.NoModification)
}

var _ orm.Model = (*TokenInfo)(nil)

func (m *TokenInfo) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !coin.IsCC(m.Symbol) {
		errs = errors.AppendField(errs, "Symbol",
			errors.Wrapf(errors.ErrCurrency, "invalid symbol: %s", m.Symbol))
	}
	return errs
}

func (m *TokenInfo) Copy() orm.CloneableData {
	return &TokenInfo{
		Metadata: m.Metadata.Copy(),
		Symbol:   m.Symbol,
	}
}

var _ orm.Model = (*Balance)(nil)

func (m *Balance) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.Amount < 0 {
		errs = errors.AppendField(errs, "Amount",
			errors.Wrap(errors.ErrAmount, "cannot be negative"))
	}
	return errs
}

func (m *Balance) Copy() orm.CloneableData {
	return &Balance{
		Metadata: m.Metadata.Copy(),
		Amount:   m.Amount,
	}
}

// ContractAddr returns the address of the token contract registered for
// the given symbol.
func ContractAddr(symbol string) weave.Address {
	return weave.NewCondition("token", "contract", []byte(symbol)).Address()
}

// NewTokenInfoBucket returns a bucket for keeping track of token
// contracts, keyed by the contract address.
func NewTokenInfoBucket() orm.ModelBucket {
	b := orm.NewModelBucket("tokinf", &TokenInfo{})
	return migration.NewModelBucket("token", b)
}

// NewBalanceBucket returns a bucket for keeping track of token holdings,
// keyed by the contract and holder address pair.
func NewBalanceBucket() orm.ModelBucket {
	b := orm.NewModelBucket("tokbal", &Balance{})
	return migration.NewModelBucket("token", b)
}

// balanceKey returns the store key of the holding of a single address
// within a single contract. Both addresses have a fixed length so the
// concatenation is unambiguous.
func balanceKey(contract, holder weave.Address) []byte {
	key := make([]byte, 0, len(contract)+len(holder))
	key = append(key, contract...)
	return append(key, holder...)
}
