package token

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &CreateTokenMsg{}, migration.NoModification)
	migration.MustRegister(1, &TransferTokenMsg{}, migration.NoModification)
}

var _ weave.Msg = (*CreateTokenMsg)(nil)

func (CreateTokenMsg) Path() string {
	return "token/create"
}

func (m *CreateTokenMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !coin.IsCC(m.Symbol) {
		errs = errors.AppendField(errs, "Symbol",
			errors.Wrapf(errors.ErrCurrency, "invalid symbol: %s", m.Symbol))
	}
	errs = errors.AppendField(errs, "Holder", m.Holder.Validate())
	if m.InitialSupply <= 0 {
		errs = errors.AppendField(errs, "InitialSupply",
			errors.Wrap(errors.ErrAmount, "must be positive"))
	}
	return errs
}

var _ weave.Msg = (*TransferTokenMsg)(nil)

func (TransferTokenMsg) Path() string {
	return "token/transfer"
}

func (m *TransferTokenMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Contract", m.Contract.Validate())
	errs = errors.AppendField(errs, "Dest", m.Dest.Validate())
	if m.Amount <= 0 {
		errs = errors.AppendField(errs, "Amount",
			errors.Wrap(errors.ErrAmount, "must be positive"))
	}
	return errs
}
