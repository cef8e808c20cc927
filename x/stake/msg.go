package stake

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &SetDelegationMsg{}, migration.NoModification)
}

var _ weave.Msg = (*SetDelegationMsg)(nil)

func (SetDelegationMsg) Path() string {
	return "stake/set_delegation"
}

func (m *SetDelegationMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Delegator", m.Delegator.Validate())
	errs = errors.AppendField(errs, "Validator", m.Validator.Validate())
	if m.Amount < 0 {
		errs = errors.AppendField(errs, "Amount",
			errors.Wrap(errors.ErrAmount, "cannot be negative"))
	}
	return errs
}
