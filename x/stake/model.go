package stake

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &Delegation{}, migration.NoModification)
}

var _ orm.Model = (*Delegation)(nil)

func (m *Delegation) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Delegator", m.Delegator.Validate())
	errs = errors.AppendField(errs, "Validator", m.Validator.Validate())
	if m.Amount <= 0 {
		errs = errors.AppendField(errs, "Amount",
			errors.Wrap(errors.ErrAmount, "must be positive"))
	}
	return errs
}

func (m *Delegation) Copy() orm.CloneableData {
	return &Delegation{
		Metadata:  m.Metadata.Copy(),
		Delegator: m.Delegator.Clone(),
		Validator: m.Validator.Clone(),
		Amount:    m.Amount,
	}
}

// NewDelegationBucket returns a bucket for keeping track of delegations,
// keyed by the delegator and validator pair and indexed by the delegator.
func NewDelegationBucket() orm.ModelBucket {
	b := orm.NewModelBucket("dlg", &Delegation{},
		orm.WithIndex("delegator", delegationDelegator, false),
	)
	return migration.NewModelBucket("stake", b)
}

func delegationDelegator(obj orm.Object) ([]byte, error) {
	d, ok := obj.Value().(*Delegation)
	if !ok {
		return nil, errors.Wrap(errors.ErrType, "not a delegation")
	}
	return d.Delegator, nil
}

// delegationKey returns the store key of the delegation between the given
// pair. Both addresses have a fixed length so the concatenation is
// unambiguous.
func delegationKey(delegator, validator weave.Address) []byte {
	key := make([]byte, 0, len(delegator)+len(validator))
	key = append(key, delegator...)
	return append(key, validator...)
}
