package stake

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ weave.Initializer = (*Initializer)(nil)

// FromGenesis will parse the initial delegation set from genesis and save
// it to the database.
func (*Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, kv weave.KVStore) error {
	var dels []struct {
		Delegator weave.Address `json:"delegator"`
		Validator weave.Address `json:"validator"`
		Amount    int64         `json:"amount"`
	}
	if err := opts.ReadOptions("stake", &dels); err != nil {
		return errors.Wrap(err, "read options")
	}
	bucket := NewDelegationBucket()
	for i, d := range dels {
		delegation := Delegation{
			Metadata:  &weave.Metadata{Schema: 1},
			Delegator: d.Delegator,
			Validator: d.Validator,
			Amount:    d.Amount,
		}
		if err := delegation.Validate(); err != nil {
			return errors.Wrapf(err, "delegation #%d", i)
		}
		key := delegationKey(d.Delegator, d.Validator)
		if _, err := bucket.Put(kv, key, &delegation); err != nil {
			return errors.Wrapf(err, "save delegation #%d", i)
		}
	}
	return nil
}
