package token

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ weave.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial token contracts from genesis and save
// them to the database.
func (*Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, kv weave.KVStore) error {
	var tokens []struct {
		Symbol string        `json:"symbol"`
		Holder weave.Address `json:"holder"`
		Supply int64         `json:"supply"`
	}
	if err := opts.ReadOptions("token", &tokens); err != nil {
		return errors.Wrap(err, "read options")
	}
	infos := NewTokenInfoBucket()
	ctrl := NewController()
	for i, tk := range tokens {
		info := TokenInfo{
			Metadata: &weave.Metadata{Schema: 1},
			Symbol:   tk.Symbol,
		}
		if err := info.Validate(); err != nil {
			return errors.Wrapf(err, "token #%d", i)
		}
		contract := ContractAddr(tk.Symbol)
		if _, err := infos.Put(kv, contract, &info); err != nil {
			return errors.Wrapf(err, "save token #%d", i)
		}
		if tk.Supply != 0 {
			if err := ctrl.set(kv, contract, tk.Holder, tk.Supply); err != nil {
				return errors.Wrapf(err, "credit token #%d", i)
			}
		}
	}
	return nil
}
