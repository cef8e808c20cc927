package drip

import (
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &Configuration{}, migration.NoModification)
}

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	if c.MinStakingAmount < 0 {
		errs = errors.AppendField(errs, "MinStakingAmount",
			errors.Wrap(errors.ErrAmount, "cannot be negative"))
	}
	if c.EpochDuration <= 0 {
		errs = errors.AppendField(errs, "EpochDuration",
			errors.Wrap(errors.ErrInput, "must be a positive value"))
	}
	if err := c.NextDistributionTime.Validate(); err != nil {
		errs = errors.AppendField(errs, "NextDistributionTime", err)
	}
	return errs
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, "drip", &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
