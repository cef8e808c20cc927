package drip

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	// Migration needs to be registered for every message introduced in the codec.
	// This is the convention to message versioning.
	migration.MustRegister(1, &ParticipateMsg{}, migration.NoModification)
	migration.MustRegister(1, &RemoveParticipationMsg{}, migration.NoModification)
	migration.MustRegister(1, &CreateDripPoolMsg{}, migration.NoModification)
	migration.MustRegister(1, &DistributeSharesMsg{}, migration.NoModification)
	migration.MustRegister(1, &WithdrawTokensMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateConfigurationMsg{}, migration.NoModification)
}

var _ weave.Msg = (*ParticipateMsg)(nil)

func (ParticipateMsg) Path() string {
	return "drip/participate"
}

func (m *ParticipateMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return nil
}

var _ weave.Msg = (*RemoveParticipationMsg)(nil)

func (RemoveParticipationMsg) Path() string {
	return "drip/remove_participation"
}

func (m *RemoveParticipationMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return nil
}

var _ weave.Msg = (*CreateDripPoolMsg)(nil)

func (CreateDripPoolMsg) Path() string {
	return "drip/create_pool"
}

func (m *CreateDripPoolMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Token.Validate(); err != nil {
		return errors.Wrap(err, "token")
	}
	if m.Token.Available < 0 {
		return errors.Wrap(errors.ErrAmount, "negative funding")
	}
	if m.TokensPerEpoch < 0 {
		return errors.Wrap(errors.ErrAmount, "negative tokens per epoch")
	}
	if m.EpochsNumber < 0 {
		return errors.Wrap(errors.ErrAmount, "negative epochs number")
	}
	return nil
}

var _ weave.Msg = (*DistributeSharesMsg)(nil)

func (DistributeSharesMsg) Path() string {
	return "drip/distribute"
}

func (m *DistributeSharesMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return nil
}

var _ weave.Msg = (*WithdrawTokensMsg)(nil)

func (WithdrawTokensMsg) Path() string {
	return "drip/withdraw"
}

func (m *WithdrawTokensMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return nil
}

var _ weave.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return "drip/update_configuration"
}

func (m *UpdateConfigurationMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.Patch == nil {
		errs = errors.AppendField(errs, "Patch", errors.ErrEmpty)
	}
	return errs
}
