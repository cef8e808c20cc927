package drip

import (
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
)

func TestValidateCreateDripPoolMsg(t *testing.T) {
	cases := map[string]struct {
		msg     weave.Msg
		wantErr *errors.Error
	}{
		"valid message": {
			msg: &CreateDripPoolMsg{
				Metadata:       &weave.Metadata{Schema: 1},
				Token:          &DripToken{Ticker: "IOV", Available: 1000},
				TokensPerEpoch: 100,
				EpochsNumber:   10,
			},
		},
		"missing metadata": {
			msg: &CreateDripPoolMsg{
				Token:          &DripToken{Ticker: "IOV", Available: 1000},
				TokensPerEpoch: 100,
				EpochsNumber:   10,
			},
			wantErr: errors.ErrMetadata,
		},
		"missing token": {
			msg: &CreateDripPoolMsg{
				Metadata:       &weave.Metadata{Schema: 1},
				TokensPerEpoch: 100,
				EpochsNumber:   10,
			},
			wantErr: errors.ErrEmpty,
		},
		"negative tokens per epoch": {
			msg: &CreateDripPoolMsg{
				Metadata:       &weave.Metadata{Schema: 1},
				Token:          &DripToken{Ticker: "IOV", Available: 1000},
				TokensPerEpoch: -1,
				EpochsNumber:   10,
			},
			wantErr: errors.ErrAmount,
		},
		"negative epochs number": {
			msg: &CreateDripPoolMsg{
				Metadata:       &weave.Metadata{Schema: 1},
				Token:          &DripToken{Ticker: "IOV", Available: 1000},
				TokensPerEpoch: 100,
				EpochsNumber:   -1,
			},
			wantErr: errors.ErrAmount,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.msg.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %q, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateUpdateConfigurationMsg(t *testing.T) {
	cases := map[string]struct {
		msg     weave.Msg
		wantErr *errors.Error
	}{
		"valid message": {
			msg: &UpdateConfigurationMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Patch: &Configuration{
					Owner:            weavetest.NewCondition().Address(),
					MinStakingAmount: 5,
				},
			},
		},
		"patch is required": {
			msg: &UpdateConfigurationMsg{
				Metadata: &weave.Metadata{Schema: 1},
			},
			wantErr: errors.ErrEmpty,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.msg.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %q, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestSimpleMsgValidate(t *testing.T) {
	msgs := []weave.Msg{
		&ParticipateMsg{Metadata: &weave.Metadata{Schema: 1}},
		&RemoveParticipationMsg{Metadata: &weave.Metadata{Schema: 1}},
		&DistributeSharesMsg{Metadata: &weave.Metadata{Schema: 1}},
		&WithdrawTokensMsg{Metadata: &weave.Metadata{Schema: 1}},
	}
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			t.Fatalf("%s: %+v", msg.Path(), err)
		}
	}
}
