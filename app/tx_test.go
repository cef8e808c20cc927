package app

import (
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/weavetest/assert"
	"github.com/iov-one/weave/x/cash"
	"github.com/iov-one/weave/x/sigs"

	"github.com/iov-one/weave-drip/x/drip"
	"github.com/iov-one/weave-drip/x/stake"
	"github.com/iov-one/weave-drip/x/token"
)

func TestTxGetMsg(t *testing.T) {
	meta := &weave.Metadata{Schema: 1}

	cases := map[string]struct {
		Sum      isTx_Sum
		WantPath string
	}{
		"cash send": {
			Sum:      &Tx_CashSendMsg{&cash.SendMsg{Metadata: meta}},
			WantPath: "cash/send",
		},
		"drip participate": {
			Sum:      &Tx_DripParticipateMsg{&drip.ParticipateMsg{Metadata: meta}},
			WantPath: "drip/participate",
		},
		"drip remove participation": {
			Sum:      &Tx_DripRemoveParticipationMsg{&drip.RemoveParticipationMsg{Metadata: meta}},
			WantPath: "drip/remove_participation",
		},
		"drip create pool": {
			Sum:      &Tx_DripCreateDripPoolMsg{&drip.CreateDripPoolMsg{Metadata: meta}},
			WantPath: "drip/create_pool",
		},
		"drip distribute": {
			Sum:      &Tx_DripDistributeSharesMsg{&drip.DistributeSharesMsg{Metadata: meta}},
			WantPath: "drip/distribute",
		},
		"drip withdraw": {
			Sum:      &Tx_DripWithdrawTokensMsg{&drip.WithdrawTokensMsg{Metadata: meta}},
			WantPath: "drip/withdraw",
		},
		"drip update configuration": {
			Sum:      &Tx_DripUpdateConfigurationMsg{&drip.UpdateConfigurationMsg{Metadata: meta}},
			WantPath: "drip/update_configuration",
		},
		"stake set delegation": {
			Sum:      &Tx_StakeSetDelegationMsg{&stake.SetDelegationMsg{Metadata: meta}},
			WantPath: "stake/set_delegation",
		},
		"token create": {
			Sum:      &Tx_TokenCreateTokenMsg{&token.CreateTokenMsg{Metadata: meta}},
			WantPath: "token/create",
		},
		"token transfer": {
			Sum:      &Tx_TokenTransferTokenMsg{&token.TransferTokenMsg{Metadata: meta}},
			WantPath: "token/transfer",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			tx := Tx{Sum: tc.Sum}
			msg, err := tx.GetMsg()
			assert.Nil(t, err)
			assert.Equal(t, tc.WantPath, msg.Path())
		})
	}
}

func TestTxDecoderRoundtrip(t *testing.T) {
	tx := Tx{
		Sum: &Tx_DripCreateDripPoolMsg{&drip.CreateDripPoolMsg{
			Metadata:       &weave.Metadata{Schema: 1},
			Token:          &drip.DripToken{Ticker: "IOV", Available: 1000},
			TokensPerEpoch: 100,
			EpochsNumber:   10,
		}},
	}
	raw, err := tx.Marshal()
	assert.Nil(t, err)

	decoded, err := TxDecoder(raw)
	assert.Nil(t, err)
	msg, err := decoded.GetMsg()
	assert.Nil(t, err)
	create, ok := msg.(*drip.CreateDripPoolMsg)
	if !ok {
		t.Fatalf("unexpected message type: %T", msg)
	}
	assert.Equal(t, "IOV", create.Token.Ticker)
	assert.Equal(t, int64(100), create.TokensPerEpoch)
}

func TestSignBytesExcludeSignatures(t *testing.T) {
	tx := Tx{
		Sum: &Tx_DripParticipateMsg{&drip.ParticipateMsg{
			Metadata: &weave.Metadata{Schema: 1},
		}},
	}
	unsigned, err := tx.GetSignBytes()
	assert.Nil(t, err)

	// Attaching a signature must not change the sign bytes.
	tx.Signatures = append(tx.Signatures, &sigs.StdSignature{Sequence: 1})
	signed, err := tx.GetSignBytes()
	assert.Nil(t, err)
	assert.Equal(t, unsigned, signed)
}
