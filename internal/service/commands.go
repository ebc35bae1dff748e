package service

import (
	"encoding/json"
	"fmt"

	"github.com/mmeshcher/launchpad/internal/funding"
	"github.com/mmeshcher/launchpad/internal/model"
)

type approveCommand struct {
	Token   string `json:"token"`
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

type transferCommand struct {
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type mintCommand struct {
	Token  string `json:"token"`
	Amount uint64 `json:"amount"`
}

type buyCommand struct {
	FundingID uint64               `json:"funding_id"`
	Kind      model.InstrumentKind `json:"kind"`
	Quantity  uint64               `json:"quantity,omitempty"`
	Payment   uint64               `json:"payment,omitempty"`
	BasePrice uint64               `json:"base_price,omitempty"`
}

type fundingCommand struct {
	FundingID uint64 `json:"funding_id"`
}

type stakeCommand struct {
	FundingID uint64 `json:"funding_id"`
	Quantity  uint64 `json:"quantity"`
}

type positionCommand struct {
	FundingID uint64 `json:"funding_id"`
	Position  uint64 `json:"position"`
}

type withdrawCommand struct {
	FundingID uint64 `json:"funding_id"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

type voteCommand struct {
	ProposalID uint64 `json:"proposal_id"`
	Approve    bool   `json:"approve"`
}

func decode[T any](op model.Operation) (T, error) {
	var cmd T
	if err := json.Unmarshal(op.Payload, &cmd); err != nil {
		return cmd, fmt.Errorf("decode %s payload: %w", op.Kind, err)
	}
	return cmd, nil
}

// apply применяет операцию журнала к платформе. Одна и та же функция используется
// и для новых команд, и при восстановлении состояния из журнала.
func apply(p *funding.Platform, op model.Operation) (any, []model.Event, error) {
	now := op.ExecutedAt

	switch op.Kind {
	case model.OpInitialize:
		params, err := decode[model.FundingParams](op)
		if err != nil {
			return nil, nil, err
		}
		return p.Initialize(now, op.Actor, params)

	case model.OpApprove:
		cmd, err := decode[approveCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, p.Approve(cmd.Token, op.Actor, cmd.Spender, cmd.Amount)

	case model.OpTransfer:
		cmd, err := decode[transferCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, p.Transfer(cmd.Token, op.Actor, cmd.To, cmd.Amount)

	case model.OpMint:
		cmd, err := decode[mintCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, p.Mint(cmd.Token, op.Actor, cmd.Amount)

	case model.OpBuy:
		cmd, err := decode[buyCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return p.Buy(now, funding.BuyRequest{
			FundingID: cmd.FundingID,
			Kind:      cmd.Kind,
			Payer:     op.Actor,
			Quantity:  cmd.Quantity,
			Payment:   cmd.Payment,
			BasePrice: cmd.BasePrice,
		})

	case model.OpClaim:
		cmd, err := decode[fundingCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return p.Claim(now, cmd.FundingID, op.Actor)

	case model.OpStake:
		cmd, err := decode[stakeCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return p.Stake(now, cmd.FundingID, op.Actor, cmd.Quantity)

	case model.OpUnstake:
		cmd, err := decode[positionCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return p.Unstake(now, cmd.FundingID, op.Actor, cmd.Position)

	case model.OpClaimStake:
		cmd, err := decode[positionCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return p.ClaimStake(now, cmd.FundingID, op.Actor, cmd.Position)

	case model.OpWithdraw:
		cmd, err := decode[withdrawCommand](op)
		if err != nil {
			return nil, nil, err
		}
		events, err := p.WithdrawTo(now, op.Actor, cmd.FundingID, cmd.Recipient, cmd.Amount)
		return nil, events, err

	case model.OpCreateProposal:
		cmd, err := decode[withdrawCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return p.CreateWithdrawProposal(now, op.Actor, cmd.Recipient, cmd.FundingID, cmd.Amount)

	case model.OpVote:
		cmd, err := decode[voteCommand](op)
		if err != nil {
			return nil, nil, err
		}
		return p.VoteWithdrawProposal(now, op.Actor, cmd.ProposalID, cmd.Approve)
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
}
