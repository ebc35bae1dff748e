package funding

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmeshcher/launchpad/internal/model"
)

func (p *Platform) ownerCampaign(fundingID uint64, caller string) (*campaign, error) {
	c, err := p.campaign(fundingID)
	if err != nil {
		return nil, err
	}
	if c.ownerIndex(caller) < 0 {
		return nil, ErrNotOwner
	}
	return c, nil
}

// payFromReserve переводит amount из резерва получателю, если доступный баланс это позволяет.
// limitErr возвращается при превышении доступного к выводу баланса.
func (p *Platform) payFromReserve(c *campaign, recipient string, amount uint64, limitErr error) error {
	rb, err := p.reserveBalance(c)
	if err != nil {
		return err
	}
	if amount > rb.Withdrawable {
		return fmt.Errorf("%w: requested %d, withdrawable %d", limitErr, amount, rb.Withdrawable)
	}
	return p.assets.Ensure(c.record.PaymentToken).Transfer(c.record.ReserveAccount, recipient, amount)
}

func governanceEvent(t model.EventType, prop *model.WithdrawProposal, actor string, now time.Time) model.Event {
	return model.Event{
		Type:       t,
		FundingID:  prop.FundingID,
		ProposalID: prop.ID,
		Actor:      actor,
		Recipient:  prop.Recipient,
		Amount:     prop.Amount,
		OccurredAt: now,
	}
}

// WithdrawTo выводит средства из резерва без голосования. Доступно только кампаниям с одним владельцем.
func (p *Platform) WithdrawTo(now time.Time, caller string, fundingID uint64, recipient string, amount uint64) ([]model.Event, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: zero amount", ErrInvalidAmount)
	}
	if strings.TrimSpace(recipient) == "" {
		return nil, fmt.Errorf("%w: empty recipient", ErrInvalidOwner)
	}
	c, err := p.ownerCampaign(fundingID, caller)
	if err != nil {
		return nil, err
	}
	if len(c.record.Owners) > 1 {
		return nil, ErrMultipleOwnersVotingNeeded
	}
	if err := p.payFromReserve(c, recipient, amount, ErrExceedsWithdrawable); err != nil {
		return nil, err
	}

	ev := model.Event{
		Type:       model.EventDirectWithdraw,
		FundingID:  fundingID,
		Actor:      caller,
		Recipient:  recipient,
		Amount:     amount,
		OccurredAt: now,
	}
	return []model.Event{ev}, nil
}

// CreateWithdrawProposal открывает предложение о выводе. У кампании может быть
// не более одного открытого предложения, создатель не голосует автоматически.
func (p *Platform) CreateWithdrawProposal(now time.Time, caller, recipient string, fundingID uint64, amount uint64) (model.WithdrawProposal, []model.Event, error) {
	if amount == 0 {
		return model.WithdrawProposal{}, nil, fmt.Errorf("%w: zero amount", ErrInvalidAmount)
	}
	if strings.TrimSpace(recipient) == "" {
		return model.WithdrawProposal{}, nil, fmt.Errorf("%w: empty recipient", ErrInvalidOwner)
	}
	c, err := p.ownerCampaign(fundingID, caller)
	if err != nil {
		return model.WithdrawProposal{}, nil, err
	}
	if len(c.record.Owners) == 1 {
		return model.WithdrawProposal{}, nil, ErrOnlyOneOwnerVotingNotNeeded
	}
	if open, ok := p.openProposals[fundingID]; ok {
		return model.WithdrawProposal{}, nil, fmt.Errorf("%w: proposal %d", ErrProposalAlreadyOpen, open)
	}

	p.nextProposalID++
	prop := &model.WithdrawProposal{
		ID:        p.nextProposalID,
		FundingID: fundingID,
		Creator:   caller,
		Recipient: recipient,
		Amount:    amount,
		Votes:     make(map[string]model.Vote, len(c.record.Owners)),
		State:     model.ProposalOpen,
		CreatedAt: now,
	}
	p.proposals[prop.ID] = prop
	p.openProposals[fundingID] = prop.ID

	return copyProposal(prop), []model.Event{governanceEvent(model.EventProposalCreated, prop, caller, now)}, nil
}

// VoteWithdrawProposal учитывает голос владельца. Один голос против сразу отклоняет предложение,
// единогласное одобрение исполняет перевод в этом же вызове. Повторный голос перезаписывает предыдущий.
// Закрытые предложения недоступны для голосования и сообщаются как ErrUnexistentProposal.
func (p *Platform) VoteWithdrawProposal(now time.Time, caller string, proposalID uint64, approve bool) (model.WithdrawProposal, []model.Event, error) {
	prop, ok := p.proposals[proposalID]
	if !ok || prop.State != model.ProposalOpen {
		return model.WithdrawProposal{}, nil, fmt.Errorf("%w: %d", ErrUnexistentProposal, proposalID)
	}
	c, err := p.ownerCampaign(prop.FundingID, caller)
	if err != nil {
		return model.WithdrawProposal{}, nil, err
	}

	voted := governanceEvent(model.EventProposalVoted, prop, caller, now)
	voted.Attributes = map[string]string{"approve": fmt.Sprint(approve)}

	if !approve {
		prop.Votes[caller] = model.VoteDeny
		prop.State = model.ProposalDenied
		delete(p.openProposals, prop.FundingID)
		return copyProposal(prop), []model.Event{voted, governanceEvent(model.EventProposalDenied, prop, caller, now)}, nil
	}

	unanimous := true
	for _, owner := range c.record.Owners {
		if owner != caller && prop.Votes[owner] != model.VoteApprove {
			unanimous = false
			break
		}
	}
	if !unanimous {
		prop.Votes[caller] = model.VoteApprove
		return copyProposal(prop), []model.Event{voted}, nil
	}

	// доступный баланс пересчитывается в момент исполнения; при нехватке голос не засчитывается
	if err := p.payFromReserve(c, prop.Recipient, prop.Amount, ErrInsufficientWithdrawable); err != nil {
		return model.WithdrawProposal{}, nil, err
	}
	prop.Votes[caller] = model.VoteApprove
	prop.State = model.ProposalApproved
	delete(p.openProposals, prop.FundingID)

	return copyProposal(prop), []model.Event{voted, governanceEvent(model.EventProposalApproved, prop, caller, now)}, nil
}

// Proposal возвращает предложение по идентификатору, включая закрытые.
func (p *Platform) Proposal(proposalID uint64) (model.WithdrawProposal, error) {
	prop, ok := p.proposals[proposalID]
	if !ok {
		return model.WithdrawProposal{}, fmt.Errorf("%w: %d", ErrUnexistentProposal, proposalID)
	}
	return copyProposal(prop), nil
}

// Proposals возвращает все предложения кампании в порядке создания.
func (p *Platform) Proposals(fundingID uint64) ([]model.WithdrawProposal, error) {
	if _, err := p.campaign(fundingID); err != nil {
		return nil, err
	}
	var res []model.WithdrawProposal
	for _, prop := range p.proposals {
		if prop.FundingID == fundingID {
			res = append(res, copyProposal(prop))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func copyProposal(prop *model.WithdrawProposal) model.WithdrawProposal {
	res := *prop
	res.Votes = make(map[string]model.Vote, len(prop.Votes))
	for k, v := range prop.Votes {
		res.Votes[k] = v
	}
	return res
}
