package funding

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mmeshcher/launchpad/internal/model"
)

func (p *Platform) staking(fundingID uint64) (*campaign, *stakingLedger, error) {
	c, err := p.campaign(fundingID)
	if err != nil {
		return nil, nil, err
	}
	if c.staking == nil {
		return nil, nil, fmt.Errorf("%w: funding %d", ErrStakingNotAvailable, fundingID)
	}
	return c, c.staking, nil
}

// Stake создаёт позицию стейкинга. Ставка награды фиксируется по раунду, активному в момент now,
// основная сумма переводится в резерв через разрешение, выданное аккаунту стейкинга.
func (p *Platform) Stake(now time.Time, fundingID uint64, owner string, quantity uint64) (model.StakePosition, []model.Event, error) {
	if quantity == 0 {
		return model.StakePosition{}, nil, fmt.Errorf("%w: zero quantity", ErrInvalidAmount)
	}
	c, s, err := p.staking(fundingID)
	if err != nil {
		return model.StakePosition{}, nil, err
	}
	if !now.Before(c.record.Maturity) {
		return model.StakePosition{}, nil, fmt.Errorf("%w: funding %d already matured", ErrInvalidDate, fundingID)
	}

	idx, round, err := s.rounds.ResolveActive(now)
	if err != nil {
		return model.StakePosition{}, nil, err
	}
	if err := s.rounds.CheckCapacity(idx, quantity); err != nil {
		return model.StakePosition{}, nil, err
	}

	ledger := p.assets.Ensure(c.record.PaymentToken)
	if err := ledger.TransferFrom(s.account, owner, c.record.ReserveAccount, quantity); err != nil {
		return model.StakePosition{}, nil, err
	}
	_ = s.rounds.RecordIssuance(idx, quantity)

	s.nextID++
	pos := &model.StakePosition{
		ID:         s.nextID,
		FundingID:  fundingID,
		Owner:      owner,
		Principal:  quantity,
		RewardRate: round.Value,
		StakedAt:   now,
		Status:     model.StakeStatusStaked,
	}
	s.positions[pos.ID] = pos

	ev := model.Event{
		Type:      model.EventStaked,
		FundingID: fundingID,
		Actor:     owner,
		Quantity:  quantity,
		Attributes: map[string]string{
			"position":    strconv.FormatUint(pos.ID, 10),
			"reward_rate": strconv.FormatUint(round.Value, 10),
		},
		OccurredAt: now,
	}
	return *pos, []model.Event{ev}, nil
}

// Position возвращает позицию стейкинга по идентификатору.
func (p *Platform) Position(fundingID, positionID uint64) (model.StakePosition, error) {
	_, s, err := p.staking(fundingID)
	if err != nil {
		return model.StakePosition{}, err
	}
	pos, ok := s.positions[positionID]
	if !ok {
		return model.StakePosition{}, fmt.Errorf("%w: %d", ErrPositionNotFound, positionID)
	}
	return *pos, nil
}

// PositionsOf возвращает все позиции владельца, включая закрытые.
func (p *Platform) PositionsOf(fundingID uint64, owner string) ([]model.StakePosition, error) {
	_, s, err := p.staking(fundingID)
	if err != nil {
		return nil, err
	}
	var res []model.StakePosition
	for id := uint64(1); id <= s.nextID; id++ {
		if pos := s.positions[id]; pos != nil && pos.Owner == owner {
			res = append(res, *pos)
		}
	}
	return res, nil
}

// AccruedReward возвращает награду, начисленную по открытой позиции на момент now.
func (p *Platform) AccruedReward(now time.Time, fundingID, positionID uint64) (uint64, error) {
	c, s, err := p.staking(fundingID)
	if err != nil {
		return 0, err
	}
	pos, ok := s.positions[positionID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrPositionNotFound, positionID)
	}
	if pos.Status != model.StakeStatusStaked {
		return 0, nil
	}
	return accruedReward(*pos, now, c.record.Maturity)
}

// CurrentReward возвращает ставку награды активного раунда стейкинга.
func (p *Platform) CurrentReward(now time.Time, fundingID uint64) (uint64, error) {
	_, s, err := p.staking(fundingID)
	if err != nil {
		return 0, err
	}
	_, round, err := s.rounds.ResolveActive(now)
	if err != nil {
		return 0, err
	}
	return round.Value, nil
}

// Unstake закрывает позицию до даты погашения. Владелец получает основную сумму за вычетом комиссии,
// комиссия сжигается.
func (p *Platform) Unstake(now time.Time, fundingID uint64, caller string, positionID uint64) (uint64, []model.Event, error) {
	c, s, err := p.staking(fundingID)
	if err != nil {
		return 0, nil, err
	}
	pos, err := s.position(positionID, caller)
	if err != nil {
		return 0, nil, err
	}
	if !now.Before(c.record.Maturity) {
		return 0, nil, fmt.Errorf("%w: position matured, claim instead", ErrInvalidDate)
	}

	payout, fee, err := unstakePayout(pos.Principal, c.record.UnstakeFee)
	if err != nil {
		return 0, nil, err
	}

	ledger := p.assets.Ensure(c.record.PaymentToken)
	if ledger.BalanceOf(c.record.ReserveAccount) < pos.Principal {
		return 0, nil, fmt.Errorf("%w: reserve holds %d, unstake needs %d",
			ErrInsufficientReserve, ledger.BalanceOf(c.record.ReserveAccount), pos.Principal)
	}
	_ = ledger.Transfer(c.record.ReserveAccount, caller, payout)
	if fee > 0 {
		_ = ledger.Burn(c.record.ReserveAccount, fee)
	}
	pos.Status = model.StakeStatusUnstaked

	ev := model.Event{
		Type:      model.EventUnstaked,
		FundingID: fundingID,
		Actor:     caller,
		Recipient: caller,
		Amount:    payout,
		Quantity:  pos.Principal,
		Attributes: map[string]string{
			"position": strconv.FormatUint(pos.ID, 10),
			"fee":      strconv.FormatUint(fee, 10),
		},
		OccurredAt: now,
	}
	return payout, []model.Event{ev}, nil
}

// ClaimStake погашает позицию в дату погашения или позже: выплачиваются основная сумма
// и награда, начисленная на дату погашения.
func (p *Platform) ClaimStake(now time.Time, fundingID uint64, caller string, positionID uint64) (uint64, []model.Event, error) {
	c, s, err := p.staking(fundingID)
	if err != nil {
		return 0, nil, err
	}
	pos, err := s.position(positionID, caller)
	if err != nil {
		return 0, nil, err
	}
	if now.Before(c.record.Maturity) {
		return 0, nil, ErrNotYetMatured
	}

	total, err := obligation(*pos, c.record.Maturity)
	if err != nil {
		return 0, nil, err
	}

	ledger := p.assets.Ensure(c.record.PaymentToken)
	if gross := ledger.BalanceOf(c.record.ReserveAccount); gross < total {
		return 0, nil, fmt.Errorf("%w: reserve holds %d, claim needs %d", ErrInsufficientReserve, gross, total)
	}
	_ = ledger.Transfer(c.record.ReserveAccount, caller, total)
	pos.Status = model.StakeStatusClaimed

	ev := model.Event{
		Type:      model.EventStakeClaimed,
		FundingID: fundingID,
		Actor:     caller,
		Recipient: caller,
		Amount:    total,
		Quantity:  pos.Principal,
		Attributes: map[string]string{
			"position": strconv.FormatUint(pos.ID, 10),
		},
		OccurredAt: now,
	}
	return total, []model.Event{ev}, nil
}

// TransferPosition всегда завершается ошибкой: позиции стейкинга непередаваемы.
func (p *Platform) TransferPosition(fundingID uint64, caller string, positionID uint64, to string) error {
	_, s, err := p.staking(fundingID)
	if err != nil {
		return err
	}
	if _, err := s.position(positionID, caller); err != nil {
		return err
	}
	return ErrTransferNotAllowed
}
