package funding

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmeshcher/launchpad/internal/model"
)

const day = 24 * time.Hour

// stakingLedger хранит позиции стейкинга одной кампании.
type stakingLedger struct {
	account   string
	rounds    *RoundLedger
	positions map[uint64]*model.StakePosition
	nextID    uint64
}

func newStakingLedger(account string, params []model.RoundParams) *stakingLedger {
	return &stakingLedger{
		account:   account,
		rounds:    NewRoundLedger(params),
		positions: make(map[uint64]*model.StakePosition),
	}
}

// position возвращает позицию, проверяя владельца и то, что она ещё открыта.
func (s *stakingLedger) position(id uint64, caller string) (*model.StakePosition, error) {
	p, ok := s.positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPositionNotFound, id)
	}
	if p.Owner != caller {
		return nil, ErrNotOwner
	}
	if p.Status != model.StakeStatusStaked {
		return nil, fmt.Errorf("%w: %d is %s", ErrPositionClosed, id, p.Status)
	}
	return p, nil
}

// outstanding возвращает открытые позиции в порядке идентификаторов.
func (s *stakingLedger) outstanding() []*model.StakePosition {
	res := make([]*model.StakePosition, 0, len(s.positions))
	for _, p := range s.positions {
		if p.Status == model.StakeStatusStaked {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// accruedReward начисляет награду линейно по целым дням, прошедшим с момента стейкинга.
// Срок начисления ограничен датой погашения, ставка зафиксирована при создании позиции.
func accruedReward(p model.StakePosition, at, maturity time.Time) (uint64, error) {
	if at.After(maturity) {
		at = maturity
	}
	if !at.After(p.StakedAt) {
		return 0, nil
	}
	days := uint64(at.Sub(p.StakedAt) / day)
	weighted, err := mul(p.Principal, p.RewardRate)
	if err != nil {
		return 0, err
	}
	return mulDiv(weighted, days, model.RewardPrecision)
}

// obligation возвращает сумму, которую резерв должен выплатить по позиции при погашении.
func obligation(p model.StakePosition, maturity time.Time) (uint64, error) {
	reward, err := accruedReward(p, maturity, maturity)
	if err != nil {
		return 0, err
	}
	return add(p.Principal, reward)
}

func unstakePayout(principal, fee uint64) (uint64, uint64, error) {
	penalty, err := mulDiv(principal, fee, model.FeePrecision)
	if err != nil {
		return 0, 0, err
	}
	return principal - penalty, penalty, nil
}
