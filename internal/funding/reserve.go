package funding

import (
	"github.com/mmeshcher/launchpad/internal/model"
)

// reserveBalance вычисляет валовый баланс резерва и сумму зарезервированных обязательств.
// Доступный к выводу баланс никогда не бывает отрицательным: при недокапитализации он равен нулю.
func (p *Platform) reserveBalance(c *campaign) (model.ReserveBalance, error) {
	gross := p.assets.Ensure(c.record.PaymentToken).BalanceOf(c.record.ReserveAccount)

	var obligations uint64
	if c.staking != nil {
		for _, pos := range c.staking.outstanding() {
			o, err := obligation(*pos, c.record.Maturity)
			if err != nil {
				return model.ReserveBalance{}, err
			}
			if obligations, err = add(obligations, o); err != nil {
				return model.ReserveBalance{}, err
			}
		}
	}

	var withdrawable uint64
	if gross > obligations {
		withdrawable = gross - obligations
	}

	return model.ReserveBalance{
		Account:      c.record.ReserveAccount,
		Gross:        gross,
		Obligations:  obligations,
		Withdrawable: withdrawable,
	}, nil
}

// Reserve возвращает состояние резерва кампании.
func (p *Platform) Reserve(fundingID uint64) (model.ReserveBalance, error) {
	c, err := p.campaign(fundingID)
	if err != nil {
		return model.ReserveBalance{}, err
	}
	return p.reserveBalance(c)
}

// WithdrawableBalance возвращает сумму, которую владельцы могут вывести из резерва.
func (p *Platform) WithdrawableBalance(fundingID uint64) (uint64, error) {
	rb, err := p.Reserve(fundingID)
	if err != nil {
		return 0, err
	}
	return rb.Withdrawable, nil
}
