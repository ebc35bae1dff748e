package funding

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mmeshcher/launchpad/internal/model"
)

// BuyRequest описывает покупку инструмента. Ровно одно из полей Quantity и Payment должно быть ненулевым.
// BasePrice нужен только для discount-инструмента и приходит от оракула.
type BuyRequest struct {
	FundingID uint64
	Kind      model.InstrumentKind
	Payer     string
	Quantity  uint64
	Payment   uint64
	BasePrice uint64
}

// BuyResult описывает исполненную покупку.
type BuyResult struct {
	Round    int    `json:"round"`
	Quantity uint64 `json:"quantity"`
	Payment  uint64 `json:"payment"`
}

func (p *Platform) engine(fundingID uint64, kind model.InstrumentKind) (*campaign, *engine, error) {
	c, err := p.campaign(fundingID)
	if err != nil {
		return nil, nil, err
	}
	e, ok := c.engines[kind]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s in funding %d", ErrInstrumentNotFound, kind, fundingID)
	}
	return c, e, nil
}

// Buy продаёт инструмент в активном раунде. Оплата списывается у покупателя
// через разрешение, выданное аккаунту движка, и зачисляется в резерв кампании.
// При покупке на сумму дробный остаток не возвращается.
func (p *Platform) Buy(now time.Time, req BuyRequest) (BuyResult, []model.Event, error) {
	if (req.Quantity == 0) == (req.Payment == 0) {
		return BuyResult{}, nil, fmt.Errorf("%w: exactly one of quantity or payment is required", ErrInvalidAmount)
	}

	c, e, err := p.engine(req.FundingID, req.Kind)
	if err != nil {
		return BuyResult{}, nil, err
	}

	byPay := req.Payment > 0
	amount := req.Quantity
	if byPay {
		amount = req.Payment
	}

	idx, quantity, payment, err := e.quote(now, amount, req.BasePrice, byPay)
	if err != nil {
		return BuyResult{}, nil, err
	}

	ledger := p.assets.Ensure(c.record.PaymentToken)
	if err := ledger.TransferFrom(e.account, req.Payer, c.record.ReserveAccount, payment); err != nil {
		return BuyResult{}, nil, err
	}
	// ёмкость проверена в quote, ошибка здесь невозможна
	_ = e.rounds.RecordIssuance(idx, quantity)
	e.holdings[req.Payer] += quantity

	ev := model.Event{
		Type:      model.EventInstrumentBought,
		FundingID: req.FundingID,
		Actor:     req.Payer,
		Amount:    payment,
		Quantity:  quantity,
		Attributes: map[string]string{
			"kind":  string(req.Kind),
			"round": strconv.Itoa(idx + 1),
		},
		OccurredAt: now,
	}
	return BuyResult{Round: idx + 1, Quantity: quantity, Payment: payment}, []model.Event{ev}, nil
}

// Instrument возвращает состояние движка на момент now.
// Номер раунда равен нулю, если активного раунда нет.
func (p *Platform) Instrument(now time.Time, fundingID uint64, kind model.InstrumentKind) (model.InstrumentInfo, error) {
	c, e, err := p.engine(fundingID, kind)
	if err != nil {
		return model.InstrumentInfo{}, err
	}

	info := model.InstrumentInfo{
		Kind:      kind,
		Account:   e.account,
		TotalSold: e.rounds.TotalSold(),
		TotalCap:  e.rounds.TotalCap(),
		Rounds:    e.rounds.Rounds(),
	}
	if idx, round, err := e.rounds.ResolveActive(now); err == nil {
		info.RoundNumber = idx + 1
		info.RoundValue = round.Value
	}

	info.EstimatedPayout, err = c.payoutRate(kind)
	if err != nil {
		return model.InstrumentInfo{}, err
	}
	return info, nil
}

// payoutRate возвращает коэффициент выплаты инструмента в единицах PayoutPrecision.
// fixed и discount погашаются один к одному.
func (c *campaign) payoutRate(kind model.InstrumentKind) (uint64, error) {
	if kind != model.InstrumentRange {
		return model.PayoutPrecision, nil
	}
	return estimatedPayout(c.record, c.engines[model.InstrumentRange], c.engines[model.InstrumentFixed])
}

// CurrentEstimatedPayout возвращает текущий коэффициент выплаты range-инструмента.
func (p *Platform) CurrentEstimatedPayout(fundingID uint64) (uint64, error) {
	c, _, err := p.engine(fundingID, model.InstrumentRange)
	if err != nil {
		return 0, err
	}
	return c.payoutRate(model.InstrumentRange)
}

// Holdings возвращает остатки держателя по всем инструментам кампании и ожидаемые выплаты.
func (p *Platform) Holdings(fundingID uint64, holder string) ([]model.Holding, error) {
	c, err := p.campaign(fundingID)
	if err != nil {
		return nil, err
	}

	var res []model.Holding
	for _, kind := range []model.InstrumentKind{model.InstrumentFixed, model.InstrumentDiscount, model.InstrumentRange} {
		e, ok := c.engines[kind]
		if !ok {
			continue
		}
		rate, err := c.payoutRate(kind)
		if err != nil {
			return nil, err
		}
		balance := e.holdings[holder]
		payout, err := mulDiv(balance, rate, model.PayoutPrecision)
		if err != nil {
			return nil, err
		}
		res = append(res, model.Holding{Kind: kind, Balance: balance, Payout: payout})
	}
	return res, nil
}

// Claim погашает все инструменты держателя после даты разблокировки.
// Итоговая сумма начисляется один раз: чеканится в проектном токене, если он задан,
// иначе переводится из резерва. Повторное погашение возвращает ErrNothingToClaim.
func (p *Platform) Claim(now time.Time, fundingID uint64, holder string) (uint64, []model.Event, error) {
	c, err := p.campaign(fundingID)
	if err != nil {
		return 0, nil, err
	}
	if now.Before(c.record.Unlock) {
		return 0, nil, ErrNotYetMatured
	}

	var principal, rangeBalance uint64
	for kind, e := range c.engines {
		if kind == model.InstrumentRange {
			rangeBalance = e.holdings[holder]
			continue
		}
		if principal, err = add(principal, e.holdings[holder]); err != nil {
			return 0, nil, err
		}
	}

	rate, err := c.payoutRate(model.InstrumentRange)
	if err != nil {
		return 0, nil, err
	}
	rangePayout, err := mulDiv(rangeBalance, rate, model.PayoutPrecision)
	if err != nil {
		return 0, nil, err
	}
	total, err := add(principal, rangePayout)
	if err != nil {
		return 0, nil, err
	}
	if principal == 0 && rangeBalance == 0 {
		return 0, nil, ErrNothingToClaim
	}

	if c.record.ProjectToken != "" {
		if err := p.assets.Ensure(c.record.ProjectToken).Mint(holder, total); err != nil {
			return 0, nil, err
		}
	} else {
		ledger := p.assets.Ensure(c.record.PaymentToken)
		if ledger.BalanceOf(c.record.ReserveAccount) < total {
			return 0, nil, fmt.Errorf("%w: reserve holds %d, claim needs %d",
				ErrInsufficientReserve, ledger.BalanceOf(c.record.ReserveAccount), total)
		}
		_ = ledger.Transfer(c.record.ReserveAccount, holder, total)
	}

	for _, e := range c.engines {
		delete(e.holdings, holder)
	}

	ev := model.Event{
		Type:       model.EventInstrumentClaim,
		FundingID:  fundingID,
		Actor:      holder,
		Recipient:  holder,
		Amount:     total,
		OccurredAt: now,
	}
	return total, []model.Event{ev}, nil
}

// Holders возвращает держателей инструмента в алфавитном порядке.
func (p *Platform) Holders(fundingID uint64, kind model.InstrumentKind) ([]string, error) {
	_, e, err := p.engine(fundingID, kind)
	if err != nil {
		return nil, err
	}
	return e.holders(), nil
}
