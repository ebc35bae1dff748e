// Package funding реализует ядро лаунчпада: раунды продаж, движки ценообразования,
// стейкинг, учёт резерва и управление выводом средств владельцами.
//
// Platform не потокобезопасна. Каждая операция принимает момент исполнения now,
// проверяет все предусловия до первого изменения состояния и либо применяется целиком,
// либо возвращает ошибку без побочных эффектов. Сериализацию операций обеспечивает вызывающий код.
package funding

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/launchpad/internal/asset"
	"github.com/mmeshcher/launchpad/internal/model"
)

// campaign связывает запись кампании с её компонентами.
type campaign struct {
	record  model.FundingRecord
	engines map[model.InstrumentKind]*engine
	staking *stakingLedger
}

func (c *campaign) ownerIndex(owner string) int {
	for i, o := range c.record.Owners {
		if o == owner {
			return i
		}
	}
	return -1
}

// Platform является оркестратором кампаний и владельцем всего разделяемого состояния.
type Platform struct {
	assets         *asset.Registry
	campaigns      []*campaign
	proposals      map[uint64]*model.WithdrawProposal
	openProposals  map[uint64]uint64
	nextProposalID uint64
}

// NewPlatform создаёт пустую платформу поверх реестра активов.
func NewPlatform(assets *asset.Registry) *Platform {
	if assets == nil {
		assets = asset.NewRegistry()
	}
	return &Platform{
		assets:        assets,
		proposals:     make(map[uint64]*model.WithdrawProposal),
		openProposals: make(map[uint64]uint64),
	}
}

// Assets возвращает реестр активов платформы.
func (p *Platform) Assets() *asset.Registry { return p.assets }

func accountName(fundingID uint64, component string) string {
	return "funding/" + strconv.FormatUint(fundingID, 10) + "/" + component
}

func normalizeOwners(owners []string) ([]string, error) {
	if len(owners) == 0 {
		return nil, ErrNoOwners
	}
	res := make([]string, 0, len(owners))
	seen := make(map[string]struct{}, len(owners))
	for _, o := range owners {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, fmt.Errorf("%w: empty identity", ErrInvalidOwner)
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		res = append(res, o)
	}
	return res, nil
}

func validateParams(now time.Time, params model.FundingParams) ([]string, error) {
	owners, err := normalizeOwners(params.Owners)
	if err != nil {
		return nil, err
	}
	if !params.Unlock.After(now) || !params.Maturity.After(now) {
		return nil, ErrInvalidUnlockDate
	}
	if params.RMin > params.RMax {
		return nil, ErrInvalidRInterval
	}
	if len(params.RangeRounds) > 0 && (params.RMin == 0 || params.TargetSupply == 0) {
		return nil, fmt.Errorf("%w: range instrument needs positive r and target supply", ErrInvalidRInterval)
	}
	if strings.TrimSpace(params.PaymentToken) == "" {
		return nil, fmt.Errorf("%w: payment token is required", ErrInvalidToken)
	}
	if params.ProjectToken != "" && params.ProjectToken == params.PaymentToken {
		return nil, fmt.Errorf("%w: project token must differ from payment token", ErrInvalidToken)
	}
	if params.UnstakeFee > model.FeePrecision {
		return nil, ErrInvalidFee
	}
	if len(params.FixedRounds)+len(params.DiscountRounds)+len(params.RangeRounds)+len(params.StakeRounds) == 0 {
		return nil, fmt.Errorf("%w: no instruments configured", ErrInvalidRounds)
	}
	if err := validateRounds(params.FixedRounds, 0, true); err != nil {
		return nil, err
	}
	if err := validateRounds(params.RangeRounds, 0, true); err != nil {
		return nil, err
	}
	if err := validateRounds(params.DiscountRounds, model.DiscountPrecision, false); err != nil {
		return nil, err
	}
	if err := validateRounds(params.StakeRounds, 0, false); err != nil {
		return nil, err
	}
	return owners, nil
}

// Initialize проверяет параметры, создаёт кампанию со следующим порядковым номером
// и её компоненты. Возвращает событие создания с идентификаторами компонентов.
func (p *Platform) Initialize(now time.Time, creator string, params model.FundingParams) (model.FundingRecord, []model.Event, error) {
	owners, err := validateParams(now, params)
	if err != nil {
		return model.FundingRecord{}, nil, err
	}

	id := uint64(len(p.campaigns)) + 1
	rec := model.FundingRecord{
		ID:             id,
		Creator:        creator,
		PaymentToken:   params.PaymentToken,
		ProjectToken:   params.ProjectToken,
		Owners:         owners,
		Maturity:       params.Maturity,
		Unlock:         params.Unlock,
		TargetSupply:   params.TargetSupply,
		RMin:           params.RMin,
		RMax:           params.RMax,
		X:              params.X,
		Y:              params.Y,
		UnstakeFee:     params.UnstakeFee,
		ReserveAccount: accountName(id, "reserve"),
		Instruments:    make(map[model.InstrumentKind]string),
		CreatedAt:      now,
	}

	c := &campaign{engines: make(map[model.InstrumentKind]*engine)}
	for kind, rounds := range map[model.InstrumentKind][]model.RoundParams{
		model.InstrumentFixed:    params.FixedRounds,
		model.InstrumentDiscount: params.DiscountRounds,
		model.InstrumentRange:    params.RangeRounds,
	} {
		if len(rounds) == 0 {
			continue
		}
		e := newEngine(kind, accountName(id, string(kind)), rounds)
		c.engines[kind] = e
		rec.Instruments[kind] = e.account
	}
	if len(params.StakeRounds) > 0 {
		c.staking = newStakingLedger(accountName(id, "staking"), params.StakeRounds)
		rec.StakingAccount = c.staking.account
	}
	c.record = rec

	p.assets.Ensure(rec.PaymentToken)
	if rec.ProjectToken != "" {
		p.assets.Ensure(rec.ProjectToken)
	}
	p.campaigns = append(p.campaigns, c)

	attrs := map[string]string{
		"reserve":       rec.ReserveAccount,
		"payment_token": rec.PaymentToken,
	}
	for kind, acc := range rec.Instruments {
		attrs[string(kind)] = acc
	}
	if rec.StakingAccount != "" {
		attrs["staking"] = rec.StakingAccount
	}
	ev := model.Event{
		Type:       model.EventFundingCreated,
		FundingID:  id,
		Actor:      creator,
		Attributes: attrs,
		OccurredAt: now,
	}

	return copyRecord(rec), []model.Event{ev}, nil
}

func copyRecord(rec model.FundingRecord) model.FundingRecord {
	rec.Owners = append([]string(nil), rec.Owners...)
	instruments := make(map[model.InstrumentKind]string, len(rec.Instruments))
	for k, v := range rec.Instruments {
		instruments[k] = v
	}
	rec.Instruments = instruments
	return rec
}

func (p *Platform) campaign(id uint64) (*campaign, error) {
	if id == 0 || id > uint64(len(p.campaigns)) {
		return nil, fmt.Errorf("%w: %d", ErrFundingNotFound, id)
	}
	return p.campaigns[id-1], nil
}

// Funding возвращает запись кампании.
func (p *Platform) Funding(id uint64) (model.FundingRecord, error) {
	c, err := p.campaign(id)
	if err != nil {
		return model.FundingRecord{}, err
	}
	return copyRecord(c.record), nil
}

// FundingCount возвращает количество созданных кампаний.
func (p *Platform) FundingCount() int { return len(p.campaigns) }

// Owners возвращает упорядоченный список владельцев кампании.
func (p *Platform) Owners(id uint64) ([]string, error) {
	c, err := p.campaign(id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.record.Owners...), nil
}

// OwnerIndexAndCount возвращает позицию владельца в списке и размер списка.
func (p *Platform) OwnerIndexAndCount(owner string, id uint64) (int, int, error) {
	c, err := p.campaign(id)
	if err != nil {
		return 0, 0, err
	}
	idx := c.ownerIndex(owner)
	if idx < 0 {
		return 0, 0, ErrNotOwner
	}
	return idx, len(c.record.Owners), nil
}

// Approve разрешает spender списывать amount токена token со счёта owner.
func (p *Platform) Approve(token, owner, spender string, amount uint64) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	p.assets.Ensure(token).Approve(owner, spender, amount)
	return nil
}

// Transfer переводит токены между аккаунтами.
func (p *Platform) Transfer(token, from, to string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	l, err := p.assets.Get(token)
	if err != nil {
		return err
	}
	return l.Transfer(from, to, amount)
}

// Mint выпускает токены на счёт аккаунта. Используется тестовым краном.
func (p *Platform) Mint(token, to string, amount uint64) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	return p.assets.Ensure(token).Mint(to, amount)
}

// BalanceOf возвращает баланс аккаунта в токене.
func (p *Platform) BalanceOf(token, account string) uint64 {
	l, err := p.assets.Get(token)
	if err != nil {
		return 0
	}
	return l.BalanceOf(account)
}

// Allowance возвращает разрешение на списание.
func (p *Platform) Allowance(token, owner, spender string) uint64 {
	l, err := p.assets.Get(token)
	if err != nil {
		return 0
	}
	return l.Allowance(owner, spender)
}
