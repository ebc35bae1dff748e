// Package model содержит доменные сущности сервиса лаунчпада.
package model

import "time"

// Константы точности. Все деления усекаются к нулю.
const (
	PricePrecision    = 1000
	DiscountPrecision = 1000
	RewardPrecision   = 1000
	PayoutPrecision   = 1_000_000
	FeePrecision      = 1000
)

// User представляет зарегистрированный аккаунт. Login служит идентичностью участника.
type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// InstrumentKind описывает вариант инструмента участия.
type InstrumentKind string

const (
	InstrumentFixed    InstrumentKind = "fixed"
	InstrumentDiscount InstrumentKind = "discount"
	InstrumentRange    InstrumentKind = "range"
)

// Valid сообщает, известен ли вариант инструмента.
func (k InstrumentKind) Valid() bool {
	switch k {
	case InstrumentFixed, InstrumentDiscount, InstrumentRange:
		return true
	}
	return false
}

// RoundParams задаёт один раунд продаж или стейкинга.
// Value трактуется по-разному: цена токена, скидка или ставка награды.
type RoundParams struct {
	OpeningTime time.Time     `json:"opening_time"`
	Duration    time.Duration `json:"duration"`
	Value       uint64        `json:"value"`
	Cap         uint64        `json:"cap"`
}

// Round описывает раунд вместе с уже выпущенным количеством.
type Round struct {
	OpeningTime time.Time     `json:"opening_time"`
	Duration    time.Duration `json:"duration"`
	Value       uint64        `json:"value"`
	Cap         uint64        `json:"cap"`
	Sold        uint64        `json:"sold"`
}

// Contains сообщает, попадает ли момент now в окно раунда.
func (r Round) Contains(now time.Time) bool {
	return !now.Before(r.OpeningTime) && now.Before(r.OpeningTime.Add(r.Duration))
}

// Remaining возвращает оставшийся лимит раунда.
func (r Round) Remaining() uint64 {
	if r.Sold >= r.Cap {
		return 0
	}
	return r.Cap - r.Sold
}

// FundingParams содержит параметры инициализации кампании.
type FundingParams struct {
	PaymentToken   string        `json:"payment_token"`
	ProjectToken   string        `json:"project_token,omitempty"`
	Owners         []string      `json:"owners"`
	Maturity       time.Time     `json:"maturity"`
	Unlock         time.Time     `json:"unlock"`
	TargetSupply   uint64        `json:"target_supply"`
	RMin           uint64        `json:"r_min"`
	RMax           uint64        `json:"r_max"`
	X              uint64        `json:"x"`
	Y              uint64        `json:"y"`
	UnstakeFee     uint64        `json:"unstake_fee"`
	FixedRounds    []RoundParams `json:"fixed_rounds,omitempty"`
	DiscountRounds []RoundParams `json:"discount_rounds,omitempty"`
	RangeRounds    []RoundParams `json:"range_rounds,omitempty"`
	StakeRounds    []RoundParams `json:"stake_rounds,omitempty"`
}

// FundingRecord описывает созданную кампанию. После создания не изменяется.
type FundingRecord struct {
	ID             uint64                    `json:"id"`
	Creator        string                    `json:"creator"`
	PaymentToken   string                    `json:"payment_token"`
	ProjectToken   string                    `json:"project_token,omitempty"`
	Owners         []string                  `json:"owners"`
	Maturity       time.Time                 `json:"maturity"`
	Unlock         time.Time                 `json:"unlock"`
	TargetSupply   uint64                    `json:"target_supply"`
	RMin           uint64                    `json:"r_min"`
	RMax           uint64                    `json:"r_max"`
	X              uint64                    `json:"x"`
	Y              uint64                    `json:"y"`
	UnstakeFee     uint64                    `json:"unstake_fee"`
	ReserveAccount string                    `json:"reserve_account"`
	StakingAccount string                    `json:"staking_account,omitempty"`
	Instruments    map[InstrumentKind]string `json:"instruments"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// InstrumentInfo содержит публичное состояние движка ценообразования.
type InstrumentInfo struct {
	Kind            InstrumentKind `json:"kind"`
	Account         string         `json:"account"`
	RoundNumber     int            `json:"round_number"`
	RoundValue      uint64         `json:"round_value"`
	TotalSold       uint64         `json:"total_sold"`
	TotalCap        uint64         `json:"total_cap"`
	EstimatedPayout uint64         `json:"estimated_payout"`
	Rounds          []Round        `json:"rounds"`
}

// Holding описывает остаток инструмента у держателя и ожидаемую выплату.
type Holding struct {
	Kind    InstrumentKind `json:"kind"`
	Balance uint64         `json:"balance"`
	Payout  uint64         `json:"payout"`
}

// StakeStatus описывает состояние позиции стейкинга.
type StakeStatus string

const (
	StakeStatusStaked   StakeStatus = "STAKED"
	StakeStatusUnstaked StakeStatus = "UNSTAKED"
	StakeStatusClaimed  StakeStatus = "CLAIMED"
)

// StakePosition описывает непередаваемую позицию стейкинга.
type StakePosition struct {
	ID         uint64      `json:"id"`
	FundingID  uint64      `json:"funding_id"`
	Owner      string      `json:"owner"`
	Principal  uint64      `json:"principal"`
	RewardRate uint64      `json:"reward_rate"`
	StakedAt   time.Time   `json:"staked_at"`
	Status     StakeStatus `json:"status"`
}

// ReserveBalance содержит валовый и доступный к выводу баланс резерва.
type ReserveBalance struct {
	Account      string `json:"account"`
	Gross        uint64 `json:"gross"`
	Obligations  uint64 `json:"obligations"`
	Withdrawable uint64 `json:"withdrawable"`
}

// Vote описывает голос владельца по предложению.
type Vote string

const (
	VoteUnset   Vote = ""
	VoteApprove Vote = "APPROVE"
	VoteDeny    Vote = "DENY"
)

// ProposalState описывает этап жизненного цикла предложения о выводе.
type ProposalState string

const (
	ProposalOpen     ProposalState = "OPEN"
	ProposalApproved ProposalState = "APPROVED"
	ProposalDenied   ProposalState = "DENIED"
)

// WithdrawProposal описывает предложение о выводе средств из резерва.
type WithdrawProposal struct {
	ID        uint64          `json:"id"`
	FundingID uint64          `json:"funding_id"`
	Creator   string          `json:"creator"`
	Recipient string          `json:"recipient"`
	Amount    uint64          `json:"amount"`
	Votes     map[string]Vote `json:"votes"`
	State     ProposalState   `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// StakePositionView дополняет позицию начисленной на текущий момент наградой.
type StakePositionView struct {
	StakePosition
	AccruedReward uint64 `json:"accrued_reward"`
}
