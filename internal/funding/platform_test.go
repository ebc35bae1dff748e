package funding

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/launchpad/internal/asset"
	"github.com/mmeshcher/launchpad/internal/model"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const usd = "USD"

func baseParams(owners ...string) model.FundingParams {
	return model.FundingParams{
		PaymentToken: usd,
		Owners:       owners,
		Maturity:     t0.Add(30 * day),
		Unlock:       t0.Add(60 * day),
		TargetSupply: 1000,
		RMin:         1000,
		RMax:         2000,
		UnstakeFee:   50,
		FixedRounds: []model.RoundParams{
			{OpeningTime: t0, Duration: 10 * day, Value: 5000, Cap: 1000},
			{OpeningTime: t0.Add(10 * day), Duration: 10 * day, Value: 10000, Cap: 1000},
		},
	}
}

func newFunding(t *testing.T, params model.FundingParams) (*Platform, model.FundingRecord) {
	t.Helper()
	p := NewPlatform(nil)
	rec, events, err := p.Initialize(t0, "creator", params)
	require.NoError(t, err)
	require.Len(t, events, 1)
	return p, rec
}

// fund выдаёт аккаунту платёжные токены и разрешение на списание компонентом кампании.
func fund(t *testing.T, p *Platform, account, spender string, amount uint64) {
	t.Helper()
	require.NoError(t, p.Mint(usd, account, amount))
	require.NoError(t, p.Approve(usd, account, spender, amount))
}

func TestInitialize_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.FundingParams)
		wantErr error
	}{
		{name: "no owners", mutate: func(p *model.FundingParams) { p.Owners = nil }, wantErr: ErrNoOwners},
		{name: "blank owner", mutate: func(p *model.FundingParams) { p.Owners = []string{"alice", " "} }, wantErr: ErrInvalidOwner},
		{name: "unlock in the past", mutate: func(p *model.FundingParams) { p.Unlock = t0.Add(-time.Hour) }, wantErr: ErrInvalidUnlockDate},
		{name: "maturity now", mutate: func(p *model.FundingParams) { p.Maturity = t0 }, wantErr: ErrInvalidUnlockDate},
		{name: "r interval inverted", mutate: func(p *model.FundingParams) { p.RMin, p.RMax = 3000, 2000 }, wantErr: ErrInvalidRInterval},
		{name: "fee above precision", mutate: func(p *model.FundingParams) { p.UnstakeFee = 1001 }, wantErr: ErrInvalidFee},
		{name: "empty payment token", mutate: func(p *model.FundingParams) { p.PaymentToken = "" }, wantErr: ErrInvalidToken},
		{name: "project token equals payment", mutate: func(p *model.FundingParams) { p.ProjectToken = usd }, wantErr: ErrInvalidToken},
		{name: "no instruments", mutate: func(p *model.FundingParams) { p.FixedRounds = nil }, wantErr: ErrInvalidRounds},
		{
			name: "discount at full precision",
			mutate: func(p *model.FundingParams) {
				p.DiscountRounds = []model.RoundParams{{OpeningTime: t0, Duration: day, Value: 1000, Cap: 10}}
			},
			wantErr: ErrInvalidRounds,
		},
		{
			name:    "zero cap",
			mutate:  func(p *model.FundingParams) { p.FixedRounds[0].Cap = 0 },
			wantErr: ErrInvalidRounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := baseParams("alice")
			tt.mutate(&params)

			p := NewPlatform(nil)
			_, _, err := p.Initialize(t0, "creator", params)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, p.FundingCount(), "rejected params must not create a funding")
		})
	}
}

func TestInitialize_SequentialIDsAndAccounts(t *testing.T) {
	p := NewPlatform(nil)

	params := baseParams("alice", "bob", "alice")
	params.StakeRounds = []model.RoundParams{{OpeningTime: t0, Duration: 20 * day, Value: 50, Cap: 1000}}

	first, events, err := p.Initialize(t0, "creator", params)
	require.NoError(t, err)
	second, _, err := p.Initialize(t0, "creator", baseParams("carol"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, uint64(2), second.ID)
	assert.Equal(t, []string{"alice", "bob"}, first.Owners, "owners are deduplicated in order")
	assert.Equal(t, "funding/1/reserve", first.ReserveAccount)
	assert.Equal(t, "funding/1/staking", first.StakingAccount)
	assert.Equal(t, "funding/1/fixed", first.Instruments[model.InstrumentFixed])
	assert.Empty(t, second.StakingAccount)

	require.Len(t, events, 1)
	assert.Equal(t, model.EventFundingCreated, events[0].Type)
	assert.Equal(t, "funding/1/reserve", events[0].Attributes["reserve"])

	idx, count, err := p.OwnerIndexAndCount("bob", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, count)

	_, _, err = p.OwnerIndexAndCount("carol", 1)
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = p.Funding(3)
	require.ErrorIs(t, err, ErrFundingNotFound)
}

func TestMint_Overflow(t *testing.T) {
	p := NewPlatform(nil)
	require.NoError(t, p.Mint(usd, "alice", math.MaxUint64))

	err := p.Mint(usd, "alice", 2)
	require.ErrorIs(t, err, asset.ErrSupplyOverflow)
	assert.Equal(t, uint64(math.MaxUint64), p.BalanceOf(usd, "alice"), "balance must not wrap")

	require.ErrorIs(t, p.Mint(usd, "alice", 0), ErrInvalidAmount)
}
