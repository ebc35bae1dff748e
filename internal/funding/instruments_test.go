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

func TestBuy_FixedRounds(t *testing.T) {
	p, rec := newFunding(t, baseParams("owner"))
	fixed := rec.Instruments[model.InstrumentFixed]
	fund(t, p, "alice", fixed, 100000)

	res, events, err := p.Buy(t0.Add(time.Hour), BuyRequest{
		FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, BuyResult{Round: 1, Quantity: 10, Payment: 50}, res)
	assert.Equal(t, uint64(50), p.BalanceOf(usd, rec.ReserveAccount))
	require.Len(t, events, 1)
	assert.Equal(t, model.EventInstrumentBought, events[0].Type)

	res, _, err = p.Buy(t0.Add(time.Hour), BuyRequest{
		FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Payment: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), res.Quantity, "buying by payment is the inverse of buying by quantity")

	// второй раунд стоит вдвое дороже
	res, _, err = p.Buy(t0.Add(10*day+time.Hour), BuyRequest{
		FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Round)
	assert.Equal(t, uint64(100), res.Payment)

	holdings, err := p.Holdings(rec.ID, "alice")
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, uint64(30), holdings[0].Balance)
	assert.Equal(t, uint64(30), holdings[0].Payout)
}

func TestBuy_PaymentRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		kind      model.InstrumentKind
		value     uint64
		basePrice uint64
		quantity  uint64
		cost      uint64
	}{
		{name: "fixed whole price", kind: model.InstrumentFixed, value: 5000, quantity: 10, cost: 50},
		{name: "fixed single token", kind: model.InstrumentFixed, value: 1500, quantity: 1, cost: 1},
		{name: "fixed exact boundary", kind: model.InstrumentFixed, value: 1500, quantity: 2, cost: 3},
		{name: "fixed truncated half", kind: model.InstrumentFixed, value: 1500, quantity: 3, cost: 4},
		{name: "fixed truncated odd", kind: model.InstrumentFixed, value: 1500, quantity: 7, cost: 10},
		{name: "fixed near cap", kind: model.InstrumentFixed, value: 1500, quantity: 999, cost: 1498},
		{name: "discount single token", kind: model.InstrumentDiscount, value: 200, basePrice: 2000, quantity: 1, cost: 2},
		{name: "discount truncated", kind: model.InstrumentDiscount, value: 200, basePrice: 2000, quantity: 3, cost: 5},
		{name: "discount gross boundary", kind: model.InstrumentDiscount, value: 200, basePrice: 2000, quantity: 7, cost: 12},
		{name: "discount fractional base", kind: model.InstrumentDiscount, value: 200, basePrice: 1500, quantity: 3, cost: 4},
		{name: "discount fractional base truncated", kind: model.InstrumentDiscount, value: 200, basePrice: 1500, quantity: 5, cost: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := baseParams("owner")
			round := []model.RoundParams{{OpeningTime: t0, Duration: 10 * day, Value: tt.value, Cap: 1000}}
			if tt.kind == model.InstrumentFixed {
				params.FixedRounds = round
			} else {
				params.DiscountRounds = round
			}
			p, rec := newFunding(t, params)
			fund(t, p, "alice", rec.Instruments[tt.kind], 100000)
			now := t0.Add(time.Hour)

			byQuantity, _, err := p.Buy(now, BuyRequest{
				FundingID: rec.ID, Kind: tt.kind, Payer: "alice", Quantity: tt.quantity, BasePrice: tt.basePrice,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.cost, byQuantity.Payment)

			byPayment, _, err := p.Buy(now, BuyRequest{
				FundingID: rec.ID, Kind: tt.kind, Payer: "alice", Payment: byQuantity.Payment, BasePrice: tt.basePrice,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.quantity, byPayment.Quantity, "paying the quoted cost buys the same quantity")
			assert.Equal(t, tt.cost, byPayment.Payment)
		})
	}
}

func TestPricer_QuantityIsLargestAffordable(t *testing.T) {
	tests := []struct {
		name      string
		pricer    pricer
		value     uint64
		basePrice uint64
	}{
		{name: "fixed", pricer: fixedPricer{}, value: 1500},
		{name: "fixed below one unit", pricer: fixedPricer{}, value: 700},
		{name: "discount", pricer: discountPricer{}, value: 200, basePrice: 1500},
		{name: "discount deep", pricer: discountPricer{}, value: 900, basePrice: 3300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := model.Round{Value: tt.value}
			for payment := uint64(1); payment <= 300; payment++ {
				q, err := tt.pricer.quantity(round, payment, tt.basePrice)
				require.NoError(t, err)

				cost, err := tt.pricer.cost(round, q, tt.basePrice)
				require.NoError(t, err)
				require.LessOrEqualf(t, cost, payment, "payment %d buys %d costing %d", payment, q, cost)

				next, err := tt.pricer.cost(round, q+1, tt.basePrice)
				require.NoError(t, err)
				require.Greaterf(t, next, payment, "payment %d could afford %d", payment, q+1)
			}
		})
	}
}

func TestBuy_Rejections(t *testing.T) {
	p, rec := newFunding(t, baseParams("owner"))
	fixed := rec.Instruments[model.InstrumentFixed]
	fund(t, p, "alice", fixed, 100000)
	now := t0.Add(time.Hour)

	buy := func(q, pay uint64) error {
		_, _, err := p.Buy(now, BuyRequest{FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: q, Payment: pay})
		return err
	}

	require.ErrorIs(t, buy(0, 0), ErrInvalidAmount)
	require.ErrorIs(t, buy(1, 1), ErrInvalidAmount)
	require.ErrorIs(t, buy(0, 4), ErrInvalidAmount, "payment below one token rounds to zero")
	require.ErrorIs(t, buy(1001, 0), ErrInsufficientRoundCapacity)
	assert.Zero(t, p.BalanceOf(usd, rec.ReserveAccount), "rejected purchase must not move funds")

	require.NoError(t, buy(1000, 0))
	require.ErrorIs(t, buy(1, 0), ErrAllTokensSold)

	_, _, err := p.Buy(t0.Add(25*day), BuyRequest{FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: 1})
	require.ErrorIs(t, err, ErrInvalidDate)

	_, _, err = p.Buy(now, BuyRequest{FundingID: rec.ID, Kind: model.InstrumentRange, Payer: "alice", Quantity: 1})
	require.ErrorIs(t, err, ErrInstrumentNotFound)

	_, _, err = p.Buy(now, BuyRequest{FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "bob", Quantity: 1})
	require.Error(t, err, "purchase without allowance must fail")
}

func TestBuy_Discount(t *testing.T) {
	params := baseParams("owner")
	params.DiscountRounds = []model.RoundParams{{OpeningTime: t0, Duration: 10 * day, Value: 200, Cap: 1000}}
	p, rec := newFunding(t, params)
	fund(t, p, "alice", rec.Instruments[model.InstrumentDiscount], 1000)
	now := t0.Add(time.Hour)

	_, _, err := p.Buy(now, BuyRequest{FundingID: rec.ID, Kind: model.InstrumentDiscount, Payer: "alice", Quantity: 10})
	require.ErrorIs(t, err, ErrPriceUnavailable)

	res, _, err := p.Buy(now, BuyRequest{
		FundingID: rec.ID, Kind: model.InstrumentDiscount, Payer: "alice", Quantity: 10, BasePrice: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(16), res.Payment, "twenty percent off a gross cost of 20")

	res, _, err = p.Buy(now, BuyRequest{
		FundingID: rec.ID, Kind: model.InstrumentDiscount, Payer: "alice", Payment: 16, BasePrice: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), res.Quantity)
}

func TestRange_EstimatedPayoutBounds(t *testing.T) {
	params := baseParams("owner")
	params.RangeRounds = []model.RoundParams{{OpeningTime: t0, Duration: 10 * day, Value: 1000, Cap: 1000}}
	p, rec := newFunding(t, params)
	fund(t, p, "alice", rec.Instruments[model.InstrumentRange], 10000)
	fund(t, p, "alice", rec.Instruments[model.InstrumentFixed], 100000)
	now := t0.Add(time.Hour)

	rate, err := p.CurrentEstimatedPayout(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), rate, "no sales pays S/rMax")

	_, _, err = p.Buy(now, BuyRequest{FundingID: rec.ID, Kind: model.InstrumentRange, Payer: "alice", Quantity: 1000})
	require.NoError(t, err)

	// продано 1000 из 3000, r = 2000 - 1000/3 = 1667
	rate, err = p.CurrentEstimatedPayout(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(599_880), rate)

	_, _, err = p.Buy(now, BuyRequest{FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: 1000})
	require.NoError(t, err)
	_, _, err = p.Buy(t0.Add(10*day+time.Hour), BuyRequest{FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: 1000})
	require.NoError(t, err)

	rate, err = p.CurrentEstimatedPayout(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), rate, "full sale pays S/rMin")

	info, err := p.Instrument(now, rec.ID, model.InstrumentRange)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), info.TotalSold)
	assert.Equal(t, rate, info.EstimatedPayout)
}

func TestClaim(t *testing.T) {
	params := baseParams("owner")
	params.ProjectToken = "PRJ"
	p, rec := newFunding(t, params)
	fund(t, p, "alice", rec.Instruments[model.InstrumentFixed], 1000)

	_, _, err := p.Buy(t0.Add(time.Hour), BuyRequest{FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: 10})
	require.NoError(t, err)

	_, _, err = p.Claim(t0.Add(59*day), rec.ID, "alice")
	require.ErrorIs(t, err, ErrNotYetMatured)

	total, events, err := p.Claim(rec.Unlock, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), total)
	assert.Equal(t, uint64(10), p.BalanceOf("PRJ", "alice"))
	require.Len(t, events, 1)
	assert.Equal(t, model.EventInstrumentClaim, events[0].Type)

	_, _, err = p.Claim(rec.Unlock.Add(time.Hour), rec.ID, "alice")
	require.ErrorIs(t, err, ErrNothingToClaim)
	assert.Equal(t, uint64(10), p.BalanceOf("PRJ", "alice"), "second claim pays nothing")
}

func TestClaim_ProjectSupplyOverflow(t *testing.T) {
	params := baseParams("owner")
	params.ProjectToken = "PRJ"
	p, rec := newFunding(t, params)
	fund(t, p, "alice", rec.Instruments[model.InstrumentFixed], 1000)

	_, _, err := p.Buy(t0.Add(time.Hour), BuyRequest{FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: 10})
	require.NoError(t, err)
	require.NoError(t, p.Mint("PRJ", "bob", math.MaxUint64))

	_, _, err = p.Claim(rec.Unlock, rec.ID, "alice")
	require.ErrorIs(t, err, asset.ErrSupplyOverflow)
	assert.Zero(t, p.BalanceOf("PRJ", "alice"))

	holdings, err := p.Holdings(rec.ID, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, holdings)
	assert.Equal(t, model.InstrumentFixed, holdings[0].Kind)
	assert.Equal(t, uint64(10), holdings[0].Balance, "failed claim keeps the holding")
}

func TestClaim_FromReserve(t *testing.T) {
	p, rec := newFunding(t, baseParams("owner"))
	fund(t, p, "alice", rec.Instruments[model.InstrumentFixed], 1000)

	_, _, err := p.Buy(t0.Add(time.Hour), BuyRequest{FundingID: rec.ID, Kind: model.InstrumentFixed, Payer: "alice", Quantity: 10})
	require.NoError(t, err)

	total, _, err := p.Claim(rec.Unlock, rec.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), total)
	assert.Equal(t, uint64(40), p.BalanceOf(usd, rec.ReserveAccount))
	assert.Equal(t, uint64(1000-50+10), p.BalanceOf(usd, "alice"))
}
