package funding

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmeshcher/launchpad/internal/model"
)

// pricer переводит количество инструмента в сумму оплаты и обратно для конкретного раунда.
// quantity возвращает наибольшее количество, стоимость которого не превышает оплату.
type pricer interface {
	cost(round model.Round, quantity, basePrice uint64) (uint64, error)
	quantity(round model.Round, payment, basePrice uint64) (uint64, error)
}

// fixedPricer: цена раунда постоянна, round.Value — цена в единицах PricePrecision.
type fixedPricer struct{}

func (fixedPricer) cost(round model.Round, quantity, _ uint64) (uint64, error) {
	return mulDiv(quantity, round.Value, model.PricePrecision)
}

func (fixedPricer) quantity(round model.Round, payment, _ uint64) (uint64, error) {
	return maxAffordable(payment, model.PricePrecision, round.Value)
}

// discountPricer: скидка раунда уменьшает сумму оплаты, базовая цена приходит от оракула.
type discountPricer struct{}

func (discountPricer) cost(round model.Round, quantity, basePrice uint64) (uint64, error) {
	if basePrice == 0 {
		return 0, ErrPriceUnavailable
	}
	gross, err := mulDiv(quantity, basePrice, model.PricePrecision)
	if err != nil {
		return 0, err
	}
	discount, err := mulDiv(gross, round.Value, model.DiscountPrecision)
	if err != nil {
		return 0, err
	}
	return gross - discount, nil
}

func (discountPricer) quantity(round model.Round, payment, basePrice uint64) (uint64, error) {
	if basePrice == 0 {
		return 0, ErrPriceUnavailable
	}
	// gross - floor(gross*d/D) = ceil(gross*(D-d)/D), поэтому наибольший допустимый gross
	// равен floor(payment*D/(D-d)).
	gross, err := mulDiv(payment, model.DiscountPrecision, model.DiscountPrecision-round.Value)
	if err != nil {
		return 0, err
	}
	return maxAffordable(gross, model.PricePrecision, basePrice)
}

// engine реализует движок ценообразования одного инструмента кампании.
type engine struct {
	kind     model.InstrumentKind
	account  string
	rounds   *RoundLedger
	pricer   pricer
	holdings map[string]uint64
}

func newEngine(kind model.InstrumentKind, account string, params []model.RoundParams) *engine {
	var p pricer = fixedPricer{}
	if kind == model.InstrumentDiscount {
		p = discountPricer{}
	}
	return &engine{
		kind:     kind,
		account:  account,
		rounds:   NewRoundLedger(params),
		pricer:   p,
		holdings: make(map[string]uint64),
	}
}

// quote определяет раунд и пару (количество, оплата) для покупки.
// byPay=true означает, что amount задаёт сумму оплаты, иначе количество.
func (e *engine) quote(now time.Time, amount, basePrice uint64, byPay bool) (int, uint64, uint64, error) {
	if amount == 0 {
		return 0, 0, 0, fmt.Errorf("%w: zero amount", ErrInvalidAmount)
	}

	idx, round, err := e.rounds.ResolveActive(now)
	if err != nil {
		return 0, 0, 0, err
	}

	var quantity, payment uint64
	if byPay {
		payment = amount
		quantity, err = e.pricer.quantity(round, amount, basePrice)
	} else {
		quantity = amount
		payment, err = e.pricer.cost(round, amount, basePrice)
	}
	if err != nil {
		return 0, 0, 0, err
	}
	if quantity == 0 || payment == 0 {
		return 0, 0, 0, fmt.Errorf("%w: purchase rounds to zero", ErrInvalidAmount)
	}

	if err := e.rounds.CheckCapacity(idx, quantity); err != nil {
		return 0, 0, 0, err
	}
	return idx, quantity, payment, nil
}

func (e *engine) holders() []string {
	res := make([]string, 0, len(e.holdings))
	for h := range e.holdings {
		res = append(res, h)
	}
	sort.Strings(res)
	return res
}

// estimatedPayout вычисляет коэффициент выплаты range-инструмента в единицах PayoutPrecision.
// r линейно движется от rMax (продаж нет) к rMin (все лимиты проданы),
// поэтому выплата лежит в [S/rMax, S/rMin].
// Договорный потолок выплаты равен S/rMin и достигается при полной продаже, S/rMax является стартовым минимумом.
func estimatedPayout(rec model.FundingRecord, rangeEngine, companion *engine) (uint64, error) {
	if rangeEngine == nil || rec.RMax == 0 {
		return 0, nil
	}

	x, y := rec.X, rec.Y
	if x == 0 && y == 0 {
		x, y = 1, 1
	}

	sold, err := mul(x, rangeEngine.rounds.TotalSold())
	if err != nil {
		return 0, err
	}
	capacity, err := mul(x, rangeEngine.rounds.TotalCap())
	if err != nil {
		return 0, err
	}
	if companion != nil {
		cs, err := mul(y, companion.rounds.TotalSold())
		if err != nil {
			return 0, err
		}
		cc, err := mul(y, companion.rounds.TotalCap())
		if err != nil {
			return 0, err
		}
		if sold, err = add(sold, cs); err != nil {
			return 0, err
		}
		if capacity, err = add(capacity, cc); err != nil {
			return 0, err
		}
	}

	r := rec.RMax
	if capacity > 0 {
		if sold > capacity {
			sold = capacity
		}
		shift, err := mulDiv(rec.RMax-rec.RMin, sold, capacity)
		if err != nil {
			return 0, err
		}
		r -= shift
	}
	if r == 0 {
		return 0, fmt.Errorf("%w: zero r", ErrInvalidRInterval)
	}

	return mulDiv(rec.TargetSupply, model.PayoutPrecision, r)
}
