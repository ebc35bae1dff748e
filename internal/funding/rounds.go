package funding

import (
	"fmt"
	"time"

	"github.com/mmeshcher/launchpad/internal/model"
)

// RoundLedger хранит упорядоченную последовательность раундов и счётчики выпуска.
type RoundLedger struct {
	rounds []model.Round
}

// NewRoundLedger создаёт реестр раундов из параметров конфигурации.
func NewRoundLedger(params []model.RoundParams) *RoundLedger {
	rounds := make([]model.Round, 0, len(params))
	for _, p := range params {
		rounds = append(rounds, model.Round{
			OpeningTime: p.OpeningTime,
			Duration:    p.Duration,
			Value:       p.Value,
			Cap:         p.Cap,
		})
	}
	return &RoundLedger{rounds: rounds}
}

// ResolveActive возвращает индекс и копию активного раунда на момент now.
// Активен первый раунд, окно которого содержит now и лимит которого не исчерпан.
// Если окна открыты, но все лимиты исчерпаны, возвращается ErrAllTokensSold,
// если ни одно окно не открыто, ErrInvalidDate.
func (l *RoundLedger) ResolveActive(now time.Time) (int, model.Round, error) {
	windowed := false
	for i, r := range l.rounds {
		if !r.Contains(now) {
			continue
		}
		windowed = true
		if r.Sold < r.Cap {
			return i, r, nil
		}
	}
	if windowed {
		return -1, model.Round{}, ErrAllTokensSold
	}
	return -1, model.Round{}, ErrInvalidDate
}

// RecordIssuance увеличивает счётчик выпуска раунда. Частичное исполнение не допускается.
func (l *RoundLedger) RecordIssuance(idx int, quantity uint64) error {
	if idx < 0 || idx >= len(l.rounds) {
		return fmt.Errorf("%w: round %d", ErrInvalidDate, idx)
	}
	r := &l.rounds[idx]
	if quantity > r.Remaining() {
		return fmt.Errorf("%w: requested %d, remaining %d", ErrInsufficientRoundCapacity, quantity, r.Remaining())
	}
	r.Sold += quantity
	return nil
}

// CheckCapacity проверяет, поместится ли quantity в раунд, не изменяя состояние.
func (l *RoundLedger) CheckCapacity(idx int, quantity uint64) error {
	if idx < 0 || idx >= len(l.rounds) {
		return fmt.Errorf("%w: round %d", ErrInvalidDate, idx)
	}
	if remaining := l.rounds[idx].Remaining(); quantity > remaining {
		return fmt.Errorf("%w: requested %d, remaining %d", ErrInsufficientRoundCapacity, quantity, remaining)
	}
	return nil
}

// Rounds возвращает копию раундов.
func (l *RoundLedger) Rounds() []model.Round {
	res := make([]model.Round, len(l.rounds))
	copy(res, l.rounds)
	return res
}

// TotalSold возвращает суммарный выпуск по всем раундам.
func (l *RoundLedger) TotalSold() uint64 {
	var total uint64
	for _, r := range l.rounds {
		total += r.Sold
	}
	return total
}

// TotalCap возвращает суммарный лимит всех раундов.
func (l *RoundLedger) TotalCap() uint64 {
	var total uint64
	for _, r := range l.rounds {
		total += r.Cap
	}
	return total
}

func validateRounds(params []model.RoundParams, valueLimit uint64, valueRequired bool) error {
	for i, p := range params {
		if p.Duration <= 0 || p.Cap == 0 {
			return fmt.Errorf("%w: round %d needs positive duration and cap", ErrInvalidRounds, i+1)
		}
		if valueRequired && p.Value == 0 {
			return fmt.Errorf("%w: round %d needs positive value", ErrInvalidRounds, i+1)
		}
		if valueLimit > 0 && p.Value >= valueLimit {
			return fmt.Errorf("%w: round %d value %d exceeds %d", ErrInvalidRounds, i+1, p.Value, valueLimit)
		}
	}
	return nil
}
