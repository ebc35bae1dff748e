// Package asset реализует учёт балансов и разрешений на списание для токенов платформы.
package asset

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
)

var (
	// ErrInsufficientAllowance возвращается, если разрешение на списание меньше суммы перевода.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrInsufficientBalance возвращается, если баланс отправителя меньше суммы перевода.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUnknownToken возвращается при обращении к незарегистрированному токену.
	ErrUnknownToken = errors.New("unknown token")
	// ErrInvalidAmount возвращается при нулевой сумме операции.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSupplyOverflow возвращается, если выпуск переполнил бы баланс или общий объём токена.
	ErrSupplyOverflow = errors.New("supply overflow")
)

// Ledger хранит балансы и разрешения одного токена.
// Ledger не потокобезопасен: сериализацию обеспечивает вызывающий код.
type Ledger struct {
	symbol     string
	supply     uint64
	balances   map[string]uint64
	allowances map[string]map[string]uint64
}

// NewLedger создаёт пустой реестр токена.
func NewLedger(symbol string) *Ledger {
	return &Ledger{
		symbol:     symbol,
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
}

// Symbol возвращает символ токена.
func (l *Ledger) Symbol() string { return l.symbol }

// TotalSupply возвращает общий объём выпуска.
func (l *Ledger) TotalSupply() uint64 { return l.supply }

// BalanceOf возвращает баланс аккаунта.
func (l *Ledger) BalanceOf(account string) uint64 {
	return l.balances[account]
}

// Allowance возвращает сумму, которую spender может списать с owner.
func (l *Ledger) Allowance(owner, spender string) uint64 {
	return l.allowances[owner][spender]
}

// Approve устанавливает разрешение на списание. Предыдущее значение перезаписывается.
func (l *Ledger) Approve(owner, spender string, amount uint64) {
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[string]uint64)
		l.allowances[owner] = m
	}
	if amount == 0 {
		delete(m, spender)
		return
	}
	m[spender] = amount
}

// Transfer переводит средства от from к to.
func (l *Ledger) Transfer(from, to string, amount uint64) error {
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientBalance, from, l.balances[from], amount)
	}
	l.move(from, to, amount)
	return nil
}

// TransferFrom переводит средства от from к to от имени spender с проверкой разрешения.
// Проверки выполняются до изменения состояния.
func (l *Ledger) TransferFrom(spender, from, to string, amount uint64) error {
	if allowed := l.Allowance(from, spender); allowed < amount {
		return fmt.Errorf("%w: %s allowed %d to %s, need %d", ErrInsufficientAllowance, from, allowed, spender, amount)
	}
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientBalance, from, l.balances[from], amount)
	}
	l.Approve(from, spender, l.Allowance(from, spender)-amount)
	l.move(from, to, amount)
	return nil
}

// Mint выпускает новые токены на баланс аккаунта. При переполнении состояние не меняется.
func (l *Ledger) Mint(to string, amount uint64) error {
	if err := l.CheckMint(to, amount); err != nil {
		return err
	}
	l.balances[to] += amount
	l.supply += amount
	return nil
}

// CheckMint проверяет, что выпуск amount на счёт to не переполнит баланс и общий объём.
func (l *Ledger) CheckMint(to string, amount uint64) error {
	if _, carry := bits.Add64(l.supply, amount, 0); carry != 0 {
		return fmt.Errorf("%w: %s supply %d + %d", ErrSupplyOverflow, l.symbol, l.supply, amount)
	}
	if _, carry := bits.Add64(l.balances[to], amount, 0); carry != 0 {
		return fmt.Errorf("%w: %s balance %d + %d", ErrSupplyOverflow, to, l.balances[to], amount)
	}
	return nil
}

// Burn сжигает токены с баланса аккаунта.
func (l *Ledger) Burn(from string, amount uint64) error {
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientBalance, from, l.balances[from], amount)
	}
	l.balances[from] -= amount
	if l.balances[from] == 0 {
		delete(l.balances, from)
	}
	l.supply -= amount
	return nil
}

// Holders возвращает отсортированный список аккаунтов с ненулевым балансом.
func (l *Ledger) Holders() []string {
	res := make([]string, 0, len(l.balances))
	for acc := range l.balances {
		res = append(res, acc)
	}
	sort.Strings(res)
	return res
}

func (l *Ledger) move(from, to string, amount uint64) {
	if amount == 0 || from == to {
		return
	}
	l.balances[from] -= amount
	if l.balances[from] == 0 {
		delete(l.balances, from)
	}
	l.balances[to] += amount
}

// Registry хранит реестры всех токенов платформы.
type Registry struct {
	ledgers map[string]*Ledger
}

// NewRegistry создаёт пустой набор реестров.
func NewRegistry() *Registry {
	return &Registry{ledgers: make(map[string]*Ledger)}
}

// Ensure возвращает реестр токена, создавая его при необходимости.
func (r *Registry) Ensure(symbol string) *Ledger {
	l, ok := r.ledgers[symbol]
	if !ok {
		l = NewLedger(symbol)
		r.ledgers[symbol] = l
	}
	return l
}

// Get возвращает реестр токена или ErrUnknownToken.
func (r *Registry) Get(symbol string) (*Ledger, error) {
	l, ok := r.ledgers[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	return l, nil
}
