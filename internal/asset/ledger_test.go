package asset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_TransferFrom(t *testing.T) {
	tests := []struct {
		name      string
		mint      uint64
		allowance uint64
		amount    uint64
		wantErr   error
	}{
		{name: "no allowance", mint: 100, allowance: 0, amount: 10, wantErr: ErrInsufficientAllowance},
		{name: "allowance below amount", mint: 100, allowance: 9, amount: 10, wantErr: ErrInsufficientAllowance},
		{name: "balance below amount", mint: 5, allowance: 10, amount: 10, wantErr: ErrInsufficientBalance},
		{name: "ok", mint: 100, allowance: 10, amount: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger("APP")
			require.NoError(t, l.Mint("alice", tt.mint))
			l.Approve("alice", "engine", tt.allowance)

			err := l.TransferFrom("engine", "alice", "reserve", tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.mint, l.BalanceOf("alice"), "failed transfer must not move funds")
				assert.Equal(t, tt.allowance, l.Allowance("alice", "engine"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mint-tt.amount, l.BalanceOf("alice"))
			assert.Equal(t, tt.amount, l.BalanceOf("reserve"))
			assert.Equal(t, tt.allowance-tt.amount, l.Allowance("alice", "engine"))
		})
	}
}

func TestLedger_MintBurnSupply(t *testing.T) {
	l := NewLedger("APP")
	require.NoError(t, l.Mint("alice", 100))
	require.NoError(t, l.Mint("bob", 50))
	require.Equal(t, uint64(150), l.TotalSupply())

	require.NoError(t, l.Burn("alice", 40))
	assert.Equal(t, uint64(110), l.TotalSupply())
	assert.Equal(t, uint64(60), l.BalanceOf("alice"))

	err := l.Burn("bob", 51)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, []string{"alice", "bob"}, l.Holders())
}

func TestLedger_MintOverflow(t *testing.T) {
	tests := []struct {
		name  string
		first string
		next  string
	}{
		{name: "same account", first: "alice", next: "alice"},
		{name: "supply of another account", first: "alice", next: "bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger("APP")
			require.NoError(t, l.Mint(tt.first, math.MaxUint64))

			err := l.Mint(tt.next, 2)
			require.ErrorIs(t, err, ErrSupplyOverflow)
			assert.Equal(t, uint64(math.MaxUint64), l.TotalSupply(), "supply must not wrap")
			assert.Equal(t, uint64(math.MaxUint64), l.BalanceOf(tt.first))
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("APP")
	require.ErrorIs(t, err, ErrUnknownToken)

	l := r.Ensure("APP")
	got, err := r.Get("APP")
	require.NoError(t, err)
	assert.Same(t, l, got)
}
