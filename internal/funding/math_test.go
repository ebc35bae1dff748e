package funding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c uint64
		want    uint64
		wantErr bool
	}{
		{name: "floors", a: 10, b: 5000, c: 3000, want: 16},
		{name: "wide intermediate", a: math.MaxUint64, b: 1000, c: 1000, want: math.MaxUint64},
		{name: "quotient overflows", a: math.MaxUint64, b: 2, c: 1, wantErr: true},
		{name: "zero divisor", a: 1, b: 1, c: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mulDiv(tt.a, tt.b, tt.c)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMulAddOverflow(t *testing.T) {
	_, err := mul(math.MaxUint64, 2)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = add(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)

	sum, err := add(2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), sum)
}

func TestMaxAffordable(t *testing.T) {
	tests := []struct {
		name      string
		limit     uint64
		precision uint64
		price     uint64
		want      uint64
		wantErr   bool
	}{
		{name: "whole price", limit: 50, precision: 1000, price: 5000, want: 10},
		{name: "below one token", limit: 0, precision: 1000, price: 5000, want: 0},
		{name: "truncated cost", limit: 4, precision: 1000, price: 1500, want: 3},
		{name: "exact boundary excluded", limit: 2, precision: 1000, price: 1500, want: 1},
		{name: "between boundaries", limit: 3, precision: 1000, price: 1500, want: 2},
		{name: "cheap token", limit: 10, precision: 1000, price: 700, want: 15},
		{name: "zero price", limit: 1, precision: 1000, price: 0, wantErr: true},
		{name: "limit at max", limit: math.MaxUint64, precision: 1000, price: 1000, wantErr: true},
		{name: "quantity overflows", limit: math.MaxUint64 - 1, precision: 1000, price: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := maxAffordable(tt.limit, tt.precision, tt.price)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
