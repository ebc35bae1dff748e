package funding

import (
	"fmt"
	"math/bits"
)

// mul возвращает a*b или ErrOverflow.
func mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, a, b)
	}
	return lo, nil
}

// mulDiv возвращает floor(a*b/c) без промежуточного переполнения.
func mulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrOverflow)
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, fmt.Errorf("%w: %d * %d / %d", ErrOverflow, a, b, c)
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}

// maxAffordable возвращает наибольшее q, для которого floor(q*price/precision) <= limit.
func maxAffordable(limit, precision, price uint64) (uint64, error) {
	if price == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrOverflow)
	}
	next, err := add(limit, 1)
	if err != nil {
		return 0, err
	}
	hi, lo := bits.Mul64(next, precision)
	if hi >= price {
		return 0, fmt.Errorf("%w: %d * %d / %d", ErrOverflow, next, precision, price)
	}
	q, rem := bits.Div64(hi, lo, price)
	if rem == 0 {
		q--
	}
	return q, nil
}

func add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}
