// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package units defines the denominations of the ledger's native value.
package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Denominations of value. A Unit has 6 decimals so fractional amounts such as
// 0.75 * 1.5 remain exact in integer arithmetic.
const (
	MicroUnit uint64 = 1
	MilliUnit uint64 = 1000 * MicroUnit
	Unit      uint64 = 1000 * MilliUnit
	KiloUnit  uint64 = 1000 * Unit

	Decimals = 6
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more than 6 decimals")
)

// Format renders [amount] micro-units as a decimal number of Units, trimming
// trailing zeros: 1125000 -> "1.125".
func Format(amount uint64) string {
	whole := amount / Unit
	frac := amount % Unit
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%06d", frac), "0")
	return strconv.FormatUint(whole, 10) + "." + fracStr
}

// Parse is the inverse of Format.
func Parse(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	wholeStr, fracStr, hasFrac := strings.Cut(s, ".")
	if wholeStr == "" {
		wholeStr = "0"
	}
	whole, err := strconv.ParseUint(wholeStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if whole > ^uint64(0)/Unit {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	amount := whole * Unit
	if !hasFrac {
		return amount, nil
	}
	if len(fracStr) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if len(fracStr) > Decimals {
		return 0, fmt.Errorf("%w: %q", ErrTooPrecise, s)
	}
	fracStr += strings.Repeat("0", Decimals-len(fracStr))
	frac, err := strconv.ParseUint(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if amount > ^uint64(0)-frac {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	return amount + frac, nil
}
