package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// AmountSize is the length of an encoded Amount in bytes.
const AmountSize = 32

// Amount is a non-negative quantity in the smallest currency unit.
// It is 256 bits wide so sale amounts from EVM-style hosts never truncate.
// The zero value is 0 and ready to use.
type Amount struct {
	v uint256.Int
}

// NewAmount returns an Amount holding v.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// ParseAmount parses a decimal string, or a 0x-prefixed hex string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	var a Amount
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if err := a.v.SetFromHex(s); err != nil {
			return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		return a, nil
	}
	if err := a.v.SetFromDecimal(s); err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return a, nil
}

// AmountFromBytes decodes a big-endian 32-byte encoding.
func AmountFromBytes(b []byte) (Amount, error) {
	if len(b) != AmountSize {
		return Amount{}, fmt.Errorf("amount must be %d bytes, got %d", AmountSize, len(b))
	}
	var a Amount
	a.v.SetBytes32(b)
	return a, nil
}

// Bytes returns the big-endian 32-byte encoding.
func (a Amount) Bytes() []byte {
	b := a.v.Bytes32()
	return b[:]
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp returns -1, 0 or +1 as a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// Lt reports whether a < b.
func (a Amount) Lt(b Amount) bool {
	return a.v.Lt(&b.v)
}

// Add returns a+b. ok is false if the sum overflowed 256 bits.
func (a Amount) Add(b Amount) (sum Amount, ok bool) {
	_, overflow := sum.v.AddOverflow(&a.v, &b.v)
	return sum, !overflow
}

// MulDiv returns a*num/den, truncated toward zero. The intermediate
// product is 512 bits wide so it cannot overflow; den must be non-zero.
func (a Amount) MulDiv(num, den uint64) Amount {
	var r Amount
	n := uint256.NewInt(num)
	d := uint256.NewInt(den)
	r.v.MulDivOverflow(&a.v, n, d)
	return r
}

// Uint64 returns the low 64 bits and whether the value fit.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

// Big returns the value as a big.Int.
func (a Amount) Big() *big.Int {
	return a.v.ToBig()
}

// Float64 returns an approximation for metrics.
func (a Amount) Float64() float64 {
	f, _ := new(big.Float).SetInt(a.v.ToBig()).Float64()
	return f
}

// String returns the decimal form.
func (a Amount) String() string {
	return a.v.Dec()
}

// MarshalJSON encodes the amount as a decimal string so large values
// survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal or hex string, or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
