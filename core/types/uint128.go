package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	// ErrOverflow reports a checked-arithmetic result above the 128-bit range.
	ErrOverflow = errors.New("types: overflow")
	// ErrUnderflow reports a checked subtraction below zero.
	ErrUnderflow = errors.New("types: underflow")
	// ErrDivideByZero reports a zero denominator.
	ErrDivideByZero = errors.New("types: divide by zero")
)

const maxUint128Bits = 128

// Uint128 is an unsigned 128-bit amount. All arithmetic is checked. The zero
// value is 0 and ready to use.
type Uint128 struct {
	v uint256.Int
}

// NewUint128 converts a uint64.
func NewUint128(v uint64) Uint128 {
	var u Uint128
	u.v.SetUint64(v)
	return u
}

// ZeroUint128 returns 0.
func ZeroUint128() Uint128 { return Uint128{} }

// ParseUint128 parses a base-10 string.
func ParseUint128(s string) (Uint128, error) {
	var u Uint128
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return u, fmt.Errorf("types: empty amount")
	}
	if err := u.v.SetFromDecimal(trimmed); err != nil {
		return Uint128{}, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	if u.v.BitLen() > maxUint128Bits {
		return Uint128{}, ErrOverflow
	}
	return u, nil
}

// MustParseUint128 is ParseUint128 for constants in tests and defaults.
func MustParseUint128(s string) Uint128 {
	u, err := ParseUint128(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Uint128FromBig converts a non-negative big integer.
func Uint128FromBig(b *big.Int) (Uint128, error) {
	var u Uint128
	if b == nil {
		return u, nil
	}
	if b.Sign() < 0 {
		return u, ErrUnderflow
	}
	if b.BitLen() > maxUint128Bits {
		return u, ErrOverflow
	}
	u.v.SetFromBig(b)
	return u, nil
}

func fromInt(v *uint256.Int) (Uint128, error) {
	if v.BitLen() > maxUint128Bits {
		return Uint128{}, ErrOverflow
	}
	return Uint128{v: *v}, nil
}

// IsZero reports whether u == 0.
func (u Uint128) IsZero() bool { return u.v.IsZero() }

// Cmp returns -1, 0 or +1.
func (u Uint128) Cmp(o Uint128) int { return u.v.Cmp(&o.v) }

// Big returns a copy as *big.Int.
func (u Uint128) Big() *big.Int { return u.v.ToBig() }

// Uint64 returns the value when it fits in 64 bits.
func (u Uint128) Uint64() (uint64, bool) {
	if !u.v.IsUint64() {
		return 0, false
	}
	return u.v.Uint64(), true
}

func (u Uint128) String() string { return u.v.Dec() }

// Add returns u + o or ErrOverflow.
func (u Uint128) Add(o Uint128) (Uint128, error) {
	var out uint256.Int
	out.Add(&u.v, &o.v)
	return fromInt(&out)
}

// Sub returns u - o or ErrUnderflow.
func (u Uint128) Sub(o Uint128) (Uint128, error) {
	if u.v.Lt(&o.v) {
		return Uint128{}, ErrUnderflow
	}
	var out uint256.Int
	out.Sub(&u.v, &o.v)
	return Uint128{v: out}, nil
}

// SaturatingSub returns u - o, or 0 when o > u.
func (u Uint128) SaturatingSub(o Uint128) Uint128 {
	out, err := u.Sub(o)
	if err != nil {
		return Uint128{}
	}
	return out
}

// Mul returns u * o or ErrOverflow.
func (u Uint128) Mul(o Uint128) (Uint128, error) {
	// both operands are below 2^128 so the product cannot wrap 256 bits
	var out uint256.Int
	out.Mul(&u.v, &o.v)
	return fromInt(&out)
}

// Div returns floor(u / o).
func (u Uint128) Div(o Uint128) (Uint128, error) {
	if o.v.IsZero() {
		return Uint128{}, ErrDivideByZero
	}
	var out uint256.Int
	out.Div(&u.v, &o.v)
	return Uint128{v: out}, nil
}

// MulRatio returns floor(u * num / den).
func (u Uint128) MulRatio(num, den Uint128) (Uint128, error) {
	if den.v.IsZero() {
		return Uint128{}, ErrDivideByZero
	}
	var out uint256.Int
	out.Mul(&u.v, &num.v)
	out.Div(&out, &den.v)
	return fromInt(&out)
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (u Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number.
func (u *Uint128) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*u = Uint128{}
		return nil
	}
	if strings.HasPrefix(raw, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := ParseUint128(raw)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// EncodeRLP implements rlp.Encoder.
func (u Uint128) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, u.v.ToBig())
}

// DecodeRLP implements rlp.Decoder.
func (u *Uint128) DecodeRLP(s *rlp.Stream) error {
	b, err := s.BigInt()
	if err != nil {
		return err
	}
	parsed, err := Uint128FromBig(b)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
