package types

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// DecimalPlaces is the fixed fractional precision of Decimal.
const DecimalPlaces = 18

var decimalFractional = uint256.NewInt(1_000_000_000_000_000_000)

// Decimal is a non-negative fixed-point number with 18 fractional digits,
// stored as atomics = value * 10^18 and bounded to 128 bits.
type Decimal struct {
	atomics uint256.Int
}

// ZeroDecimal returns 0.
func ZeroDecimal() Decimal { return Decimal{} }

// OneDecimal returns 1.
func OneDecimal() Decimal {
	var d Decimal
	d.atomics.Set(decimalFractional)
	return d
}

// DecimalPercent returns p / 100.
func DecimalPercent(p uint64) Decimal {
	var d Decimal
	d.atomics.Mul(uint256.NewInt(p), uint256.NewInt(10_000_000_000_000_000))
	return d
}

// DecimalFromRatio returns floor(num * 10^18 / den) / 10^18.
func DecimalFromRatio(num, den Uint128) (Decimal, error) {
	if den.IsZero() {
		return Decimal{}, ErrDivideByZero
	}
	var atomics uint256.Int
	atomics.Mul(&num.v, decimalFractional)
	atomics.Div(&atomics, &den.v)
	if atomics.BitLen() > maxUint128Bits {
		return Decimal{}, ErrOverflow
	}
	return Decimal{atomics: atomics}, nil
}

// ParseDecimal parses a plain decimal string such as "0.25".
func ParseDecimal(s string) (Decimal, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}, fmt.Errorf("types: parse decimal %q: %w", s, err)
	}
	if parsed.Sign() < 0 {
		return Decimal{}, fmt.Errorf("types: negative decimal %q", s)
	}
	if parsed.Exponent() < -DecimalPlaces {
		return Decimal{}, fmt.Errorf("types: decimal %q exceeds %d fractional digits", s, DecimalPlaces)
	}
	atomics := parsed.Shift(DecimalPlaces).BigInt()
	if atomics.BitLen() > maxUint128Bits {
		return Decimal{}, ErrOverflow
	}
	var d Decimal
	d.atomics.SetFromBig(atomics)
	return d, nil
}

// MustParseDecimal is ParseDecimal for constants in tests.
func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d == 0.
func (d Decimal) IsZero() bool { return d.atomics.IsZero() }

// Cmp returns -1, 0 or +1.
func (d Decimal) Cmp(o Decimal) int { return d.atomics.Cmp(&o.atomics) }

// Atomics returns d * 10^18.
func (d Decimal) Atomics() Uint128 { return Uint128{v: d.atomics} }

// Add returns d + o or ErrOverflow.
func (d Decimal) Add(o Decimal) (Decimal, error) {
	var out uint256.Int
	out.Add(&d.atomics, &o.atomics)
	if out.BitLen() > maxUint128Bits {
		return Decimal{}, ErrOverflow
	}
	return Decimal{atomics: out}, nil
}

// Sub returns d - o or ErrUnderflow.
func (d Decimal) Sub(o Decimal) (Decimal, error) {
	if d.atomics.Lt(&o.atomics) {
		return Decimal{}, ErrUnderflow
	}
	var out uint256.Int
	out.Sub(&d.atomics, &o.atomics)
	return Decimal{atomics: out}, nil
}

// DivUint64 returns floor(d / n).
func (d Decimal) DivUint64(n uint64) (Decimal, error) {
	if n == 0 {
		return Decimal{}, ErrDivideByZero
	}
	var out uint256.Int
	out.Div(&d.atomics, uint256.NewInt(n))
	return Decimal{atomics: out}, nil
}

// MulFloor returns floor(amount * d).
func (d Decimal) MulFloor(amount Uint128) (Uint128, error) {
	var out uint256.Int
	out.Mul(&amount.v, &d.atomics)
	out.Div(&out, decimalFractional)
	return fromInt(&out)
}

func (d Decimal) decimal() decimal.Decimal {
	return decimal.NewFromBigInt(d.atomics.ToBig(), -DecimalPlaces)
}

// String renders the shortest exact representation, e.g. "0.5" or "12".
func (d Decimal) String() string {
	return d.decimal().String()
}

// MarshalJSON encodes the value as a quoted decimal string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a quoted decimal string.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("types: decimal must be a string: %w", err)
	}
	parsed, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EncodeRLP implements rlp.Encoder.
func (d Decimal) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, d.atomics.ToBig())
}

// DecodeRLP implements rlp.Decoder.
func (d *Decimal) DecodeRLP(s *rlp.Stream) error {
	b, err := s.BigInt()
	if err != nil {
		return err
	}
	if b.BitLen() > maxUint128Bits {
		return ErrOverflow
	}
	var out Decimal
	out.atomics.SetFromBig(new(big.Int).Set(b))
	*d = out
	return nil
}
