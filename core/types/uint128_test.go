package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
)

const maxUint128Str = "340282366920938463463374607431768211455"

func TestUint128CheckedArithmetic(t *testing.T) {
	max := MustParseUint128(maxUint128Str)
	if _, err := max.Add(NewUint128(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("add overflow: got %v want %v", err, ErrOverflow)
	}
	if _, err := NewUint128(1).Sub(NewUint128(2)); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("sub underflow: got %v want %v", err, ErrUnderflow)
	}
	if _, err := max.Mul(NewUint128(2)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("mul overflow: got %v want %v", err, ErrOverflow)
	}
	if _, err := ParseUint128("340282366920938463463374607431768211456"); !errors.Is(err, ErrOverflow) {
		t.Fatalf("parse overflow: got %v want %v", err, ErrOverflow)
	}
	sum, err := NewUint128(40).Add(NewUint128(2))
	if err != nil || sum.String() != "42" {
		t.Fatalf("add: got %s, %v want 42", sum, err)
	}
	if got := NewUint128(3).SaturatingSub(NewUint128(5)); !got.IsZero() {
		t.Fatalf("saturating sub: got %s want 0", got)
	}
	ratio, err := NewUint128(1000).MulRatio(NewUint128(1), NewUint128(3))
	if err != nil || ratio.String() != "333" {
		t.Fatalf("mul ratio: got %s, %v want 333", ratio, err)
	}
}

func TestUint128JSON(t *testing.T) {
	encoded, err := json.Marshal(NewUint128(1500))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `"1500"` {
		t.Fatalf("marshal: got %s want \"1500\"", encoded)
	}
	var out struct {
		A Uint128 `json:"a"`
		B Uint128 `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12","b":7}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.A.String() != "12" || out.B.String() != "7" {
		t.Fatalf("unmarshal: got %s %s", out.A, out.B)
	}
	if err := json.Unmarshal([]byte(`{"a":"-1"}`), &out); err == nil {
		t.Fatalf("expected negative amount to fail")
	}
}

func TestUint128RLP(t *testing.T) {
	type stored struct {
		Amount Uint128
		Index  Decimal
	}
	in := stored{Amount: MustParseUint128(maxUint128Str), Index: MustParseDecimal("0.125")}
	encoded, err := rlp.EncodeToBytes(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out stored
	if err := rlp.DecodeBytes(encoded, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Amount.Cmp(in.Amount) != 0 || out.Index.Cmp(in.Index) != 0 {
		t.Fatalf("round trip: got %+v want %+v", out, in)
	}
}
