package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"zero", "0", "0", false},
		{"one ether in wei", "1000000000000000000", "1000000000000000000", false},
		{"hex", "0x10", "16", false},
		{"max uint256", "115792089237316195423570985008687907853269984665640564039457584007913129639935",
			"115792089237316195423570985008687907853269984665640564039457584007913129639935", false},
		{"overflow", "115792089237316195423570985008687907853269984665640564039457584007913129639936", "", true},
		{"negative", "-1", "", true},
		{"garbage", "ten", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAmount(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.input, err)
			}
			if a.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, a, tt.want)
			}
		})
	}
}

func TestAmount_Add(t *testing.T) {
	sum, ok := NewAmount(7).Add(NewAmount(5))
	if !ok {
		t.Fatal("7+5 should not overflow")
	}
	if sum != NewAmount(12) {
		t.Errorf("7+5 = %s, want 12", sum)
	}

	max, _ := ParseAmount("0x" + strings.Repeat("f", 64))
	if _, ok := max.Add(NewAmount(1)); ok {
		t.Error("max+1 should report overflow")
	}
}

func TestAmount_MulDiv_Truncates(t *testing.T) {
	tests := []struct {
		amount   uint64
		num, den uint64
		want     uint64
	}{
		{10, 1, 10000, 0},
		{10000, 1, 10000, 1},
		{19999, 1, 10000, 1},
		{1000, 250, 10000, 25},
		{999, 10000, 10000, 999},
	}
	for _, tt := range tests {
		got := NewAmount(tt.amount).MulDiv(tt.num, tt.den)
		if got != NewAmount(tt.want) {
			t.Errorf("%d*%d/%d = %s, want %d", tt.amount, tt.num, tt.den, got, tt.want)
		}
	}
}

func TestAmount_MulDiv_LargeValues(t *testing.T) {
	// 2^255 * 10000 / 10000 must not overflow the intermediate product.
	big, err := ParseAmount("0x8000000000000000000000000000000000000000000000000000000000000000")
	if err != nil {
		t.Fatal(err)
	}
	if got := big.MulDiv(10000, 10000); got != big {
		t.Errorf("MulDiv changed value: %s", got)
	}
}

func TestAmount_Compare(t *testing.T) {
	one, two := NewAmount(1), NewAmount(2)
	if !one.Lt(two) || two.Lt(one) {
		t.Error("Lt ordering wrong")
	}
	if one.Cmp(one) != 0 || one.Cmp(two) != -1 || two.Cmp(one) != 1 {
		t.Error("Cmp ordering wrong")
	}
	if !(Amount{}).IsZero() {
		t.Error("zero value should be zero")
	}
}

func TestAmount_BytesRoundTrip(t *testing.T) {
	a := NewAmount(123456789)
	b := a.Bytes()
	if len(b) != AmountSize {
		t.Fatalf("len = %d, want %d", len(b), AmountSize)
	}
	got, err := AmountFromBytes(b)
	if err != nil {
		t.Fatalf("AmountFromBytes: %v", err)
	}
	if got != a {
		t.Errorf("roundtrip = %s, want %s", got, a)
	}
}

func TestAmount_JSON(t *testing.T) {
	data, err := json.Marshal(NewAmount(42))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"42"` {
		t.Errorf("Marshal = %s, want \"42\"", data)
	}

	var a Amount
	if err := json.Unmarshal([]byte(`17`), &a); err != nil {
		t.Fatalf("Unmarshal number: %v", err)
	}
	if a != NewAmount(17) {
		t.Errorf("bare number = %s, want 17", a)
	}
	if err := json.Unmarshal([]byte(`"0x20"`), &a); err != nil {
		t.Fatalf("Unmarshal hex: %v", err)
	}
	if a != NewAmount(32) {
		t.Errorf("hex = %s, want 32", a)
	}
}
