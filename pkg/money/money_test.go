package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	m, err := Parse("1234.56")
	if err != nil {
		t.Fatalf("Failed to parse amount: %v", err)
	}
	if m.Display() != "1234.56" {
		t.Errorf("Expected 1234.56, got %s", m.Display())
	}

	if _, err := Parse("12,000"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for garbage input, got %v", err)
	}
	if _, err := Parse(""); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for empty input, got %v", err)
	}
}

func TestParseNonNegative(t *testing.T) {
	if _, err := ParseNonNegative("-5"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for negative input, got %v", err)
	}
	if _, err := ParseNonNegative("0"); err != nil {
		t.Errorf("Zero should be accepted: %v", err)
	}
}

func TestArithmetic(t *testing.T) {
	a, _ := Parse("100.10")
	b, _ := Parse("0.90")

	if got := a.Add(b).Display(); got != "101.00" {
		t.Errorf("Expected 101.00, got %s", got)
	}
	if got := b.Sub(a).Display(); got != "-99.20" {
		t.Errorf("Expected -99.20, got %s", got)
	}
	if !b.Sub(a).IsNegative() {
		t.Error("Subtraction below zero should yield a negative amount")
	}
}

func TestMulRatioStaysExact(t *testing.T) {
	// 0.1 * 3 drifts under float64; it must not here.
	m, _ := Parse("0.1")
	got := m.MulRatio(decimal.NewFromInt(3))
	want, _ := Parse("0.3")
	if !got.Equal(want) {
		t.Errorf("Expected exactly 0.3, got %s", got)
	}
}

func TestDisplayRoundsHalfUp(t *testing.T) {
	cases := map[string]string{
		"600.005": "600.01",
		"600.004": "600.00",
		"599.995": "600.00",
		"0.125":   "0.13",
	}
	for in, want := range cases {
		m, _ := Parse(in)
		if got := m.Display(); got != want {
			t.Errorf("Display(%s): expected %s, got %s", in, want, got)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m, _ := Parse("53000")
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(data) != `"53000.00"` {
		t.Errorf("Expected decimal string in JSON, got %s", data)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("Expected %s after round trip, got %s", m, back)
	}

	// Bare numbers from older clients are accepted too.
	if err := json.Unmarshal([]byte(`250.50`), &back); err != nil {
		t.Fatalf("Failed to unmarshal bare number: %v", err)
	}
	if back.Display() != "250.50" {
		t.Errorf("Expected 250.50, got %s", back.Display())
	}
}

func TestSQLRoundTrip(t *testing.T) {
	m, _ := Parse("42.42")
	v, err := m.Value()
	if err != nil {
		t.Fatalf("Failed to get driver value: %v", err)
	}

	var back Money
	if err := back.Scan(v); err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("Expected %s after sql round trip, got %s", m, back)
	}

	if err := back.Scan(3.14); err == nil {
		t.Error("Expected error scanning a float into Money")
	}
}
