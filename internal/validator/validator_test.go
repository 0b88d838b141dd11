package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type sample struct {
	Side   string `validate:"required,transaction_side"`
	Ticker string `validate:"required,ticker"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	if err := v.RegisterValidation("transaction_side", validateTransactionSide); err != nil {
		t.Fatalf("register transaction_side: %v", err)
	}
	if err := v.RegisterValidation("ticker", validateTicker); err != nil {
		t.Fatalf("register ticker: %v", err)
	}
	return v
}

func TestTransactionSide(t *testing.T) {
	v := newValidate(t)
	for _, side := range []string{"BUY", "SELL", "buy", "Sell"} {
		if err := v.Struct(sample{Side: side, Ticker: "AAPL"}); err != nil {
			t.Errorf("expected %q to be valid, got %v", side, err)
		}
	}
	for _, side := range []string{"HOLD", "short", "BUYS"} {
		if err := v.Struct(sample{Side: side, Ticker: "AAPL"}); err == nil {
			t.Errorf("expected %q to be rejected", side)
		}
	}
}

func TestValidTicker(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"AAPL", true},
		{"aapl", true},
		{"BRK.B", true},
		{"RDS-A", true},
		{" msft ", true},
		{"0700", true},
		{"ABCDEFGHIJ", true},
		{"ABCDEFGHIJK", false},
		{"", false},
		{"AA PL", false},
		{"$AAPL", false},
	}
	for _, tt := range tests {
		if got := ValidTicker(tt.in); got != tt.want {
			t.Errorf("ValidTicker(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
