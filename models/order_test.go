package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSide_String(t *testing.T) {
	tests := []struct {
		side Side
		want string
	}{
		{Buy, "OrderSide(Buy)"},
		{Sell, "OrderSide(Sell)"},
	}
	for _, tt := range tests {
		if got := tt.side.String(); got != tt.want {
			t.Errorf("Side(%d).String() = %q, want %q", tt.side, got, tt.want)
		}
	}
}

func TestSide_Opposite(t *testing.T) {
	if Buy.Opposite() != Sell {
		t.Errorf("Buy.Opposite() = %v, want Sell", Buy.Opposite())
	}
	if Sell.Opposite() != Buy {
		t.Errorf("Sell.Opposite() = %v, want Buy", Sell.Opposite())
	}
}

func TestOrderTraits_Constants(t *testing.T) {
	tests := []struct {
		name           string
		traits         OrderTraits
		wantFOK        bool
		wantMayRest    bool
		wantMayPartial bool
	}{
		{"VANILLA", VANILLA, false, true, true},
		{"IOC", IOC, false, false, true},
		{"FOK", FOK, true, false, false},
	}
	for _, tt := range tests {
		if got := tt.traits.FillOrKill(); got != tt.wantFOK {
			t.Errorf("%s.FillOrKill() = %v, want %v", tt.name, got, tt.wantFOK)
		}
		if got := tt.traits.MayRest(); got != tt.wantMayRest {
			t.Errorf("%s.MayRest() = %v, want %v", tt.name, got, tt.wantMayRest)
		}
		if got := tt.traits.MayPartialFill(); got != tt.wantMayPartial {
			t.Errorf("%s.MayPartialFill() = %v, want %v", tt.name, got, tt.wantMayPartial)
		}
	}
}

func TestOrder_Clone(t *testing.T) {
	acctID := int64(7)
	o := &Order{
		OrderID: 1,
		AcctID:  &acctID,
		Side:    Buy,
		Size:    decimal.RequireFromString("5"),
		Price:   decimal.RequireFromString("100"),
		Traits:  VANILLA,
	}
	clone := o.Clone()
	clone.Size = decimal.RequireFromString("1")

	if o.Size.String() != "5" {
		t.Errorf("mutating a clone's Size affected the original: got %s, want 5", o.Size)
	}
	if clone.OrderID != o.OrderID {
		t.Errorf("clone.OrderID = %d, want %d", clone.OrderID, o.OrderID)
	}
	if clone.AcctID != o.AcctID {
		t.Errorf("clone.AcctID pointer should still alias the original (shallow copy)")
	}
}
