package models

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateTotals(t *testing.T) {
	inv := InvoiceData{
		Items: []InvoiceItem{
			{Description: "Widgets", Quantity: 10, UnitPrice: 5.00, TaxRate: 20},
			{Description: "Setup", Quantity: 1, UnitPrice: 100.00, DiscountPercent: 10, TaxRate: 20},
		},
	}

	got := inv.CalculateTotals()

	if !almostEqual(got.Subtotal, 150.00) {
		t.Errorf("Subtotal = %.2f, want 150.00", got.Subtotal)
	}
	if !almostEqual(got.DiscountAmount, 10.00) {
		t.Errorf("DiscountAmount = %.2f, want 10.00", got.DiscountAmount)
	}
	// Tax applies to the discounted amounts: (50 + 90) * 20%.
	if !almostEqual(got.TaxAmount, 28.00) {
		t.Errorf("TaxAmount = %.2f, want 28.00", got.TaxAmount)
	}
	if !almostEqual(got.GrandTotal, 168.00) {
		t.Errorf("GrandTotal = %.2f, want 168.00", got.GrandTotal)
	}
}

func TestEffectiveTotalsPrefersProvided(t *testing.T) {
	inv := InvoiceData{
		Items:  []InvoiceItem{{Quantity: 1, UnitPrice: 100}},
		Totals: &InvoiceTotals{Subtotal: 100, GrandTotal: 123.45},
	}

	got := inv.EffectiveTotals()
	if !almostEqual(got.GrandTotal, 123.45) {
		t.Errorf("GrandTotal = %.2f, want the provided 123.45", got.GrandTotal)
	}
}

func TestLineTotalWithDiscount(t *testing.T) {
	it := InvoiceItem{Quantity: 4, UnitPrice: 25, DiscountPercent: 50}
	if !almostEqual(it.LineTotal(), 50.00) {
		t.Errorf("LineTotal = %.2f, want 50.00", it.LineTotal())
	}
}
