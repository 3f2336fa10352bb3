package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotalsScenario(t *testing.T) {
	totals, err := ComputeTotals(d("100"), d("50"), d("0"), d("10"), d("0.1"))
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	if !totals.Subtotal.Equal(d("150")) {
		t.Fatalf("expected subtotal 150 got %s", totals.Subtotal)
	}
	if !totals.Taxes.Equal(d("14")) {
		t.Fatalf("expected taxes 14 got %s", totals.Taxes)
	}
	if !totals.Total.Equal(d("154")) {
		t.Fatalf("expected total 154 got %s", totals.Total)
	}
}

func TestComputeTotalsIdentity(t *testing.T) {
	cases := []struct {
		labor, parts, additional, discount, taxRate string
	}{
		{"0", "0", "0", "0", "0"},
		{"19.99", "35.50", "4.01", "0", "0.18"},
		{"250", "125.25", "10", "25.50", "0.16"},
		{"1", "1", "1", "0.5", "0"},
		{"80", "0", "0", "100", "0.1"},
	}
	for _, c := range cases {
		totals, err := ComputeTotals(d(c.labor), d(c.parts), d(c.additional), d(c.discount), d(c.taxRate))
		if err != nil {
			t.Fatalf("ComputeTotals(%+v) returned error: %v", c, err)
		}
		want := totals.Subtotal.Sub(d(c.discount)).Add(totals.Taxes)
		if want.IsNegative() {
			want = decimal.Zero
		}
		if !totals.Total.Equal(want.Round(2)) {
			t.Fatalf("total %s != subtotal - discount + taxes %s for %+v", totals.Total, want, c)
		}
		if totals.Total.IsNegative() {
			t.Fatalf("total must never be negative, got %s for %+v", totals.Total, c)
		}
	}
}

func TestComputeTotalsRejectsNegatives(t *testing.T) {
	_, err := ComputeTotals(d("-1"), d("0"), d("0"), d("0"), d("0"))
	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError got %v", err)
	}
	if vErr.Field != "labor_cost" {
		t.Fatalf("expected field labor_cost got %s", vErr.Field)
	}

	if _, err := ComputeTotals(d("1"), d("1"), d("1"), d("-0.01"), d("0")); err == nil {
		t.Fatal("expected error for negative discount")
	}
}

func TestComputeTotalsRounding(t *testing.T) {
	totals, err := ComputeTotals(d("10.005"), d("0"), d("0"), d("0"), d("0.175"))
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	if totals.Subtotal.Exponent() < -2 || totals.Taxes.Exponent() < -2 || totals.Total.Exponent() < -2 {
		t.Fatalf("rollup values must round to 2 decimal places, got %s/%s/%s",
			totals.Subtotal, totals.Taxes, totals.Total)
	}
}

func TestPendingBalanceClampsOverpayment(t *testing.T) {
	if got := PendingBalance(d("200"), d("250")); !got.Equal(decimal.Zero) {
		t.Fatalf("expected clamped balance 0 got %s", got)
	}
	if got := PendingBalance(d("200"), d("50")); !got.Equal(d("150")) {
		t.Fatalf("expected balance 150 got %s", got)
	}
}

func TestSumDetails(t *testing.T) {
	sum := SumDetails([]decimal.Decimal{d("10.10"), d("5.45"), d("0.45")})
	if !sum.Equal(d("16")) {
		t.Fatalf("expected 16 got %s", sum)
	}
}
