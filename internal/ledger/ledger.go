// Package ledger computes the monetary rollups shared by quotes, sales and
// repair orders. All arithmetic is fixed-point with two decimal places.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports a rejected monetary input with its field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: %s: %s", e.Field, e.Message)
}

// Totals is the derived rollup of a costed document.
type Totals struct {
	Subtotal decimal.Decimal
	Taxes    decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives subtotal, taxes and total from cost components.
//
//	subtotal = labor + parts + additional
//	taxes    = (subtotal - discount) * taxRate
//	total    = subtotal - discount + taxes, floored at 0
//
// taxRate is a decimal fraction (0.1 for 10%). Negative cost components and
// negative discounts are rejected.
func ComputeTotals(laborCost, partsCost, additionalCost, discount, taxRate decimal.Decimal) (Totals, error) {
	for _, in := range []struct {
		field string
		value decimal.Decimal
	}{
		{"labor_cost", laborCost},
		{"parts_cost", partsCost},
		{"additional_cost", additionalCost},
		{"discount", discount},
		{"tax_rate", taxRate},
	} {
		if in.value.IsNegative() {
			return Totals{}, &ValidationError{Field: in.field, Message: "must not be negative"}
		}
	}

	subtotal := laborCost.Add(partsCost).Add(additionalCost).Round(2)
	taxes := subtotal.Sub(discount).Mul(taxRate).Round(2)
	if taxes.IsNegative() {
		// Discount exceeding the subtotal never produces a negative tax.
		taxes = decimal.Zero
	}
	total := subtotal.Sub(discount).Add(taxes).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{Subtotal: subtotal, Taxes: taxes, Total: total}, nil
}

// PendingBalance returns total minus advancePayment, clamped at zero.
// Overpayment is absorbed, not tracked as credit.
func PendingBalance(total, advancePayment decimal.Decimal) decimal.Decimal {
	balance := total.Sub(advancePayment).Round(2)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// SumDetails adds up line totals, used to enforce the detail-sum invariant
// against a document subtotal.
func SumDetails(lineTotals []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range lineTotals {
		sum = sum.Add(t)
	}
	return sum.Round(2)
}
