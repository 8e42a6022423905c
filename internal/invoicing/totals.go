package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/boutique/internal/store"
)

var hundred = decimal.NewFromInt(100)

// Totals are the computed amounts of an invoice.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums line amounts and applies the configured tax rate when
// tax display is enabled. Amounts are rounded to two decimals; total is
// always subtotal + tax.
func ComputeTotals(lines []store.InvoiceLine, cfg store.InvoiceSettings) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		amount := decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(amount)
	}
	subtotal = subtotal.Round(2)
	tax := decimal.Zero
	if cfg.ShowTax {
		tax = subtotal.Mul(decimal.NewFromFloat(cfg.TaxRate)).Div(hundred).Round(2)
	}
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// Apply copies the totals onto inv.
func (t Totals) Apply(inv *store.Invoice) {
	inv.Subtotal = t.Subtotal.InexactFloat64()
	inv.Tax = t.Tax.InexactFloat64()
	inv.Total = t.Total.InexactFloat64()
}
