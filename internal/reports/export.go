package reports

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/boutique/internal/store"
)

// Formatter renders amounts for a locale.
type Formatter struct {
	printer  *message.Printer
	currency string
}

// NewFormatter builds a Formatter. An empty currency omits the suffix.
func NewFormatter(tag language.Tag, currency string) Formatter {
	return Formatter{printer: message.NewPrinter(tag), currency: currency}
}

// Amount formats v with grouping and no decimals.
func (f Formatter) Amount(v float64) string {
	s := f.printer.Sprintf("%.0f", v)
	if f.currency == "" {
		return s
	}
	return s + " " + f.currency
}

// WriteProductsCSV writes the catalogue.
func WriteProductsCSV(w io.Writer, products []store.Product, f Formatter) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ID", "SKU", "Name", "Category", "Price", "Stock", "Min Stock", "Supplier", "Created At"}); err != nil {
		return err
	}
	for _, p := range products {
		if err := writer.Write([]string{
			string(p.ID),
			p.SKU,
			p.Name,
			p.Category,
			f.Amount(p.Price),
			strconv.Itoa(p.Stock),
			strconv.Itoa(p.MinStock),
			p.Supplier,
			p.CreatedAt,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteClientsCSV writes the client list.
func WriteClientsCSV(w io.Writer, clients []store.Client, f Formatter) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ID", "Name", "Type", "Email", "Phone", "Address", "Registered", "Total Purchases", "Last Purchase"}); err != nil {
		return err
	}
	for _, c := range clients {
		if err := writer.Write([]string{
			string(c.ID),
			c.Name,
			string(c.ClientType),
			c.Email,
			c.Phone,
			c.Address,
			c.RegistrationDate,
			f.Amount(c.TotalPurchases),
			c.LastPurchase,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteInvoicesCSV writes one row per invoice.
func WriteInvoicesCSV(w io.Writer, invoices []store.Invoice, f Formatter) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Number", "Date", "Client", "Items", "Payment Method", "Subtotal", "Tax", "Total", "Status"}); err != nil {
		return err
	}
	for _, inv := range invoices {
		items := 0
		for _, line := range inv.Items {
			items += line.Quantity
		}
		if err := writer.Write([]string{
			inv.Number,
			inv.Date,
			inv.Client.Name,
			strconv.Itoa(items),
			inv.PaymentMethod,
			f.Amount(inv.Subtotal),
			f.Amount(inv.Tax),
			f.Amount(inv.Total),
			string(inv.Status),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSalesCSV writes the headline figures of a sales report followed by
// the top products and clients.
func WriteSalesCSV(w io.Writer, report SalesReport, f Formatter) error {
	writer := csv.NewWriter(w)
	records := [][]string{
		{"Metric", "Value"},
		{"Range", string(report.Range)},
		{"From", report.From},
		{"Total Revenue", f.Amount(report.TotalRevenue)},
		{"Invoices", strconv.Itoa(report.TotalInvoices)},
		{"Average Invoice", f.Amount(report.AverageInvoiceValue)},
		{"Paid Invoices", strconv.Itoa(report.PaidInvoices)},
		{"Pending Revenue", f.Amount(report.PendingRevenue)},
		{"Inventory Value", f.Amount(report.InventoryValue)},
		{},
		{"Top Product", "Quantity", "Revenue"},
	}
	for _, p := range report.TopProducts {
		records = append(records, []string{p.Name, strconv.Itoa(p.Quantity), f.Amount(p.Revenue)})
	}
	records = append(records, []string{}, []string{"Top Client", "Invoices", "Total"})
	for _, c := range report.TopClients {
		records = append(records, []string{c.Name, strconv.Itoa(c.Invoices), f.Amount(c.Total)})
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
