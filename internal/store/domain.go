package store

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar date format used by every date field.
const DateLayout = "2006-01-02"

// ClientType classifies clients.
type ClientType string

const (
	// ClientIndividual is a retail customer.
	ClientIndividual ClientType = "Individual"
	// ClientBusiness is a reseller or company account.
	ClientBusiness ClientType = "Business"
)

// UnmarshalJSON also accepts the French labels found in older data.
func (t *ClientType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "Particulier":
		*t = ClientIndividual
	case "Professionnel":
		*t = ClientBusiness
	default:
		*t = ClientType(raw)
	}
	return nil
}

// Valid reports whether the type is one of the known client types.
func (t ClientType) Valid() bool {
	return t == ClientIndividual || t == ClientBusiness
}

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Valid reports whether the status is one of the known states.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoicePending, InvoicePaid, InvoiceOverdue:
		return true
	}
	return false
}

// Product is a catalogue item with its current stock.
type Product struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"minStock"`
	Description string  `json:"description"`
	SKU         string  `json:"sku"`
	Supplier    string  `json:"supplier"`
	Image       string  `json:"image,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// LowStock reports whether stock reached the product threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

// Client is a customer record.
type Client struct {
	ID               ID         `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	ClientType       ClientType `json:"clientType"`
	RegistrationDate string     `json:"registrationDate"`
	TotalPurchases   float64    `json:"totalPurchases"`
	LastPurchase     string     `json:"lastPurchase,omitempty"`
	Notes            string     `json:"notes"`
}

// Snapshot captures the client fields embedded into invoices.
func (c Client) Snapshot() ClientSnapshot {
	return ClientSnapshot{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		ClientType: c.ClientType,
	}
}

// ClientSnapshot is the client copy stored on an invoice. Later edits to the
// client record never change it.
type ClientSnapshot struct {
	ID         ID         `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Address    string     `json:"address"`
	ClientType ClientType `json:"clientType"`
}

// InvoiceLine is a product snapshot plus the quantity sold.
type InvoiceLine struct {
	ProductID ID      `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	SKU       string  `json:"sku"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// LineFromProduct snapshots a product for an invoice line.
func LineFromProduct(p Product, qty int) InvoiceLine {
	return InvoiceLine{
		ProductID: p.ID,
		Name:      p.Name,
		Category:  p.Category,
		SKU:       p.SKU,
		Price:     p.Price,
		Quantity:  qty,
	}
}

// Amount returns price × quantity.
func (l InvoiceLine) Amount() float64 {
	return l.Price * float64(l.Quantity)
}

// Invoice is an issued or draft sale document.
type Invoice struct {
	ID            ID             `json:"id"`
	Number        string         `json:"number"`
	Date          string         `json:"date"`
	Client        ClientSnapshot `json:"client"`
	Items         []InvoiceLine  `json:"items"`
	PaymentMethod string         `json:"paymentMethod"`
	Subtotal      float64        `json:"subtotal"`
	Tax           float64        `json:"tax"`
	Total         float64        `json:"total"`
	Status        InvoiceStatus  `json:"status"`
	Notes         string         `json:"notes"`
	CreatedAt     string         `json:"createdAt"`
}

// IssuedOn parses the invoice date. Zero time is returned for malformed dates.
func (inv Invoice) IssuedOn() time.Time {
	t, err := time.Parse(DateLayout, inv.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PaymentMethod is a selectable way to settle an invoice.
type PaymentMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// BusinessInfo is the shop profile printed on invoices.
type BusinessInfo struct {
	Name      string `json:"name" validate:"required"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	Website   string `json:"website"`
	Logo      string `json:"logo"`
	TaxNumber string `json:"taxNumber"`
	Currency  string `json:"currency" validate:"required"`
}

// InvoiceSettings carries invoicing defaults and the numbering counter.
type InvoiceSettings struct {
	Prefix             string  `json:"prefix" validate:"required"`
	StartNumber        int     `json:"startNumber" validate:"gte=0"`
	TaxRate            float64 `json:"taxRate" validate:"gte=0,lte=100"`
	ShowTax            bool    `json:"showTax"`
	PaymentTermsDays   int     `json:"paymentTermsDays" validate:"gte=0"`
	TermsAndConditions string  `json:"termsAndConditions"`
	FooterNote         string  `json:"footerNote"`
}

// PaymentSettings holds payment gateway credentials.
type PaymentSettings struct {
	Enabled    bool   `json:"enabled"`
	Mode       string `json:"mode" validate:"omitempty,oneof=test live"`
	MasterKey  string `json:"masterKey"`
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	Token      string `json:"token"`
}

// BarcodeSettings holds barcode format preferences.
type BarcodeSettings struct {
	ProductFormat  string `json:"productFormat"`
	InvoiceFormat  string `json:"invoiceFormat"`
	ShowOnProducts bool   `json:"showOnProducts"`
	ShowOnInvoices bool   `json:"showOnInvoices"`
	ProductPrefix  string `json:"productPrefix"`
	InvoicePrefix  string `json:"invoicePrefix"`
}

// NotificationSettings holds alert toggles and thresholds.
type NotificationSettings struct {
	LowStock        bool `json:"lowStock"`
	NewOrder        bool `json:"newOrder"`
	PaymentReminder bool `json:"paymentReminder"`
	StockThreshold  int  `json:"stockThreshold" validate:"gte=0"`
}

// Settings is the nested application configuration slice.
type Settings struct {
	BusinessInfo    BusinessInfo         `json:"businessInfo"`
	InvoiceSettings InvoiceSettings      `json:"invoiceSettings"`
	PaymentSettings PaymentSettings      `json:"paymentSettings"`
	BarcodeSettings BarcodeSettings      `json:"barcodeSettings"`
	Notifications   NotificationSettings `json:"notifications"`
}

// UIState is presentation state; it is not business data.
type UIState struct {
	SidebarCollapsed bool   `json:"sidebarCollapsed"`
	Theme            string `json:"theme"`
	Language         string `json:"language"`
}

// State is the complete in-memory store content.
type State struct {
	Products       []Product       `json:"products"`
	Clients        []Client        `json:"clients"`
	Invoices       []Invoice       `json:"invoices"`
	Categories     []string        `json:"categories"`
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
	Settings       Settings        `json:"settings"`
	UI             UIState         `json:"ui"`
}

// Clone returns a deep copy so readers never alias store internals.
func (s State) Clone() State {
	out := s
	out.Products = cloneSlice(s.Products)
	out.Clients = cloneSlice(s.Clients)
	out.Categories = cloneSlice(s.Categories)
	out.PaymentMethods = cloneSlice(s.PaymentMethods)
	out.Invoices = cloneSlice(s.Invoices)
	for i := range out.Invoices {
		out.Invoices[i].Items = cloneSlice(out.Invoices[i].Items)
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

// Product looks up a product by id.
func (s State) Product(id ID) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Client looks up a client by id.
func (s State) Client(id ID) (Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

// Invoice looks up an invoice by id.
func (s State) Invoice(id ID) (Invoice, bool) {
	for _, inv := range s.Invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return Invoice{}, false
}

// HasCategory reports whether name is a configured category.
func (s State) HasCategory(name string) bool {
	for _, c := range s.Categories {
		if c == name {
			return true
		}
	}
	return false
}
