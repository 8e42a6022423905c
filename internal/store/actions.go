package store

import "encoding/json"

// Action is a named state transition. The set of implementations is closed:
// the reducer rejects anything it does not know.
type Action interface {
	Type() string
}

// Action type names.
const (
	ActionAddProduct    = "ADD_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"
	ActionUpdateStock   = "UPDATE_STOCK"
	ActionAddClient     = "ADD_CLIENT"
	ActionUpdateClient  = "UPDATE_CLIENT"
	ActionDeleteClient  = "DELETE_CLIENT"
	ActionAddInvoice    = "ADD_INVOICE"
	ActionUpdateInvoice = "UPDATE_INVOICE"
	ActionDeleteInvoice = "DELETE_INVOICE"
	ActionRecordSale    = "RECORD_SALE"
	ActionUpdateSetting = "UPDATE_SETTINGS"
	ActionReplaceData   = "REPLACE_DATA"
	ActionToggleSidebar = "TOGGLE_SIDEBAR"
	ActionSetTheme      = "SET_THEME"
	ActionSetLanguage   = "SET_LANGUAGE"
)

// AddProduct appends a product, assigning an id when absent.
type AddProduct struct{ Product Product }

// UpdateProduct replaces the product with the same id.
type UpdateProduct struct{ Product Product }

// DeleteProduct removes a product. Historical invoice lines are untouched.
type DeleteProduct struct{ ID ID }

// UpdateStock sets an absolute stock value.
type UpdateStock struct {
	ID    ID
	Stock int
}

// AddClient appends a client, assigning an id when absent.
type AddClient struct{ Client Client }

// UpdateClient replaces the client with the same id.
type UpdateClient struct{ Client Client }

// DeleteClient removes a client. Invoice snapshots are untouched.
type DeleteClient struct{ ID ID }

// AddInvoice appends an invoice as-is, assigning an id when absent.
type AddInvoice struct{ Invoice Invoice }

// UpdateInvoice replaces the invoice with the same id.
type UpdateInvoice struct{ Invoice Invoice }

// DeleteInvoice removes an invoice.
type DeleteInvoice struct{ ID ID }

// RecordSale appends an invoice, numbers it from the settings counter,
// decrements stock for every line and updates the client purchase aggregate.
// It is all-or-nothing: a line exceeding stock rejects the whole sale.
type RecordSale struct{ Invoice Invoice }

// UpdateSettings deep-merges a JSON object into the current settings.
type UpdateSettings struct{ Patch json.RawMessage }

// ReplaceData swaps the persisted slices, used by backup restore. Nil fields
// keep the current value.
type ReplaceData struct {
	Products   []Product
	Clients    []Client
	Invoices   []Invoice
	Categories []string
	Settings   *Settings
}

// ToggleSidebar flips the sidebar collapsed flag.
type ToggleSidebar struct{}

// SetTheme selects the UI theme.
type SetTheme struct{ Theme string }

// SetLanguage selects the UI language.
type SetLanguage struct{ Language string }

func (AddProduct) Type() string     { return ActionAddProduct }
func (UpdateProduct) Type() string  { return ActionUpdateProduct }
func (DeleteProduct) Type() string  { return ActionDeleteProduct }
func (UpdateStock) Type() string    { return ActionUpdateStock }
func (AddClient) Type() string      { return ActionAddClient }
func (UpdateClient) Type() string   { return ActionUpdateClient }
func (DeleteClient) Type() string   { return ActionDeleteClient }
func (AddInvoice) Type() string     { return ActionAddInvoice }
func (UpdateInvoice) Type() string  { return ActionUpdateInvoice }
func (DeleteInvoice) Type() string  { return ActionDeleteInvoice }
func (RecordSale) Type() string     { return ActionRecordSale }
func (UpdateSettings) Type() string { return ActionUpdateSetting }
func (ReplaceData) Type() string    { return ActionReplaceData }
func (ToggleSidebar) Type() string  { return ActionToggleSidebar }
func (SetTheme) Type() string       { return ActionSetTheme }
func (SetLanguage) Type() string    { return ActionSetLanguage }

// uiOnly reports whether an action only touches the UI preference slice.
func uiOnly(a Action) bool {
	switch a.(type) {
	case ToggleSidebar, SetTheme, SetLanguage, *ToggleSidebar, *SetTheme, *SetLanguage:
		return true
	}
	return false
}
