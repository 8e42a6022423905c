// Package backup creates, validates and restores full data backups, and
// keeps rolling auto-saves in storage.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/odyssey-erp/boutique/internal/shared"
	"github.com/odyssey-erp/boutique/internal/store"
)

const (
	// Version is written into every backup document.
	Version = "1.0.0"
	// AppName identifies documents produced by this application.
	AppName = "Al Madinah Boutique"
)

// ErrInvalidBackup is returned when a document fails validation.
var ErrInvalidBackup = fmt.Errorf("backup: invalid document: %w", shared.ErrValidation)

// Data is the business data carried by a backup.
type Data struct {
	Products   []store.Product `json:"products"`
	Clients    []store.Client  `json:"clients"`
	Invoices   []store.Invoice `json:"invoices"`
	Settings   store.Settings  `json:"settings"`
	Categories []string        `json:"categories"`
}

// Metadata summarises a backup.
type Metadata struct {
	TotalProducts int `json:"totalProducts"`
	TotalClients  int `json:"totalClients"`
	TotalInvoices int `json:"totalInvoices"`
	BackupSize    int `json:"backupSize"`
}

// Document is the exported backup format.
type Document struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	AppName   string    `json:"appName"`
	Data      Data      `json:"data"`
	Metadata  Metadata  `json:"metadata"`
}

// NewDocument snapshots state into a backup document. Gateway credentials
// are never written into backups.
func NewDocument(state store.State, now time.Time) Document {
	settings := state.Settings
	settings.PaymentSettings.MasterKey = ""
	settings.PaymentSettings.PrivateKey = ""
	settings.PaymentSettings.PublicKey = ""
	settings.PaymentSettings.Token = ""

	data := Data{
		Products:   nonNil(state.Products),
		Clients:    nonNil(state.Clients),
		Invoices:   nonNil(state.Invoices),
		Settings:   settings,
		Categories: nonNil(state.Categories),
	}
	size := 0
	if raw, err := json.Marshal(data); err == nil {
		size = len(raw)
	}
	return Document{
		Version:   Version,
		Timestamp: now.UTC(),
		AppName:   AppName,
		Data:      data,
		Metadata: Metadata{
			TotalProducts: len(data.Products),
			TotalClients:  len(data.Clients),
			TotalInvoices: len(data.Invoices),
			BackupSize:    size,
		},
	}
}

// Validate checks the document shape and decodes it. Settings missing from
// the document keep their default values.
func Validate(raw []byte) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return Document{}, fmt.Errorf("%w: not a JSON object", ErrInvalidBackup)
	}
	if !nonEmptyString(top["version"]) || !nonEmptyString(top["timestamp"]) || !isKind(top["data"], '{') {
		return Document{}, fmt.Errorf("%w: incomplete backup", ErrInvalidBackup)
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(top["data"], &data); err != nil {
		return Document{}, fmt.Errorf("%w: incomplete backup", ErrInvalidBackup)
	}
	for _, name := range []string{"products", "clients", "invoices"} {
		if !isKind(data[name], '[') {
			return Document{}, fmt.Errorf("%w: %s must be an array", ErrInvalidBackup, name)
		}
	}

	doc := Document{Data: Data{Settings: store.DefaultSettings()}}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return doc, nil
}

func nonEmptyString(raw json.RawMessage) bool {
	var s string
	return json.Unmarshal(raw, &s) == nil && s != ""
}

func isKind(raw json.RawMessage, open byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == open
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
