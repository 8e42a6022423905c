package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/odyssey-erp/boutique/internal/backup"
)

// Backups is the part of the backup service used from the command line.
type Backups interface {
	Export(w io.Writer) (backup.Document, error)
	Import(ctx context.Context, r io.Reader) (backup.Document, error)
}

// BackupCLI exports and imports backup files.
type BackupCLI struct {
	service Backups
}

// NewBackupCLI wraps the backup service.
func NewBackupCLI(service Backups) *BackupCLI {
	return &BackupCLI{service: service}
}

// ExportCommand writes a backup. An empty path or "-" writes to stdout; a
// directory receives a file named after the backup timestamp.
func (c *BackupCLI) ExportCommand(path string, stdout, stderr io.Writer) int {
	if path == "" || path == "-" {
		if _, err := c.service.Export(stdout); err != nil {
			_, _ = fmt.Fprintf(stderr, "backup export: %v\n", err)
			return 1
		}
		return 0
	}
	var buf bytes.Buffer
	doc, err := c.service.Export(&buf)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "backup export: %v\n", err)
		return 1
	}
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, backup.Filename(doc))
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		_, _ = fmt.Fprintf(stderr, "backup export: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "exported %d products, %d clients, %d invoices to %s\n",
		doc.Metadata.TotalProducts, doc.Metadata.TotalClients, doc.Metadata.TotalInvoices, path)
	return 0
}

// ImportCommand restores the backup read from path ("-" reads stdin).
func (c *BackupCLI) ImportCommand(ctx context.Context, path string, stdin io.Reader, stdout, stderr io.Writer) int {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "backup import: %v\n", err)
			return 1
		}
		defer f.Close()
		r = f
	}
	doc, err := c.service.Import(ctx, r)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "backup import: %v\n", err)
		if errors.Is(err, backup.ErrInvalidBackup) {
			return 2
		}
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "restored backup of %s: %d products, %d clients, %d invoices\n",
		doc.Timestamp.Format("2006-01-02 15:04"), len(doc.Data.Products), len(doc.Data.Clients), len(doc.Data.Invoices))
	return 0
}
