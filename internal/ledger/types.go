// Package ledger keeps an audit trail of every submission made to the
// knowledge-base backend.
package ledger

import (
	"context"
	"time"
)

// Operation is the kind of backend call a submission made.
type Operation string

const (
	OperationUpsert   Operation = "upsert"
	OperationDelete   Operation = "delete"
	OperationGeneType Operation = "gene_type"
)

// Status is the outcome of a submission.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusUnchanged Status = "unchanged" // every record matched its fingerprint
	StatusNoop      Status = "noop"      // the edit has no evidence
)

// Entry is one recorded submission.
type Entry struct {
	ID          int64     `json:"id,omitempty"`
	BatchID     string    `json:"batch_id"`
	HugoSymbol  string    `json:"hugo_symbol"`
	Path        string    `json:"path,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	Operation   Operation `json:"operation"`
	EvidenceIDs []string  `json:"evidence_ids"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store defines the interface for ledger storage operations.
type Store interface {
	// Record appends an entry and sets its ID and CreatedAt.
	Record(ctx context.Context, entry *Entry) error

	// Batch returns every entry of a batch in insertion order.
	Batch(ctx context.Context, batchID string) ([]*Entry, error)

	// List returns the newest entries first. An empty hugoSymbol lists
	// every gene.
	List(ctx context.Context, hugoSymbol string, limit, offset int) ([]*Entry, error)

	// Count returns the total number of entries.
	Count(ctx context.Context) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

const selectColumns = `id, batch_id, hugo_symbol, path, kind, operation, evidence_ids, status, error, created_at`
