// Package reconcile filters freshly parsed records against previously
// stored fingerprints and persists only the new ones.
package reconcile

import (
	"context"
	"fmt"
)

// Store is the persistence collaborator for one record collection.
//
// ExistingFingerprints receives at most the configured existence-check
// chunk size per call; PersistBatch receives at most the configured write
// batch size and persists it as one atomic unit. Batches are not atomic
// with respect to each other: a failure between batches leaves a partial
// import, which is safe because re-running the import is idempotent.
type Store[T any] interface {
	ExistingFingerprints(ctx context.Context, fingerprints []string) ([]string, error)
	PersistBatch(ctx context.Context, records []T) error
}

// Options bound the store interactions. The limits are properties of the
// external store's API, not of this package; they arrive from config.
type Options struct {
	ExistsChunkSize int
	WriteBatchSize  int
}

// Result reports how an import run went
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Reconciler deduplicates and persists one kind of parsed record
type Reconciler[T any] struct {
	store       Store[T]
	fingerprint func(T) string
	opts        Options
}

// New creates a reconciler for a record kind. fingerprint must return the
// record's import hash.
func New[T any](store Store[T], fingerprint func(T) string, opts Options) (*Reconciler[T], error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if fingerprint == nil {
		return nil, fmt.Errorf("fingerprint function cannot be nil")
	}
	if opts.ExistsChunkSize <= 0 {
		return nil, fmt.Errorf("exists chunk size must be positive, got %d", opts.ExistsChunkSize)
	}
	if opts.WriteBatchSize <= 0 {
		return nil, fmt.Errorf("write batch size must be positive, got %d", opts.WriteBatchSize)
	}
	return &Reconciler[T]{store: store, fingerprint: fingerprint, opts: opts}, nil
}

// Reconcile computes the set of not-yet-stored records and persists them.
//
// The full candidate set is checked before any write begins, so duplicates
// within the same file are collapsed too: two identical rows share a
// fingerprint and only the first survives. Source order is preserved.
func (r *Reconciler[T]) Reconcile(ctx context.Context, records []T) (Result, error) {
	total := len(records)
	if total == 0 {
		return Result{}, nil
	}

	candidates := r.uniqueFingerprints(records)

	existing := make(map[string]struct{})
	for _, chunk := range chunkStrings(candidates, r.opts.ExistsChunkSize) {
		found, err := r.store.ExistingFingerprints(ctx, chunk)
		if err != nil {
			return Result{}, fmt.Errorf("existence check failed: %w", err)
		}
		for _, fp := range found {
			existing[fp] = struct{}{}
		}
	}

	var toImport []T
	taken := make(map[string]struct{})
	for _, record := range records {
		fp := r.fingerprint(record)
		if _, seen := existing[fp]; seen {
			continue
		}
		if _, seen := taken[fp]; seen {
			continue
		}
		taken[fp] = struct{}{}
		toImport = append(toImport, record)
	}

	written := 0
	for _, batch := range chunkRecords(toImport, r.opts.WriteBatchSize) {
		if err := r.store.PersistBatch(ctx, batch); err != nil {
			// Earlier batches are already committed; the re-run will skip
			// them by fingerprint.
			return Result{Imported: written}, fmt.Errorf("persist batch failed: %w", err)
		}
		written += len(batch)
	}

	return Result{Imported: written, Skipped: total - written}, nil
}

// uniqueFingerprints returns the candidate fingerprints in first-seen order
func (r *Reconciler[T]) uniqueFingerprints(records []T) []string {
	seen := make(map[string]struct{}, len(records))
	candidates := make([]string, 0, len(records))
	for _, record := range records {
		fp := r.fingerprint(record)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		candidates = append(candidates, fp)
	}
	return candidates
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func chunkRecords[T any](items []T, size int) [][]T {
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
