package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rumor-ml/commons.systems/bankimport/internal/config"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/firestore"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parser"
	"github.com/rumor-ml/commons.systems/bankimport/internal/reconcile"
	"github.com/rumor-ml/commons.systems/bankimport/internal/registry"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
	"github.com/rumor-ml/commons.systems/bankimport/internal/validate"
)

// headerPeekSize is how much of the file feeds format detection
const headerPeekSize = 512

// ImportResult summarizes one statement import
type ImportResult struct {
	FileName         string `json:"fileName"`
	Imported         int    `json:"imported"`
	Skipped          int    `json:"skipped"`
	BalancesImported int    `json:"balancesImported"`
	BalancesSkipped  int    `json:"balancesSkipped"`
}

// Pipeline orchestrates parsing statement files and reconciling them
// against the store
type Pipeline struct {
	fsClient *firestore.Client
	registry *registry.Registry
	rules    *rules.Engine
	limits   config.Limits

	// accountLocks serializes imports per account so two concurrent
	// uploads of the same statement cannot both pass the existence check
	mu           sync.Mutex
	accountLocks map[string]*sync.Mutex
}

// NewPipeline creates a new import pipeline. A nil rules engine disables
// category suggestions.
func NewPipeline(fsClient *firestore.Client, reg *registry.Registry, engine *rules.Engine, limits config.Limits) *Pipeline {
	return &Pipeline{
		fsClient:     fsClient,
		registry:     reg,
		rules:        engine,
		limits:       limits,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// lockAccount returns the account's mutex, locked. Entries are never
// evicted: the map holds one mutex per account seen, for the life of the
// process.
func (p *Pipeline) lockAccount(accountID string) *sync.Mutex {
	p.mu.Lock()
	lock, ok := p.accountLocks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		p.accountLocks[accountID] = lock
	}
	p.mu.Unlock()
	lock.Lock()
	return lock
}

// ParseFile parses a statement file from disk without touching the store
func (p *Pipeline) ParseFile(ctx context.Context, filePath, accountID string) (*domain.ParsedBankStatement, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseContent(ctx, filePath, data, accountID)
}

// ParseContent parses statement content already in memory, as uploads are
func (p *Pipeline) ParseContent(ctx context.Context, fileName string, content []byte, accountID string) (*domain.ParsedBankStatement, error) {
	header := content
	if len(header) > headerPeekSize {
		header = header[:headerPeekSize]
	}
	selected := p.registry.FindParserForContent(fileName, header)

	meta, err := parser.NewMetadata(fileName, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata: %w", err)
	}
	meta.SetAccountID(accountID)

	statement, err := selected.Parse(ctx, bytes.NewReader(content), meta)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}

	if err := validate.Statement(statement); err != nil {
		return nil, fmt.Errorf("parsed statement is invalid: %w", err)
	}

	p.categorize(statement)
	return statement, nil
}

// categorize fills in category suggestions from the rules engine
func (p *Pipeline) categorize(statement *domain.ParsedBankStatement) {
	if p.rules == nil {
		return
	}
	for i := range statement.Transactions {
		if result, ok := p.rules.Match(statement.Transactions[i].Description); ok {
			statement.Transactions[i].Category = result.Category
		}
	}
}

// ImportStatement reconciles a parsed statement into the account's
// collections. Imports for the same account run one at a time.
func (p *Pipeline) ImportStatement(ctx context.Context, userID, accountID string, statement *domain.ParsedBankStatement) (*ImportResult, error) {
	lock := p.lockAccount(accountID)
	defer lock.Unlock()

	opts := reconcile.Options{
		ExistsChunkSize: p.limits.ExistsChunkSize,
		WriteBatchSize:  p.limits.WriteBatchSize,
	}

	txnReconciler, err := reconcile.New(
		p.fsClient.TransactionStore(userID, accountID),
		func(t domain.ParsedTransaction) string { return t.ImportHash },
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction reconciler: %w", err)
	}

	balReconciler, err := reconcile.New(
		p.fsClient.BalanceStore(userID, accountID),
		func(b domain.ParsedBalance) string { return b.ImportHash },
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build balance reconciler: %w", err)
	}

	result := &ImportResult{}

	txnResult, err := txnReconciler.Reconcile(ctx, statement.Transactions)
	result.Imported = txnResult.Imported
	result.Skipped = txnResult.Skipped
	if err != nil {
		return result, fmt.Errorf("failed to reconcile transactions: %w", err)
	}

	balResult, err := balReconciler.Reconcile(ctx, statement.Balances)
	result.BalancesImported = balResult.Imported
	result.BalancesSkipped = balResult.Skipped
	if err != nil {
		return result, fmt.Errorf("failed to reconcile balances: %w", err)
	}

	return result, nil
}

// ImportFile parses a file from disk and reconciles it in one step
func (p *Pipeline) ImportFile(ctx context.Context, userID, accountID, filePath string) (*ImportResult, error) {
	statement, err := p.ParseFile(ctx, filePath, accountID)
	if err != nil {
		return nil, err
	}

	result, err := p.ImportStatement(ctx, userID, accountID, statement)
	if err != nil {
		return result, err
	}
	result.FileName = filepath.Base(filePath)
	return result, nil
}

// ImportFiles imports multiple statement files sequentially. Files that
// fail keep the run going; their errors are logged and counted.
func (p *Pipeline) ImportFiles(ctx context.Context, userID, accountID string, filePaths []string) ([]*ImportResult, int) {
	results := make([]*ImportResult, 0, len(filePaths))
	failed := 0

	for _, filePath := range filePaths {
		select {
		case <-ctx.Done():
			return results, failed
		default:
		}

		result, err := p.ImportFile(ctx, userID, accountID, filePath)
		if err != nil {
			log.Printf("ERROR: Failed to import %s: %v", filepath.Base(filePath), err)
			failed++
			continue
		}
		results = append(results, result)
	}

	return results, failed
}
