package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// TransactionType represents the direction of a parsed movement.
// The pipeline never infers transfers; those are created manually downstream.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

var validTransactionTypes = map[TransactionType]struct{}{
	TypeIncome:  {},
	TypeExpense: {},
}

// ValidateTransactionType checks if the transaction type is valid
func ValidateTransactionType(t TransactionType) bool {
	_, ok := validTransactionTypes[t]
	return ok
}

// importHashPattern matches the persisted fingerprint format: 16 lowercase hex chars
var importHashPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// ValidateImportHash checks if the string is a well-formed fingerprint
func ValidateImportHash(hash string) bool {
	return importHashPattern.MatchString(hash)
}

// ParsedTransaction is a single movement extracted from a statement file.
//
// Sign convention: AmountCents is always the absolute value of the movement
// in minor currency units; direction lives entirely in Type. Parsers must
// normalize to this convention regardless of source file representation.
type ParsedTransaction struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Details     string          `json:"details,omitempty"`
	DocumentID  string          `json:"documentId,omitempty"`
	AmountCents int64           `json:"amountCents"`
	Type        TransactionType `json:"type"`
	ImportHash  string          `json:"importHash"`
	// Category is an optional suggestion from the rules engine. It never
	// participates in the import fingerprint.
	Category string `json:"category,omitempty"`
}

// ParsedBalance is a bank-reported running balance on a given day,
// not a transaction. BalanceCents keeps its sign.
type ParsedBalance struct {
	Date         time.Time `json:"date"`
	BalanceCents int64     `json:"balanceCents"`
	ImportHash   string    `json:"importHash"`
}

// ParsedBankStatement holds everything extracted from one source file.
// Order within each slice follows source-file row order.
type ParsedBankStatement struct {
	Transactions []ParsedTransaction `json:"transactions"`
	Balances     []ParsedBalance     `json:"balances"`
}

// NewParsedBankStatement creates an empty statement with initialized slices
func NewParsedBankStatement() *ParsedBankStatement {
	return &ParsedBankStatement{
		Transactions: []ParsedTransaction{},
		Balances:     []ParsedBalance{},
	}
}

// IsEmpty reports whether the statement contains no records at all.
// An empty statement is the non-fatal "unrecognized format" outcome:
// callers present it as "no transactions found", not as a parse failure.
func (s *ParsedBankStatement) IsEmpty() bool {
	return len(s.Transactions) == 0 && len(s.Balances) == 0
}

// NewParsedTransaction creates a validated transaction
func NewParsedTransaction(date time.Time, description string, amountCents int64, txnType TransactionType, importHash string) (*ParsedTransaction, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("transaction date cannot be zero")
	}
	if amountCents < 0 {
		return nil, fmt.Errorf("amount cents must be non-negative, got %d", amountCents)
	}
	if !ValidateTransactionType(txnType) {
		return nil, fmt.Errorf("invalid transaction type: %s", txnType)
	}
	if !ValidateImportHash(importHash) {
		return nil, fmt.Errorf("invalid import hash: %q", importHash)
	}

	return &ParsedTransaction{
		Date:        date,
		Description: description,
		AmountCents: amountCents,
		Type:        txnType,
		ImportHash:  importHash,
	}, nil
}

// NewParsedBalance creates a validated balance snapshot
func NewParsedBalance(date time.Time, balanceCents int64, importHash string) (*ParsedBalance, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("balance date cannot be zero")
	}
	if !ValidateImportHash(importHash) {
		return nil, fmt.Errorf("invalid import hash: %q", importHash)
	}

	return &ParsedBalance{
		Date:         date,
		BalanceCents: balanceCents,
		ImportHash:   importHash,
	}, nil
}

// DateISO returns the transaction date formatted as YYYY-MM-DD
func (t *ParsedTransaction) DateISO() string {
	return t.Date.Format("2006-01-02")
}

// DateISO returns the balance date formatted as YYYY-MM-DD
func (b *ParsedBalance) DateISO() string {
	return b.Date.Format("2006-01-02")
}

// SignedAmountCents returns the movement with its sign restored from Type
func (t *ParsedTransaction) SignedAmountCents() int64 {
	if t.Type == TypeExpense {
		return -t.AmountCents
	}
	return t.AmountCents
}

// MarshalJSON formats dates as date-only strings to match the stored schema
func (t *ParsedTransaction) MarshalJSON() ([]byte, error) {
	type Alias ParsedTransaction
	return json.Marshal(&struct {
		*Alias
		Date string `json:"date"`
	}{
		Alias: (*Alias)(t),
		Date:  t.DateISO(),
	})
}

// MarshalJSON formats dates as date-only strings to match the stored schema
func (b *ParsedBalance) MarshalJSON() ([]byte, error) {
	type Alias ParsedBalance
	return json.Marshal(&struct {
		*Alias
		Date string `json:"date"`
	}{
		Alias: (*Alias)(b),
		Date:  b.DateISO(),
	})
}
