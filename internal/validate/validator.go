package validate

import (
	"fmt"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

// ValidationResult contains all validation errors found in a statement
type ValidationResult struct {
	Errors []ValidationError
}

// ValidationError represents one violated constraint
type ValidationError struct {
	Entity  string // "transaction" or "balance"
	Index   int
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s[%d].%s: %s", e.Entity, e.Index, e.Field, e.Message)
}

// HasErrors reports whether any constraint was violated
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ValidateStatement checks every record of a parsed statement against the
// persistence constraints: anchored dates, non-negative stored amounts,
// known transaction types, and well-formed fingerprints.
func ValidateStatement(s *domain.ParsedBankStatement) *ValidationResult {
	result := &ValidationResult{Errors: []ValidationError{}}

	for i := range s.Transactions {
		txn := &s.Transactions[i]

		if txn.Date.IsZero() {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				Index:   i,
				Field:   "Date",
				Message: "date cannot be zero",
			})
		}
		if txn.AmountCents < 0 {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				Index:   i,
				Field:   "AmountCents",
				Value:   fmt.Sprintf("%d", txn.AmountCents),
				Message: "stored amount must be non-negative (sign lives in the type)",
			})
		}
		if !domain.ValidateTransactionType(txn.Type) {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				Index:   i,
				Field:   "Type",
				Value:   string(txn.Type),
				Message: fmt.Sprintf("invalid transaction type: %s (must be income or expense)", txn.Type),
			})
		}
		if !domain.ValidateImportHash(txn.ImportHash) {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				Index:   i,
				Field:   "ImportHash",
				Value:   txn.ImportHash,
				Message: "import hash must be 16 lowercase hex characters",
			})
		}
	}

	for i := range s.Balances {
		bal := &s.Balances[i]

		if bal.Date.IsZero() {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "balance",
				Index:   i,
				Field:   "Date",
				Message: "date cannot be zero",
			})
		}
		if !domain.ValidateImportHash(bal.ImportHash) {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "balance",
				Index:   i,
				Field:   "ImportHash",
				Value:   bal.ImportHash,
				Message: "import hash must be 16 lowercase hex characters",
			})
		}
	}

	return result
}

// Statement is the error-returning form of ValidateStatement, for callers
// that only need go/no-go
func Statement(s *domain.ParsedBankStatement) error {
	result := ValidateStatement(s)
	if !result.HasErrors() {
		return nil
	}
	return fmt.Errorf("statement has %d validation errors, first: %w", len(result.Errors), result.Errors[0])
}
