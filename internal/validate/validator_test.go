package validate

import (
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

func midday(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func validStatement() *domain.ParsedBankStatement {
	return &domain.ParsedBankStatement{
		Transactions: []domain.ParsedTransaction{
			{
				Date:        midday(2024, 3, 1),
				Description: "Supermercado",
				AmountCents: 15000,
				Type:        domain.TypeExpense,
				ImportHash:  "f476a7c13ef2f9fa",
			},
		},
		Balances: []domain.ParsedBalance{
			{
				Date:         midday(2024, 3, 1),
				BalanceCents: -5000,
				ImportHash:   "f9440e931de404ec",
			},
		},
	}
}

func TestValidateStatementClean(t *testing.T) {
	result := ValidateStatement(validStatement())
	if result.HasErrors() {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
	if err := Statement(validStatement()); err != nil {
		t.Errorf("Statement returned error: %v", err)
	}
}

func TestValidateStatementEmpty(t *testing.T) {
	if err := Statement(domain.NewParsedBankStatement()); err != nil {
		t.Errorf("empty statement should be valid, got %v", err)
	}
}

func TestValidateStatementErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ParsedBankStatement)
		entity string
		field  string
	}{
		{
			name:   "zero transaction date",
			mutate: func(s *domain.ParsedBankStatement) { s.Transactions[0].Date = time.Time{} },
			entity: "transaction",
			field:  "Date",
		},
		{
			name:   "negative amount",
			mutate: func(s *domain.ParsedBankStatement) { s.Transactions[0].AmountCents = -100 },
			entity: "transaction",
			field:  "AmountCents",
		},
		{
			name:   "unknown type",
			mutate: func(s *domain.ParsedBankStatement) { s.Transactions[0].Type = "transfer" },
			entity: "transaction",
			field:  "Type",
		},
		{
			name:   "malformed transaction hash",
			mutate: func(s *domain.ParsedBankStatement) { s.Transactions[0].ImportHash = "XYZ" },
			entity: "transaction",
			field:  "ImportHash",
		},
		{
			name:   "zero balance date",
			mutate: func(s *domain.ParsedBankStatement) { s.Balances[0].Date = time.Time{} },
			entity: "balance",
			field:  "Date",
		},
		{
			name:   "uppercase balance hash",
			mutate: func(s *domain.ParsedBankStatement) { s.Balances[0].ImportHash = "F9440E931DE404EC" },
			entity: "balance",
			field:  "ImportHash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validStatement()
			tt.mutate(s)

			result := ValidateStatement(s)
			if !result.HasErrors() {
				t.Fatal("expected validation errors")
			}
			first := result.Errors[0]
			if first.Entity != tt.entity || first.Field != tt.field {
				t.Errorf("got %s.%s, want %s.%s", first.Entity, first.Field, tt.entity, tt.field)
			}

			if err := Statement(s); err == nil {
				t.Error("Statement should return error")
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	s := validStatement()
	s.Transactions[0].Type = "weird"

	err := Statement(s)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got == "" {
		t.Error("error message is empty")
	}
}
