// Package csv provides heuristic CSV statement parsing. There is no fixed
// schema: column meaning is inferred from the header, locale conventions
// from the values, and rows that are not transactions (running-balance
// lines) are classified out.
package csv

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rumor-ml/commons.systems/bankimport/internal/dedup"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/locale"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parser"
)

// Parser implements CSV statement parsing with a stateless design.
// Each method operates solely on the input data provided, making the parser
// safe for concurrent use without locking.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared CSV parser instance.
// Safe for concurrent use due to stateless design.
func NewParser() *Parser {
	return parserInstance
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "csv"
}

// CanParse checks if this parser can handle the file based on extension
func (p *Parser) CanParse(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv"
}

var (
	// balanceRow matches the letter-spaced "S A L D O" marker some banks
	// use for balance snapshot lines, after normalization
	balanceRow = regexp.MustCompile(`^s\s*a\s*l\s*d\s*o$`)

	// skipPrefixes mark rows that are neither transactions nor balances:
	// the opening-balance line and the daily closing-balance header line
	skipPrefixes = []string{"saldo anterior", "saldo do dia"}
)

// Parse extracts a normalized statement from CSV text.
//
// A file whose header yields no date or description column does not
// resemble a bank statement; it produces an empty statement and nil error.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParsedBankStatement, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV content: %w", err)
	}

	stmt := domain.NewParsedBankStatement()

	lines := SplitLines(string(content))
	if len(lines) < 2 {
		return stmt, nil
	}

	delimiter := DetectDelimiter(lines[0])
	cols := classifyHeader(SplitFields(lines[0], delimiter))
	if !cols.usable() {
		return stmt, nil
	}

	for _, line := range lines[1:] {
		fields := SplitFields(line, delimiter)
		p.classifyRow(fields, cols, stmt)
	}

	return stmt, nil
}

// classifyRow decides whether the row is a transaction, a balance snapshot,
// or noise, and appends the record to the statement. Rows that cannot be
// classified are dropped silently.
func (p *Parser) classifyRow(fields []string, cols columns, stmt *domain.ParsedBankStatement) {
	at := func(i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	date, ok := locale.ParseDate(at(cols.date))
	if !ok {
		return
	}
	dateISO := date.Format("2006-01-02")

	description := at(cols.description)
	normalized := locale.Normalize(description)

	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return
		}
	}

	if balanceRow.MatchString(normalized) {
		balanceField := at(cols.amount)
		if cols.amount < 0 {
			balanceField = at(cols.credit)
		}
		balanceCents := locale.ParseAmountCents(balanceField)
		stmt.Balances = append(stmt.Balances, domain.ParsedBalance{
			Date:         date,
			BalanceCents: balanceCents,
			ImportHash:   dedup.BalanceFingerprint(dateISO, balanceCents),
		})
		return
	}

	var signedCents int64
	if cols.amount >= 0 {
		signedCents = locale.ParseAmountCents(at(cols.amount))
	} else {
		signedCents = locale.ParseAmountCents(at(cols.credit)) - locale.ParseAmountCents(at(cols.debit))
	}

	if signedCents == 0 && description == "" {
		return
	}

	amountCents := signedCents
	if amountCents < 0 {
		amountCents = -amountCents
	}

	stmt.Transactions = append(stmt.Transactions, domain.ParsedTransaction{
		Date:        date,
		Description: description,
		Details:     at(cols.details),
		DocumentID:  at(cols.document),
		AmountCents: amountCents,
		Type:        resolveType(at(cols.typeLabel), signedCents),
		ImportHash:  dedup.Fingerprint(dateISO, description, amountCents),
	})
}

// resolveType prefers an explicit type-label column over the amount sign.
// Unrecognized labels fall back to the sign.
func resolveType(label string, signedCents int64) domain.TransactionType {
	normalized := locale.Normalize(label)
	switch {
	case hasAnyPrefix(normalized, "entrada", "credito", "credit"):
		return domain.TypeIncome
	case hasAnyPrefix(normalized, "saida", "debito", "debit"):
		return domain.TypeExpense
	}

	if signedCents < 0 {
		return domain.TypeExpense
	}
	return domain.TypeIncome
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	if s == "" {
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
